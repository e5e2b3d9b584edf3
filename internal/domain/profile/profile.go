// Package profile stores the risk classification an investor last submitted.
package profile

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"p2p-lending/internal/domain/riskprofile"
)

type InvestorProfile struct {
	ID              uint64               `gorm:"primaryKey;column:id" json:"-"`
	InvestorID      string               `gorm:"size:32;uniqueIndex:ux_profiles_investor" json:"investor_id"`
	Category        riskprofile.Category `gorm:"size:16" json:"profile"`
	TotalScore      decimal.Decimal      `gorm:"type:decimal(10,4)" json:"total_score"`
	MonthlyIncome   decimal.Decimal      `gorm:"type:decimal(18,2)" json:"monthly_income"`
	NetWorth        decimal.Decimal      `gorm:"type:decimal(18,2)" json:"net_worth"`
	InvestmentLimit decimal.Decimal      `gorm:"type:decimal(18,2)" json:"investment_limit"`
	CreatedAt       time.Time            `json:"created_at"`
	UpdatedAt       time.Time            `json:"updated_at"`
}

func (InvestorProfile) TableName() string { return "investor_profiles" }

type Repository interface {
	// Upsert replaces any stored profile for p.InvestorID.
	Upsert(ctx context.Context, p *InvestorProfile) error
	GetByInvestorID(ctx context.Context, investorID string) (*InvestorProfile, error)
}
