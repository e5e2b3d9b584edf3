package mysql

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	profileDomain "p2p-lending/internal/domain/profile"
)

type ProfileRepository struct{ db *gorm.DB }

func NewProfileRepository(db *gorm.DB) *ProfileRepository { return &ProfileRepository{db: db} }

func (r *ProfileRepository) Upsert(ctx context.Context, p *profileDomain.InvestorProfile) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "investor_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"category", "total_score", "monthly_income", "net_worth", "investment_limit", "updated_at",
		}),
	}).Create(p).Error
}

func (r *ProfileRepository) GetByInvestorID(ctx context.Context, investorID string) (*profileDomain.InvestorProfile, error) {
	var out profileDomain.InvestorProfile
	if err := r.db.WithContext(ctx).Where("investor_id = ?", investorID).First(&out).Error; err != nil {
		return nil, notFound(err, "profile for investor %s not found", investorID)
	}
	return &out, nil
}
