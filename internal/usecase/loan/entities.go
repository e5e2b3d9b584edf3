package loan

import (
	"time"

	"github.com/shopspring/decimal"

	domain "p2p-lending/internal/domain/loan"
)

type CreateLoanInput struct {
	BorrowerID  string          `json:"borrower_id"`
	Amount      decimal.Decimal `json:"amount"`
	MonthlyRate decimal.Decimal `json:"monthly_rate"`
	TermMonths  int             `json:"term_months"`
	Purpose     string          `json:"purpose"`
}

type LoanDTO struct {
	LoanID          string          `json:"loan_id"`
	BorrowerID      string          `json:"borrower_id"`
	Amount          decimal.Decimal `json:"amount"`
	MonthlyRate     decimal.Decimal `json:"monthly_rate"`
	TermMonths      int             `json:"term_months"`
	Purpose         string          `json:"purpose"`
	Status          string          `json:"status"`
	FundedAmount    decimal.Decimal `json:"funded_amount"`
	Remaining       decimal.Decimal `json:"remaining"`
	FundingProgress int             `json:"funding_progress"`
	Investments     []string        `json:"investments"`
	ActivatedAt     *time.Time      `json:"activated_at,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

type InstallmentDTO struct {
	Sequence int             `json:"sequence"`
	DueDate  time.Time       `json:"due_date"`
	Amount   decimal.Decimal `json:"amount"`
	Status   string          `json:"status"`
	PaidAt   *time.Time      `json:"paid_at,omitempty"`
}

type ScheduleDTO struct {
	LoanID         string           `json:"loan_id"`
	TotalRepayment decimal.Decimal  `json:"total_repayment"`
	Installments   []InstallmentDTO `json:"installments"`
}

func toDTO(l *domain.Loan, investmentIDs []string) *LoanDTO {
	if investmentIDs == nil {
		investmentIDs = []string{}
	}
	return &LoanDTO{
		LoanID:          l.LoanID,
		BorrowerID:      l.BorrowerID,
		Amount:          l.Amount,
		MonthlyRate:     l.MonthlyRate,
		TermMonths:      l.TermMonths,
		Purpose:         l.Purpose,
		Status:          string(l.Status),
		FundedAmount:    l.FundedAmount,
		Remaining:       l.Remaining(),
		FundingProgress: l.FundingProgress,
		Investments:     investmentIDs,
		ActivatedAt:     l.ActivatedAt,
		CreatedAt:       l.CreatedAt,
		UpdatedAt:       l.UpdatedAt,
	}
}
