package payment

import (
	"time"

	"github.com/shopspring/decimal"
)

type CreditDTO struct {
	InvestmentID string          `json:"investment_id"`
	Amount       decimal.Decimal `json:"amount"`
}

type PaymentDTO struct {
	LoanID     string          `json:"loan_id"`
	Sequence   int             `json:"sequence"`
	Amount     decimal.Decimal `json:"amount"`
	PaidAt     time.Time       `json:"paid_at"`
	LoanStatus string          `json:"loan_status"`
	Credits    []CreditDTO     `json:"credits"`
}

// SweepResult summarizes one overdue sweep.
type SweepResult struct {
	Overdue   int      `json:"overdue"`
	Defaulted []string `json:"defaulted"`
}
