package funding

import (
	"time"

	"github.com/shopspring/decimal"

	"p2p-lending/internal/domain/investment"
)

type InvestInput struct {
	LoanID     string          `json:"loan_id"`
	InvestorID string          `json:"investor_id"`
	Amount     decimal.Decimal `json:"amount"`
}

type ReturnDTO struct {
	Month          int             `json:"month"`
	ExpectedAmount decimal.Decimal `json:"expected_amount"`
	ReceivedAmount decimal.Decimal `json:"received_amount"`
	ReceivedAt     *time.Time      `json:"received_at,omitempty"`
	Status         string          `json:"status"`
}

type InvestmentDTO struct {
	InvestmentID    string          `json:"investment_id"`
	InvestorID      string          `json:"investor_id"`
	LoanID          string          `json:"loan_id"`
	Amount          decimal.Decimal `json:"amount"`
	ExpectedReturn  decimal.Decimal `json:"expected_return"`
	ActualReturn    decimal.Decimal `json:"actual_return"`
	Status          string          `json:"status"`
	Returns         []ReturnDTO     `json:"returns"`
	CreatedAt       time.Time       `json:"created_at"`
	LoanStatus      string          `json:"loan_status,omitempty"`
	FundingProgress *int            `json:"funding_progress,omitempty"`
}

func ToDTO(inv *investment.Investment) *InvestmentDTO {
	out := &InvestmentDTO{
		InvestmentID:   inv.InvestmentID,
		InvestorID:     inv.InvestorID,
		LoanID:         inv.LoanID,
		Amount:         inv.Amount,
		ExpectedReturn: inv.ExpectedReturn,
		ActualReturn:   inv.ActualReturn,
		Status:         string(inv.Status),
		Returns:        make([]ReturnDTO, 0, len(inv.Returns)),
		CreatedAt:      inv.CreatedAt,
	}
	for _, r := range inv.Returns {
		out.Returns = append(out.Returns, ReturnDTO{
			Month:          r.Month,
			ExpectedAmount: r.ExpectedAmount,
			ReceivedAmount: r.ReceivedAmount,
			ReceivedAt:     r.ReceivedAt,
			Status:         string(r.Status),
		})
	}
	return out
}
