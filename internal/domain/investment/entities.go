package investment

import (
	"time"

	"github.com/shopspring/decimal"

	"p2p-lending/internal/domain/amortization"
	"p2p-lending/internal/domain/errs"
)

type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusDefaulted Status = "defaulted"
)

type ReturnStatus string

const (
	ReturnPending  ReturnStatus = "pending"
	ReturnReceived ReturnStatus = "received"
)

type Investment struct {
	ID             uint64          `gorm:"primaryKey;column:id" json:"-"`
	InvestmentID   string          `gorm:"size:35;uniqueIndex:ux_investments_investment_id" json:"investment_id"`
	InvestorID     string          `gorm:"size:32;index:idx_investments_investor" json:"investor_id"`
	LoanID         string          `gorm:"size:35;index:idx_investments_loan" json:"loan_id"`
	Amount         decimal.Decimal `gorm:"type:decimal(18,2)" json:"amount"`
	ExpectedReturn decimal.Decimal `gorm:"type:decimal(18,2)" json:"expected_return"`
	ActualReturn   decimal.Decimal `gorm:"type:decimal(18,2)" json:"actual_return"`
	Status         Status          `gorm:"size:16" json:"status"`
	Returns        []ReturnRecord  `gorm:"foreignKey:InvestmentID;references:InvestmentID" json:"returns"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

func (Investment) TableName() string { return "investments" }

// ReturnRecord tracks what the investor should and did receive for one month.
type ReturnRecord struct {
	ID             uint64          `gorm:"primaryKey;column:id" json:"-"`
	InvestmentID   string          `gorm:"size:35;uniqueIndex:ux_returns_investment_month,priority:1" json:"-"`
	Month          int             `gorm:"uniqueIndex:ux_returns_investment_month,priority:2" json:"month"`
	ExpectedAmount decimal.Decimal `gorm:"type:decimal(18,2)" json:"expected_amount"`
	ReceivedAmount decimal.Decimal `gorm:"type:decimal(18,2)" json:"received_amount"`
	ReceivedAt     *time.Time      `json:"received_at,omitempty"`
	Status         ReturnStatus    `gorm:"size:16" json:"status"`
}

func (ReturnRecord) TableName() string { return "investment_returns" }

// New builds an active investment whose return plan is the amortization of
// amount at the loan's rate and term. expectedReturn is fixed here.
func New(investmentID, investorID, loanID string, amount, monthlyRate decimal.Decimal, termMonths int, now time.Time) (*Investment, error) {
	plan, err := amortization.Generate(amount, monthlyRate, termMonths, now)
	if err != nil {
		return nil, err
	}
	inv := &Investment{
		InvestmentID:   investmentID,
		InvestorID:     investorID,
		LoanID:         loanID,
		Amount:         amount,
		ExpectedReturn: amortization.Sum(plan),
		ActualReturn:   decimal.Zero,
		Status:         StatusActive,
		Returns:        make([]ReturnRecord, 0, len(plan)),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	for _, p := range plan {
		inv.Returns = append(inv.Returns, ReturnRecord{
			InvestmentID:   investmentID,
			Month:          p.Sequence,
			ExpectedAmount: p.Amount,
			ReceivedAmount: decimal.Zero,
			Status:         ReturnPending,
		})
	}
	return inv, nil
}

// ScheduledTotal is the sum of every monthly expected amount.
func (inv *Investment) ScheduledTotal() decimal.Decimal {
	total := decimal.Zero
	for _, r := range inv.Returns {
		total = total.Add(r.ExpectedAmount)
	}
	return total
}

// CreditMonth books the expected amount for month as received and returns the
// credited amount. actualReturn is never allowed past ScheduledTotal.
func (inv *Investment) CreditMonth(month int, now time.Time) (decimal.Decimal, error) {
	if inv.Status != StatusActive {
		return decimal.Zero, errs.State("investment %s is %s", inv.InvestmentID, inv.Status)
	}
	var rec *ReturnRecord
	for i := range inv.Returns {
		if inv.Returns[i].Month == month {
			rec = &inv.Returns[i]
			break
		}
	}
	if rec == nil {
		return decimal.Zero, errs.NotFound("investment %s has no return for month %d", inv.InvestmentID, month)
	}
	if rec.Status == ReturnReceived {
		return decimal.Zero, errs.State("investment %s already received month %d", inv.InvestmentID, month)
	}

	next := inv.ActualReturn.Add(rec.ExpectedAmount)
	if next.GreaterThan(inv.ScheduledTotal()) {
		return decimal.Zero, errs.State("investment %s would exceed its scheduled return", inv.InvestmentID)
	}

	t := now
	rec.ReceivedAmount = rec.ExpectedAmount
	rec.ReceivedAt = &t
	rec.Status = ReturnReceived
	inv.ActualReturn = next
	inv.UpdatedAt = now
	return rec.ExpectedAmount, nil
}

func (inv *Investment) Complete(now time.Time) {
	if inv.Status == StatusActive {
		inv.Status = StatusCompleted
		inv.UpdatedAt = now
	}
}

func (inv *Investment) Default(now time.Time) {
	if inv.Status == StatusActive {
		inv.Status = StatusDefaulted
		inv.UpdatedAt = now
	}
}
