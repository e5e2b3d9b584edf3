package loan

import (
	"time"

	"github.com/shopspring/decimal"

	"p2p-lending/internal/domain/errs"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusFunding   Status = "funding"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusDefaulted Status = "defaulted"
)

// Forward-only lifecycle. A fully funded first investment jumps pending → active.
var transitions = map[Status][]Status{
	StatusPending: {StatusFunding, StatusActive},
	StatusFunding: {StatusActive},
	StatusActive:  {StatusCompleted, StatusDefaulted},
}

// CanTransitionTo reports whether next is reachable from s in one step.
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Fundable is true while the loan still accepts investments.
func (s Status) Fundable() bool { return s == StatusPending || s == StatusFunding }

var hundred = decimal.NewFromInt(100)

// Storage limits of the money and rate columns. Inputs outside them are
// rejected rather than rounded or overflowed by the database.
const (
	MoneyScale = 2
	RateScale  = 6
)

var (
	MaxMoney = decimal.RequireFromString("9999999999999999.99") // decimal(18,2)
	MaxRate  = decimal.RequireFromString("9999.999999")         // decimal(10,6)
)

type Loan struct {
	ID              uint64          `gorm:"primaryKey;column:id" json:"-"`
	LoanID          string          `gorm:"size:35;uniqueIndex:ux_loans_loan_id" json:"loan_id"`
	BorrowerID      string          `gorm:"size:32;index:idx_loans_borrower" json:"borrower_id"`
	Amount          decimal.Decimal `gorm:"type:decimal(18,2)" json:"amount"`
	MonthlyRate     decimal.Decimal `gorm:"type:decimal(10,6)" json:"monthly_rate"`
	TermMonths      int             `json:"term_months"`
	Purpose         string          `gorm:"size:255" json:"purpose"`
	Status          Status          `gorm:"size:16;index:idx_loans_status" json:"status"`
	FundedAmount    decimal.Decimal `gorm:"type:decimal(18,2)" json:"funded_amount"`
	FundingProgress int             `json:"funding_progress"`
	ActivatedAt     *time.Time      `json:"activated_at,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

func (Loan) TableName() string { return "loans" }

// Remaining is the part of the requested amount not yet funded.
func (l *Loan) Remaining() decimal.Decimal { return l.Amount.Sub(l.FundedAmount) }

// FullyFunded is true once fundedAmount == amount.
func (l *Loan) FullyFunded() bool { return l.FundedAmount.Equal(l.Amount) }

// Progress is round(funded / amount * 100).
func Progress(funded, amount decimal.Decimal) int {
	if amount.Sign() <= 0 {
		return 0
	}
	return int(funded.DivRound(amount, 16).Mul(hundred).Round(0).IntPart())
}

// TransitionTo moves the loan forward; any other move is a state error.
func (l *Loan) TransitionTo(next Status, now time.Time) error {
	if !l.Status.CanTransitionTo(next) {
		return errs.State("loan %s cannot move from %s to %s", l.LoanID, l.Status, next)
	}
	if next == StatusActive && !l.FullyFunded() {
		return errs.State("loan %s is not fully funded", l.LoanID)
	}
	l.Status = next
	l.UpdatedAt = now
	if next == StatusActive {
		t := now
		l.ActivatedAt = &t
	}
	return nil
}

// ApplyFunding books amount against the loan, recomputes progress and
// advances the status. It never lets fundedAmount pass amount.
func (l *Loan) ApplyFunding(amount decimal.Decimal, now time.Time) (fullyFunded bool, err error) {
	if !l.Status.Fundable() {
		return false, errs.State("loan %s is %s and cannot receive investments", l.LoanID, l.Status)
	}
	if amount.Sign() <= 0 {
		return false, errs.Validation("investment amount must be positive, got %s", amount)
	}
	if remaining := l.Remaining(); amount.GreaterThan(remaining) {
		return false, errs.Validation("amount %s exceeds remaining funding capacity %s",
			amount.StringFixed(2), remaining.StringFixed(2))
	}

	l.FundedAmount = l.FundedAmount.Add(amount)
	l.FundingProgress = Progress(l.FundedAmount, l.Amount)
	l.UpdatedAt = now

	if l.FullyFunded() {
		return true, l.TransitionTo(StatusActive, now)
	}
	if l.Status == StatusPending {
		return false, l.TransitionTo(StatusFunding, now)
	}
	return false, nil
}

type InstallmentStatus string

const (
	InstallmentPending InstallmentStatus = "pending"
	InstallmentPaid    InstallmentStatus = "paid"
	InstallmentOverdue InstallmentStatus = "overdue"
)

type Installment struct {
	ID        uint64            `gorm:"primaryKey;column:id" json:"-"`
	LoanID    string            `gorm:"size:35;uniqueIndex:ux_installments_loan_seq,priority:1" json:"loan_id"`
	Sequence  int               `gorm:"uniqueIndex:ux_installments_loan_seq,priority:2" json:"sequence"`
	DueDate   time.Time         `gorm:"index:idx_installments_due" json:"due_date"`
	Amount    decimal.Decimal   `gorm:"type:decimal(18,2)" json:"amount"`
	Status    InstallmentStatus `gorm:"size:16" json:"status"`
	PaidAt    *time.Time        `json:"paid_at,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

func (Installment) TableName() string { return "installments" }

// MarkPaid settles a pending or overdue installment.
func (it *Installment) MarkPaid(now time.Time) error {
	if it.Status == InstallmentPaid {
		return errs.State("installment %d of loan %s is already paid", it.Sequence, it.LoanID)
	}
	t := now
	it.Status = InstallmentPaid
	it.PaidAt = &t
	it.UpdatedAt = now
	return nil
}

// MarkOverdue flags a pending installment whose due date has passed.
func (it *Installment) MarkOverdue(now time.Time) bool {
	if it.Status != InstallmentPending || !it.DueDate.Before(now) {
		return false
	}
	it.Status = InstallmentOverdue
	it.UpdatedAt = now
	return true
}
