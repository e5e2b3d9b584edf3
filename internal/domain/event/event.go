// Package event defines the notifications emitted by the lending core.
package event

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	NameInvestmentCreated = "InvestmentCreated"
	NameLoanFullyFunded   = "LoanFullyFunded"
	NamePaymentReceived   = "PaymentReceived"
)

type Event interface {
	Name() string
	// Key groups events that must stay ordered, e.g. by loan.
	Key() string
}

type InvestmentCreated struct {
	LoanID       string          `json:"loan_id"`
	InvestorID   string          `json:"investor_id"`
	InvestmentID string          `json:"investment_id"`
	Amount       decimal.Decimal `json:"amount"`
}

func (InvestmentCreated) Name() string  { return NameInvestmentCreated }
func (e InvestmentCreated) Key() string { return e.LoanID }

type LoanFullyFunded struct {
	LoanID string          `json:"loan_id"`
	Amount decimal.Decimal `json:"amount"`
}

func (LoanFullyFunded) Name() string  { return NameLoanFullyFunded }
func (e LoanFullyFunded) Key() string { return e.LoanID }

type PaymentReceived struct {
	InvestmentID string          `json:"investment_id"`
	LoanID       string          `json:"loan_id"`
	Month        int             `json:"month"`
	Amount       decimal.Decimal `json:"amount"`
}

func (PaymentReceived) Name() string  { return NamePaymentReceived }
func (e PaymentReceived) Key() string { return e.LoanID }

// Envelope is the wire shape handed to notification transports.
type Envelope struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	OccurredAt time.Time `json:"occurred_at"`
	Payload    Event     `json:"payload"`
}

func Wrap(e Event, at time.Time) Envelope {
	return Envelope{ID: uuid.NewString(), Name: e.Name(), OccurredAt: at.UTC(), Payload: e}
}

// Publisher is fire-and-forget: delivery failures are the publisher's to log.
type Publisher interface {
	Publish(ctx context.Context, events ...Event)
}

// Nop drops every event.
type Nop struct{}

func (Nop) Publish(context.Context, ...Event) {}
