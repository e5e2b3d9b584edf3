package loan

import (
	"context"
	"time"
)

// Repository implementations report missing rows as errs.ErrNotFound.
type Repository interface {
	Create(ctx context.Context, l *Loan) error
	GetByLoanID(ctx context.Context, loanID string) (*Loan, error)
	// GetByLoanIDForUpdate locks the row for the enclosing transaction.
	GetByLoanIDForUpdate(ctx context.Context, loanID string) (*Loan, error)
	ListByStatus(ctx context.Context, statuses ...Status) ([]Loan, error)
	Save(ctx context.Context, l *Loan) error
}

type InstallmentRepository interface {
	CreateBatch(ctx context.Context, items []Installment) error
	// ListByLoanID returns installments ordered by sequence.
	ListByLoanID(ctx context.Context, loanID string) ([]Installment, error)
	// ListPendingDueBefore returns pending installments due strictly before t.
	ListPendingDueBefore(ctx context.Context, t time.Time) ([]Installment, error)
	Save(ctx context.Context, it *Installment) error
}
