package investment

import "context"

// Repository persists investments together with their return records.
type Repository interface {
	Create(ctx context.Context, inv *Investment) error
	GetByInvestmentID(ctx context.Context, investmentID string) (*Investment, error)
	// ListByLoanID returns the loan's investments in creation order.
	ListByLoanID(ctx context.Context, loanID string) ([]Investment, error)
	Save(ctx context.Context, inv *Investment) error
}
