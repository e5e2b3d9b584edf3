package uow

import (
	"context"

	"p2p-lending/internal/domain/investment"
	"p2p-lending/internal/domain/loan"
	"p2p-lending/internal/domain/profile"
)

// Repos are bound to the transaction that handed them out.
type Repos struct {
	Loans        loan.Repository
	Installments loan.InstallmentRepository
	Investments  investment.Repository
	Profiles     profile.Repository
}

type UnitOfWork interface {
	// plain tx
	WithinTx(ctx context.Context, fn func(r Repos) error) error
	// lock loan first, then pass it in; calls for the same loan are serialized,
	// calls for different loans are not
	WithinLoanTx(ctx context.Context, loanID string, fn func(r Repos, l *loan.Loan) error) error
}

// Locker is an optional lock held around a loan transaction, for deployments
// whose store cannot lock rows.
type Locker interface {
	WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error
}

func LoanLockKey(loanID string) string { return "lock:loan:" + loanID }
