package loanmock

import (
	"context"
	"time"

	domain "p2p-lending/internal/domain/loan"
)

var (
	_ domain.Repository            = (*Repo)(nil)
	_ domain.InstallmentRepository = (*InstallmentRepo)(nil)
)

// Repo is a function-backed mock that satisfies domain.Repository.
// Unset reads return context.Canceled; unset writes are no-ops.
type Repo struct {
	CreateFn               func(ctx context.Context, l *domain.Loan) error
	GetByLoanIDFn          func(ctx context.Context, loanID string) (*domain.Loan, error)
	GetByLoanIDForUpdateFn func(ctx context.Context, loanID string) (*domain.Loan, error)
	ListByStatusFn         func(ctx context.Context, statuses ...domain.Status) ([]domain.Loan, error)
	SaveFn                 func(ctx context.Context, l *domain.Loan) error
}

func (m *Repo) Create(ctx context.Context, l *domain.Loan) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, l)
	}
	return nil
}
func (m *Repo) GetByLoanID(ctx context.Context, loanID string) (*domain.Loan, error) {
	if m.GetByLoanIDFn != nil {
		return m.GetByLoanIDFn(ctx, loanID)
	}
	return nil, context.Canceled
}
func (m *Repo) GetByLoanIDForUpdate(ctx context.Context, loanID string) (*domain.Loan, error) {
	if m.GetByLoanIDForUpdateFn != nil {
		return m.GetByLoanIDForUpdateFn(ctx, loanID)
	}
	return nil, context.Canceled
}
func (m *Repo) ListByStatus(ctx context.Context, statuses ...domain.Status) ([]domain.Loan, error) {
	if m.ListByStatusFn != nil {
		return m.ListByStatusFn(ctx, statuses...)
	}
	return nil, context.Canceled
}
func (m *Repo) Save(ctx context.Context, l *domain.Loan) error {
	if m.SaveFn != nil {
		return m.SaveFn(ctx, l)
	}
	return nil
}

// InstallmentRepo is a function-backed mock for domain.InstallmentRepository.
type InstallmentRepo struct {
	CreateBatchFn          func(ctx context.Context, items []domain.Installment) error
	ListByLoanIDFn         func(ctx context.Context, loanID string) ([]domain.Installment, error)
	ListPendingDueBeforeFn func(ctx context.Context, t time.Time) ([]domain.Installment, error)
	SaveFn                 func(ctx context.Context, it *domain.Installment) error
}

func (m *InstallmentRepo) CreateBatch(ctx context.Context, items []domain.Installment) error {
	if m.CreateBatchFn != nil {
		return m.CreateBatchFn(ctx, items)
	}
	return nil
}
func (m *InstallmentRepo) ListByLoanID(ctx context.Context, loanID string) ([]domain.Installment, error) {
	if m.ListByLoanIDFn != nil {
		return m.ListByLoanIDFn(ctx, loanID)
	}
	return nil, context.Canceled
}
func (m *InstallmentRepo) ListPendingDueBefore(ctx context.Context, t time.Time) ([]domain.Installment, error) {
	if m.ListPendingDueBeforeFn != nil {
		return m.ListPendingDueBeforeFn(ctx, t)
	}
	return nil, context.Canceled
}
func (m *InstallmentRepo) Save(ctx context.Context, it *domain.Installment) error {
	if m.SaveFn != nil {
		return m.SaveFn(ctx, it)
	}
	return nil
}
