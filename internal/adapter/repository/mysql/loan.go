package mysql

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"p2p-lending/internal/domain/errs"
	loanDomain "p2p-lending/internal/domain/loan"
)

// notFound maps gorm's missing-row error onto the domain kind.
func notFound(err error, format string, args ...any) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errs.NotFound(format, args...)
	}
	return err
}

type LoanRepository struct{ db *gorm.DB }

func NewLoanRepository(db *gorm.DB) *LoanRepository { return &LoanRepository{db: db} }

func (r *LoanRepository) Create(ctx context.Context, l *loanDomain.Loan) error {
	return r.db.WithContext(ctx).Create(l).Error
}

func (r *LoanRepository) Save(ctx context.Context, l *loanDomain.Loan) error {
	return r.db.WithContext(ctx).Save(l).Error
}

func (r *LoanRepository) GetByLoanID(ctx context.Context, loanID string) (*loanDomain.Loan, error) {
	var out loanDomain.Loan
	if err := r.db.WithContext(ctx).Where("loan_id = ?", loanID).First(&out).Error; err != nil {
		return nil, notFound(err, "loan %s not found", loanID)
	}
	return &out, nil
}

// GetByLoanIDForUpdate issues SELECT ... FOR UPDATE; only meaningful inside a tx.
func (r *LoanRepository) GetByLoanIDForUpdate(ctx context.Context, loanID string) (*loanDomain.Loan, error) {
	var out loanDomain.Loan
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("loan_id = ?", loanID).
		First(&out).Error
	if err != nil {
		return nil, notFound(err, "loan %s not found", loanID)
	}
	return &out, nil
}

func (r *LoanRepository) ListByStatus(ctx context.Context, statuses ...loanDomain.Status) ([]loanDomain.Loan, error) {
	out := []loanDomain.Loan{}
	if len(statuses) == 0 {
		return out, nil
	}
	err := r.db.WithContext(ctx).
		Where("status IN ?", statuses).
		Order("id ASC").
		Find(&out).Error
	return out, err
}

type InstallmentRepository struct{ db *gorm.DB }

func NewInstallmentRepository(db *gorm.DB) *InstallmentRepository {
	return &InstallmentRepository{db: db}
}

func (r *InstallmentRepository) CreateBatch(ctx context.Context, items []loanDomain.Installment) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&items).Error
}

func (r *InstallmentRepository) ListByLoanID(ctx context.Context, loanID string) ([]loanDomain.Installment, error) {
	out := []loanDomain.Installment{}
	err := r.db.WithContext(ctx).
		Where("loan_id = ?", loanID).
		Order("sequence ASC").
		Find(&out).Error
	return out, err
}

func (r *InstallmentRepository) ListPendingDueBefore(ctx context.Context, t time.Time) ([]loanDomain.Installment, error) {
	out := []loanDomain.Installment{}
	err := r.db.WithContext(ctx).
		Where("status = ? AND due_date < ?", loanDomain.InstallmentPending, t).
		Order("due_date ASC, loan_id ASC, sequence ASC").
		Find(&out).Error
	return out, err
}

func (r *InstallmentRepository) Save(ctx context.Context, it *loanDomain.Installment) error {
	return r.db.WithContext(ctx).Save(it).Error
}
