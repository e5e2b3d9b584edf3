package loan

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"p2p-lending/internal/domain/amortization"
	"p2p-lending/internal/domain/errs"
	"p2p-lending/internal/domain/investment"
	"p2p-lending/internal/domain/loan"
	"p2p-lending/internal/domain/uow"
	"p2p-lending/internal/usecase/fault"
	"p2p-lending/pkg/id"
)

// Usecase is the loan ledger: it creates loans and answers reads about them.
// Status changes happen only through funding and payment processing.
type Usecase struct {
	loans        loan.Repository
	installments loan.InstallmentRepository
	investments  investment.Repository
	now          func() time.Time
	log          *slog.Logger
}

type Option func(*Usecase)

func WithClock(now func() time.Time) Option { return func(u *Usecase) { u.now = now } }
func WithLogger(l *slog.Logger) Option      { return func(u *Usecase) { u.log = l } }

func NewUsecase(r uow.Repos, opts ...Option) *Usecase {
	u := &Usecase{
		loans:        r.Loans,
		installments: r.Installments,
		investments:  r.Investments,
		now:          time.Now,
		log:          slog.Default(),
	}
	for _, o := range opts {
		o(u)
	}
	return u
}

func (u *Usecase) Create(ctx context.Context, in CreateLoanInput) (*LoanDTO, error) {
	if err := validateCreate(in); err != nil {
		return nil, err
	}
	now := u.now().UTC()
	l := &loan.Loan{
		LoanID:       id.New(id.PrefixLoan),
		BorrowerID:   in.BorrowerID,
		Amount:       in.Amount,
		MonthlyRate:  in.MonthlyRate,
		TermMonths:   in.TermMonths,
		Purpose:      strings.TrimSpace(in.Purpose),
		Status:       loan.StatusPending,
		FundedAmount: decimal.Zero,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := u.loans.Create(ctx, l); err != nil {
		return nil, fault.Surface(ctx, u.log, "create loan", err, "borrower_id", in.BorrowerID)
	}
	u.log.InfoContext(ctx, "loan created", "loan_id", l.LoanID, "amount", l.Amount.String(), "term", l.TermMonths)
	return toDTO(l, nil), nil
}

func validateCreate(in CreateLoanInput) error {
	switch {
	case strings.TrimSpace(in.BorrowerID) == "":
		return errs.Validation("borrower id is required")
	case in.Amount.Sign() <= 0:
		return errs.Validation("amount must be positive, got %s", in.Amount)
	case !in.Amount.Equal(in.Amount.Round(loan.MoneyScale)):
		return errs.Validation("amount must have at most 2 decimal places, got %s", in.Amount)
	case in.Amount.GreaterThan(loan.MaxMoney):
		return errs.Validation("amount must not exceed %s, got %s", loan.MaxMoney, in.Amount)
	case in.TermMonths <= 0:
		return errs.Validation("term must be positive, got %d", in.TermMonths)
	case in.MonthlyRate.Sign() < 0:
		return errs.Validation("monthly rate must not be negative, got %s", in.MonthlyRate)
	case !in.MonthlyRate.Equal(in.MonthlyRate.Round(loan.RateScale)):
		return errs.Validation("monthly rate must have at most 6 decimal places, got %s", in.MonthlyRate)
	case in.MonthlyRate.GreaterThan(loan.MaxRate):
		return errs.Validation("monthly rate must not exceed %s, got %s", loan.MaxRate, in.MonthlyRate)
	}

	// installments and investor returns share the amount column's range
	total, err := amortization.TotalRepayment(in.Amount, in.MonthlyRate, in.TermMonths)
	if err != nil {
		return err
	}
	if total.GreaterThan(loan.MaxMoney) {
		return errs.Validation("total repayment %s exceeds %s", total, loan.MaxMoney)
	}
	return nil
}

func (u *Usecase) Get(ctx context.Context, loanID string) (*LoanDTO, error) {
	l, err := u.loans.GetByLoanID(ctx, loanID)
	if err != nil {
		return nil, fault.Surface(ctx, u.log, "get loan", err, "loan_id", loanID)
	}
	invs, err := u.investments.ListByLoanID(ctx, loanID)
	if err != nil {
		return nil, fault.Surface(ctx, u.log, "list loan investments", err, "loan_id", loanID)
	}
	ids := make([]string, 0, len(invs))
	for _, inv := range invs {
		ids = append(ids, inv.InvestmentID)
	}
	return toDTO(l, ids), nil
}

// ListFundable returns loans still accepting investments, oldest first.
func (u *Usecase) ListFundable(ctx context.Context) ([]LoanDTO, error) {
	ls, err := u.loans.ListByStatus(ctx, loan.StatusPending, loan.StatusFunding)
	if err != nil {
		return nil, fault.Surface(ctx, u.log, "list fundable loans", err)
	}
	out := make([]LoanDTO, 0, len(ls))
	for i := range ls {
		out = append(out, *toDTO(&ls[i], nil))
	}
	return out, nil
}

// Schedule returns the materialized installment plan. Loans that are not
// yet fully funded have none.
func (u *Usecase) Schedule(ctx context.Context, loanID string) (*ScheduleDTO, error) {
	if _, err := u.loans.GetByLoanID(ctx, loanID); err != nil {
		return nil, fault.Surface(ctx, u.log, "get loan", err, "loan_id", loanID)
	}
	items, err := u.installments.ListByLoanID(ctx, loanID)
	if err != nil {
		return nil, fault.Surface(ctx, u.log, "list installments", err, "loan_id", loanID)
	}
	out := &ScheduleDTO{LoanID: loanID, TotalRepayment: decimal.Zero, Installments: make([]InstallmentDTO, 0, len(items))}
	for _, it := range items {
		out.TotalRepayment = out.TotalRepayment.Add(it.Amount)
		out.Installments = append(out.Installments, InstallmentDTO{
			Sequence: it.Sequence,
			DueDate:  it.DueDate,
			Amount:   it.Amount,
			Status:   string(it.Status),
			PaidAt:   it.PaidAt,
		})
	}
	return out, nil
}
