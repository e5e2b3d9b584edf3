package funding

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"p2p-lending/internal/domain/amortization"
	"p2p-lending/internal/domain/errs"
	"p2p-lending/internal/domain/event"
	"p2p-lending/internal/domain/investment"
	"p2p-lending/internal/domain/loan"
	"p2p-lending/internal/domain/uow"
	"p2p-lending/internal/infrastructure/metrics"
	"p2p-lending/internal/usecase/fault"
	"p2p-lending/pkg/id"
)

// LimitChecker vetoes an investment above the investor's allowance.
type LimitChecker interface {
	CheckInvestmentLimit(ctx context.Context, investorID string, amount decimal.Decimal) error
}

// Usecase matches investments against loans. Each loan's
// check-remaining-then-write runs inside one locked unit of work.
type Usecase struct {
	uow     uow.UnitOfWork
	reads   uow.Repos
	pub     event.Publisher
	locker  uow.Locker
	limits  LimitChecker
	metrics *metrics.Metrics
	now     func() time.Time
	log     *slog.Logger
}

type Option func(*Usecase)

// WithLocker adds a lock around every loan transaction, e.g. a Redis lock
// when the store cannot lock rows itself.
func WithLocker(l uow.Locker) Option { return func(u *Usecase) { u.locker = l } }

func WithLimitChecker(c LimitChecker) Option { return func(u *Usecase) { u.limits = c } }
func WithMetrics(m *metrics.Metrics) Option  { return func(u *Usecase) { u.metrics = m } }
func WithClock(now func() time.Time) Option  { return func(u *Usecase) { u.now = now } }
func WithLogger(l *slog.Logger) Option       { return func(u *Usecase) { u.log = l } }

func NewUsecase(tx uow.UnitOfWork, reads uow.Repos, pub event.Publisher, opts ...Option) *Usecase {
	u := &Usecase{uow: tx, reads: reads, pub: pub, now: time.Now, log: slog.Default()}
	if u.pub == nil {
		u.pub = event.Nop{}
	}
	for _, o := range opts {
		o(u)
	}
	return u
}

// Invest applies amount to the loan. It either records the investment and
// advances the loan, or changes nothing and returns why.
func (u *Usecase) Invest(ctx context.Context, in InvestInput) (*InvestmentDTO, error) {
	dto, events, err := u.invest(ctx, in)
	if err != nil {
		u.metrics.InvestmentRejected(errs.Label(err))
		return nil, fault.Surface(ctx, u.log, "invest", err, "loan_id", in.LoanID, "investor_id", in.InvestorID)
	}

	fullyFunded := len(events) > 1
	u.metrics.InvestmentAccepted(fullyFunded)
	u.log.InfoContext(ctx, "investment accepted",
		"loan_id", in.LoanID, "investment_id", dto.InvestmentID,
		"amount", in.Amount.String(), "loan_status", dto.LoanStatus)
	u.pub.Publish(ctx, events...)
	return dto, nil
}

func (u *Usecase) invest(ctx context.Context, in InvestInput) (*InvestmentDTO, []event.Event, error) {
	if err := u.precheck(ctx, in); err != nil {
		return nil, nil, err
	}
	if u.limits != nil {
		if err := u.limits.CheckInvestmentLimit(ctx, in.InvestorID, in.Amount); err != nil {
			return nil, nil, err
		}
	}

	var (
		dto    *InvestmentDTO
		events []event.Event
	)
	run := func(ctx context.Context) error {
		return u.uow.WithinLoanTx(ctx, in.LoanID, func(r uow.Repos, l *loan.Loan) error {
			now := u.now().UTC()
			fullyFunded, err := l.ApplyFunding(in.Amount, now)
			if err != nil {
				return err
			}
			inv, err := investment.New(id.New(id.PrefixInvestment), in.InvestorID, l.LoanID, in.Amount, l.MonthlyRate, l.TermMonths, now)
			if err != nil {
				return err
			}
			if err := r.Investments.Create(ctx, inv); err != nil {
				return err
			}
			if err := r.Loans.Save(ctx, l); err != nil {
				return err
			}
			events = []event.Event{event.InvestmentCreated{
				LoanID: l.LoanID, InvestorID: inv.InvestorID, InvestmentID: inv.InvestmentID, Amount: inv.Amount,
			}}
			if fullyFunded {
				if err := materializeSchedule(ctx, r, l, now); err != nil {
					return err
				}
				events = append(events, event.LoanFullyFunded{LoanID: l.LoanID, Amount: l.Amount})
			}

			dto = ToDTO(inv)
			dto.LoanStatus = string(l.Status)
			progress := l.FundingProgress
			dto.FundingProgress = &progress
			return nil
		})
	}

	var err error
	if u.locker != nil {
		err = u.locker.WithLock(ctx, uow.LoanLockKey(in.LoanID), run)
	} else {
		err = run(ctx)
	}
	if err != nil {
		return nil, nil, err
	}
	return dto, events, nil
}

// precheck reports why an investment cannot succeed, in the order a caller
// sees it: unknown loan, then a loan no longer fundable, then bad input. The
// locked unit of work repeats every check against the row it holds.
func (u *Usecase) precheck(ctx context.Context, in InvestInput) error {
	l, err := u.reads.Loans.GetByLoanID(ctx, in.LoanID)
	if err != nil {
		return err
	}
	if !l.Status.Fundable() {
		return errs.State("loan %s is %s and cannot receive investments", l.LoanID, l.Status)
	}
	return validate(in)
}

func validate(in InvestInput) error {
	switch {
	case strings.TrimSpace(in.InvestorID) == "":
		return errs.Validation("investor id is required")
	case in.Amount.Sign() <= 0:
		return errs.Validation("investment amount must be positive, got %s", in.Amount)
	case !in.Amount.Equal(in.Amount.Round(2)):
		return errs.Validation("investment amount must have at most 2 decimal places, got %s", in.Amount)
	}
	return nil
}

// materializeSchedule stores the loan's installment plan, due monthly from
// activation.
func materializeSchedule(ctx context.Context, r uow.Repos, l *loan.Loan, activatedAt time.Time) error {
	plan, err := amortization.Generate(l.Amount, l.MonthlyRate, l.TermMonths, activatedAt)
	if err != nil {
		return err
	}
	items := make([]loan.Installment, 0, len(plan))
	for _, p := range plan {
		items = append(items, loan.Installment{
			LoanID:   l.LoanID,
			Sequence: p.Sequence,
			DueDate:  p.DueDate,
			Amount:   p.Amount,
			Status:   loan.InstallmentPending,
		})
	}
	return r.Installments.CreateBatch(ctx, items)
}

func (u *Usecase) GetInvestment(ctx context.Context, investmentID string) (*InvestmentDTO, error) {
	inv, err := u.reads.Investments.GetByInvestmentID(ctx, investmentID)
	if err != nil {
		return nil, fault.Surface(ctx, u.log, "get investment", err, "investment_id", investmentID)
	}
	return ToDTO(inv), nil
}

// ListByLoan returns the loan's investments in the order they were made.
func (u *Usecase) ListByLoan(ctx context.Context, loanID string) ([]InvestmentDTO, error) {
	if _, err := u.reads.Loans.GetByLoanID(ctx, loanID); err != nil {
		return nil, fault.Surface(ctx, u.log, "get loan", err, "loan_id", loanID)
	}
	invs, err := u.reads.Investments.ListByLoanID(ctx, loanID)
	if err != nil {
		return nil, fault.Surface(ctx, u.log, "list investments", err, "loan_id", loanID)
	}
	out := make([]InvestmentDTO, 0, len(invs))
	for i := range invs {
		out = append(out, *ToDTO(&invs[i]))
	}
	return out, nil
}
