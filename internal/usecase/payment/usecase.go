// Package payment records borrower repayments, passes them through to
// investors, and flags late installments.
package payment

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"p2p-lending/internal/domain/errs"
	"p2p-lending/internal/domain/event"
	"p2p-lending/internal/domain/investment"
	"p2p-lending/internal/domain/loan"
	"p2p-lending/internal/domain/uow"
	"p2p-lending/internal/infrastructure/metrics"
	"p2p-lending/internal/usecase/fault"
)

type Usecase struct {
	uow          uow.UnitOfWork
	pub          event.Publisher
	defaultAfter int
	metrics      *metrics.Metrics
	now          func() time.Time
	log          *slog.Logger
}

type Option func(*Usecase)

// WithDefaultAfter defaults an active loan once it has n overdue
// installments. Zero never defaults.
func WithDefaultAfter(n int) Option { return func(u *Usecase) { u.defaultAfter = n } }

func WithMetrics(m *metrics.Metrics) Option { return func(u *Usecase) { u.metrics = m } }
func WithClock(now func() time.Time) Option { return func(u *Usecase) { u.now = now } }
func WithLogger(l *slog.Logger) Option      { return func(u *Usecase) { u.log = l } }

func NewUsecase(tx uow.UnitOfWork, pub event.Publisher, opts ...Option) *Usecase {
	u := &Usecase{uow: tx, pub: pub, now: time.Now, log: slog.Default()}
	if u.pub == nil {
		u.pub = event.Nop{}
	}
	for _, o := range opts {
		o(u)
	}
	return u
}

// RecordInstallmentPayment settles installment sequence of an active loan and
// credits every active investment with its return for that month. Paying
// the last outstanding installment completes the loan.
func (u *Usecase) RecordInstallmentPayment(ctx context.Context, loanID string, sequence int) (*PaymentDTO, error) {
	if sequence <= 0 {
		return nil, errs.Validation("installment sequence must be positive, got %d", sequence)
	}

	var (
		dto    *PaymentDTO
		events []event.Event
	)
	err := u.uow.WithinLoanTx(ctx, loanID, func(r uow.Repos, l *loan.Loan) error {
		if l.Status != loan.StatusActive {
			return errs.State("loan %s is %s; payments need an active loan", l.LoanID, l.Status)
		}
		items, err := r.Installments.ListByLoanID(ctx, l.LoanID)
		if err != nil {
			return err
		}
		idx := -1
		for i := range items {
			if items[i].Sequence == sequence {
				idx = i
				break
			}
		}
		if idx < 0 {
			return errs.NotFound("loan %s has no installment %d", l.LoanID, sequence)
		}

		now := u.now().UTC()
		it := &items[idx]
		if err := it.MarkPaid(now); err != nil {
			return err
		}
		if err := r.Installments.Save(ctx, it); err != nil {
			return err
		}

		completed := allPaid(items)
		if completed {
			if err := l.TransitionTo(loan.StatusCompleted, now); err != nil {
				return err
			}
			if err := r.Loans.Save(ctx, l); err != nil {
				return err
			}
		}

		invs, err := r.Investments.ListByLoanID(ctx, l.LoanID)
		if err != nil {
			return err
		}
		dto = &PaymentDTO{LoanID: l.LoanID, Sequence: sequence, Amount: it.Amount, PaidAt: now, Credits: []CreditDTO{}}
		for i := range invs {
			inv := &invs[i]
			if inv.Status != investment.StatusActive {
				continue
			}
			credited, err := inv.CreditMonth(sequence, now)
			if err != nil {
				return err
			}
			if completed {
				inv.Complete(now)
			}
			if err := r.Investments.Save(ctx, inv); err != nil {
				return err
			}
			dto.Credits = append(dto.Credits, CreditDTO{InvestmentID: inv.InvestmentID, Amount: credited})
			events = append(events, event.PaymentReceived{
				InvestmentID: inv.InvestmentID, LoanID: l.LoanID, Month: sequence, Amount: credited,
			})
		}
		dto.LoanStatus = string(l.Status)
		return nil
	})
	if err != nil {
		return nil, fault.Surface(ctx, u.log, "record installment payment", err, "loan_id", loanID, "sequence", sequence)
	}

	completed := dto.LoanStatus == string(loan.StatusCompleted)
	u.metrics.InstallmentPaid(completed)
	u.log.InfoContext(ctx, "installment paid", "loan_id", loanID, "sequence", sequence, "loan_status", dto.LoanStatus)
	u.pub.Publish(ctx, events...)
	return dto, nil
}

func allPaid(items []loan.Installment) bool {
	for _, it := range items {
		if it.Status != loan.InstallmentPaid {
			return false
		}
	}
	return len(items) > 0
}

// SweepOverdue flags pending installments due before now and defaults loans
// that crossed the overdue threshold. A failure on one loan does not stop
// the others; all failures are returned joined.
func (u *Usecase) SweepOverdue(ctx context.Context) (*SweepResult, error) {
	now := u.now().UTC()
	var due []loan.Installment
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		var err error
		due, err = r.Installments.ListPendingDueBefore(ctx, now)
		return err
	})
	if err != nil {
		return nil, fault.Surface(ctx, u.log, "list due installments", err)
	}

	var loanIDs []string
	seen := map[string]bool{}
	for _, it := range due {
		if !seen[it.LoanID] {
			seen[it.LoanID] = true
			loanIDs = append(loanIDs, it.LoanID)
		}
	}

	res := &SweepResult{Defaulted: []string{}}
	var failures []error
	for _, loanID := range loanIDs {
		if err := ctx.Err(); err != nil {
			failures = append(failures, err)
			break
		}
		flagged, defaulted, err := u.sweepLoan(ctx, loanID, now)
		if err != nil {
			u.log.ErrorContext(ctx, "overdue sweep failed", "loan_id", loanID, "err", err)
			failures = append(failures, err)
			continue
		}
		res.Overdue += flagged
		if defaulted {
			res.Defaulted = append(res.Defaulted, loanID)
		}
	}

	u.metrics.Swept(res.Overdue, len(res.Defaulted))
	if res.Overdue > 0 || len(res.Defaulted) > 0 {
		u.log.InfoContext(ctx, "overdue sweep", "overdue", res.Overdue, "defaulted", len(res.Defaulted))
	}
	return res, errors.Join(failures...)
}

func (u *Usecase) sweepLoan(ctx context.Context, loanID string, now time.Time) (flagged int, defaulted bool, err error) {
	err = u.uow.WithinLoanTx(ctx, loanID, func(r uow.Repos, l *loan.Loan) error {
		items, err := r.Installments.ListByLoanID(ctx, loanID)
		if err != nil {
			return err
		}
		overdue := 0
		for i := range items {
			if items[i].MarkOverdue(now) {
				if err := r.Installments.Save(ctx, &items[i]); err != nil {
					return err
				}
				flagged++
			}
			if items[i].Status == loan.InstallmentOverdue {
				overdue++
			}
		}

		if u.defaultAfter <= 0 || overdue < u.defaultAfter || l.Status != loan.StatusActive {
			return nil
		}
		if err := l.TransitionTo(loan.StatusDefaulted, now); err != nil {
			return err
		}
		if err := r.Loans.Save(ctx, l); err != nil {
			return err
		}
		invs, err := r.Investments.ListByLoanID(ctx, loanID)
		if err != nil {
			return err
		}
		for i := range invs {
			invs[i].Default(now)
			if err := r.Investments.Save(ctx, &invs[i]); err != nil {
				return err
			}
		}
		defaulted = true
		return nil
	})
	if err != nil {
		return 0, false, err
	}
	return flagged, defaulted, nil
}
