package memory

import (
	"context"
	"sort"
	"time"

	"p2p-lending/internal/domain/errs"
	"p2p-lending/internal/domain/investment"
	"p2p-lending/internal/domain/loan"
	"p2p-lending/internal/domain/profile"
)

type loanRepo struct{ t *tx }

func (r *loanRepo) Create(ctx context.Context, l *loan.Loan) error {
	if _, err := r.GetByLoanID(ctx, l.LoanID); err == nil {
		return errs.State("loan %s already exists", l.LoanID)
	}
	now := time.Now().UTC()
	l.ID = r.t.s.id()
	if l.CreatedAt.IsZero() {
		l.CreatedAt = now
	}
	l.UpdatedAt = l.CreatedAt
	r.t.loans[l.LoanID] = cloneLoan(l)
	r.t.staged()
	return nil
}

func (r *loanRepo) GetByLoanID(_ context.Context, loanID string) (*loan.Loan, error) {
	if l, ok := r.t.loans[loanID]; ok {
		return cloneLoan(l), nil
	}
	r.t.s.mu.RLock()
	defer r.t.s.mu.RUnlock()
	l, ok := r.t.s.loans[loanID]
	if !ok {
		return nil, errs.NotFound("loan %s not found", loanID)
	}
	return cloneLoan(l), nil
}

// GetByLoanIDForUpdate relies on the caller holding the loan lock.
func (r *loanRepo) GetByLoanIDForUpdate(ctx context.Context, loanID string) (*loan.Loan, error) {
	return r.GetByLoanID(ctx, loanID)
}

func (r *loanRepo) ListByStatus(_ context.Context, statuses ...loan.Status) ([]loan.Loan, error) {
	want := map[loan.Status]bool{}
	for _, s := range statuses {
		want[s] = true
	}
	merged := map[string]*loan.Loan{}
	r.t.s.mu.RLock()
	for k, v := range r.t.s.loans {
		merged[k] = v
	}
	r.t.s.mu.RUnlock()
	for k, v := range r.t.loans {
		merged[k] = v
	}

	out := []loan.Loan{}
	for _, l := range merged {
		if want[l.Status] {
			out = append(out, *cloneLoan(l))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *loanRepo) Save(ctx context.Context, l *loan.Loan) error {
	if _, err := r.GetByLoanID(ctx, l.LoanID); err != nil {
		return err
	}
	l.UpdatedAt = time.Now().UTC()
	r.t.loans[l.LoanID] = cloneLoan(l)
	r.t.staged()
	return nil
}

type installmentRepo struct{ t *tx }

func (r *installmentRepo) CreateBatch(ctx context.Context, items []loan.Installment) error {
	existing, _ := r.ListByLoanID(ctx, firstLoanID(items))
	seen := map[installmentKey]bool{}
	for _, it := range existing {
		seen[installmentKey{it.LoanID, it.Sequence}] = true
	}
	staged := make([]*loan.Installment, 0, len(items))
	now := time.Now().UTC()
	for i := range items {
		k := installmentKey{items[i].LoanID, items[i].Sequence}
		if seen[k] {
			return errs.State("installment %d of loan %s already exists", k.seq, k.loanID)
		}
		seen[k] = true
		items[i].ID = r.t.s.id()
		items[i].CreatedAt, items[i].UpdatedAt = now, now
		staged = append(staged, cloneInstallment(&items[i]))
	}
	for _, it := range staged {
		r.t.installments[installmentKey{it.LoanID, it.Sequence}] = it
	}
	r.t.staged()
	return nil
}

func firstLoanID(items []loan.Installment) string {
	if len(items) == 0 {
		return ""
	}
	return items[0].LoanID
}

func (r *installmentRepo) merged() map[installmentKey]*loan.Installment {
	out := map[installmentKey]*loan.Installment{}
	r.t.s.mu.RLock()
	for k, v := range r.t.s.installments {
		out[k] = v
	}
	r.t.s.mu.RUnlock()
	for k, v := range r.t.installments {
		out[k] = v
	}
	return out
}

func (r *installmentRepo) ListByLoanID(_ context.Context, loanID string) ([]loan.Installment, error) {
	out := []loan.Installment{}
	for k, v := range r.merged() {
		if k.loanID == loanID {
			out = append(out, *cloneInstallment(v))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Sequence < out[j].Sequence })
	return out, nil
}

func (r *installmentRepo) ListPendingDueBefore(_ context.Context, t time.Time) ([]loan.Installment, error) {
	out := []loan.Installment{}
	for _, v := range r.merged() {
		if v.Status == loan.InstallmentPending && v.DueDate.Before(t) {
			out = append(out, *cloneInstallment(v))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].DueDate.Equal(out[j].DueDate) {
			return out[i].DueDate.Before(out[j].DueDate)
		}
		if out[i].LoanID != out[j].LoanID {
			return out[i].LoanID < out[j].LoanID
		}
		return out[i].Sequence < out[j].Sequence
	})
	return out, nil
}

func (r *installmentRepo) Save(_ context.Context, it *loan.Installment) error {
	k := installmentKey{it.LoanID, it.Sequence}
	if _, ok := r.merged()[k]; !ok {
		return errs.NotFound("installment %d of loan %s not found", it.Sequence, it.LoanID)
	}
	it.UpdatedAt = time.Now().UTC()
	r.t.installments[k] = cloneInstallment(it)
	r.t.staged()
	return nil
}

type investmentRepo struct{ t *tx }

func (r *investmentRepo) Create(ctx context.Context, inv *investment.Investment) error {
	if _, err := r.GetByInvestmentID(ctx, inv.InvestmentID); err == nil {
		return errs.State("investment %s already exists", inv.InvestmentID)
	}
	inv.ID = r.t.s.id()
	for i := range inv.Returns {
		inv.Returns[i].ID = r.t.s.id()
		inv.Returns[i].InvestmentID = inv.InvestmentID
	}
	r.t.investments[inv.InvestmentID] = cloneInvestment(inv)
	r.t.newInv = append(r.t.newInv, inv.InvestmentID)
	r.t.staged()
	return nil
}

func (r *investmentRepo) GetByInvestmentID(_ context.Context, investmentID string) (*investment.Investment, error) {
	if inv, ok := r.t.investments[investmentID]; ok {
		return cloneInvestment(inv), nil
	}
	r.t.s.mu.RLock()
	defer r.t.s.mu.RUnlock()
	inv, ok := r.t.s.investments[investmentID]
	if !ok {
		return nil, errs.NotFound("investment %s not found", investmentID)
	}
	return cloneInvestment(inv), nil
}

func (r *investmentRepo) ListByLoanID(_ context.Context, loanID string) ([]investment.Investment, error) {
	r.t.s.mu.RLock()
	ids := append([]string(nil), r.t.s.byLoan[loanID]...)
	committed := make(map[string]*investment.Investment, len(ids))
	for _, id := range ids {
		committed[id] = r.t.s.investments[id]
	}
	r.t.s.mu.RUnlock()

	for _, id := range r.t.newInv {
		if r.t.investments[id].LoanID == loanID {
			ids = append(ids, id)
		}
	}
	out := make([]investment.Investment, 0, len(ids))
	for _, id := range ids {
		inv, ok := r.t.investments[id]
		if !ok {
			inv = committed[id]
		}
		out = append(out, *cloneInvestment(inv))
	}
	return out, nil
}

func (r *investmentRepo) Save(ctx context.Context, inv *investment.Investment) error {
	if _, err := r.GetByInvestmentID(ctx, inv.InvestmentID); err != nil {
		return err
	}
	inv.UpdatedAt = time.Now().UTC()
	r.t.investments[inv.InvestmentID] = cloneInvestment(inv)
	r.t.staged()
	return nil
}

type profileRepo struct{ t *tx }

func (r *profileRepo) Upsert(ctx context.Context, p *profile.InvestorProfile) error {
	now := time.Now().UTC()
	if prev, err := r.GetByInvestorID(ctx, p.InvestorID); err == nil {
		p.ID, p.CreatedAt = prev.ID, prev.CreatedAt
	} else {
		p.ID, p.CreatedAt = r.t.s.id(), now
	}
	p.UpdatedAt = now
	r.t.profiles[p.InvestorID] = cloneProfile(p)
	r.t.staged()
	return nil
}

func (r *profileRepo) GetByInvestorID(_ context.Context, investorID string) (*profile.InvestorProfile, error) {
	if p, ok := r.t.profiles[investorID]; ok {
		return cloneProfile(p), nil
	}
	r.t.s.mu.RLock()
	defer r.t.s.mu.RUnlock()
	p, ok := r.t.s.profiles[investorID]
	if !ok {
		return nil, errs.NotFound("profile for investor %s not found", investorID)
	}
	return cloneProfile(p), nil
}
