// Package memory is an in-process store with the same transactional
// guarantees as the SQL adapter: writes inside a unit of work are staged and
// become visible together on success, and loan transactions are serialized
// per loan id.
package memory

import (
	"context"
	"sync"
	"sync/atomic"

	"p2p-lending/internal/domain/investment"
	"p2p-lending/internal/domain/loan"
	"p2p-lending/internal/domain/profile"
	"p2p-lending/internal/domain/uow"
	"p2p-lending/internal/infrastructure/lock"
)

type Store struct {
	mu           sync.RWMutex
	loans        map[string]*loan.Loan
	installments map[installmentKey]*loan.Installment
	investments  map[string]*investment.Investment
	byLoan       map[string][]string
	profiles     map[string]*profile.InvestorProfile

	nextID atomic.Uint64
	locks  *lock.Local
}

type installmentKey struct {
	loanID string
	seq    int
}

func NewStore() *Store {
	return &Store{
		loans:        map[string]*loan.Loan{},
		installments: map[installmentKey]*loan.Installment{},
		investments:  map[string]*investment.Investment{},
		byLoan:       map[string][]string{},
		profiles:     map[string]*profile.InvestorProfile{},
		locks:        lock.NewLocal(),
	}
}

var _ uow.UnitOfWork = (*Store)(nil)

// Repos returns repositories whose writes apply immediately.
func (s *Store) Repos() uow.Repos { return s.begin(true).repos() }

func (s *Store) WithinTx(ctx context.Context, fn func(r uow.Repos) error) error {
	t := s.begin(false)
	if err := fn(t.repos()); err != nil {
		return err
	}
	t.commit()
	return nil
}

func (s *Store) WithinLoanTx(ctx context.Context, loanID string, fn func(r uow.Repos, l *loan.Loan) error) error {
	return s.locks.WithLock(ctx, uow.LoanLockKey(loanID), func(ctx context.Context) error {
		t := s.begin(false)
		r := t.repos()
		l, err := r.Loans.GetByLoanIDForUpdate(ctx, loanID)
		if err != nil {
			return err
		}
		if err := fn(r, l); err != nil {
			return err
		}
		t.commit()
		return nil
	})
}

func (s *Store) id() uint64 { return s.nextID.Add(1) }

// tx stages writes until commit. Reads see staged values first.
type tx struct {
	s    *Store
	auto bool

	loans        map[string]*loan.Loan
	installments map[installmentKey]*loan.Installment
	investments  map[string]*investment.Investment
	newInv       []string
	profiles     map[string]*profile.InvestorProfile
}

func (s *Store) begin(auto bool) *tx {
	return &tx{
		s:            s,
		auto:         auto,
		loans:        map[string]*loan.Loan{},
		installments: map[installmentKey]*loan.Installment{},
		investments:  map[string]*investment.Investment{},
		profiles:     map[string]*profile.InvestorProfile{},
	}
}

func (t *tx) repos() uow.Repos {
	return uow.Repos{
		Loans:        &loanRepo{t: t},
		Installments: &installmentRepo{t: t},
		Investments:  &investmentRepo{t: t},
		Profiles:     &profileRepo{t: t},
	}
}

// staged runs after a write; in autocommit mode it flushes right away.
func (t *tx) staged() {
	if t.auto {
		t.commit()
	}
}

func (t *tx) commit() {
	s := t.s
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range t.loans {
		s.loans[k] = v
	}
	for k, v := range t.installments {
		s.installments[k] = v
	}
	for _, ivID := range t.newInv {
		if _, exists := s.investments[ivID]; !exists {
			inv := t.investments[ivID]
			s.byLoan[inv.LoanID] = append(s.byLoan[inv.LoanID], ivID)
		}
	}
	for k, v := range t.investments {
		s.investments[k] = v
	}
	for k, v := range t.profiles {
		s.profiles[k] = v
	}
	t.loans = map[string]*loan.Loan{}
	t.installments = map[installmentKey]*loan.Installment{}
	t.investments = map[string]*investment.Investment{}
	t.newInv = nil
	t.profiles = map[string]*profile.InvestorProfile{}
}

func cloneLoan(l *loan.Loan) *loan.Loan {
	c := *l
	if l.ActivatedAt != nil {
		at := *l.ActivatedAt
		c.ActivatedAt = &at
	}
	return &c
}

func cloneInstallment(it *loan.Installment) *loan.Installment {
	c := *it
	if it.PaidAt != nil {
		at := *it.PaidAt
		c.PaidAt = &at
	}
	return &c
}

func cloneInvestment(inv *investment.Investment) *investment.Investment {
	c := *inv
	c.Returns = make([]investment.ReturnRecord, len(inv.Returns))
	for i, r := range inv.Returns {
		if r.ReceivedAt != nil {
			at := *r.ReceivedAt
			r.ReceivedAt = &at
		}
		c.Returns[i] = r
	}
	return &c
}

func cloneProfile(p *profile.InvestorProfile) *profile.InvestorProfile {
	c := *p
	return &c
}
