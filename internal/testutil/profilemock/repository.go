package profilemock

import (
	"context"

	domain "p2p-lending/internal/domain/profile"
)

var _ domain.Repository = (*Repo)(nil)

// Repo is a function-backed mock that satisfies domain.Repository.
type Repo struct {
	UpsertFn          func(ctx context.Context, p *domain.InvestorProfile) error
	GetByInvestorIDFn func(ctx context.Context, investorID string) (*domain.InvestorProfile, error)
}

func (m *Repo) Upsert(ctx context.Context, p *domain.InvestorProfile) error {
	if m.UpsertFn != nil {
		return m.UpsertFn(ctx, p)
	}
	return nil
}
func (m *Repo) GetByInvestorID(ctx context.Context, investorID string) (*domain.InvestorProfile, error) {
	if m.GetByInvestorIDFn != nil {
		return m.GetByInvestorIDFn(ctx, investorID)
	}
	return nil, context.Canceled
}
