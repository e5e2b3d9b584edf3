package riskprofile

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"p2p-lending/internal/domain/errs"
	"p2p-lending/internal/domain/profile"
	"p2p-lending/internal/domain/riskprofile"
	"p2p-lending/internal/usecase/fault"
)

type AssessInput struct {
	InvestorID    string            `json:"investor_id"`
	Answers       map[string]string `json:"answers"`
	MonthlyIncome decimal.Decimal   `json:"monthly_income"`
	NetWorth      decimal.Decimal   `json:"net_worth"`
}

type LimitInput struct {
	Profile       string          `json:"profile"`
	MonthlyIncome decimal.Decimal `json:"monthly_income"`
	NetWorth      decimal.Decimal `json:"net_worth"`
}

type ProfileDTO struct {
	InvestorID      string          `json:"investor_id"`
	Profile         string          `json:"profile"`
	TotalScore      decimal.Decimal `json:"total_score"`
	InvestmentLimit decimal.Decimal `json:"investment_limit"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

type Usecase struct {
	q        *riskprofile.Questionnaire
	profiles profile.Repository
	now      func() time.Time
	log      *slog.Logger
}

func NewUsecase(q *riskprofile.Questionnaire, profiles profile.Repository, log *slog.Logger) *Usecase {
	if q == nil {
		q = riskprofile.Default()
	}
	if log == nil {
		log = slog.Default()
	}
	return &Usecase{q: q, profiles: profiles, now: time.Now, log: log}
}

func (u *Usecase) Questionnaire() *riskprofile.Questionnaire { return u.q }

// Assess classifies the answers, derives the investor's limit and stores both.
func (u *Usecase) Assess(ctx context.Context, in AssessInput) (*ProfileDTO, error) {
	if strings.TrimSpace(in.InvestorID) == "" {
		return nil, errs.Validation("investor id is required")
	}
	c, err := u.q.Classify(in.Answers)
	if err != nil {
		return nil, err
	}
	limit, err := riskprofile.InvestmentLimit(c.Profile, in.MonthlyIncome, in.NetWorth)
	if err != nil {
		return nil, err
	}

	p := &profile.InvestorProfile{
		InvestorID:      in.InvestorID,
		Category:        c.Profile,
		TotalScore:      c.TotalScore.Round(4),
		MonthlyIncome:   in.MonthlyIncome,
		NetWorth:        in.NetWorth,
		InvestmentLimit: limit,
		UpdatedAt:       u.now().UTC(),
	}
	if err := u.profiles.Upsert(ctx, p); err != nil {
		return nil, fault.Surface(ctx, u.log, "store risk profile", err, "investor_id", in.InvestorID)
	}
	return &ProfileDTO{
		InvestorID:      p.InvestorID,
		Profile:         string(p.Category),
		TotalScore:      p.TotalScore,
		InvestmentLimit: p.InvestmentLimit,
		UpdatedAt:       p.UpdatedAt,
	}, nil
}

// Limit computes an investment limit without storing anything.
func (u *Usecase) Limit(_ context.Context, in LimitInput) (decimal.Decimal, error) {
	c, err := riskprofile.ParseCategory(in.Profile)
	if err != nil {
		return decimal.Zero, err
	}
	return riskprofile.InvestmentLimit(c, in.MonthlyIncome, in.NetWorth)
}

func (u *Usecase) Get(ctx context.Context, investorID string) (*ProfileDTO, error) {
	p, err := u.profiles.GetByInvestorID(ctx, investorID)
	if err != nil {
		return nil, fault.Surface(ctx, u.log, "get risk profile", err, "investor_id", investorID)
	}
	return &ProfileDTO{
		InvestorID:      p.InvestorID,
		Profile:         string(p.Category),
		TotalScore:      p.TotalScore,
		InvestmentLimit: p.InvestmentLimit,
		UpdatedAt:       p.UpdatedAt,
	}, nil
}

// CheckInvestmentLimit rejects amounts above the investor's stored limit.
// Investors who never took the questionnaire are not gated.
func (u *Usecase) CheckInvestmentLimit(ctx context.Context, investorID string, amount decimal.Decimal) error {
	p, err := u.profiles.GetByInvestorID(ctx, investorID)
	if errors.Is(err, errs.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if amount.GreaterThan(p.InvestmentLimit) {
		return errs.Validation("amount %s exceeds investment limit %s for %s investor %s",
			amount.StringFixed(2), p.InvestmentLimit.StringFixed(2), p.Category, investorID)
	}
	return nil
}
