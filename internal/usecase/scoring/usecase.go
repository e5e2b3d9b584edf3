package scoring

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"p2p-lending/internal/domain/errs"
	"p2p-lending/internal/domain/scoring"
	"p2p-lending/internal/infrastructure/metrics"
)

type TransactionInput struct {
	Date        string          `json:"date"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
}

type ScoreDTO struct {
	Score              int      `json:"score"`
	Band               string   `json:"band"`
	PositiveIndicators []string `json:"positive_indicators"`
	NegativeIndicators []string `json:"negative_indicators"`
}

type Usecase struct {
	engine  *scoring.Engine
	metrics *metrics.Metrics
}

func NewUsecase(engine *scoring.Engine, m *metrics.Metrics) *Usecase {
	if engine == nil {
		engine = scoring.NewEngine()
	}
	return &Usecase{engine: engine, metrics: m}
}

// Score normalizes aggregator transactions and runs the engine over them.
func (u *Usecase) Score(_ context.Context, in []TransactionInput) (*ScoreDTO, error) {
	txs := make([]scoring.Transaction, 0, len(in))
	for i, t := range in {
		d, err := parseDate(t.Date)
		if err != nil {
			return nil, errs.Validation("transaction %d: date %q is not ISO-8601", i, t.Date)
		}
		txs = append(txs, scoring.Transaction{Date: d, Description: t.Description, Amount: t.Amount})
	}
	res := u.engine.Score(txs)
	band := scoring.Band(res.Score)
	u.metrics.ScoreComputed(band)
	return &ScoreDTO{
		Score:              res.Score,
		Band:               band,
		PositiveIndicators: res.Positive,
		NegativeIndicators: res.Negative,
	}, nil
}

// parseDate accepts a calendar date or a full RFC 3339 timestamp.
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}
