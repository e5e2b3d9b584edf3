// Package riskprofile classifies investors from weighted questionnaire
// answers and derives how much they may commit per investment.
package riskprofile

import (
	_ "embed"
	"fmt"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"p2p-lending/internal/domain/errs"
)

type Category string

const (
	Conservative Category = "conservative"
	Moderate     Category = "moderate"
	Aggressive   Category = "aggressive"
)

// ParseCategory accepts the lowercase category names.
func ParseCategory(s string) (Category, error) {
	switch c := Category(s); c {
	case Conservative, Moderate, Aggressive:
		return c, nil
	}
	return "", errs.Validation("unknown risk profile %q", s)
}

var multipliers = map[Category]decimal.Decimal{
	Conservative: decimal.RequireFromString("0.5"),
	Moderate:     decimal.RequireFromString("1.0"),
	Aggressive:   decimal.RequireFromString("2.0"),
}

var (
	incomeShare   = decimal.RequireFromString("0.3")
	netWorthShare = decimal.RequireFromString("0.1")
	two           = decimal.NewFromInt(2)
	three         = decimal.NewFromInt(3)
)

type Option struct {
	ID    string `yaml:"id" json:"id"`
	Label string `yaml:"label" json:"label"`
	Score int    `yaml:"score" json:"score"`
}

type Question struct {
	ID      string   `yaml:"id" json:"id"`
	Text    string   `yaml:"text" json:"text"`
	Weight  float64  `yaml:"weight" json:"weight"`
	Options []Option `yaml:"options" json:"options"`
}

// Questionnaire is an immutable set of weighted questions.
type Questionnaire struct {
	Questions []Question `yaml:"questions" json:"questions"`

	byID map[string]*Question
}

//go:embed questionnaire.yaml
var defaultQuestionnaire []byte

// Default returns the built-in questionnaire.
func Default() *Questionnaire {
	q, err := Parse(defaultQuestionnaire)
	if err != nil {
		panic(fmt.Sprintf("riskprofile: embedded questionnaire: %v", err))
	}
	return q
}

// Parse decodes and validates a YAML questionnaire.
func Parse(b []byte) (*Questionnaire, error) {
	var q Questionnaire
	if err := yaml.Unmarshal(b, &q); err != nil {
		return nil, fmt.Errorf("parse questionnaire: %w", err)
	}
	if err := q.index(); err != nil {
		return nil, err
	}
	return &q, nil
}

func (q *Questionnaire) index() error {
	if len(q.Questions) == 0 {
		return fmt.Errorf("questionnaire has no questions")
	}
	q.byID = make(map[string]*Question, len(q.Questions))
	for i := range q.Questions {
		qu := &q.Questions[i]
		if qu.ID == "" {
			return fmt.Errorf("question %d has no id", i)
		}
		if _, dup := q.byID[qu.ID]; dup {
			return fmt.Errorf("duplicate question id %q", qu.ID)
		}
		if qu.Weight <= 0 {
			return fmt.Errorf("question %q: weight must be positive", qu.ID)
		}
		if len(qu.Options) == 0 {
			return fmt.Errorf("question %q has no options", qu.ID)
		}
		seen := map[string]bool{}
		for _, o := range qu.Options {
			if o.Score < 1 || o.Score > 4 {
				return fmt.Errorf("question %q option %q: score must be 1-4", qu.ID, o.ID)
			}
			if seen[o.ID] {
				return fmt.Errorf("question %q: duplicate option %q", qu.ID, o.ID)
			}
			seen[o.ID] = true
		}
		q.byID[qu.ID] = qu
	}
	return nil
}

// New builds a questionnaire from questions, validating it like Parse does.
func New(questions []Question) (*Questionnaire, error) {
	q := &Questionnaire{Questions: questions}
	if err := q.index(); err != nil {
		return nil, err
	}
	return q, nil
}

// Classification is the outcome of Classify.
type Classification struct {
	Profile    Category
	TotalScore decimal.Decimal
}

// Classify computes Σ(score·weight)/Σweight over the answered questions and
// maps it onto a category: ≤2 conservative, ≤3 moderate, else aggressive.
func (q *Questionnaire) Classify(answers map[string]string) (Classification, error) {
	if len(answers) == 0 {
		return Classification{}, errs.Validation("no answers given")
	}
	weighted, weights := decimal.Zero, decimal.Zero
	for qid, oid := range answers {
		qu, ok := q.byID[qid]
		if !ok {
			return Classification{}, errs.Validation("unknown question %q", qid)
		}
		opt, ok := qu.option(oid)
		if !ok {
			return Classification{}, errs.Validation("unknown option %q for question %q", oid, qid)
		}
		w := decimal.NewFromFloat(qu.Weight)
		weighted = weighted.Add(decimal.NewFromInt(int64(opt.Score)).Mul(w))
		weights = weights.Add(w)
	}
	total := weighted.DivRound(weights, 16)

	profile := Aggressive
	switch {
	case total.LessThanOrEqual(two):
		profile = Conservative
	case total.LessThanOrEqual(three):
		profile = Moderate
	}
	return Classification{Profile: profile, TotalScore: total}, nil
}

func (qu *Question) option(id string) (Option, bool) {
	for _, o := range qu.Options {
		if o.ID == id {
			return o, true
		}
	}
	return Option{}, false
}

// InvestmentLimit is round(min(income·0.3, netWorth·0.1) · multiplier).
func InvestmentLimit(c Category, monthlyIncome, netWorth decimal.Decimal) (decimal.Decimal, error) {
	mult, ok := multipliers[c]
	if !ok {
		return decimal.Zero, errs.Validation("unknown risk profile %q", c)
	}
	if monthlyIncome.Sign() < 0 || netWorth.Sign() < 0 {
		return decimal.Zero, errs.Validation("income and net worth must not be negative")
	}
	base := decimal.Min(monthlyIncome.Mul(incomeShare), netWorth.Mul(netWorthShare))
	return base.Mul(mult).Round(0), nil
}
