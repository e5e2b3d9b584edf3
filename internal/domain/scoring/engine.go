// Package scoring derives a dynamic credit score from a list of financial
// transactions using an ordered, data-driven rule table.
package scoring

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	BaseScore = 500
	MinScore  = 300
	MaxScore  = 950
)

// Filler indicators used when no rule fired on a side.
const (
	NoPositiveIndicator = "No positive indicators identified"
	NoNegativeIndicator = "No negative indicators identified"
)

// Transaction is one normalized entry from the financial-data aggregator.
// Positive amounts are inflows, negative amounts outflows.
type Transaction struct {
	Date        time.Time
	Description string
	Amount      decimal.Decimal
}

// Result is the outcome of scoring a transaction set.
type Result struct {
	Score    int
	Positive []string
	Negative []string
}

// KeywordClass groups free-text markers that mean the same behaviour.
type KeywordClass string

const (
	ClassInvestment     KeywordClass = "investment"
	ClassSalary         KeywordClass = "salary"
	ClassOverdraft      KeywordClass = "overdraft"
	ClassPartialPayment KeywordClass = "partial_payment"
	ClassInvoicePayment KeywordClass = "invoice_payment"
)

// Keywords are matched case-insensitively as substrings of the description.
var Keywords = map[KeywordClass][]string{
	ClassInvestment:     {"investment", "investimento", "aplicação", "aplicacao"},
	ClassSalary:         {"salary", "salário", "salario", "payroll"},
	ClassOverdraft:      {"overdraft", "cheque especial"},
	ClassPartialPayment: {"partial payment", "pagamento parcial"},
	ClassInvoicePayment: {"invoice payment", "pagamento de fatura", "pagamento fatura"},
}

// Summary is the single pass over a transaction set that rules read from.
type Summary struct {
	Inflow  decimal.Decimal
	Outflow decimal.Decimal
	Matched map[KeywordClass]bool
}

// Net is inflows plus (negative) outflows.
func (s Summary) Net() decimal.Decimal { return s.Inflow.Add(s.Outflow) }

// Has reports whether any description matched the class.
func (s Summary) Has(c KeywordClass) bool { return s.Matched[c] }

// Summarize folds transactions into totals and matched keyword classes.
func Summarize(txs []Transaction) Summary {
	s := Summary{Inflow: decimal.Zero, Outflow: decimal.Zero, Matched: map[KeywordClass]bool{}}
	for _, tx := range txs {
		if tx.Amount.Sign() > 0 {
			s.Inflow = s.Inflow.Add(tx.Amount)
		} else {
			s.Outflow = s.Outflow.Add(tx.Amount)
		}
		desc := strings.ToLower(tx.Description)
		for class, words := range Keywords {
			if s.Matched[class] {
				continue
			}
			for _, w := range words {
				if strings.Contains(desc, w) {
					s.Matched[class] = true
					break
				}
			}
		}
	}
	return s
}

// Rule is one row of the scoring table: when it applies, Delta is added to
// the score and Indicator is recorded on the Positive or negative side.
type Rule struct {
	Name      string
	Applies   func(Summary) bool
	Delta     int
	Indicator string
	Positive  bool
}

// DefaultRules is the production rule table, evaluated in order.
var DefaultRules = []Rule{
	{
		Name:      "positive_cash_flow",
		Applies:   func(s Summary) bool { return s.Net().Sign() > 0 },
		Delta:     150,
		Indicator: "Positive cash flow: inflows exceed outflows",
		Positive:  true,
	},
	{
		Name:      "negative_cash_flow",
		Applies:   func(s Summary) bool { return s.Net().Sign() <= 0 },
		Delta:     -150,
		Indicator: "Negative cash flow: outflows meet or exceed inflows",
	},
	{
		Name:      "savings_behavior",
		Applies:   func(s Summary) bool { return s.Has(ClassInvestment) },
		Delta:     100,
		Indicator: "Savings behavior: recurring investments detected",
		Positive:  true,
	},
	{
		Name:      "stable_income",
		Applies:   func(s Summary) bool { return s.Has(ClassSalary) },
		Delta:     50,
		Indicator: "Stable income: salary deposits detected",
		Positive:  true,
	},
	{
		Name:      "overdraft_usage",
		Applies:   func(s Summary) bool { return s.Has(ClassOverdraft) },
		Delta:     -200,
		Indicator: "Overdraft usage detected",
	},
	{
		Name:      "revolving_credit",
		Applies:   func(s Summary) bool { return s.Has(ClassPartialPayment) },
		Delta:     -250,
		Indicator: "Revolving credit: partial invoice payments detected",
	},
	{
		Name:      "full_payment",
		Applies:   func(s Summary) bool { return s.Has(ClassInvoicePayment) && !s.Has(ClassPartialPayment) },
		Indicator: "Invoices paid in full",
		Positive:  true,
	},
}

// Engine evaluates a rule table. It holds no mutable state and is safe for
// concurrent use.
type Engine struct {
	rules []Rule
}

// NewEngine builds an engine over rules, or DefaultRules when none are given.
func NewEngine(rules ...Rule) *Engine {
	if len(rules) == 0 {
		rules = DefaultRules
	}
	return &Engine{rules: rules}
}

// Score evaluates every rule once against the transaction set.
func (e *Engine) Score(txs []Transaction) Result {
	s := Summarize(txs)
	res := Result{Score: BaseScore, Positive: []string{}, Negative: []string{}}
	for _, r := range e.rules {
		if !r.Applies(s) {
			continue
		}
		res.Score += r.Delta
		if r.Positive {
			res.Positive = append(res.Positive, r.Indicator)
		} else {
			res.Negative = append(res.Negative, r.Indicator)
		}
	}
	res.Score = clamp(res.Score)
	if len(res.Positive) == 0 {
		res.Positive = append(res.Positive, NoPositiveIndicator)
	}
	if len(res.Negative) == 0 {
		res.Negative = append(res.Negative, NoNegativeIndicator)
	}
	return res
}

func clamp(score int) int {
	if score < MinScore {
		return MinScore
	}
	if score > MaxScore {
		return MaxScore
	}
	return score
}

// Band buckets a score for reporting.
func Band(score int) string {
	switch {
	case score >= 750:
		return "high"
	case score >= 550:
		return "medium"
	default:
		return "low"
	}
}
