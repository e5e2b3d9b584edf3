// Package amortization builds equal-installment (French/price) repayment plans.
package amortization

import (
	"time"

	"github.com/shopspring/decimal"

	"p2p-lending/internal/domain/errs"
)

// divPrecision is the scale kept for intermediate quotients; rounding to
// cents happens only on output.
const divPrecision = 16

var one = decimal.NewFromInt(1)

// Installment is one scheduled payment of a plan.
type Installment struct {
	Sequence int
	DueDate  time.Time
	Amount   decimal.Decimal
}

// Payment returns the exact (unrounded) periodic payment.
//
//	rate > 0:  P * r * (1+r)^n / ((1+r)^n - 1)
//	rate == 0: P / n
func Payment(principal, monthlyRate decimal.Decimal, termMonths int) (decimal.Decimal, error) {
	if principal.Sign() <= 0 {
		return decimal.Zero, errs.Validation("principal must be positive, got %s", principal)
	}
	if termMonths <= 0 {
		return decimal.Zero, errs.Validation("term must be positive, got %d", termMonths)
	}
	if monthlyRate.Sign() < 0 {
		return decimal.Zero, errs.Arithmetic("monthly rate must not be negative, got %s", monthlyRate)
	}

	n := decimal.NewFromInt(int64(termMonths))
	if monthlyRate.IsZero() {
		return principal.DivRound(n, divPrecision), nil
	}

	growth := one.Add(monthlyRate).Pow(n)
	denom := growth.Sub(one)
	if denom.Sign() <= 0 {
		return decimal.Zero, errs.Arithmetic("rate %s over %d months does not compound", monthlyRate, termMonths)
	}
	return principal.Mul(monthlyRate).Mul(growth).DivRound(denom, divPrecision), nil
}

// TotalRepayment is principal plus total interest, rounded to the cent.
func TotalRepayment(principal, monthlyRate decimal.Decimal, termMonths int) (decimal.Decimal, error) {
	p, err := Payment(principal, monthlyRate, termMonths)
	if err != nil {
		return decimal.Zero, err
	}
	return p.Mul(decimal.NewFromInt(int64(termMonths))).Round(2), nil
}

// Generate returns termMonths installments due monthly starting one month
// after start. Every installment but the last is the payment rounded to the
// cent; the last absorbs the remainder so the plan sums to TotalRepayment.
// When the rounded payment would drive the last installment negative (a
// sub-cent payment over many months) the total is spread cent by cent
// instead, earliest months first. No installment is ever negative.
func Generate(principal, monthlyRate decimal.Decimal, termMonths int, start time.Time) ([]Installment, error) {
	payment, err := Payment(principal, monthlyRate, termMonths)
	if err != nil {
		return nil, err
	}
	n := decimal.NewFromInt(int64(termMonths))
	total := payment.Mul(n).Round(2)
	regular := payment.Round(2)

	amounts := make([]decimal.Decimal, termMonths)
	if regular.Mul(n.Sub(one)).GreaterThan(total) {
		spreadCents(amounts, total)
	} else {
		for i := range amounts {
			amounts[i] = regular
		}
		amounts[termMonths-1] = total.Sub(regular.Mul(n.Sub(one)))
	}

	out := make([]Installment, 0, termMonths)
	for i, amount := range amounts {
		out = append(out, Installment{
			Sequence: i + 1,
			DueDate:  AddMonths(start, i+1),
			Amount:   amount,
		})
	}
	return out, nil
}

// spreadCents splits total over len(amounts) whole cents; the first
// total%len months carry one extra cent.
func spreadCents(amounts []decimal.Decimal, total decimal.Decimal) {
	cents := total.Shift(2).IntPart()
	n := int64(len(amounts))
	base, extra := cents/n, cents%n
	for i := range amounts {
		c := base
		if int64(i) < extra {
			c++
		}
		amounts[i] = decimal.New(c, -2)
	}
}

// Sum adds up installment amounts.
func Sum(items []Installment) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Amount)
	}
	return total
}

// AddMonths moves t forward n calendar months, clamping the day to the end of
// the target month (Jan 31 + 1 month = Feb 28/29).
func AddMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(n), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	if last := first.AddDate(0, 1, -1).Day(); d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}
