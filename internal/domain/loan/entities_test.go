package loan

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"p2p-lending/internal/domain/errs"
)

var now = time.Date(2025, 9, 6, 10, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func newPending(amount string) *Loan {
	return &Loan{
		LoanID:       "ln_test",
		Amount:       dec(amount),
		MonthlyRate:  dec("0.02"),
		TermMonths:   6,
		Status:       StatusPending,
		FundedAmount: decimal.Zero,
	}
}

func TestApplyFunding_PartialThenFull(t *testing.T) {
	l := newPending("1000")

	full, err := l.ApplyFunding(dec("250"), now)
	if err != nil || full {
		t.Fatalf("first: full=%v err=%v", full, err)
	}
	if l.Status != StatusFunding || l.FundingProgress != 25 {
		t.Fatalf("after first: status=%s progress=%d", l.Status, l.FundingProgress)
	}

	full, err = l.ApplyFunding(dec("750"), now)
	if err != nil || !full {
		t.Fatalf("second: full=%v err=%v", full, err)
	}
	if l.Status != StatusActive || l.FundingProgress != 100 || l.ActivatedAt == nil {
		t.Fatalf("after second: %+v", l)
	}
}

func TestApplyFunding_SingleFullInvestmentActivates(t *testing.T) {
	l := newPending("500")
	full, err := l.ApplyFunding(dec("500"), now)
	if err != nil || !full || l.Status != StatusActive {
		t.Fatalf("full=%v err=%v status=%s", full, err, l.Status)
	}
}

func TestApplyFunding_RejectsOverfundWithoutMutation(t *testing.T) {
	l := newPending("1000")
	if _, err := l.ApplyFunding(dec("700"), now); err != nil {
		t.Fatal(err)
	}
	before := *l

	_, err := l.ApplyFunding(dec("300.01"), now)
	if !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("want validation error, got %v", err)
	}
	if want := "remaining funding capacity 300.00"; !strings.Contains(err.Error(), want) {
		t.Fatalf("error %q should name %q", err, want)
	}
	if !l.FundedAmount.Equal(before.FundedAmount) || l.Status != before.Status || l.FundingProgress != before.FundingProgress {
		t.Fatalf("state mutated on rejection: %+v", l)
	}
}

func TestApplyFunding_Rejections(t *testing.T) {
	l := newPending("1000")
	if _, err := l.ApplyFunding(decimal.Zero, now); !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("zero amount: %v", err)
	}
	if _, err := l.ApplyFunding(dec("-5"), now); !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("negative amount: %v", err)
	}
	l.Status = StatusCompleted
	if _, err := l.ApplyFunding(dec("5"), now); !errors.Is(err, errs.ErrState) {
		t.Fatalf("completed loan: %v", err)
	}
}

func TestProgress_Rounds(t *testing.T) {
	tests := []struct {
		funded, amount string
		want           int
	}{
		{"0", "1000", 0},
		{"1", "3", 33},
		{"2", "3", 67},
		{"5", "1000", 1},
		{"4", "1000", 0},
		{"999.99", "1000", 100},
		{"1000", "1000", 100},
	}
	for _, tt := range tests {
		if got := Progress(dec(tt.funded), dec(tt.amount)); got != tt.want {
			t.Errorf("Progress(%s/%s) = %d, want %d", tt.funded, tt.amount, got, tt.want)
		}
	}
}

func TestTransitions_NeverBackward(t *testing.T) {
	backward := [][2]Status{
		{StatusActive, StatusPending},
		{StatusActive, StatusFunding},
		{StatusFunding, StatusPending},
		{StatusCompleted, StatusActive},
		{StatusDefaulted, StatusActive},
		{StatusPending, StatusCompleted},
	}
	for _, p := range backward {
		if p[0].CanTransitionTo(p[1]) {
			t.Errorf("%s -> %s must not be allowed", p[0], p[1])
		}
	}
	l := newPending("100")
	l.Status = StatusActive
	if err := l.TransitionTo(StatusPending, now); !errors.Is(err, errs.ErrState) {
		t.Fatalf("want state error, got %v", err)
	}
}

func TestTransitionTo_ActiveRequiresFullFunding(t *testing.T) {
	l := newPending("100")
	l.Status = StatusFunding
	l.FundedAmount = dec("50")
	if err := l.TransitionTo(StatusActive, now); !errors.Is(err, errs.ErrState) {
		t.Fatalf("want state error, got %v", err)
	}
}

func TestInstallment_MarkPaidAndOverdue(t *testing.T) {
	it := &Installment{LoanID: "ln_x", Sequence: 1, DueDate: now.Add(-time.Hour), Status: InstallmentPending}
	if !it.MarkOverdue(now) || it.Status != InstallmentOverdue {
		t.Fatalf("expected overdue, got %s", it.Status)
	}
	if it.MarkOverdue(now) {
		t.Fatal("overdue installment must not be re-flagged")
	}
	if err := it.MarkPaid(now); err != nil || it.Status != InstallmentPaid || it.PaidAt == nil {
		t.Fatalf("MarkPaid: err=%v %+v", err, it)
	}
	if err := it.MarkPaid(now); !errors.Is(err, errs.ErrState) {
		t.Fatalf("double pay: %v", err)
	}

	future := &Installment{DueDate: now.Add(time.Hour), Status: InstallmentPending}
	if future.MarkOverdue(now) {
		t.Fatal("future installment is not overdue")
	}
}
