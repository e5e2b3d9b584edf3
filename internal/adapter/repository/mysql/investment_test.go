package mysql

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"p2p-lending/internal/domain/errs"
	invDomain "p2p-lending/internal/domain/investment"
	profileDomain "p2p-lending/internal/domain/profile"
	"p2p-lending/internal/domain/riskprofile"
)

func TestInvestmentRepository_CreateGetList(t *testing.T) {
	repo := NewInvestmentRepository(openTestDB(t))
	ctx := context.Background()
	now := time.Now().UTC()

	for _, ivID := range []string{"iv_2", "iv_1"} {
		inv, err := invDomain.New(ivID, "investor", "ln_x", dec("500"), dec("0.02"), 6, now)
		if err != nil {
			t.Fatal(err)
		}
		if err := repo.Create(ctx, inv); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	got, err := repo.GetByInvestmentID(ctx, "iv_1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(got.Returns) != 6 || got.Returns[0].Month != 1 || got.Returns[5].Month != 6 {
		t.Fatalf("returns not preloaded in order: %+v", got.Returns)
	}
	if !got.ExpectedReturn.Equal(got.ScheduledTotal()) {
		t.Fatalf("expected %s != scheduled %s", got.ExpectedReturn, got.ScheduledTotal())
	}

	list, err := repo.ListByLoanID(ctx, "ln_x")
	if err != nil || len(list) != 2 || list[0].InvestmentID != "iv_2" {
		t.Fatalf("ListByLoanID: %+v %v", list, err)
	}

	if _, err := repo.GetByInvestmentID(ctx, "iv_nope"); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("want not found, got %v", err)
	}
}

func TestInvestmentRepository_SavePersistsReturnRecords(t *testing.T) {
	repo := NewInvestmentRepository(openTestDB(t))
	ctx := context.Background()
	now := time.Now().UTC()

	inv, _ := invDomain.New("iv_s", "investor", "ln_s", dec("300"), decimal.Zero, 3, now)
	if err := repo.Create(ctx, inv); err != nil {
		t.Fatal(err)
	}
	if _, err := inv.CreditMonth(1, now); err != nil {
		t.Fatal(err)
	}
	if err := repo.Save(ctx, inv); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, _ := repo.GetByInvestmentID(ctx, "iv_s")
	if !got.ActualReturn.Equal(dec("100")) {
		t.Fatalf("actual return = %s", got.ActualReturn)
	}
	if got.Returns[0].Status != invDomain.ReturnReceived || got.Returns[0].ReceivedAt == nil {
		t.Fatalf("return record not saved: %+v", got.Returns[0])
	}
	if got.Returns[1].Status != invDomain.ReturnPending {
		t.Fatalf("unrelated record changed: %+v", got.Returns[1])
	}
}

func TestProfileRepository_Upsert(t *testing.T) {
	repo := NewProfileRepository(openTestDB(t))
	ctx := context.Background()

	p := &profileDomain.InvestorProfile{
		InvestorID: "investor", Category: riskprofile.Moderate, TotalScore: dec("2.5"),
		MonthlyIncome: dec("10000"), NetWorth: dec("50000"), InvestmentLimit: dec("3000"),
	}
	if err := repo.Upsert(ctx, p); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if err := repo.Upsert(ctx, &profileDomain.InvestorProfile{
		InvestorID: "investor", Category: riskprofile.Aggressive, TotalScore: dec("3.5"),
		MonthlyIncome: dec("10000"), NetWorth: dec("50000"), InvestmentLimit: dec("6000"),
	}); err != nil {
		t.Fatalf("Upsert again: %v", err)
	}

	got, err := repo.GetByInvestorID(ctx, "investor")
	if err != nil {
		t.Fatal(err)
	}
	if got.Category != riskprofile.Aggressive || !got.InvestmentLimit.Equal(dec("6000")) {
		t.Fatalf("not replaced: %+v", got)
	}
	if _, err := repo.GetByInvestorID(ctx, "other"); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("want not found, got %v", err)
	}
}
