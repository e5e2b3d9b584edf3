package mysql

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"p2p-lending/internal/domain/errs"
	domain "p2p-lending/internal/domain/loan"
	"p2p-lending/pkg/id"
)

// openTestDB creates an in-memory sqlite DB with the full schema.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	// every connection to :memory: is a separate database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := Migrate(db); err != nil {
		t.Fatalf("auto-migrate: %v", err)
	}
	return db
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func makeLoan(loanID string) *domain.Loan {
	return &domain.Loan{
		LoanID:       loanID,
		BorrowerID:   id.Hex32(),
		Amount:       dec("1000"),
		MonthlyRate:  dec("0.02"),
		TermMonths:   6,
		Purpose:      "working capital",
		Status:       domain.StatusPending,
		FundedAmount: decimal.Zero,
	}
}

func TestCreateAndGetByLoanID(t *testing.T) {
	repo := NewLoanRepository(openTestDB(t))
	ctx := context.Background()

	loanID := id.New(id.PrefixLoan)
	l := makeLoan(loanID)
	if err := repo.Create(ctx, l); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if l.ID == 0 {
		t.Fatalf("Create did not set auto-increment ID")
	}

	got, err := repo.GetByLoanID(ctx, loanID)
	if err != nil {
		t.Fatalf("GetByLoanID: %v", err)
	}
	if got.LoanID != loanID || !got.Amount.Equal(dec("1000")) || !got.MonthlyRate.Equal(dec("0.02")) {
		t.Errorf("unexpected loan: %+v", got)
	}
}

func TestSaveUpdates(t *testing.T) {
	repo := NewLoanRepository(openTestDB(t))
	ctx := context.Background()

	l := makeLoan(id.New(id.PrefixLoan))
	if err := repo.Create(ctx, l); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := l.ApplyFunding(dec("250.50"), time.Now().UTC()); err != nil {
		t.Fatal(err)
	}
	if err := repo.Save(ctx, l); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := repo.GetByLoanIDForUpdate(ctx, l.LoanID)
	if err != nil {
		t.Fatalf("GetByLoanIDForUpdate: %v", err)
	}
	if got.Status != domain.StatusFunding || !got.FundedAmount.Equal(dec("250.5")) || got.FundingProgress != 25 {
		t.Errorf("not updated: %+v", got)
	}
}

func TestGetByLoanID_NotFound(t *testing.T) {
	repo := NewLoanRepository(openTestDB(t))
	ctx := context.Background()

	if _, err := repo.GetByLoanID(ctx, "ln_missing"); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := repo.GetByLoanIDForUpdate(ctx, "ln_missing"); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListByStatus(t *testing.T) {
	db := openTestDB(t)
	repo := NewLoanRepository(db)
	ctx := context.Background()

	for _, s := range []domain.Status{domain.StatusPending, domain.StatusActive, domain.StatusFunding, domain.StatusCompleted} {
		l := makeLoan(id.New(id.PrefixLoan))
		l.Status = s
		if err := repo.Create(ctx, l); err != nil {
			t.Fatal(err)
		}
	}
	got, err := repo.ListByStatus(ctx, domain.StatusPending, domain.StatusFunding)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].Status != domain.StatusPending || got[1].Status != domain.StatusFunding {
		t.Fatalf("unexpected: %+v", got)
	}
	none, err := repo.ListByStatus(ctx)
	if err != nil || len(none) != 0 {
		t.Fatalf("empty filter: %v %v", none, err)
	}
}

func TestInstallmentRepository(t *testing.T) {
	repo := NewInstallmentRepository(openTestDB(t))
	ctx := context.Background()
	base := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)

	items := []domain.Installment{
		{LoanID: "ln_a", Sequence: 1, DueDate: base, Amount: dec("50.25"), Status: domain.InstallmentPending},
		{LoanID: "ln_a", Sequence: 2, DueDate: base.AddDate(0, 1, 0), Amount: dec("50.25"), Status: domain.InstallmentPending},
		{LoanID: "ln_b", Sequence: 1, DueDate: base, Amount: dec("10"), Status: domain.InstallmentPaid},
	}
	if err := repo.CreateBatch(ctx, items); err != nil {
		t.Fatalf("CreateBatch: %v", err)
	}
	if items[0].ID == 0 {
		t.Fatal("ids not assigned")
	}
	if err := repo.CreateBatch(ctx, []domain.Installment{{LoanID: "ln_a", Sequence: 1}}); err == nil {
		t.Fatal("duplicate (loan, sequence) must fail")
	}

	list, err := repo.ListByLoanID(ctx, "ln_a")
	if err != nil || len(list) != 2 || list[0].Sequence != 1 {
		t.Fatalf("ListByLoanID: %+v %v", list, err)
	}

	due, err := repo.ListPendingDueBefore(ctx, base.AddDate(0, 0, 1))
	if err != nil || len(due) != 1 || due[0].LoanID != "ln_a" || due[0].Sequence != 1 {
		t.Fatalf("ListPendingDueBefore: %+v %v", due, err)
	}

	due[0].MarkOverdue(base.AddDate(0, 0, 1))
	if err := repo.Save(ctx, &due[0]); err != nil {
		t.Fatal(err)
	}
	due, _ = repo.ListPendingDueBefore(ctx, base.AddDate(0, 0, 1))
	if len(due) != 0 {
		t.Fatalf("overdue installment still pending: %+v", due)
	}
}
