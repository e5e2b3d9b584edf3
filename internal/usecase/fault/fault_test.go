package fault

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"p2p-lending/internal/domain/errs"
)

func TestSurface(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil))
	ctx := context.Background()

	if err := Surface(ctx, log, "invest", nil); err != nil {
		t.Fatalf("nil: %v", err)
	}

	expected := errs.State("loan is completed")
	if err := Surface(ctx, log, "invest", expected); err != expected {
		t.Fatalf("expected error must pass through, got %v", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("expected errors are not logged: %s", buf.String())
	}

	err := Surface(ctx, log, "invest", errors.New("dial tcp 10.0.0.1:3306: refused"), "loan_id", "ln_1")
	if !errors.Is(err, errs.ErrInternal) {
		t.Fatalf("want internal, got %v", err)
	}
	if strings.Contains(err.Error(), "3306") {
		t.Fatalf("internal detail leaked: %v", err)
	}
	if !strings.Contains(buf.String(), "3306") || !strings.Contains(buf.String(), "loan_id=ln_1") {
		t.Fatalf("cause not logged: %s", buf.String())
	}
}
