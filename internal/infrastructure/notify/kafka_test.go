package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"

	"p2p-lending/internal/domain/event"
)

type fakeWriter struct {
	msgs   []kafkago.Message
	ctxErr error
	err    error
}

func (f *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafkago.Message) error {
	f.ctxErr = ctx.Err()
	f.msgs = append(f.msgs, msgs...)
	return f.err
}

func (f *fakeWriter) Close() error { return nil }

func TestKafka_PublishEncodesEnvelopes(t *testing.T) {
	w := &fakeWriter{}
	k := newKafka(w, slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))
	at := time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC)
	k.now = func() time.Time { return at }

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	k.Publish(ctx,
		event.InvestmentCreated{LoanID: "ln_1", InvestorID: "inv", InvestmentID: "iv_1", Amount: decimal.NewFromInt(100)},
		event.LoanFullyFunded{LoanID: "ln_1", Amount: decimal.NewFromInt(1000)},
	)

	if len(w.msgs) != 2 {
		t.Fatalf("want 2 messages, got %d", len(w.msgs))
	}
	if w.ctxErr != nil {
		t.Fatalf("cancelled request ctx leaked into writer: %v", w.ctxErr)
	}
	m := w.msgs[1]
	if string(m.Key) != "ln_1" || !m.Time.Equal(at) {
		t.Fatalf("key/time: %q %v", m.Key, m.Time)
	}
	if len(m.Headers) != 1 || string(m.Headers[0].Value) != event.NameLoanFullyFunded {
		t.Fatalf("headers: %+v", m.Headers)
	}
	var env map[string]any
	if err := json.Unmarshal(m.Value, &env); err != nil {
		t.Fatal(err)
	}
	if env["name"] != event.NameLoanFullyFunded || env["id"] == "" {
		t.Fatalf("envelope: %v", env)
	}
	payload := env["payload"].(map[string]any)
	if payload["loan_id"] != "ln_1" || payload["amount"] != "1000" {
		t.Fatalf("payload: %v", payload)
	}
}

func TestKafka_WriteErrorIsLoggedNotReturned(t *testing.T) {
	var buf bytes.Buffer
	w := &fakeWriter{err: errors.New("broker down")}
	k := newKafka(w, slog.New(slog.NewTextHandler(&buf, nil)))

	k.Publish(context.Background(), event.PaymentReceived{LoanID: "ln_2", InvestmentID: "iv_2", Month: 1, Amount: decimal.NewFromInt(5)})

	if !strings.Contains(buf.String(), "broker down") {
		t.Fatalf("error not logged: %s", buf.String())
	}
}

func TestKafka_NoEventsNoWrite(t *testing.T) {
	w := &fakeWriter{}
	newKafka(w, slog.Default()).Publish(context.Background())
	if len(w.msgs) != 0 {
		t.Fatal("unexpected write")
	}
}

func TestLog_Publish(t *testing.T) {
	var buf bytes.Buffer
	NewLog(slog.New(slog.NewTextHandler(&buf, nil))).Publish(context.Background(), event.LoanFullyFunded{LoanID: "ln_3"})
	if !strings.Contains(buf.String(), "event=LoanFullyFunded") || !strings.Contains(buf.String(), "key=ln_3") {
		t.Fatalf("log: %s", buf.String())
	}
}
