package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

func headers(kv map[string]string) http.Header {
	h := http.Header{}
	for k, v := range kv {
		h.Set(k, v)
	}
	return h
}

func TestReadCaller(t *testing.T) {
	now := time.Date(2025, 9, 5, 3, 0, 0, 0, time.UTC)
	who, err := readCaller(headers(map[string]string{
		HeaderRequestID: testReqID,
		HeaderRequestAt: "2025-09-05T10:05:00+07:00",
		HeaderActorID:   " investor-7 ",
	}), now)
	if err != nil {
		t.Fatalf("readCaller: %v", err)
	}
	if who.actor != "investor-7" || who.requestID != testReqID || !who.at.Equal(now.Add(5*time.Minute)) {
		t.Fatalf("caller = %+v", who)
	}

	tests := []struct {
		name string
		h    map[string]string
		want string
	}{
		{"no request id", map[string]string{HeaderRequestAt: "1757041200", HeaderActorID: "a"}, "missing " + HeaderRequestID},
		{"upper hex id", map[string]string{HeaderRequestID: strings.ToUpper(testReqID), HeaderRequestAt: "1757041200", HeaderActorID: "a"}, "invalid " + HeaderRequestID},
		{"stale", map[string]string{HeaderRequestID: testReqID, HeaderRequestAt: "2025-09-05T02:00:00Z", HeaderActorID: "a"}, "too skewed"},
		{"no actor", map[string]string{HeaderRequestID: testReqID, HeaderRequestAt: "1757041200"}, "missing " + HeaderActorID},
		{"bad actor", map[string]string{HeaderRequestID: testReqID, HeaderRequestAt: "1757041200", HeaderActorID: "a b"}, "invalid " + HeaderActorID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := readCaller(headers(tt.h), now)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("err = %v, want %q", err, tt.want)
			}
		})
	}
}

func TestValidRequestID(t *testing.T) {
	for _, s := range []string{
		"3f9a6a1b-3d54-4fbe-8b3a-6b3e8d6b2c88",
		strings.Repeat("a", 32),
		"3f9a6a1b3d544fbe8b3a6b3e8d6b2c88",
	} {
		if !validRequestID(s) {
			t.Errorf("should accept %q", s)
		}
	}
	for _, s := range []string{
		"",
		"AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA",
		"3f9a6a1b3d544fbe8b3a6b3e8d6b2c8",
		"3f9a6a1b3d544fbe8b3a6b3e8d6b2c880",
		"zzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzz",
		"3F9A6A1B-3D54-4FBE-8B3A-6B3E8D6B2C88",
		"urn:uuid:3f9a6a1b-3d54-4fbe-8b3a-6b3e8d6b2c88",
		"{3f9a6a1b-3d54-4fbe-8b3a-6b3e8d6b2c88}",
	} {
		if validRequestID(s) {
			t.Errorf("should reject %q", s)
		}
	}
}

func TestParseRequestAt(t *testing.T) {
	sec := time.Now().UTC().Unix()
	if ts, err := parseRequestAt(strconv.FormatInt(sec, 10)); err != nil || !ts.Equal(time.Unix(sec, 0)) {
		t.Fatalf("epoch seconds: got %v err=%v", ts, err)
	}
	ms := time.Now().UTC().UnixMilli()
	if ts, err := parseRequestAt(strconv.FormatInt(ms, 10)); err != nil || !ts.Equal(time.UnixMilli(ms)) {
		t.Fatalf("epoch millis: got %v err=%v", ts, err)
	}

	want := time.Date(2025, 9, 5, 3, 0, 0, 0, time.UTC)
	for _, raw := range []string{"2025-09-05T10:00:00+07:00", "2025-09-05T03:00:00Z", "2025-09-05T03:00:00.000Z"} {
		ts, err := parseRequestAt(raw)
		if err != nil || !ts.Equal(want) || ts.Location() != time.UTC {
			t.Fatalf("parseRequestAt(%q) = %v, %v", raw, ts, err)
		}
	}

	for _, raw := range []string{"", "not-a-time", "2025-09-05T10:00:00", "1736123456abc"} {
		if _, err := parseRequestAt(raw); err == nil {
			t.Fatalf("expected error for %q", raw)
		}
	}
}

func TestResourceOfFillsRouteParams(t *testing.T) {
	c := echo.New().NewContext(httptest.NewRequest(http.MethodPost, "/", nil), httptest.NewRecorder())
	c.SetPath("/loans/:loan_id/installments/:sequence/payments")
	c.SetParamNames("loan_id", "sequence")
	c.SetParamValues("ln_9", "3")

	if got, want := resourceOf(c), "/loans/ln_9/installments/3/payments"; got != want {
		t.Fatalf("resourceOf = %q, want %q", got, want)
	}

	who := caller{actor: "investor-7", requestID: testReqID}
	if got, want := replayKey(who, http.MethodPost, "/loans/ln_9/investments"), "idemp:investor-7:"+testReqID+":post:/loans/ln_9/investments"; got != want {
		t.Fatalf("replayKey = %q, want %q", got, want)
	}
}
