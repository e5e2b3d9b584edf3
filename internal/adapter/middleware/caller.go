package middleware

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

var (
	reHex32   = regexp.MustCompile(`^[a-f0-9]{32}$`)
	reActorID = regexp.MustCompile(`^[A-Za-z0-9_.:-]{1,64}$`)
)

// caller identifies one attempt: who sent it, its request id and when the
// client says it was made.
type caller struct {
	actor     string
	requestID string
	at        time.Time
}

// readCaller validates the idempotency headers against now.
func readCaller(h http.Header, now time.Time) (caller, error) {
	var who caller

	who.requestID = strings.TrimSpace(h.Get(HeaderRequestID))
	switch {
	case who.requestID == "":
		return who, errors.New("missing " + HeaderRequestID)
	case !validRequestID(who.requestID):
		return who, errors.New("invalid " + HeaderRequestID + " format")
	}

	at, err := parseRequestAt(h.Get(HeaderRequestAt))
	if err != nil {
		return who, err
	}
	if at.Before(now.Add(-maxClockSkew)) || at.After(now.Add(maxClockSkew)) {
		return who, errors.New(HeaderRequestAt + " too skewed")
	}
	who.at = at

	who.actor = strings.TrimSpace(h.Get(HeaderActorID))
	switch {
	case who.actor == "":
		return who, errors.New("missing " + HeaderActorID)
	case !reActorID.MatchString(who.actor):
		return who, errors.New("invalid " + HeaderActorID)
	}
	return who, nil
}

// validRequestID accepts a canonical lowercase UUID or 32 lowercase hex chars.
func validRequestID(id string) bool {
	if reHex32.MatchString(id) {
		return true
	}
	u, err := uuid.Parse(id)
	return err == nil && u.String() == id
}

// parseRequestAt reads epoch seconds, epoch milliseconds or RFC3339 with an
// explicit zone. Timestamps without a zone are rejected.
func parseRequestAt(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, errors.New("missing " + HeaderRequestAt)
	}
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		if n > 1e12 {
			return time.UnixMilli(n).UTC(), nil
		}
		return time.Unix(n, 0).UTC(), nil
	}
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, errors.New(HeaderRequestAt + " must be epoch (s/ms) or RFC3339 with timezone")
}

// resourceOf is the route with its parameters filled in, e.g.
// /loans/ln_1/investments for /loans/:loan_id/investments.
func resourceOf(c echo.Context) string {
	path := c.Path()
	names, values := c.ParamNames(), c.ParamValues()
	for i, name := range names {
		if i >= len(values) {
			break
		}
		path = strings.Replace(path, ":"+name, values[i], 1)
	}
	return path
}

func replayKey(who caller, method, resource string) string {
	return "idemp:" + who.actor + ":" + who.requestID + ":" + strings.ToLower(method) + ":" + resource
}

func fingerprint(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}
