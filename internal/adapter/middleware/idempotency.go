package middleware

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

const (
	HeaderRequestID = "X-Request-Id"
	HeaderRequestAt = "X-Request-At"
	HeaderActorID   = "X-Actor-Id"
	HeaderReplay    = "X-Idempotent-Replay"
)

const (
	// a reservation outliving this is treated as abandoned
	reservationTTL = 60 * time.Second
	maxClockSkew   = 10 * time.Minute
	storeTimeout   = 2 * time.Second
)

// Idempotent makes mutating lending calls safe to retry. A borrower or
// investor sends the same X-Request-Id again and gets the first outcome back
// instead of a second loan, investment or payment.
//
// Outcomes are remembered per actor, request id and resolved resource, so one
// request id used against two loans counts as two requests. Server errors
// are forgotten so the caller can retry them.
func Idempotent(rdb redis.Cmdable, ttl time.Duration, log *slog.Logger) echo.MiddlewareFunc {
	if log == nil {
		log = slog.Default()
	}
	store := &replayStore{rdb: rdb, ttl: ttl}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if !mutating(req.Method) {
				return next(c)
			}

			who, err := readCaller(req.Header, time.Now().UTC())
			if err != nil {
				return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
			}

			var body []byte
			if req.Body != nil {
				body, _ = io.ReadAll(req.Body)
			}
			req.Body = io.NopCloser(bytes.NewReader(body))
			digest := fingerprint(body)

			key := replayKey(who, req.Method, resourceOf(c))
			ctx, cancel := context.WithTimeout(req.Context(), storeTimeout)
			defer cancel()

			reserved, err := store.reserve(ctx, key, digest, who.at)
			if err != nil {
				log.ErrorContext(ctx, "idempotency store unavailable", "key", key, "err", err)
				return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "idempotency store unavailable"})
			}
			if !reserved {
				return replay(ctx, c, store, key, digest, log)
			}

			capture := &captureWriter{ResponseWriter: c.Response().Writer, status: http.StatusOK}
			c.Response().Writer = capture
			if err := next(c); err != nil {
				c.Error(err)
			}

			saveCtx, saveCancel := context.WithTimeout(context.WithoutCancel(req.Context()), storeTimeout)
			defer saveCancel()
			if capture.status >= http.StatusInternalServerError {
				if err := store.release(saveCtx, key); err != nil {
					log.WarnContext(saveCtx, "idempotency release failed", "key", key, "err", err)
				}
				return nil
			}
			outcome := savedResponse{Status: capture.status, Body: capture.body.Bytes(), Fingerprint: digest, RequestAt: who.at}
			if err := store.keep(saveCtx, key, outcome); err != nil {
				log.WarnContext(saveCtx, "idempotency save failed", "key", key, "err", err)
			}
			return nil
		}
	}
}

// replay answers a request whose key is already taken: the stored outcome,
// or a conflict while the first attempt runs or when the body differs.
func replay(ctx context.Context, c echo.Context, store *replayStore, key, digest string, log *slog.Logger) error {
	prev, err := store.lookup(ctx, key)
	if err != nil {
		log.WarnContext(ctx, "idempotency entry unreadable", "key", key, "err", err)
	}
	switch {
	case prev.Fingerprint != "" && prev.Fingerprint != digest:
		return c.JSON(http.StatusConflict, map[string]string{"error": HeaderRequestID + " reused with different body"})
	case prev.done():
		c.Response().Header().Set(HeaderReplay, "true")
		return c.Blob(prev.Status, echo.MIMEApplicationJSON, prev.Body)
	default:
		return c.JSON(http.StatusConflict, map[string]string{"error": "request is already in progress"})
	}
}

func mutating(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return false
	}
	return true
}

type captureWriter struct {
	http.ResponseWriter
	body   bytes.Buffer
	status int
}

func (w *captureWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *captureWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
