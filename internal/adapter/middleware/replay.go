package middleware

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// savedResponse is what the first attempt produced. Pending marks a
// reservation whose handler has not finished.
type savedResponse struct {
	Pending     bool      `json:"pending,omitempty"`
	Status      int       `json:"status,omitempty"`
	Body        []byte    `json:"body,omitempty"`
	Fingerprint string    `json:"fingerprint"`
	RequestAt   time.Time `json:"request_at"`
	SavedAt     time.Time `json:"saved_at"`
}

func (r savedResponse) done() bool { return !r.Pending && r.Status != 0 && len(r.Body) > 0 }

// replayStore keeps request outcomes in Redis for ttl.
type replayStore struct {
	rdb redis.Cmdable
	ttl time.Duration
}

// reserve claims key for a new attempt. false means someone holds it.
func (s *replayStore) reserve(ctx context.Context, key, digest string, at time.Time) (bool, error) {
	payload, err := json.Marshal(savedResponse{Pending: true, Fingerprint: digest, RequestAt: at, SavedAt: time.Now().UTC()})
	if err != nil {
		return false, err
	}
	return s.rdb.SetNX(ctx, key, payload, reservationTTL).Result()
}

func (s *replayStore) lookup(ctx context.Context, key string) (savedResponse, error) {
	var r savedResponse
	raw, err := s.rdb.Get(ctx, key).Bytes()
	if err != nil {
		return r, err
	}
	err = json.Unmarshal(raw, &r)
	return r, err
}

// keep replaces the reservation with the final outcome.
func (s *replayStore) keep(ctx context.Context, key string, r savedResponse) error {
	r.Pending = false
	r.SavedAt = time.Now().UTC()
	payload, err := json.Marshal(r)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, key, payload, s.ttl).Err()
}

func (s *replayStore) release(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, key).Err()
}
