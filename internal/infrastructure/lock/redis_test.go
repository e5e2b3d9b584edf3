package lock

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	s := miniredis.RunT(t)
	c := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { _ = c.Close() })
	return s, c
}

func TestRedis_AcquireAndRelease(t *testing.T) {
	s, c := newRedis(t)
	l := NewRedis(c, 10*time.Second)

	err := l.WithLock(context.Background(), "lock:loan:ln_1", func(context.Context) error {
		if !s.Exists("lock:loan:ln_1") {
			t.Fatal("key not set while held")
		}
		if ttl := s.TTL("lock:loan:ln_1"); ttl <= 0 {
			t.Fatalf("ttl not set: %v", ttl)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("WithLock: %v", err)
	}
	if s.Exists("lock:loan:ln_1") {
		t.Fatal("key not released")
	}
}

func TestRedis_HeldElsewhereTimesOut(t *testing.T) {
	s, c := newRedis(t)
	if err := s.Set("k", "someone-else"); err != nil {
		t.Fatal(err)
	}
	l := NewRedis(c, time.Second, WithWait(30*time.Millisecond), WithBackoff(5*time.Millisecond))

	err := l.WithLock(context.Background(), "k", func(context.Context) error {
		t.Fatal("must not run")
		return nil
	})
	if !errors.Is(err, ErrNotAcquired) {
		t.Fatalf("want ErrNotAcquired, got %v", err)
	}
	// foreign owner's key is untouched
	if v, _ := s.Get("k"); v != "someone-else" {
		t.Fatalf("foreign key changed: %q", v)
	}
}

func TestRedis_SerializesHolders(t *testing.T) {
	_, c := newRedis(t)
	l := NewRedis(c, 5*time.Second, WithBackoff(time.Millisecond))

	var mu sync.Mutex
	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := l.WithLock(context.Background(), "ctr", func(context.Context) error {
				mu.Lock()
				v := counter
				mu.Unlock()
				time.Sleep(time.Millisecond)
				mu.Lock()
				counter = v + 1
				mu.Unlock()
				return nil
			})
			if err != nil {
				t.Errorf("WithLock: %v", err)
			}
		}()
	}
	wg.Wait()
	if counter != 10 {
		t.Fatalf("lost updates: counter = %d", counter)
	}
}
