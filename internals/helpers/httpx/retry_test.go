package httpx

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func recordingSleeper(out *[]time.Duration) func(time.Duration) {
	return func(d time.Duration) { *out = append(*out, d) }
}

func testPolicy(sleeps *[]time.Duration) Policy {
	return Policy{MaxAttempts: 3, BaseDelay: 100 * time.Millisecond, MaxDelay: time.Second, Sleeper: recordingSleeper(sleeps)}
}

func TestGetRetriesTransientStatusThenSucceeds(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("%PDF-1.4 rubric"))
	}))
	defer srv.Close()

	var sleeps []time.Duration
	client := NewClient(5*time.Second, WithPolicy(testPolicy(&sleeps)))

	body, err := client.Get(context.Background(), srv.URL+"/rubric.pdf")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if string(body) != "%PDF-1.4 rubric" {
		t.Fatalf("unexpected body: %q", body)
	}
	if atomic.LoadInt32(&hits) != 3 {
		t.Fatalf("expected 3 attempts, got %d", hits)
	}
	want := []time.Duration{100 * time.Millisecond, 200 * time.Millisecond}
	if len(sleeps) != len(want) || sleeps[0] != want[0] || sleeps[1] != want[1] {
		t.Fatalf("unexpected backoff sequence: %v", sleeps)
	}
}

func TestGetGivesUpAfterMaxAttempts(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		http.Error(w, "upstream exploded", http.StatusBadGateway)
	}))
	defer srv.Close()

	var sleeps []time.Duration
	client := NewClient(5*time.Second, WithPolicy(testPolicy(&sleeps)))

	_, err := client.Get(context.Background(), srv.URL)
	if err == nil {
		t.Fatal("expected error after exhausting attempts")
	}
	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusBadGateway {
		t.Fatalf("expected wrapped 502 StatusError, got %v", err)
	}
	if atomic.LoadInt32(&hits) != 3 {
		t.Fatalf("expected 3 attempts, got %d", hits)
	}
	if len(sleeps) != 2 {
		t.Fatalf("expected 2 sleeps between 3 attempts, got %v", sleeps)
	}
}

func TestGetDoesNotRetryClientErrors(t *testing.T) {
	for _, code := range []int{http.StatusNotFound, http.StatusForbidden, http.StatusBadRequest, http.StatusNotImplemented} {
		var hits int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&hits, 1)
			w.WriteHeader(code)
		}))

		var sleeps []time.Duration
		client := NewClient(5*time.Second, WithPolicy(testPolicy(&sleeps)))
		if _, err := client.Get(context.Background(), srv.URL); err == nil {
			t.Fatalf("status %d: expected error", code)
		}
		srv.Close()

		if hits != 1 {
			t.Fatalf("status %d: expected a single attempt, got %d", code, hits)
		}
		if len(sleeps) != 0 {
			t.Fatalf("status %d: expected no sleeps, got %v", code, sleeps)
		}
	}
}

func TestRetryAfterHeaderIsHonoredAndCapped(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) == 1 {
			w.Header().Set("Retry-After", "120")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	var sleeps []time.Duration
	client := NewClient(5*time.Second, WithPolicy(testPolicy(&sleeps)))
	if _, err := client.Get(context.Background(), srv.URL); err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if len(sleeps) != 1 || sleeps[0] != time.Second {
		t.Fatalf("expected Retry-After capped to max delay, got %v", sleeps)
	}
}

func TestTransportErrorsAreRetried(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	var sleeps []time.Duration
	client := NewClient(time.Second, WithPolicy(testPolicy(&sleeps)))
	if _, err := client.Get(context.Background(), url); err == nil {
		t.Fatal("expected transport error")
	}
	if len(sleeps) != 2 {
		t.Fatalf("expected transport failure to be retried twice, got %v", sleeps)
	}
}

func TestRetryWithTransientMarker(t *testing.T) {
	var sleeps []time.Duration
	calls := 0
	err := Retry(context.Background(), testPolicy(&sleeps), "oss put", func(ctx context.Context, attempt int) error {
		calls++
		if attempt < 2 {
			return Transient(errors.New("connection reset"))
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Retry returned error: %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected 2 calls, got %d", calls)
	}
}

func TestRetryStopsOnPermanentError(t *testing.T) {
	var sleeps []time.Duration
	permanent := errors.New("missing credentials")
	calls := 0
	err := Retry(context.Background(), testPolicy(&sleeps), "oss put", func(ctx context.Context, attempt int) error {
		calls++
		return permanent
	})
	if !errors.Is(err, permanent) {
		t.Fatalf("expected permanent error, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected single call, got %d", calls)
	}
}

func TestRetryRespectsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	policy := Policy{MaxAttempts: 3, BaseDelay: 10 * time.Millisecond, Sleeper: func(time.Duration) { cancel() }}
	err := Retry(ctx, policy, "download", func(ctx context.Context, attempt int) error {
		calls++
		return Transient(errors.New("timeout"))
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected retry loop to stop after cancel, got %d calls", calls)
	}
}

func TestBackoffDoublesAndCaps(t *testing.T) {
	p := Policy{MaxAttempts: 6, BaseDelay: time.Second, MaxDelay: 5 * time.Second}
	want := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second, 5 * time.Second, 5 * time.Second}
	for i, w := range want {
		if got := p.backoffDelay(i + 1); got != w {
			t.Fatalf("attempt %d: got %s want %s", i+1, got, w)
		}
	}
}

func TestClientTimeoutIsRetried(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) == 1 {
			select {
			case <-time.After(300 * time.Millisecond):
			case <-r.Context().Done():
			}
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	var sleeps []time.Duration
	client := NewClient(100*time.Millisecond, WithPolicy(testPolicy(&sleeps)))

	body, err := client.Get(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("expected slow first attempt to be retried, got %v", err)
	}
	if string(body) != "ok" {
		t.Fatalf("unexpected body: %q", body)
	}
	if got := atomic.LoadInt32(&hits); got != 2 {
		t.Fatalf("expected 2 attempts, got %d", got)
	}
	if len(sleeps) != 1 {
		t.Fatalf("expected one backoff sleep, got %v", sleeps)
	}
}

func TestCallerDeadlineStopsRetries(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	calls := 0
	policy := Policy{MaxAttempts: 3, BaseDelay: time.Millisecond, Sleeper: func(time.Duration) {}}
	err := Retry(ctx, policy, "download", func(ctx context.Context, attempt int) error {
		calls++
		<-ctx.Done()
		return ctx.Err()
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected a single attempt once the caller deadline passed, got %d", calls)
	}
}
