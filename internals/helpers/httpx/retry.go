// Package httpx membungkus panggilan keluar (download artefak, upload SDK, API model)
// dengan retry berurutan + exponential backoff.
package httpx

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"automark_backend/internals/configs"
)

const (
	defaultMaxAttempts = 3
	defaultBaseDelay   = time.Second
	defaultMaxDelay    = 10 * time.Second
)

// Policy: percobaan ke-k+1 menunggu base*2^(k-1), dibatasi MaxDelay. Tanpa jitter.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	// Sleeper dipakai test supaya tidak benar-benar menunggu.
	Sleeper func(time.Duration)
}

func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: defaultMaxAttempts,
		BaseDelay:   defaultBaseDelay,
		MaxDelay:    defaultMaxDelay,
	}
}

func PolicyFromConfig(cfg configs.HTTPConfig) Policy {
	p := DefaultPolicy()
	if cfg.RetryAttempts > 0 {
		p.MaxAttempts = cfg.RetryAttempts
	}
	if cfg.RetryBase >= 0 {
		p.BaseDelay = cfg.RetryBase
	}
	if cfg.RetryMax > 0 {
		p.MaxDelay = cfg.RetryMax
	}
	return p
}

// retryableStatus: 429 + 5xx gateway/overload.
var retryableStatus = map[int]bool{
	http.StatusTooManyRequests:     true,
	http.StatusInternalServerError: true,
	http.StatusBadGateway:          true,
	http.StatusServiceUnavailable:  true,
	http.StatusGatewayTimeout:      true,
}

func IsRetryableStatus(code int) bool { return retryableStatus[code] }

// StatusError: respons non-2xx dari server tujuan.
type StatusError struct {
	StatusCode int
	Body       string
	RetryAfter time.Duration
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("http status %d: %s", e.StatusCode, summarizeBody(e.Body))
}

type transientError struct{ err error }

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

// Transient menandai error non-HTTP (mis. dari SDK) sebagai layak di-retry.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &transientError{err: err}
}

// Retry menjalankan fn maksimal MaxAttempts kali, berurutan.
func Retry(ctx context.Context, p Policy, op string, fn func(ctx context.Context, attempt int) error) error {
	attempts := p.attempts()
	var (
		lastErr error
		tried   int
	)

	for attempt := 1; attempt <= attempts; attempt++ {
		tried = attempt
		err := fn(ctx, attempt)
		if err == nil {
			if attempt > 1 {
				log.Printf("[RETRY] %s berhasil pada percobaan %d/%d", op, attempt, attempts)
			}
			return nil
		}
		lastErr = err

		delay, retry := p.retryDelay(ctx, err, attempt, attempts)
		if !retry {
			if attempt == 1 {
				return err
			}
			break
		}
		log.Printf("[RETRY] %s gagal (percobaan %d/%d): %v; tunggu %s", op, attempt, attempts, err, delay)
		if err := p.sleep(ctx, delay); err != nil {
			return err
		}
	}

	return fmt.Errorf("%s: failed after %d attempts: %w", op, tried, lastErr)
}

// Retryable: status di set retryable, error transport, atau ditandai Transient.
// Timeout per-percobaan (http.Client.Timeout) termasuk error transport; ctx milik
// pemanggil dicek terpisah di retryDelay.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	var te *transientError
	if errors.As(err, &te) {
		return true
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return IsRetryableStatus(statusErr.StatusCode)
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

func (p Policy) attempts() int {
	if p.MaxAttempts <= 0 {
		return 1
	}
	return p.MaxAttempts
}

func (p Policy) retryDelay(ctx context.Context, err error, attempt, maxAttempts int) (time.Duration, bool) {
	if attempt >= maxAttempts || ctx.Err() != nil || !Retryable(err) {
		return 0, false
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) && statusErr.RetryAfter > 0 {
		return p.capDelay(statusErr.RetryAfter), true
	}
	return p.backoffDelay(attempt), true
}

// attempt 1 -> base, attempt 2 -> base*2, attempt 3 -> base*4, ...
func (p Policy) backoffDelay(attempt int) time.Duration {
	if p.BaseDelay <= 0 {
		return 0
	}
	delay := p.BaseDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if p.MaxDelay > 0 && delay >= p.MaxDelay {
			break
		}
	}
	return p.capDelay(delay)
}

func (p Policy) capDelay(delay time.Duration) time.Duration {
	if delay < 0 {
		return 0
	}
	if p.MaxDelay > 0 && delay > p.MaxDelay {
		return p.MaxDelay
	}
	return delay
}

func (p Policy) sleep(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return ctx.Err()
	}
	if p.Sleeper != nil {
		p.Sleeper(delay)
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func parseRetryAfter(value string) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(value); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	if when, err := http.ParseTime(value); err == nil {
		if d := time.Until(when); d > 0 {
			return d
		}
	}
	return 0
}

func summarizeBody(content string) string {
	clean := strings.Join(strings.Fields(content), " ")
	if clean == "" {
		return "<empty>"
	}
	const limit = 160
	if runes := []rune(clean); len(runes) > limit {
		clean = string(runes[:limit]) + "..."
	}
	return clean
}
