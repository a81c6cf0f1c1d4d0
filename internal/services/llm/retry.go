package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// statusError is a non-2xx response.
type statusError struct {
	code       int
	body       string
	retryAfter time.Duration
}

func (e *statusError) Error() string {
	return fmt.Sprintf("llm request: http %d: %s", e.code, e.body)
}

// retryPolicy repeats transient failures with doubling delays.
type retryPolicy struct {
	attempts int
	base     time.Duration
	ceiling  time.Duration
	sleeper  func(time.Duration)
}

func defaultRetryPolicy() retryPolicy {
	return retryPolicy{attempts: 1, base: time.Second, ceiling: 10 * time.Second}
}

// run calls attempt until it succeeds, fails permanently, or the attempt
// budget is spent.
func (p retryPolicy) run(ctx context.Context, op string, attempt func() error) error {
	total := max(p.attempts, 1)
	for n := 1; ; n++ {
		err := attempt()
		if err == nil {
			return nil
		}
		wait, transient := p.classify(err, n)
		if !transient || n >= total || ctx.Err() != nil {
			if n > 1 {
				return fmt.Errorf("%s: failed after %d attempts: %w", op, n, err)
			}
			return err
		}
		if err := p.sleep(ctx, wait); err != nil {
			return err
		}
	}
}

// classify reports whether err is worth retrying and how long to wait
// before attempt n+1.
func (p retryPolicy) classify(err error, n int) (time.Duration, bool) {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return 0, false
	}
	var empty *emptyReplyError
	if errors.As(err, &empty) {
		return p.backoff(n), true
	}
	var status *statusError
	if errors.As(err, &status) {
		if status.code != http.StatusRequestTimeout && status.code != http.StatusTooManyRequests && status.code < http.StatusInternalServerError {
			return 0, false
		}
		if status.retryAfter > 0 {
			return min(status.retryAfter, p.ceiling), true
		}
		return p.backoff(n), true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return p.backoff(n), true
	}
	return 0, false
}

// backoff returns base * 2^(n-1), capped at the ceiling.
func (p retryPolicy) backoff(n int) time.Duration {
	if p.base <= 0 {
		return 0
	}
	delay := p.base
	for i := 1; i < n && delay < p.ceiling; i++ {
		delay *= 2
	}
	return min(delay, p.ceiling)
}

func (p retryPolicy) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	if p.sleeper != nil {
		p.sleeper(d)
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// parseRetryAfter reads a Retry-After header given in seconds or as an HTTP
// date. Unusable values yield zero.
func parseRetryAfter(value string) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		return max(time.Duration(seconds)*time.Second, 0)
	}
	if when, err := http.ParseTime(value); err == nil {
		return max(time.Until(when), 0)
	}
	return 0
}
