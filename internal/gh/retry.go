package gh

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/facebookgo/clock"
	"github.com/google/go-github/v59/github"
	"github.com/sirupsen/logrus"
)

// RetryPolicy drives every authenticated GitHub API call. Rate-limit
// waits are distinct from the retry budget: the policy blocks until the
// limit resets and reissues the request without consuming an attempt.
type RetryPolicy struct {
	MaxAttempts int
	Backoff     func(attempt int) time.Duration
	Clock       clock.Clock
	Log         *logrus.Logger
}

// NewRetryPolicy returns the default policy: 3 attempts with linear
// backoff of (attempt+1)*2 seconds between them.
func NewRetryPolicy(log *logrus.Logger) *RetryPolicy {
	return &RetryPolicy{
		MaxAttempts: 3,
		Backoff: func(attempt int) time.Duration {
			return time.Duration(attempt+1) * 2 * time.Second
		},
		Clock: clock.New(),
		Log:   log,
	}
}

// IsNotFound reports whether err is a GitHub 404. Callers treat this as
// a valid negative result, never as a failure.
func IsNotFound(err error) bool {
	var ghErr *github.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil {
		return ghErr.Response.StatusCode == http.StatusNotFound
	}
	return false
}

func rateLimitWait(err error, now time.Time) (time.Duration, bool) {
	var rateErr *github.RateLimitError
	if errors.As(err, &rateErr) {
		wait := rateErr.Rate.Reset.Time.Sub(now) + time.Second
		if wait < 0 {
			wait = 0
		}
		return wait, true
	}
	var abuseErr *github.AbuseRateLimitError
	if errors.As(err, &abuseErr) && abuseErr.RetryAfter != nil {
		return *abuseErr.RetryAfter + time.Second, true
	}
	return 0, false
}

// Do runs fn until it succeeds, returns a 404, or exhausts the retry
// budget. desc identifies the request in logs and the terminal error.
func (p *RetryPolicy) Do(ctx context.Context, desc string, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt < p.MaxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		if IsNotFound(err) {
			return err
		}
		if wait, ok := rateLimitWait(err, p.Clock.Now()); ok {
			p.Log.Warnf("rate limit exhausted on %s, waiting %s until reset", desc, wait)
			if sleepErr := p.sleep(ctx, wait); sleepErr != nil {
				return sleepErr
			}
			attempt-- // the wait does not consume an attempt
			continue
		}
		lastErr = err
		if attempt < p.MaxAttempts-1 {
			backoff := p.Backoff(attempt)
			p.Log.Warnf("request %s failed (attempt %d/%d): %v, retrying in %s", desc, attempt+1, p.MaxAttempts, err, backoff)
			if sleepErr := p.sleep(ctx, backoff); sleepErr != nil {
				return sleepErr
			}
		}
	}
	return fmt.Errorf("request %s failed after %d attempts: %w", desc, p.MaxAttempts, lastErr)
}

func (p *RetryPolicy) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-p.Clock.After(d):
		return nil
	}
}
