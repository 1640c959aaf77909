package crawler

import (
	"context"
	"crypto/rand"
	"errors"
	"math"
	"math/big"
	"time"
)

// RetryConfig bounds transport-level retries.
type RetryConfig struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int
	// MaxElapsed caps the time spent across all attempts and waits. Zero
	// disables the cap.
	MaxElapsed time.Duration
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

// DefaultRetryConfig returns three attempts within a sixty second budget.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		MaxElapsed:  60 * time.Second,
		BaseDelay:   time.Second,
		MaxDelay:    30 * time.Second,
	}
}

// ExponentialRetryPolicy implements RetryPolicy with jittered backoff.
type ExponentialRetryPolicy struct {
	maxAttempts int
	maxElapsed  time.Duration
	baseDelay   time.Duration
	maxDelay    time.Duration
}

// NewExponentialRetryPolicy builds a policy from cfg. A non-positive
// MaxAttempts means a single attempt.
func NewExponentialRetryPolicy(cfg RetryConfig) *ExponentialRetryPolicy {
	attempts := cfg.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	maxDelay := cfg.MaxDelay
	if maxDelay < cfg.BaseDelay {
		maxDelay = cfg.BaseDelay
	}
	return &ExponentialRetryPolicy{
		maxAttempts: attempts,
		maxElapsed:  cfg.MaxElapsed,
		baseDelay:   cfg.BaseDelay,
		maxDelay:    maxDelay,
	}
}

// ShouldRetry decides whether the error is retryable.
func (p *ExponentialRetryPolicy) ShouldRetry(err error, attempt int, elapsed time.Duration) bool {
	if err == nil {
		return false
	}
	if attempt >= p.maxAttempts {
		return false
	}
	if p.maxElapsed > 0 && elapsed >= p.maxElapsed {
		return false
	}
	if errors.Is(err, ErrNotRetryable) || errors.Is(err, context.Canceled) {
		return false
	}
	return true
}

// Backoff returns the wait duration before the next attempt, truncated so the
// wait never runs past the elapsed budget.
func (p *ExponentialRetryPolicy) Backoff(attempt int, elapsed time.Duration) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	delay := float64(p.baseDelay) * math.Pow(2, float64(attempt-1))
	if delay > float64(p.maxDelay) {
		delay = float64(p.maxDelay)
	}
	jitter := p.randomJitter(time.Duration(delay) / 2)
	wait := time.Duration(delay/2) + jitter
	if p.maxElapsed > 0 {
		remaining := p.maxElapsed - elapsed
		if remaining < 0 {
			remaining = 0
		}
		if wait > remaining {
			wait = remaining
		}
	}
	return wait
}

func (p *ExponentialRetryPolicy) randomJitter(limit time.Duration) time.Duration {
	if limit <= 0 {
		return 0
	}
	bound := big.NewInt(int64(limit))
	n, err := rand.Int(rand.Reader, bound)
	if err != nil {
		return limit / 2
	}
	return time.Duration(n.Int64())
}
