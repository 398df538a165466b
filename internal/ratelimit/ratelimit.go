// Package ratelimit bounds outbound call rates per named resource using
// independent token buckets.
package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/foundersignal/pipeline/internal/logger"
)

// ThrottledError signals that a bucket is exhausted and carries how long the
// caller should wait before retrying.
type ThrottledError struct {
	Resource   string
	RetryAfter time.Duration
}

func (e *ThrottledError) Error() string {
	return fmt.Sprintf("rate limit exceeded for %s, retry after %s", e.Resource, e.RetryAfter)
}

// Registry holds one token bucket per resource key. Buckets are independent:
// exhausting one never affects another.
type Registry struct {
	mu          sync.Mutex
	buckets     map[string]*rate.Limiter
	perMinute   map[string]int
	defaultRPM  int
	maxAttempts int
	logger      logger.Logger
}

// NewRegistry creates a registry from a resource → requests-per-minute map.
// Unknown resources fall back to defaultRPM.
func NewRegistry(perMinute map[string]int, defaultRPM, maxAttempts int, log logger.Logger) *Registry {
	if defaultRPM <= 0 {
		defaultRPM = 60
	}
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	return &Registry{
		buckets:     make(map[string]*rate.Limiter),
		perMinute:   perMinute,
		defaultRPM:  defaultRPM,
		maxAttempts: maxAttempts,
		logger:      log,
	}
}

func (r *Registry) limiter(resource string) *rate.Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()

	if l, ok := r.buckets[resource]; ok {
		return l
	}
	rpm := r.perMinute[resource]
	if rpm <= 0 {
		rpm = r.defaultRPM
	}
	// Burst of one minute's allowance keeps short spikes from tripping
	// the limiter while the sustained rate stays bounded.
	l := rate.NewLimiter(rate.Limit(float64(rpm)/60.0), rpm)
	r.buckets[resource] = l
	return l
}

// Acquire consumes one token from the named bucket. On exhaustion it fails
// fast with a ThrottledError instead of blocking.
func (r *Registry) Acquire(resource, identifier string) error {
	l := r.limiter(resource)

	res := l.Reserve()
	if !res.OK() {
		return &ThrottledError{Resource: resource, RetryAfter: time.Minute}
	}
	if delay := res.Delay(); delay > 0 {
		res.Cancel()
		r.logger.Debug("rate limit exhausted",
			logger.String("resource", resource),
			logger.String("identifier", identifier),
			logger.Duration("retry_after", delay))
		return &ThrottledError{Resource: resource, RetryAfter: delay}
	}
	return nil
}

// WaitForAvailability is the bounded blocking variant of Acquire. It retries
// up to maxAttempts times, sleeping the limiter's suggested delay between
// attempts, and honors context cancellation.
func (r *Registry) WaitForAvailability(ctx context.Context, resource, identifier string, maxAttempts int) error {
	if maxAttempts <= 0 {
		maxAttempts = r.maxAttempts
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := r.Acquire(resource, identifier)
		if err == nil {
			return nil
		}
		lastErr = err

		throttled, ok := err.(*ThrottledError)
		if !ok {
			return err
		}
		if attempt == maxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(throttled.RetryAfter):
		}
	}
	return fmt.Errorf("resource %s still throttled after %d attempts: %w", resource, maxAttempts, lastErr)
}
