package limiter

import (
	"fmt"
	"sync"

	"github.com/sweetpotato0/docqa/middleware"
)

// RateLimiter caps the number of generation calls that may pass through it.
// The budget is shared by every Generator wrapped with the same chain and
// is safe for concurrent use.
type RateLimiter struct {
	mu          sync.Mutex
	maxRequests int
	counter     int
}

// NewRateLimiter creates a rate limiting middleware
func NewRateLimiter(maxRequests int) *RateLimiter {
	return &RateLimiter{maxRequests: maxRequests}
}

// Name returns the middleware name
func (m *RateLimiter) Name() string {
	return "RateLimiter"
}

// Execute rejects the call once the budget is spent.
func (m *RateLimiter) Execute(ctx *middleware.Context, next middleware.Handler) error {
	m.mu.Lock()
	if m.counter >= m.maxRequests {
		m.mu.Unlock()
		return fmt.Errorf("%w: %d calls allowed", middleware.ErrRateLimitExceeded, m.maxRequests)
	}
	m.counter++
	m.mu.Unlock()
	return next(ctx)
}

// Reset resets the rate limiter counter
func (m *RateLimiter) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counter = 0
}

// Count returns how many calls have been admitted.
func (m *RateLimiter) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counter
}
