// Package ratelimit provides per-key token bucket rate limiting for MCP tools.
package ratelimit

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"time"
)

// Tool names with a default limiter.
const (
	ToolFit      = "mina_fit"
	ToolGenerate = "mina_generate"
	ToolModels   = "mina_models"
)

// GenerateUnit is the number of generated values one mina_generate token
// pays for.
const GenerateUnit = 10000

// ErrLimited is wrapped by every LimitError.
var ErrLimited = errors.New("rate limit exceeded")

// LimitError reports a rejected request and how long until it would fit.
// RetryAfter is zero when the bucket never refills or can never hold the
// requested cost.
type LimitError struct {
	Tool       string
	Cost       int
	RetryAfter time.Duration
}

func (e *LimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limit exceeded for %s, retry in %s", e.Tool, e.RetryAfter.Round(time.Second))
	}
	return fmt.Sprintf("rate limit exceeded for %s (cost %d)", e.Tool, e.Cost)
}

func (e *LimitError) Unwrap() error { return ErrLimited }

// Limiter implements a per-key token bucket rate limiter.
// Each key gets its own bucket with the configured rate and burst.
// It is safe for concurrent use.
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	rate    float64          // tokens per second
	burst   int              // max burst size (also initial token count)
	nowFunc func() time.Time // injectable clock for testing
}

type bucket struct {
	tokens    float64
	lastCheck time.Time
}

// NewLimiter creates a rate limiter with the given rate (tokens/sec) and burst size.
// The burst size also serves as the initial number of tokens available.
func NewLimiter(rate float64, burst int) *Limiter {
	return &Limiter{
		buckets: make(map[string]*bucket),
		rate:    rate,
		burst:   burst,
		nowFunc: time.Now,
	}
}

// Allow reports whether one request for key may proceed.
func (l *Limiter) Allow(key string) bool {
	_, ok := l.take(key, 1)
	return ok
}

// AllowN reports whether a request costing n tokens may proceed. When it
// may not, the returned duration is the wait until it would (zero if it
// never will).
func (l *Limiter) AllowN(key string, n int) (time.Duration, bool) {
	return l.take(key, n)
}

func (l *Limiter) take(key string, n int) (time.Duration, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.nowFunc()

	b, ok := l.buckets[key]
	if !ok {
		// First request for this key: start with full burst
		b = &bucket{
			tokens:    float64(l.burst),
			lastCheck: now,
		}
		l.buckets[key] = b
	}

	elapsed := now.Sub(b.lastCheck).Seconds()
	if elapsed > 0 {
		b.tokens = math.Min(b.tokens+l.rate*elapsed, float64(l.burst))
		b.lastCheck = now
	}

	cost := float64(n)
	if b.tokens < cost {
		if l.rate <= 0 || n > l.burst {
			return 0, false
		}
		wait := (cost - b.tokens) / l.rate
		return time.Duration(wait * float64(time.Second)), false
	}

	b.tokens -= cost
	return 0, true
}

// ToolLimiters maps tool names to their rate limiters.
type ToolLimiters map[string]*Limiter

// NewToolLimiters creates the default set of per-tool rate limiters.
func NewToolLimiters() ToolLimiters {
	return ToolLimiters{
		ToolFit:      NewLimiter(10.0/60.0, 3), // 10/minute, burst 3
		ToolGenerate: NewLimiter(1.0, 100),     // 1M values/100s, burst 1M values
		ToolModels:   NewLimiter(1.0, 10),      // 60/minute, burst 10
	}
}

// CheckLimit checks the rate limit for one call of toolName.
// Tools without a configured limiter are always allowed.
func CheckLimit(limiters ToolLimiters, toolName string) error {
	return CheckCost(limiters, toolName, 1)
}

// CheckCost checks the rate limit for a call of toolName costing cost
// tokens. Costs below 1 count as 1.
func CheckCost(limiters ToolLimiters, toolName string, cost int) error {
	limiter, ok := limiters[toolName]
	if !ok {
		return nil // No limiter configured = no limit
	}
	if cost < 1 {
		cost = 1
	}

	if wait, ok := limiter.AllowN(toolName, cost); !ok {
		return &LimitError{Tool: toolName, Cost: cost, RetryAfter: wait}
	}
	return nil
}

// GenerateCost returns the token cost of generating length values.
func GenerateCost(length int) int {
	return (length + GenerateUnit - 1) / GenerateUnit
}
