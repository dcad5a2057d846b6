package ratelimit

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	DefaultMaxAttempts  = 60
	DefaultDecayMinutes = 1
)

// RateLimiter controls send throughput per provider.
type RateLimiter interface {
	Allow(ctx context.Context, provider string) (bool, error)
	Wait(ctx context.Context, provider string) error
}

// Window is maxAttempts sends per decay period.
type Window struct {
	MaxAttempts int
	Decay       time.Duration
}

func NewWindow(maxAttempts, decayMinutes int) Window {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	if decayMinutes <= 0 {
		decayMinutes = DefaultDecayMinutes
	}
	return Window{MaxAttempts: maxAttempts, Decay: time.Duration(decayMinutes) * time.Minute}
}

var _ RateLimiter = (*LocalRateLimiter)(nil)

// LocalRateLimiter is a per-process token bucket per provider. It is used
// when no redis is configured.
type LocalRateLimiter struct {
	window Window

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

func NewLocalRateLimiter(window Window) *LocalRateLimiter {
	if window.MaxAttempts <= 0 || window.Decay <= 0 {
		window = NewWindow(window.MaxAttempts, int(window.Decay/time.Minute))
	}
	return &LocalRateLimiter{
		window:   window,
		limiters: make(map[string]*rate.Limiter),
	}
}

func (l *LocalRateLimiter) Allow(_ context.Context, provider string) (bool, error) {
	limiter, err := l.limiter(provider)
	if err != nil {
		return false, err
	}
	return limiter.Allow(), nil
}

func (l *LocalRateLimiter) Wait(ctx context.Context, provider string) error {
	limiter, err := l.limiter(provider)
	if err != nil {
		return err
	}
	return limiter.Wait(ctx)
}

func (l *LocalRateLimiter) limiter(provider string) (*rate.Limiter, error) {
	key := NormalizeKey(provider)
	if key == "" {
		return nil, fmt.Errorf("provider is required")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	limiter, ok := l.limiters[key]
	if !ok {
		every := l.window.Decay / time.Duration(l.window.MaxAttempts)
		limiter = rate.NewLimiter(rate.Every(every), l.window.MaxAttempts)
		l.limiters[key] = limiter
	}
	return limiter, nil
}

// NormalizeKey lowercases and trims a provider name for use as a limiter key.
func NormalizeKey(provider string) string {
	return strings.ToLower(strings.TrimSpace(provider))
}
