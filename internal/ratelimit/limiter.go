// Package ratelimit implements a fixed-window request limiter keyed by
// client (authenticated user or IP) and request scope.
package ratelimit

import (
	"sync"
	"time"
)

type Scope string

const (
	ScopeRead  Scope = "read"
	ScopeWrite Scope = "write"
)

type Config struct {
	Window time.Duration
	Read   int // requests per window per client, 0 disables
	Write  int
}

type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetIn   int64 // seconds until the window rolls over
}

type bucket struct {
	scope  Scope
	client string
}

type window struct {
	start int64
	count int
}

type Limiter struct {
	cfg     Config
	windowS int64

	mu      sync.Mutex
	entries map[bucket]window
}

const cleanupThreshold = 100000

func New(cfg Config) *Limiter {
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}
	return &Limiter{
		cfg:     cfg,
		windowS: int64(cfg.Window.Seconds()),
		entries: make(map[bucket]window, 1024),
	}
}

// Take consumes one request slot for the client in the given scope.
func (l *Limiter) Take(now time.Time, scope Scope, client string) Result {
	limit := l.cfg.Read
	if scope == ScopeWrite {
		limit = l.cfg.Write
	}
	if limit <= 0 {
		return Result{Allowed: true}
	}

	unixNow := now.Unix()
	windowStart := unixNow / l.windowS * l.windowS
	resetIn := windowStart + l.windowS - unixNow

	b := bucket{scope: scope, client: client}

	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.entries[b]
	if !ok || w.start != windowStart {
		w = window{start: windowStart}
	}

	allowed := w.count < limit
	if allowed {
		w.count++
	}
	l.entries[b] = w

	if len(l.entries) > cleanupThreshold {
		l.cleanup(windowStart - l.windowS)
	}

	remaining := limit - w.count
	if remaining < 0 {
		remaining = 0
	}
	return Result{
		Allowed:   allowed,
		Limit:     limit,
		Remaining: remaining,
		ResetIn:   resetIn,
	}
}

func (l *Limiter) cleanup(olderThanStart int64) {
	for b, w := range l.entries {
		if w.start < olderThanStart {
			delete(l.entries, b)
		}
	}
}
