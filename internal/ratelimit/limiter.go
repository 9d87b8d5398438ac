// Package ratelimit provides per-client request budgets.
package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Config is a budget of Requests per Window for every client key.
type Config struct {
	Requests int
	Window   time.Duration
	// CleanupInterval is how often idle limiters are dropped. Defaults to Window.
	CleanupInterval time.Duration
}

// DefaultConfig allows 100 requests per 15 minutes.
var DefaultConfig = Config{
	Requests: 100,
	Window:   15 * time.Minute,
}

type entry struct {
	limiter  *rate.Limiter
	lastUsed time.Time
}

// Limiter keeps one token bucket per client key. The bucket holds Requests
// tokens and refills at Requests per Window.
type Limiter struct {
	mu       sync.Mutex
	limiters map[string]*entry
	config   Config

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// New returns a Limiter and starts its cleanup goroutine.
func New(config Config) *Limiter {
	if config.Requests <= 0 {
		config.Requests = DefaultConfig.Requests
	}
	if config.Window <= 0 {
		config.Window = DefaultConfig.Window
	}
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = config.Window
	}
	l := &Limiter{
		limiters: make(map[string]*entry),
		config:   config,
		stopCh:   make(chan struct{}),
	}
	l.wg.Add(1)
	go l.cleanupLoop()
	return l
}

// Allow consumes one token for key. It returns false when the budget is spent.
func (l *Limiter) Allow(key string) bool {
	return l.get(key).Allow()
}

// Remaining reports the whole tokens left for key.
func (l *Limiter) Remaining(key string) int {
	n := int(l.get(key).Tokens())
	return max(n, 0)
}

// RetryAfter is how long a client waits for the next token.
func (l *Limiter) RetryAfter() time.Duration {
	return l.config.Window / time.Duration(l.config.Requests)
}

func (l *Limiter) get(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.limiters[key]
	if !ok {
		e = &entry{limiter: rate.NewLimiter(rate.Every(l.RetryAfter()), l.config.Requests)}
		l.limiters[key] = e
	}
	e.lastUsed = time.Now()
	return e.limiter
}

// Cleanup drops limiters idle for longer than the cleanup interval.
func (l *Limiter) Cleanup() {
	l.mu.Lock()
	defer l.mu.Unlock()
	cutoff := time.Now().Add(-l.config.CleanupInterval)
	for key, e := range l.limiters {
		if e.lastUsed.Before(cutoff) {
			delete(l.limiters, key)
		}
	}
}

func (l *Limiter) cleanupLoop() {
	defer l.wg.Done()
	ticker := time.NewTicker(l.config.CleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			l.Cleanup()
		case <-l.stopCh:
			return
		}
	}
}

// Stop ends the cleanup goroutine.
func (l *Limiter) Stop() {
	close(l.stopCh)
	l.wg.Wait()
}

// Len returns the number of tracked clients.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.limiters)
}
