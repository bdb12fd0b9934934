// Package optimizer implements the proactive parameter-recommendation
// engine: gated evaluation, confidence scoring, a per-parameter
// cooldown limiter, and formation look-ahead. Ported line-for-line
// from the prior implementation's optimization module.
package optimizer

import (
	"sync"
	"time"

	"github.com/ashton-dyke/SAIREN-OS-sub000/internal/types"
)

type recommendationRecord struct {
	at    time.Time
	value float64
}

// RateLimiter suppresses recommendation spam by enforcing a per-
// parameter cooldown, overridden when the new value differs from the
// last recorded one by more than 10%. Plain mutex-guarded map: the
// override-by-delta rule has no counterpart in golang.org/x/time/rate
// (a pure token bucket), so this stays stdlib — justified in
// DESIGN.md.
type RateLimiter struct {
	mu       sync.Mutex
	cooldown time.Duration
	last     map[types.DrillingParameter]recommendationRecord
}

// NewRateLimiter creates a limiter with the given cooldown in seconds.
func NewRateLimiter(cooldownSecs int) *RateLimiter {
	return &RateLimiter{
		cooldown: time.Duration(cooldownSecs) * time.Second,
		last:     make(map[types.DrillingParameter]recommendationRecord),
	}
}

// CanRecommend reports whether a new recommendation may be issued for
// this parameter: true if none exists yet, the cooldown has elapsed,
// or the new value differs from the last recorded one by > 10%.
func (r *RateLimiter) CanRecommend(param types.DrillingParameter, newValue float64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.last[param]
	if !ok {
		return true
	}
	if time.Since(rec.at) >= r.cooldown {
		return true
	}
	denom := rec.value
	if denom < 0 {
		denom = -denom
	}
	if denom < 1e-6 {
		denom = 1e-6
	}
	change := (newValue - rec.value) / denom
	if change < 0 {
		change = -change
	}
	return change > 0.10
}

// Record stores that a recommendation was issued for this parameter
// at the current time.
func (r *RateLimiter) Record(param types.DrillingParameter, value float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.last[param] = recommendationRecord{at: time.Now(), value: value}
}
