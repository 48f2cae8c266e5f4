// Package server implements the per-connection slow-mode limiter that
// protects the hub from message floods.
package server

import (
	"time"

	"golang.org/x/time/rate"
)

// slowMode accepts at most one message per configured interval. A rejected
// message leaves the limiter state untouched, so the next attempt is judged
// against the last accepted message, not the last rejected one.
type slowMode struct {
	limiter *rate.Limiter
}

func newSlowMode(interval time.Duration) *slowMode {
	if interval <= 0 {
		interval = time.Second
	}

	return &slowMode{
		limiter: rate.NewLimiter(rate.Every(interval), 1),
	}
}

func (s *slowMode) allow() bool {
	return s.limiter.Allow()
}
