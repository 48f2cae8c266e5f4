package server

import (
	"testing"
	"time"
)

// TestSlowModeFirstMessageAllowed verifies a new connection may speak
// immediately.
func TestSlowModeFirstMessageAllowed(t *testing.T) {
	limiter := newSlowMode(2 * time.Second)
	if !limiter.allow() {
		t.Error("First message should be accepted")
	}
}

// TestSlowModeRejectsWithinInterval verifies that a second message inside the
// interval is rejected, and that the rejection does not push the next
// acceptance further out.
func TestSlowModeRejectsWithinInterval(t *testing.T) {
	interval := 100 * time.Millisecond
	limiter := newSlowMode(interval)

	if !limiter.allow() {
		t.Fatal("First message should be accepted")
	}
	if limiter.allow() {
		t.Error("Second message within the interval should be rejected")
	}
	if limiter.allow() {
		t.Error("Repeated attempts within the interval should stay rejected")
	}

	time.Sleep(interval + 20*time.Millisecond)
	if !limiter.allow() {
		t.Error("Message after the interval should be accepted")
	}
}

// TestSlowModeSpacedMessagesAllowed verifies messages spaced at least one
// interval apart are all accepted.
func TestSlowModeSpacedMessagesAllowed(t *testing.T) {
	interval := 50 * time.Millisecond
	limiter := newSlowMode(interval)

	for i := 0; i < 3; i++ {
		if !limiter.allow() {
			t.Fatalf("Message %d should be accepted", i+1)
		}
		time.Sleep(interval + 10*time.Millisecond)
	}
}
