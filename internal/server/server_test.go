// End-to-end tests covering the connection lifecycle: handshake, join and
// leave announcements, slow mode, capacity admission, and abrupt disconnects.
package server

import (
	"strings"
	"testing"
	"time"
)

// TestJoinHandshakeAndAnnouncements covers two sessions joining in order:
// the welcome notice arrives before anything else, and join announcements are
// observed in join order.
func TestJoinHandshakeAndAnnouncements(t *testing.T) {
	ts := newChatServer(t, nil)
	waitForCount(t, GetHub(), 0)

	alice := dialChat(t, ts, mintTestToken(t, "Alice"))
	expectText(t, alice, "Welcome Alice!")
	expectText(t, alice, "Alice joined.")
	waitForCount(t, GetHub(), 1)

	bob := dialChat(t, ts, mintTestToken(t, "Bob"))
	expectText(t, bob, "Welcome Bob!")
	expectText(t, bob, "Bob joined.")

	// Alice observes the announcements in join order.
	expectText(t, alice, "Bob joined.")
	waitForCount(t, GetHub(), 2)
}

// TestHandshakeFailureNeverSubscribes covers the invalid-token handshake:
// the client gets the fatal error notice and the hub's subscriber count does
// not change.
func TestHandshakeFailureNeverSubscribes(t *testing.T) {
	ts := newChatServer(t, nil)
	waitForCount(t, GetHub(), 0)

	conn := dialChat(t, ts, "Bearer not-a-real-token")
	expectText(t, conn, "Error: Failed to authenticate user")

	if err := conn.SetReadDeadline(time.Now().Add(2 * time.Second)); err != nil {
		t.Fatalf("Failed to set read deadline: %v", err)
	}
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Error("Expected the connection to be closed after a failed handshake")
	}

	if got := GetHub().Count(); got != 0 {
		t.Errorf("Hub count after failed handshake = %d, want 0", got)
	}
}

// TestSlowModeThrottlesSender covers scenario B: two messages inside the
// slow-mode interval produce exactly one broadcast, and only the sender sees
// the throttle notice.
func TestSlowModeThrottlesSender(t *testing.T) {
	ts := newChatServer(t, func(cfg *Config) {
		cfg.SlowModeInterval = 2 * time.Second
	})
	waitForCount(t, GetHub(), 0)

	alice := dialChat(t, ts, mintTestToken(t, "Alice"))
	expectText(t, alice, "Welcome Alice!")
	expectText(t, alice, "Alice joined.")

	bob := dialChat(t, ts, mintTestToken(t, "Bob"))
	expectText(t, bob, "Welcome Bob!")
	expectText(t, bob, "Bob joined.")
	expectText(t, alice, "Bob joined.")

	writeText(t, alice, "hi")
	writeText(t, alice, "hi")

	expectText(t, bob, "Alice: hi")
	expectNoMessage(t, bob, 300*time.Millisecond)

	// Alice receives her own broadcast and the throttle notice; their order
	// is not fixed because the notice bypasses the hub.
	first := readText(t, alice, 2*time.Second)
	second := readText(t, alice, 2*time.Second)
	got := map[string]bool{first: true, second: true}
	if !got["Alice: hi"] || !got[noticeThrottle] {
		t.Errorf("Expected broadcast and throttle notice, got %q and %q", first, second)
	}
	expectNoMessage(t, alice, 300*time.Millisecond)
}

// TestCapacityRejectsWithoutHandshake covers scenario C: at capacity, a new
// connection is told the room is full and closed before any handshake.
func TestCapacityRejectsWithoutHandshake(t *testing.T) {
	ts := newChatServer(t, func(cfg *Config) {
		cfg.MaxClients = 2
	})
	waitForCount(t, GetHub(), 0)

	alice := dialChat(t, ts, mintTestToken(t, "Alice"))
	expectText(t, alice, "Welcome Alice!")
	bob := dialChat(t, ts, mintTestToken(t, "Bob"))
	expectText(t, bob, "Welcome Bob!")
	waitForCount(t, GetHub(), 2)

	// No token is sent: the rejection must not depend on a handshake frame.
	third := dialChat(t, ts, "")
	expectText(t, third, "Maximum users reached, wait a bit and try again")

	if err := third.SetReadDeadline(time.Now().Add(2 * time.Second)); err != nil {
		t.Fatalf("Failed to set read deadline: %v", err)
	}
	if _, _, err := third.ReadMessage(); err == nil {
		t.Error("Expected the rejected connection to be closed")
	}

	if got := GetHub().Count(); got != 2 {
		t.Errorf("Hub count after rejection = %d, want 2", got)
	}
}

// TestAbruptDisconnectAnnouncesDeparture covers scenario D: a transport
// failure on one session produces exactly one departure notice for the rest.
func TestAbruptDisconnectAnnouncesDeparture(t *testing.T) {
	ts := newChatServer(t, nil)
	waitForCount(t, GetHub(), 0)

	alice := dialChat(t, ts, mintTestToken(t, "Alice"))
	expectText(t, alice, "Welcome Alice!")
	expectText(t, alice, "Alice joined.")

	bob := dialChat(t, ts, mintTestToken(t, "Bob"))
	expectText(t, bob, "Welcome Bob!")
	expectText(t, bob, "Bob joined.")
	expectText(t, alice, "Bob joined.")
	waitForCount(t, GetHub(), 2)

	// Kill the TCP connection without a close frame.
	if err := alice.UnderlyingConn().Close(); err != nil {
		t.Fatalf("Failed to drop Alice's connection: %v", err)
	}

	expectText(t, bob, "Alice left.")
	expectNoMessage(t, bob, 300*time.Millisecond)
	waitForCount(t, GetHub(), 1)
}

// TestMessageFilterAppliedToBroadcasts verifies markup stripping and
// truncation on the wire.
func TestMessageFilterAppliedToBroadcasts(t *testing.T) {
	ts := newChatServer(t, func(cfg *Config) {
		cfg.SlowModeInterval = 50 * time.Millisecond
	})
	waitForCount(t, GetHub(), 0)

	alice := dialChat(t, ts, mintTestToken(t, "Alice"))
	expectText(t, alice, "Welcome Alice!")
	expectText(t, alice, "Alice joined.")

	bob := dialChat(t, ts, mintTestToken(t, "Bob"))
	expectText(t, bob, "Welcome Bob!")
	expectText(t, bob, "Bob joined.")
	expectText(t, alice, "Bob joined.")

	writeText(t, alice, "  <b>hi</b> there ")
	expectText(t, bob, "Alice: hi there")

	time.Sleep(100 * time.Millisecond)
	writeText(t, alice, strings.Repeat("a", 150))
	expectText(t, bob, "Alice: "+strings.Repeat("a", 100))
}
