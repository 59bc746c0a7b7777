package http

import (
	"testing"
	"time"
)

func TestUserRateLimiterSlidingWindow(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	rl := NewUserRateLimiter(2, 10*time.Second)
	rl.now = func() time.Time { return now }

	if !rl.Allow("u1") || !rl.Allow("u1") {
		t.Fatal("expected first two attempts to pass")
	}
	if rl.Allow("u1") {
		t.Fatal("expected third attempt to be rejected")
	}
	if !rl.Allow("u2") {
		t.Fatal("expected other users to be unaffected")
	}

	now = now.Add(5 * time.Second)
	if rl.Allow("u1") {
		t.Fatal("expected window to still be full")
	}
	now = now.Add(5*time.Second + time.Millisecond)
	if !rl.Allow("u1") {
		t.Fatal("expected oldest attempts to slide out")
	}

	now = now.Add(time.Minute)
	rl.Sweep()
	if n := len(rl.history); n != 0 {
		t.Fatalf("expected sweep to drop idle users, got %d", n)
	}
}
