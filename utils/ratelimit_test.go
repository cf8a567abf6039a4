package utils

import (
	"testing"
	"time"
)

// fakeClock avança apenas quando o teste manda
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func newTestLimiter(limit int, window time.Duration) (*RateLimiter, *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)}
	rl := NewRateLimiter(limit, window)
	rl.now = clock.now
	return rl, clock
}

func TestRateLimiterAllow(t *testing.T) {
	rl, _ := newTestLimiter(2, time.Minute)

	if !rl.Allow("1.2.3.4") || !rl.Allow("1.2.3.4") {
		t.Fatal("first two requests should be allowed")
	}
	if rl.Allow("1.2.3.4") {
		t.Error("third request should be rejected")
	}
	if !rl.Allow("5.6.7.8") {
		t.Error("other keys must have their own window")
	}
	if got := rl.Remaining("1.2.3.4"); got != 0 {
		t.Errorf("Remaining = %d, want 0", got)
	}

	rl.Reset("1.2.3.4")
	if got := rl.Remaining("1.2.3.4"); got != 2 {
		t.Errorf("Remaining after reset = %d, want 2", got)
	}
}

func TestRateLimiterWindowSlides(t *testing.T) {
	rl, clock := newTestLimiter(2, time.Minute)
	start := clock.t

	rl.Allow("k")
	clock.t = start.Add(30 * time.Second)
	rl.Allow("k")

	if rl.Allow("k") {
		t.Fatal("third request inside the window should be rejected")
	}
	if got := rl.ResetAt("k"); !got.Equal(start.Add(time.Minute)) {
		t.Errorf("ResetAt = %v, want %v", got, start.Add(time.Minute))
	}

	clock.t = start.Add(61 * time.Second)
	if got := rl.Remaining("k"); got != 1 {
		t.Errorf("Remaining after the first hit expired = %d, want 1", got)
	}
	if !rl.Allow("k") {
		t.Error("request should be allowed once the oldest hit left the window")
	}
}

func TestRateLimiterSweep(t *testing.T) {
	rl, clock := newTestLimiter(5, time.Minute)

	rl.Allow("antigo")
	clock.t = clock.t.Add(45 * time.Second)
	rl.Allow("recente")
	clock.t = clock.t.Add(30 * time.Second)

	if n := rl.Sweep(); n != 1 {
		t.Errorf("Sweep removed %d keys, want 1", n)
	}
	if _, ok := rl.hits["recente"]; !ok {
		t.Error("active key must survive the sweep")
	}
	if got := rl.ResetAt("antigo"); !got.Equal(clock.t) {
		t.Errorf("ResetAt for an idle key = %v, want now", got)
	}
}
