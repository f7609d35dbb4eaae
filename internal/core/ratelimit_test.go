package core

import (
	"testing"
	"time"
)

func TestRateLimiterBurstAndRefill(t *testing.T) {
	now := noon
	clock := func() time.Time { return now }
	rl := newRateLimiter(2, time.Second, clock)

	if !rl.allow() || !rl.allow() {
		t.Fatal("burst should be allowed")
	}
	if rl.allow() {
		t.Fatal("third message in the same instant must be limited")
	}

	now = now.Add(500 * time.Millisecond)
	if !rl.allow() {
		t.Fatal("half an interval refills one token")
	}
	if rl.allow() {
		t.Fatal("only one token was refilled")
	}

	now = now.Add(time.Hour)
	for i := 0; i < 2; i++ {
		if !rl.allow() {
			t.Fatal("refill must cap at the burst size")
		}
	}
	if rl.allow() {
		t.Fatal("tokens exceeded the burst size")
	}
}

func TestRateLimiterDisabled(t *testing.T) {
	rl := newRateLimiter(0, time.Second, nil)
	if rl != nil {
		t.Fatal("zero burst must disable the limiter")
	}
	for i := 0; i < 100; i++ {
		if !rl.allow() {
			t.Fatal("disabled limiter refused")
		}
	}
}
