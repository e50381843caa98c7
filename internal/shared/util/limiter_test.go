package util

import (
	"context"
	"testing"
	"time"
)

func TestLimiter(t *testing.T) {
	// 10 tokens per second, burst of 2
	l := NewLimiter(10, 2)

	if !l.Allow(1) {
		t.Error("expected first token to be allowed")
	}
	if !l.Allow(1) {
		t.Error("expected second token to be allowed (burst)")
	}
	if l.Allow(1) {
		t.Error("expected third token to be rejected (burst exhausted)")
	}

	time.Sleep(150 * time.Millisecond)
	if !l.Allow(1) {
		t.Error("expected token to be refilled after wait")
	}
}

func TestLimiter_Wait(t *testing.T) {
	l := NewLimiter(100, 1)
	l.Allow(1) // consume burst

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	if err := l.Wait(ctx, 1); err != nil {
		t.Fatalf("Wait failed: %v", err)
	}
	if time.Since(start) < 5*time.Millisecond {
		t.Error("Wait returned too early")
	}
}

func TestKeyedLimiter(t *testing.T) {
	k := NewKeyedLimiter(1, 1, time.Minute)
	clock := time.Unix(1_700_000_000, 0)
	k.now = func() time.Time { return clock }

	if !k.Allow("src/A.php") {
		t.Error("expected first event for A to pass")
	}
	if k.Allow("src/A.php") {
		t.Error("expected second immediate event for A to be throttled")
	}
	if !k.Allow("src/B.php") {
		t.Error("expected B to have its own budget")
	}
	if k.Get("src/A.php") != k.Get("src/A.php") {
		t.Error("expected the same limiter for the same key")
	}

	clock = clock.Add(2 * time.Minute)
	k.Get("src/C.php")
	if k.Len() != 1 {
		t.Errorf("expected idle entries to be pruned, have %d", k.Len())
	}
}
