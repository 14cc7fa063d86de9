package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestAllowExhaustsBurst(t *testing.T) {
	l := New(1, 2)
	if !l.Allow("fixtures") || !l.Allow("fixtures") {
		t.Fatalf("burst tokens should be available")
	}
	if l.Allow("fixtures") {
		t.Fatalf("third immediate call should exceed the burst")
	}
	// Keys meter independently.
	if !l.Allow("odds") {
		t.Fatalf("fresh key should start with a full bucket")
	}
}

func TestWaitHonorsContext(t *testing.T) {
	l := New(0.001, 1)
	if !l.Allow("k") {
		t.Fatalf("first token should be available")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := l.Wait(ctx, "k"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestWaitRefills(t *testing.T) {
	l := New(200, 1)
	if !l.Allow("k") {
		t.Fatalf("first token should be available")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := l.Wait(ctx, "k"); err != nil {
		t.Fatalf("wait: %v", err)
	}
}
