package ratelimit

import "testing"

func TestBurstAllowsUpToCapacity(t *testing.T) {
	l := New(4, 1.0)
	allowed := 0
	for i := 0; i < 10; i++ {
		if l.Allow("fpA") {
			allowed++
		}
	}
	if allowed != 4 {
		t.Fatalf("expected exactly 4 of 10 rapid sends to be allowed, got %d", allowed)
	}
}

func TestPerUserIsolation(t *testing.T) {
	l := New(1, 1.0)
	if !l.Allow("fpA") {
		t.Fatal("first send for fpA should be allowed")
	}
	if l.Allow("fpA") {
		t.Fatal("second immediate send for fpA should be denied")
	}
	if !l.Allow("fpB") {
		t.Fatal("fpB has its own bucket and should be allowed")
	}
}

func TestForgetResetsBucket(t *testing.T) {
	l := New(1, 1.0)
	l.Allow("fpA")
	if l.Allow("fpA") {
		t.Fatal("expected second send to be denied before Forget")
	}
	l.Forget("fpA")
	if !l.Allow("fpA") {
		t.Fatal("expected a fresh bucket after Forget")
	}
}
