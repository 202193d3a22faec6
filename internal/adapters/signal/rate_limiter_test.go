package signal

import (
	"testing"
	"time"
)

func TestChatRateLimiter_Limit(t *testing.T) {
	rl := NewChatRateLimiter(3, time.Minute)

	for i := 0; i < 3; i++ {
		if !rl.Allow("s1") {
			t.Fatalf("Allow call %d = false, want true", i+1)
		}
	}
	if rl.Allow("s1") {
		t.Error("Allow over limit = true, want false")
	}
	// Other sessions have their own window.
	if !rl.Allow("s2") {
		t.Error("Allow for distinct session = false, want true")
	}
}

func TestChatRateLimiter_WindowPruning(t *testing.T) {
	rl := NewChatRateLimiter(2, time.Minute)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	current := base
	rl.now = func() time.Time { return current }

	if !rl.Allow("s1") || !rl.Allow("s1") {
		t.Fatal("Allow within limit = false, want true")
	}
	if rl.Allow("s1") {
		t.Error("Allow over limit = true, want false")
	}

	// Attempts older than the interval fall out of the window.
	current = base.Add(61 * time.Second)
	if !rl.Allow("s1") {
		t.Error("Allow after window elapsed = false, want true")
	}

	// The fresh attempt still counts toward the new window.
	current = base.Add(62 * time.Second)
	if !rl.Allow("s1") {
		t.Error("Allow for second slot of new window = false, want true")
	}
	if rl.Allow("s1") {
		t.Error("Allow over limit in new window = true, want false")
	}
}

func TestChatRateLimiter_Forget(t *testing.T) {
	rl := NewChatRateLimiter(1, time.Minute)

	if !rl.Allow("s1") {
		t.Fatal("first Allow = false, want true")
	}
	if rl.Allow("s1") {
		t.Error("Allow over limit = true, want false")
	}

	rl.Forget("s1")
	if !rl.Allow("s1") {
		t.Error("Allow after Forget = false, want true")
	}
}
