package fetch

import "testing"

func TestRotatorRotatesOnBudget(t *testing.T) {
	agents := []string{"agent-a", "agent-b", "agent-c"}
	r := NewRotator(agents, 3)

	first := r.Next()
	second := r.Next()
	if first.UserAgent != "agent-a" || second.UserAgent != "agent-a" {
		t.Fatalf("first two requests should share the first agent, got %q then %q", first.UserAgent, second.UserAgent)
	}
	if first.SessionID != second.SessionID {
		t.Fatalf("session should be stable within the rotation window")
	}

	third := r.Next()
	if third.UserAgent != "agent-b" {
		t.Fatalf("third request should rotate to the second agent, got %q", third.UserAgent)
	}
	if third.SessionID == first.SessionID {
		t.Fatalf("rotation should mint a fresh session id")
	}
}

func TestRotatorForcedRotation(t *testing.T) {
	r := NewRotator([]string{"agent-a", "agent-b"}, 100)

	before := r.Current()
	after := r.Rotate()
	if after.UserAgent == before.UserAgent {
		t.Fatalf("forced rotation kept the same agent")
	}
	if after.SessionID == before.SessionID {
		t.Fatalf("forced rotation kept the same session")
	}
	if got := r.Current(); got != after {
		t.Fatalf("current = %+v, want %+v", got, after)
	}
}

func TestRotatorWrapsPool(t *testing.T) {
	r := NewRotator([]string{"agent-a", "agent-b"}, 1)

	seen := map[string]bool{}
	for i := 0; i < 4; i++ {
		seen[r.Next().UserAgent] = true
	}
	if !seen["agent-a"] || !seen["agent-b"] {
		t.Fatalf("rotation should cycle through the whole pool, saw %v", seen)
	}
}

func TestRotatorEmptyPoolFallsBack(t *testing.T) {
	r := NewRotator(nil, 0)
	if id := r.Next(); id.UserAgent == "" || id.SessionID == "" {
		t.Fatalf("fallback identity incomplete: %+v", id)
	}
}
