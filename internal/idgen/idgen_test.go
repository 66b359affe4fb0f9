package idgen

import (
	"regexp"
	"testing"
)

func TestNewRoundID_Format(t *testing.T) {
	pattern := regexp.MustCompile(`^rnd-[0-9a-z]{8}$`)
	for i := 0; i < 100; i++ {
		id, err := NewRoundID()
		if err != nil {
			t.Fatalf("NewRoundID() error on iteration %d: %v", i, err)
		}
		if !pattern.MatchString(id) {
			t.Fatalf("NewRoundID() = %q, does not match %s", id, pattern)
		}
	}
}

func TestNewRoundID_Uniqueness(t *testing.T) {
	const count = 10_000
	seen := make(map[string]struct{}, count)
	for i := 0; i < count; i++ {
		id := RoundID()
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate ID after %d generations: %q", i, id)
		}
		seen[id] = struct{}{}
	}
}
