package idgen

import (
	"strings"
	"testing"
)

func TestNewRoomIDShape(t *testing.T) {
	id, err := NewRoomID()
	if err != nil {
		t.Fatalf("NewRoomID failed: %v", err)
	}

	if len(id) != length {
		t.Errorf("Expected id of length %d, got %q", length, id)
	}
	for _, r := range id {
		if !strings.ContainsRune(alphabet, r) {
			t.Errorf("Id %q contains %q outside the alphabet", id, r)
		}
	}
}

func TestNewRoomIDNoCollisions(t *testing.T) {
	seen := make(map[string]bool, 10000)

	for i := 0; i < 10000; i++ {
		id, err := NewRoomID()
		if err != nil {
			t.Fatalf("NewRoomID failed: %v", err)
		}
		if seen[id] {
			t.Fatalf("Collision after %d ids: %q", i, id)
		}
		seen[id] = true
	}
}
