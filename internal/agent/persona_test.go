package agent

import (
	"errors"
	"testing"
)

func TestRegistryGet(t *testing.T) {
	r := NewRegistry()

	p, err := r.Get("sampler")
	if err != nil {
		t.Fatalf("Get(sampler) error: %v", err)
	}
	if p.Title != "Sampling Expert" {
		t.Errorf("Title = %q, want %q", p.Title, "Sampling Expert")
	}
	if p.SystemPrompt == "" {
		t.Error("SystemPrompt is empty")
	}
}

func TestRegistryGetUnknown(t *testing.T) {
	r := NewRegistry()

	_, err := r.Get("nope")
	if !errors.Is(err, ErrPersonaNotFound) {
		t.Fatalf("err = %v, want ErrPersonaNotFound", err)
	}
}

func TestRegistryAllStableOrder(t *testing.T) {
	r := NewRegistry()

	all := r.All()
	if len(all) != 4 {
		t.Fatalf("got %d personas, want 4", len(all))
	}

	wantOrder := []string{"sampler", "analyst", "scout", "reporter"}
	for i, id := range wantOrder {
		if all[i].ID != id {
			t.Errorf("All()[%d].ID = %q, want %q", i, all[i].ID, id)
		}
	}

	// Mutating the returned slice must not affect the registry.
	all[0].ID = "mutated"
	if again := r.All(); again[0].ID != "sampler" {
		t.Error("All() returned a slice aliasing registry state")
	}
}
