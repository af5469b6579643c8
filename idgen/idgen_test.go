package idgen

import (
	"strings"
	"testing"
)

func TestAlphanumeric_Length(t *testing.T) {
	for _, length := range []int{1, 8, 32, 100} {
		if id := Alphanumeric(length)(); len(id) != length {
			t.Fatalf("Alphanumeric(%d): got length %d", length, len(id))
		}
	}
}

func TestAlphanumeric_Alphabet(t *testing.T) {
	id := Alphanumeric(500)()
	for _, c := range id {
		if !strings.ContainsRune(base36, c) {
			t.Fatalf("unexpected character %q in %q", c, id)
		}
	}
}

func TestAlphanumeric_Uniqueness(t *testing.T) {
	gen := Alphanumeric(12)
	seen := make(map[string]struct{}, 1000)
	for i := 0; i < 1000; i++ {
		id := gen()
		if _, ok := seen[id]; ok {
			t.Fatalf("duplicate at iteration %d: %q", i, id)
		}
		seen[id] = struct{}{}
	}
}

func TestUUIDv7_Format(t *testing.T) {
	id := UUIDv7()()
	if len(id) != 36 || strings.Count(id, "-") != 4 {
		t.Fatalf("unexpected UUID %q", id)
	}
	if id[14] != '7' {
		t.Fatalf("expected version 7, got %q", id)
	}
}

func TestSessionToken(t *testing.T) {
	tok := SessionToken()()
	if !strings.HasPrefix(tok, "sess_") {
		t.Fatalf("missing prefix: %q", tok)
	}
	if len(tok) != len("sess_")+32 {
		t.Fatalf("unexpected length %d", len(tok))
	}
}

func TestNew_UsesDefault(t *testing.T) {
	orig := Default
	t.Cleanup(func() { Default = orig })
	Default = func() string { return "fixed" }
	if New() != "fixed" {
		t.Fatal("New must delegate to Default")
	}
}
