package generation

import (
	"context"
	"errors"
	"testing"
)

func TestOffline(t *testing.T) {
	_, err := Offline{}.Generate(context.Background(), "p", 0.7)
	if !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("err = %v", err)
	}
}

func TestNew_NoKeyIsOffline(t *testing.T) {
	b := New(context.Background(), Config{}, nil)
	if _, ok := b.(Offline); !ok {
		t.Fatalf("New without key = %T, want Offline", b)
	}
	if Available(b) {
		t.Fatal("offline backend reported available")
	}
}

func TestNewGemini_RequiresKey(t *testing.T) {
	if _, err := NewGemini(context.Background(), Config{}); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("err = %v", err)
	}
}

func TestBackendFunc(t *testing.T) {
	var gotPrompt string
	var gotTemp float64
	b := BackendFunc(func(_ context.Context, prompt string, temperature float64) (string, error) {
		gotPrompt, gotTemp = prompt, temperature
		return "<p>ok</p>", nil
	})
	out, err := b.Generate(context.Background(), "hello", 0.5)
	if err != nil || out != "<p>ok</p>" {
		t.Fatalf("Generate = %q, %v", out, err)
	}
	if gotPrompt != "hello" || gotTemp != 0.5 {
		t.Fatalf("args = %q %v", gotPrompt, gotTemp)
	}
	if !Available(b) {
		t.Fatal("func backend reported unavailable")
	}
}
