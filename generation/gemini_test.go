package generation

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const testModel = "gemini-test"

type generateRequest struct {
	Contents []struct {
		Role  string `json:"role"`
		Parts []struct {
			Text string `json:"text"`
		} `json:"parts"`
	} `json:"contents"`
	GenerationConfig struct {
		Temperature *float64 `json:"temperature"`
	} `json:"generationConfig"`
}

func newTestGemini(t *testing.T, timeout time.Duration, h http.HandlerFunc) *Gemini {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	g, err := NewGemini(context.Background(), Config{
		APIKey:  "test-key",
		Model:   testModel,
		Timeout: timeout,
		BaseURL: srv.URL,
	})
	if err != nil {
		t.Fatal(err)
	}
	return g
}

func writeCandidate(w http.ResponseWriter, text string) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"candidates": []any{map[string]any{
			"content": map[string]any{
				"role":  "model",
				"parts": []any{map[string]any{"text": text}},
			},
		}},
	})
}

func writeAPIError(w http.ResponseWriter, code int, status, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{"code": code, "status": status, "message": msg},
	})
}

func TestGemini_Generate(t *testing.T) {
	var got generateRequest
	var path, key string
	g := newTestGemini(t, time.Second, func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		key = r.Header.Get("x-goog-api-key")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		writeCandidate(w, "<p>hello world</p>")
	})

	text, err := g.Generate(context.Background(), "escreva metas", 0.6)
	if err != nil {
		t.Fatal(err)
	}
	if text != "<p>hello world</p>" {
		t.Fatalf("text = %q", text)
	}
	if path != "/v1beta/models/"+testModel+":generateContent" {
		t.Errorf("path = %q", path)
	}
	if key != "test-key" {
		t.Errorf("api key header = %q", key)
	}
	if len(got.Contents) != 1 || len(got.Contents[0].Parts) != 1 || got.Contents[0].Parts[0].Text != "escreva metas" {
		t.Errorf("contents = %+v", got.Contents)
	}
	if temp := got.GenerationConfig.Temperature; temp == nil || math.Abs(*temp-0.6) > 1e-6 {
		t.Errorf("temperature = %v", temp)
	}
}

func TestGemini_ErrorKinds(t *testing.T) {
	tests := []struct {
		name   string
		code   int
		status string
		msg    string
		want   Kind
	}{
		{"quota", http.StatusTooManyRequests, "RESOURCE_EXHAUSTED", "Quota exceeded", KindQuota},
		{"bad key", http.StatusForbidden, "PERMISSION_DENIED", "API key not valid", KindNotConfigured},
		{"unauthenticated", http.StatusUnauthorized, "UNAUTHENTICATED", "missing credentials", KindNotConfigured},
		{"server", http.StatusInternalServerError, "INTERNAL", "backend error", KindTransient},
		{"unavailable", http.StatusServiceUnavailable, "UNAVAILABLE", "overloaded", KindTransient},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newTestGemini(t, time.Second, func(w http.ResponseWriter, _ *http.Request) {
				writeAPIError(w, tt.code, tt.status, tt.msg)
			})
			_, err := g.Generate(context.Background(), "p", 0.7)
			if err == nil {
				t.Fatal("expected error")
			}
			if got := Classify(err); got != tt.want {
				t.Fatalf("Classify(%v) = %s, want %s", err, got, tt.want)
			}
		})
	}
}

func TestGemini_Timeout(t *testing.T) {
	g := newTestGemini(t, 100*time.Millisecond, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
			writeCandidate(w, "too late")
		}
	})

	start := time.Now()
	_, err := g.Generate(context.Background(), "p", 0.7)
	elapsed := time.Since(start)
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if Classify(err) != KindTransient {
		t.Fatalf("Classify(%v) = %s", err, Classify(err))
	}
	if elapsed > time.Second {
		t.Fatalf("call took %v, timeout not applied", elapsed)
	}
}

func TestGemini_EmptyCandidateIsTransient(t *testing.T) {
	g := newTestGemini(t, time.Second, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"candidates":[]}`))
	})
	_, err := g.Generate(context.Background(), "p", 0.7)
	var te *TransientError
	if !errors.As(err, &te) {
		t.Fatalf("err = %v, want *TransientError", err)
	}
}
