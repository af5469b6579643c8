package generation

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"google.golang.org/genai"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, KindNone},
		{"not configured", ErrNotConfigured, KindNotConfigured},
		{"not configured wrapped", fmt.Errorf("x: %w", ErrNotConfigured), KindNotConfigured},
		{"typed quota", NewQuotaError(errors.New("boom")), KindQuota},
		{"typed transient", NewTransientError(errors.New("quota words inside")), KindTransient},
		{"deadline", fmt.Errorf("call: %w", context.DeadlineExceeded), KindTransient},
		{"api 429", genai.APIError{Code: 429, Message: "slow down"}, KindQuota},
		{"api exhausted", fmt.Errorf("g: %w", genai.APIError{Code: 400, Status: "RESOURCE_EXHAUSTED"}), KindQuota},
		{"api 403", genai.APIError{Code: 403, Status: "PERMISSION_DENIED"}, KindNotConfigured},
		{"api 503", genai.APIError{Code: 503, Status: "UNAVAILABLE"}, KindTransient},
		{"quota text", errors.New("You exceeded your current Quota"), KindQuota},
		{"billing text", errors.New("billing account disabled"), KindQuota},
		{"other", errors.New("connection reset by peer"), KindTransient},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.err); got != tt.want {
				t.Fatalf("Classify(%v) = %s, want %s", tt.err, got, tt.want)
			}
		})
	}
}

func TestWrap_PreservesKind(t *testing.T) {
	raw := []error{
		genai.APIError{Code: 429},
		genai.APIError{Code: 401},
		errors.New("EOF"),
	}
	for _, err := range raw {
		w := wrap(err)
		if Classify(w) != Classify(err) {
			t.Errorf("wrap changed kind of %v: %s -> %s", err, Classify(err), Classify(w))
		}
		var apiErr genai.APIError
		if errors.As(err, &apiErr) && !errors.As(w, &apiErr) {
			t.Errorf("wrap lost the cause %v", err)
		}
	}

	cause := errors.New("EOF")
	if !errors.Is(wrap(cause), cause) {
		t.Error("wrap lost a plain cause")
	}

	var qe *QuotaError
	if !errors.As(wrap(genai.APIError{Code: 429}), &qe) {
		t.Error("quota not wrapped as *QuotaError")
	}
	var te *TransientError
	if !errors.As(wrap(errors.New("EOF")), &te) {
		t.Error("transient not wrapped as *TransientError")
	}
}

func TestKind_String(t *testing.T) {
	for k, want := range map[Kind]string{
		KindNone:          "none",
		KindNotConfigured: "not_configured",
		KindQuota:         "quota",
		KindTransient:     "transient",
		Kind(99):          "unknown",
	} {
		if k.String() != want {
			t.Errorf("%d.String() = %q, want %q", int(k), k.String(), want)
		}
	}
}
