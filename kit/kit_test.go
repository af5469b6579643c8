package kit

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	errFail := errors.New("fail")

	ep := Logging(logger, "resolve")(func(_ context.Context, _ any) (any, error) {
		return nil, errFail
	})
	_, err := ep(WithTransport(context.Background(), TransportMCP), nil)
	if !errors.Is(err, errFail) {
		t.Fatalf("error: got %v", err)
	}
	out := buf.String()
	for _, want := range []string{"endpoint failed", "endpoint=resolve", "transport=mcp", "error=fail"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q: %s", want, out)
		}
	}
}

func TestContext_Values(t *testing.T) {
	ctx := context.Background()
	if GetTraceID(ctx) != "" || GetSessionRef(ctx) != "" {
		t.Fatal("expected empty defaults")
	}
	if GetTransport(ctx) != TransportHTTP {
		t.Fatalf("default transport = %q", GetTransport(ctx))
	}
	ctx = WithTraceID(ctx, "t1")
	ctx = WithSessionRef(ctx, "3f2a9c")
	ctx = WithTransport(ctx, TransportMCP)
	if GetTraceID(ctx) != "t1" || GetSessionRef(ctx) != "3f2a9c" || GetTransport(ctx) != TransportMCP {
		t.Fatal("values not round-tripped")
	}
}

func TestJSONDecoder(t *testing.T) {
	type args struct {
		Name string `json:"name"`
	}
	decode := JSONDecoder[args]()

	got, err := decode([]byte(`{"name":"acme"}`))
	if err != nil {
		t.Fatal(err)
	}
	if a := got.(*args); a.Name != "acme" {
		t.Fatalf("name = %q", a.Name)
	}

	got, err = decode(nil)
	if err != nil || got.(*args).Name != "" {
		t.Fatalf("empty args: %v %v", got, err)
	}

	if _, err := decode([]byte(`{"name":`)); err == nil {
		t.Fatal("expected error on malformed arguments")
	}
}
