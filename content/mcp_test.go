package content

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/diagnostico/intake"
)

var testMCPImpl = &mcp.Implementation{Name: "diagnostico-test", Version: "0.1.0"}

func mcpSession(t *testing.T, r *Resolver) *mcp.ClientSession {
	t.Helper()
	srv := mcp.NewServer(testMCPImpl, nil)
	r.RegisterMCP(srv, intake.Options{})

	serverT, clientT := mcp.NewInMemoryTransports()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = srv.Run(ctx, serverT)
	}()

	client := mcp.NewClient(testMCPImpl, nil)
	session, err := client.Connect(ctx, clientT, nil)
	if err != nil {
		cancel()
		t.Fatalf("client connect: %v", err)
	}
	t.Cleanup(func() {
		session.Close()
		cancel()
		<-done
	})
	return session
}

func mcpCall(t *testing.T, session *mcp.ClientSession, name string, args any) *mcp.CallToolResult {
	t.Helper()
	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	if err != nil {
		t.Fatalf("CallTool(%s): %v", name, err)
	}
	return result
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	tc, ok := result.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatal("expected TextContent")
	}
	return tc.Text
}

func TestMCP_Sections(t *testing.T) {
	session := mcpSession(t, newResolver(t, nil))
	result := mcpCall(t, session, "diagnostic_sections", map[string]any{})
	if err := result.GetError(); err != nil {
		t.Fatalf("tool error: %v", err)
	}

	var resp struct {
		Sections          []SectionInfo `json:"sections"`
		GenerationEnabled bool          `json:"generation_enabled"`
	}
	if err := json.Unmarshal([]byte(resultText(t, result)), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Sections) != 5 || resp.Sections[0].Section != "scope" || resp.Sections[4].Step != 6 {
		t.Fatalf("sections = %+v", resp.Sections)
	}
	if resp.GenerationEnabled {
		t.Fatal("offline resolver reported generation enabled")
	}
}

func TestMCP_ResolveFallback(t *testing.T) {
	session := mcpSession(t, newResolver(t, nil))
	result := mcpCall(t, session, "diagnostic_resolve", map[string]any{
		"section": "roadmap",
		"intake": map[string]string{
			"client_name": "Acme",
			"industry":    "Tecnologia",
			"area":        "Vendas lentas",
			"context":     "50 funcionários",
			"objective":   "Aumentar conversão 15%",
		},
	})
	if err := result.GetError(); err != nil {
		t.Fatalf("tool error: %v", err)
	}
	var res Result
	if err := json.Unmarshal([]byte(resultText(t, result)), &res); err != nil {
		t.Fatal(err)
	}
	if res.Section != "roadmap" || res.Generated || !strings.Contains(res.HTML, "Quick Wins") {
		t.Fatalf("result = %+v", res)
	}
}

func TestMCP_ResolveErrors(t *testing.T) {
	session := mcpSession(t, newResolver(t, nil))

	result := mcpCall(t, session, "diagnostic_resolve", map[string]any{
		"section": "unknown",
		"intake":  map[string]string{},
	})
	if !result.IsError {
		t.Fatal("expected tool error for unknown section")
	}

	result = mcpCall(t, session, "diagnostic_resolve", map[string]any{
		"section": "scope",
		"intake":  map[string]string{"client_name": "Acme"},
	})
	if !result.IsError || !strings.Contains(resultText(t, result), "Objetivo Principal") {
		t.Fatalf("expected validation error naming missing fields, got %+v", result)
	}
}
