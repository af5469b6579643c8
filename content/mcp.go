package content

import (
	"context"
	"log/slog"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/diagnostico/intake"
	"github.com/hazyhaar/diagnostico/kit"
	"github.com/hazyhaar/diagnostico/wizard"
)

// RegisterMCP registers the diagnostic tools on an MCP server. opts is the
// intake validation policy applied to tool input.
func (r *Resolver) RegisterMCP(srv *mcp.Server, opts intake.Options) {
	r.registerSectionsTool(srv)
	r.registerResolveTool(srv, opts)
}

func inputSchema(properties map[string]any, required []string) map[string]any {
	s := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

func (r *Resolver) mcpLogger() *slog.Logger {
	if r.logger != nil {
		return r.logger
	}
	return slog.Default()
}

// --- sections ---

// SectionInfo describes one section for tool callers.
type SectionInfo struct {
	Section string `json:"section"`
	Step    int    `json:"step"`
	Label   string `json:"label"`
	Path    string `json:"path"`
}

// SectionList describes the five sections in wizard order.
func SectionList() []SectionInfo {
	out := make([]SectionInfo, 0, len(wizard.Sections()))
	for _, sec := range wizard.Sections() {
		step := sec.Step()
		out = append(out, SectionInfo{
			Section: string(sec),
			Step:    step.Index(),
			Label:   step.Label(),
			Path:    step.Path(),
		})
	}
	return out
}

func (r *Resolver) registerSectionsTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "diagnostic_sections",
		Description: "List the diagnostic sections in wizard order with their step index and label.",
		InputSchema: inputSchema(map[string]any{}, nil),
	}

	endpoint := func(_ context.Context, _ any) (any, error) {
		return map[string]any{
			"sections":           SectionList(),
			"generation_enabled": r.GenerationEnabled(),
		}, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, nil)
}

// --- resolve ---

type resolveReq struct {
	Section    string            `json:"section"`
	Regenerate bool              `json:"regenerate"`
	Intake     map[string]string `json:"intake"`
}

func (r *Resolver) registerResolveTool(srv *mcp.Server, opts intake.Options) {
	tool := &mcp.Tool{
		Name:        "diagnostic_resolve",
		Description: "Resolve the HTML content of one diagnostic section for the given intake data. Falls back to static content when generation is unavailable.",
		InputSchema: inputSchema(map[string]any{
			"section":    map[string]any{"type": "string", "enum": []string{"scope", "map", "roi", "roadmap", "brief"}},
			"regenerate": map[string]any{"type": "boolean", "description": "Use the alternate (regenerate) prompt"},
			"intake": map[string]any{
				"type":                 "object",
				"description":          "Intake form fields keyed by form name (client_name, industry, area, context, objective, ...)",
				"additionalProperties": map[string]any{"type": "string"},
			},
		}, []string{"section", "intake"}),
	}

	var endpoint kit.Endpoint = func(ctx context.Context, req any) (any, error) {
		in := req.(*resolveReq)
		sec, ok := wizard.ParseSection(in.Section)
		if !ok {
			return nil, ErrInvalidSection
		}
		rec, err := intake.FromMap(in.Intake, opts, time.Now())
		if err != nil {
			return nil, err
		}
		if in.Regenerate {
			return r.Regenerate(ctx, sec, rec)
		}
		return r.Resolve(ctx, sec, rec)
	}
	endpoint = kit.Logging(r.mcpLogger(), "diagnostic_resolve")(endpoint)

	kit.RegisterMCPTool(srv, tool, endpoint, kit.JSONDecoder[resolveReq]())
}
