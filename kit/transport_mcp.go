package kit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Decoder turns raw tool arguments into the request handed to an Endpoint.
type Decoder func(args json.RawMessage) (any, error)

// JSONDecoder returns a Decoder that unmarshals the arguments into a fresh *T.
func JSONDecoder[T any]() Decoder {
	return func(args json.RawMessage) (any, error) {
		in := new(T)
		if len(args) == 0 {
			return in, nil
		}
		if err := json.Unmarshal(args, in); err != nil {
			return nil, err
		}
		return in, nil
	}
}

// RegisterMCPTool serves endpoint as the MCP tool described by tool. A nil
// decode passes a nil request. The response is sent back as one JSON text
// block; any failure is reported as a tool error so the session stays usable.
func RegisterMCPTool(srv *mcp.Server, tool *mcp.Tool, endpoint Endpoint, decode Decoder) {
	srv.AddTool(tool, func(ctx context.Context, call *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ctx = WithTransport(ctx, TransportMCP)

		var req any
		if decode != nil {
			var err error
			if req, err = decode(call.Params.Arguments); err != nil {
				return failed(fmt.Errorf("%s: bad arguments: %w", tool.Name, err)), nil
			}
		}

		resp, err := endpoint(ctx, req)
		if err != nil {
			return failed(err), nil
		}
		body, err := json.Marshal(resp)
		if err != nil {
			return failed(fmt.Errorf("%s: encode response: %w", tool.Name, err)), nil
		}
		return &mcp.CallToolResult{Content: []mcp.Content{&mcp.TextContent{Text: string(body)}}}, nil
	})
}

func failed(err error) *mcp.CallToolResult {
	res := new(mcp.CallToolResult)
	res.SetError(err)
	return res
}
