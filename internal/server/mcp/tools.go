package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

type GetTranscriptArgs struct {
	IncludeParts bool `json:"include_parts,omitempty" jsonschema:"Also return the original and translated text separately"`
}

type SessionArgs struct{}

type StatusArgs struct{}

func (s *Server) handleGetTranscript(ctx context.Context, req *sdk.CallToolRequest, args GetTranscriptArgs) (*sdk.CallToolResult, any, error) {
	result := s.cell.Get()
	if result.Text == "" {
		return &sdk.CallToolResult{
			Content: []sdk.Content{&sdk.TextContent{Text: "(no caption)"}},
		}, nil, nil
	}

	content := []sdk.Content{&sdk.TextContent{Text: result.Text}}
	if args.IncludeParts {
		content = append(content, &sdk.TextContent{Text: fmt.Sprintf("Original: %s", result.Original)})
		if result.Translated != "" {
			content = append(content, &sdk.TextContent{Text: fmt.Sprintf("Translated: %s", result.Translated)})
		}
	}

	return &sdk.CallToolResult{Content: content}, nil, nil
}

func (s *Server) handleStartSession(ctx context.Context, req *sdk.CallToolRequest, args SessionArgs) (*sdk.CallToolResult, any, error) {
	s.session.Set(true)
	return sessionResult(true), nil, nil
}

func (s *Server) handleStopSession(ctx context.Context, req *sdk.CallToolRequest, args SessionArgs) (*sdk.CallToolResult, any, error) {
	s.session.Set(false)
	return sessionResult(false), nil, nil
}

func (s *Server) handleToggleSession(ctx context.Context, req *sdk.CallToolRequest, args SessionArgs) (*sdk.CallToolResult, any, error) {
	return sessionResult(s.session.Toggle()), nil, nil
}

func (s *Server) handleGetStatus(ctx context.Context, req *sdk.CallToolRequest, args StatusArgs) (*sdk.CallToolResult, any, error) {
	if s.status == nil {
		return nil, nil, fmt.Errorf("status not available")
	}

	data, err := json.Marshal(s.status())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode status: %w", err)
	}

	return &sdk.CallToolResult{
		Content: []sdk.Content{&sdk.TextContent{Text: string(data)}},
	}, nil, nil
}

func sessionResult(active bool) *sdk.CallToolResult {
	state := "stopped"
	if active {
		state = "running"
	}
	return &sdk.CallToolResult{
		Content: []sdk.Content{&sdk.TextContent{Text: "Session " + state}},
	}
}
