package mcp

import (
	"context"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/emmett/livecap/internal/display"
	"github.com/emmett/livecap/internal/session"
)

type Config struct {
	ServerName    string
	ServerVersion string
}

// StatusFunc reports pipeline state for the get_status tool
type StatusFunc func() any

// Server exposes the live caption and session control as MCP tools
type Server struct {
	config    Config
	mcpServer *sdk.Server
	session   *session.Flag
	cell      *display.Cell
	status    StatusFunc
}

func NewServer(cfg Config, flag *session.Flag, cell *display.Cell, status StatusFunc) *Server {
	s := &Server{
		config:  cfg,
		session: flag,
		cell:    cell,
		status:  status,
	}

	s.mcpServer = sdk.NewServer(&sdk.Implementation{
		Name:    cfg.ServerName,
		Version: cfg.ServerVersion,
	}, nil)

	s.registerTools()

	return s
}

// Run serves over stdio until ctx is cancelled or the client disconnects
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &sdk.StdioTransport{})
}

func (s *Server) registerTools() {
	sdk.AddTool(s.mcpServer, &sdk.Tool{
		Name:        "get_transcript",
		Description: "Return the most recent caption, with the original transcript and translation",
	}, s.handleGetTranscript)

	sdk.AddTool(s.mcpServer, &sdk.Tool{
		Name:        "start_session",
		Description: "Start a captioning session; opens a new session log",
	}, s.handleStartSession)

	sdk.AddTool(s.mcpServer, &sdk.Tool{
		Name:        "stop_session",
		Description: "Stop the captioning session; clears the caption and closes the session log",
	}, s.handleStopSession)

	sdk.AddTool(s.mcpServer, &sdk.Tool{
		Name:        "toggle_session",
		Description: "Start the session if stopped, stop it if running",
	}, s.handleToggleSession)

	sdk.AddTool(s.mcpServer, &sdk.Tool{
		Name:        "get_status",
		Description: "Report session state, VAD state, sample rate and phrase count",
	}, s.handleGetStatus)
}
