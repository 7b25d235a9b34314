package app

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

type mcpServerEntry struct {
	Command string   `json:"command"`
	Args    []string `json:"args"`
}

type mcpClientConfig struct {
	MCPServers map[string]mcpServerEntry `json:"mcpServers"`
}

// MCPClientConfig returns the client configuration snippet that launches
// this binary as an MCP server
func MCPClientConfig(execPath, configPath string) ([]byte, error) {
	args := []string{"--mode", ModeMCP}
	if configPath != "" {
		args = append(args, "--config", configPath)
	}

	return json.MarshalIndent(mcpClientConfig{
		MCPServers: map[string]mcpServerEntry{
			"livecap": {Command: execPath, Args: args},
		},
	}, "", "  ")
}

// printMCPBanner writes startup details for MCP mode to w, which must not
// be the stdio transport
func printMCPBanner(w io.Writer, version, configPath string) {
	fmt.Fprintf(w, "Starting MCP server...\n")
	fmt.Fprintf(w, "Protocol: Model Context Protocol (stdio transport)\n")
	fmt.Fprintf(w, "Version: %s\n\n", version)

	execPath, err := os.Executable()
	if err != nil {
		execPath = "livecap"
	}
	if data, err := MCPClientConfig(execPath, configPath); err == nil {
		fmt.Fprintf(w, "MCP Client Configuration:\n%s\n\n", data)
	}

	fmt.Fprintf(w, "MCP server ready. Listening on stdin/stdout...\n")
}
