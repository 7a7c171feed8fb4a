// Package server exposes the reader over HTTP, a session websocket and MCP.
package server

// ToolServer is an MCP server exposing reader tools to MCP clients.
type ToolServer interface {
	// Initialize registers the tools.
	Initialize() error

	// Start serves MCP on the stdio transport until stdin closes.
	Start() error

	// Stop gracefully shuts down the MCP server.
	Stop() error
}
