// Package mcp exposes the battleships admin operations as Model Context
// Protocol tools.
//
// The mcp package implements:
//   - Server, the MCP tool set over a service.AdminService
//   - Client, a service.AdminService that calls the REST API of a running
//     server, so the stdio tools can drive a remote process
//
// MCP Tools:
//   - list_games: all games with state and lobby fill
//   - get_game: one game with points and remaining round time
//   - create_game: create from a preset or an inline configuration
//   - launch_game, pause_game, continue_game: lifecycle changes
//   - abort_game: abort, optionally keeping points
//   - list_presets: stored configurations
//
// Transport Modes:
//
//	// Stdio mode
//	srv := mcp.NewServer(admin, log)
//	server.ServeStdio(srv.GetMCPServer())
//
//	// HTTP mode, mounted by the api package on /mcp
//	handler := server.NewStreamableHTTPServer(srv.GetMCPServer())
//
// Tool failures are returned as tool errors prefixed with the error type,
// for example "NoSuchGame: no such game: 7".
package mcp
