// Package api provides the operator REST API of the battleships server.
//
// The api package implements:
//   - Game listing, inspection and creation
//   - Lifecycle control (launch, pause, continue, abort)
//   - Preset listing
//   - The websocket endpoint for players, spectators and admins
//   - An optional MCP HTTP endpoint
//
// Endpoints:
//
//	GET  /api/games                 list games
//	POST /api/games                 create a game {name, tournament, preset | configuration}
//	GET  /api/games/{id}            one game with remaining round time
//	POST /api/games/{id}/launch     start the game
//	POST /api/games/{id}/pause      pause a running game
//	POST /api/games/{id}/continue   resume a paused game
//	POST /api/games/{id}/abort      abort, body {"keep_points": bool} is optional
//	GET  /api/presets               stored configurations
//	GET  /api/health                liveness with game and connection counts
//	GET  /ws                        websocket upgrade
//	     /mcp                       MCP streamable HTTP, when mounted
//
// Errors:
//
// Failures are answered with {"error": "...", "type": "..."} where type is
// the same error type websocket clients receive. NoSuchGame maps to 404,
// InvalidArgument and InvalidGameSize to 400, NotAllowed to 403, and
// AlreadyInGame and InvalidAction to 409.
//
// Usage:
//
//	server := api.NewServer(admin, hub, log, api.WithMCPHandler(mcpHandler))
//	http.ListenAndServe(":8080", server)
package api
