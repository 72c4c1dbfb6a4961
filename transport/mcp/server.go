package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/wricardo/battleships-server/game/engine"
	"github.com/wricardo/battleships-server/game/id"
	"github.com/wricardo/battleships-server/game/service"
)

const (
	serverName    = "Battleships Admin"
	serverVersion = "1.0.0"
)

var errMissingGameID = errors.New("game_id is required")

// Server exposes the admin operations as MCP tools
type Server struct {
	admin     service.AdminService
	log       *zap.SugaredLogger
	mcpServer *server.MCPServer
}

// NewServer creates an MCP server backed by admin. admin may be the
// in-process service or a Client talking to a remote REST API.
func NewServer(admin service.AdminService, log *zap.SugaredLogger) *Server {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	s := &Server{admin: admin, log: log}
	s.initMCPServer()
	return s
}

func (s *Server) initMCPServer() {
	s.mcpServer = server.NewMCPServer(
		serverName,
		serverVersion,
		server.WithToolCapabilities(true),
		server.WithInstructions(`Battleships server administration.

Games move through CREATED -> LOBBY_OPEN -> IN_PROGRESS <-> PAUSED and end in FINISHED or ABORTED.

Typical flow:
1. list_presets to see the stored configurations
2. create_game with a preset (or a full configuration JSON)
3. wait for players to join over the websocket, check with get_game
4. launch_game once at least two players are in the lobby
5. pause_game / continue_game / abort_game as needed

Remaining time is reported in milliseconds.`),
	)

	s.registerTools()
}

func (s *Server) registerTools() {
	gameIDProperty := map[string]interface{}{
		"type":        "number",
		"description": "Numeric game id as returned by list_games or create_game",
	}

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "list_games",
		Description: "List every game known to the server with its state, members and points",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, s.handleListGames)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "get_game",
		Description: "Show one game in detail, including the time left in the current round",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"game_id": gameIDProperty,
			},
			Required: []string{"game_id"},
		},
	}, s.handleGetGame)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "create_game",
		Description: "Create a new game from a stored preset or an inline configuration",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"name": map[string]interface{}{
					"type":        "string",
					"description": "Display name of the game",
				},
				"tournament": map[string]interface{}{
					"type":        "boolean",
					"description": "Mark the game as part of a tournament",
					"default":     false,
				},
				"preset": map[string]interface{}{
					"type":        "string",
					"description": "Preset id from list_presets (mutually exclusive with configuration)",
				},
				"configuration": map[string]interface{}{
					"type":        "string",
					"description": "Game configuration as a JSON object (maxPlayerCount, width, height, shotCount, hitPoints, sunkPoints, roundTime, visualizationTime, rounds, ships)",
				},
			},
			Required: []string{"name"},
		},
	}, s.handleCreateGame)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "launch_game",
		Description: "Start a game whose lobby has enough players",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"game_id": gameIDProperty,
			},
			Required: []string{"game_id"},
		},
	}, s.handleLaunchGame)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "pause_game",
		Description: "Pause a running game; the round clock stops",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"game_id": gameIDProperty,
			},
			Required: []string{"game_id"},
		},
	}, s.handlePauseGame)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "continue_game",
		Description: "Resume a paused game with the round time that was left",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"game_id": gameIDProperty,
			},
			Required: []string{"game_id"},
		},
	}, s.handleContinueGame)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "abort_game",
		Description: "Abort a game. Points are reset unless keep_points is true",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"game_id": gameIDProperty,
				"keep_points": map[string]interface{}{
					"type":        "boolean",
					"description": "Keep the points scored so far",
					"default":     false,
				},
			},
			Required: []string{"game_id"},
		},
	}, s.handleAbortGame)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "list_presets",
		Description: "List the stored game presets usable with create_game",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, s.handleListPresets)
}

// GetMCPServer returns the underlying MCP server
func (s *Server) GetMCPServer() *server.MCPServer {
	return s.mcpServer
}

// Tool handlers

func (s *Server) handleListGames(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	games, err := s.admin.ListGames(ctx)
	if err != nil {
		return s.toolError("list_games", err), nil
	}
	return mcp.NewToolResultText(formatGameList(games)), nil
}

func (s *Server) handleGetGame(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	gameID, err := gameIDArg(arguments(request))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	info, err := s.admin.GetGame(ctx, gameID)
	if err != nil {
		return s.toolError("get_game", err), nil
	}
	return mcp.NewToolResultText(formatGame(info)), nil
}

func (s *Server) handleCreateGame(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)

	params := service.CreateGameParams{}
	params.Name, _ = args["name"].(string)
	params.Tournament, _ = args["tournament"].(bool)
	params.Preset, _ = args["preset"].(string)

	if raw, ok := args["configuration"]; ok && raw != nil {
		cfg, err := configurationArg(raw)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		params.Configuration = cfg
	}

	info, err := s.admin.CreateGame(ctx, params)
	if err != nil {
		return s.toolError("create_game", err), nil
	}

	result := fmt.Sprintf("Game created.\n\n%s", formatGame(info))
	return mcp.NewToolResultText(result), nil
}

func (s *Server) handleLaunchGame(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.lifecycle(ctx, request, "launch_game", "Game launched.", s.admin.LaunchGame)
}

func (s *Server) handlePauseGame(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.lifecycle(ctx, request, "pause_game", "Game paused.", s.admin.PauseGame)
}

func (s *Server) handleContinueGame(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.lifecycle(ctx, request, "continue_game", "Game continued.", s.admin.ContinueGame)
}

func (s *Server) handleAbortGame(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	keepPoints, _ := args["keep_points"].(bool)

	return s.lifecycle(ctx, request, "abort_game", "Game aborted.", func(ctx context.Context, gameID id.ID) (*service.GameInfo, error) {
		return s.admin.AbortGame(ctx, gameID, keepPoints)
	})
}

func (s *Server) handleListPresets(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	presets, err := s.admin.ListPresets(ctx)
	if err != nil {
		return s.toolError("list_presets", err), nil
	}
	return mcp.NewToolResultText(formatPresetList(presets)), nil
}

func (s *Server) lifecycle(ctx context.Context, request mcp.CallToolRequest, tool, done string, op func(context.Context, id.ID) (*service.GameInfo, error)) (*mcp.CallToolResult, error) {
	gameID, err := gameIDArg(arguments(request))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	info, err := op(ctx, gameID)
	if err != nil {
		return s.toolError(tool, err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("%s\n\n%s", done, formatGame(info))), nil
}

func (s *Server) toolError(tool string, err error) *mcp.CallToolResult {
	s.log.Debugw("Tool failed", "tool", tool, "error", err)
	return mcp.NewToolResultError(fmt.Sprintf("%s: %s", service.ErrorType(err), err.Error()))
}

// Argument helpers

func arguments(request mcp.CallToolRequest) map[string]interface{} {
	args, _ := request.Params.Arguments.(map[string]interface{})
	if args == nil {
		return map[string]interface{}{}
	}
	return args
}

// gameIDArg accepts a JSON number or its decimal string form
func gameIDArg(args map[string]interface{}) (id.ID, error) {
	switch v := args["game_id"].(type) {
	case float64:
		return id.ID(v), nil
	case int:
		return id.ID(v), nil
	case string:
		if v == "" {
			return 0, errMissingGameID
		}
		gameID, err := id.Parse(v)
		if err != nil {
			return 0, fmt.Errorf("invalid game_id %q: %w", v, err)
		}
		return gameID, nil
	case nil:
		return 0, errMissingGameID
	default:
		return 0, fmt.Errorf("invalid game_id type %T", v)
	}
}

// configurationArg accepts either a JSON string or an already decoded object
func configurationArg(raw interface{}) (*engine.Configuration, error) {
	var data []byte
	switch v := raw.(type) {
	case string:
		if strings.TrimSpace(v) == "" {
			return nil, nil
		}
		data = []byte(v)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("invalid configuration: %w", err)
		}
		data = b
	}

	var cfg engine.Configuration
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Formatting helpers

func formatGameList(games []*service.GameInfo) string {
	if len(games) == 0 {
		return "No games."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d game(s):\n", len(games))
	for _, g := range games {
		fmt.Fprintf(&b, "- #%d %q %s, %d/%d players, %d spectator(s)",
			g.ID, g.Name, g.State, len(g.Players), g.Configuration.MaxPlayerCount, len(g.Spectators))
		if g.Tournament {
			b.WriteString(" [tournament]")
		}
		b.WriteString("\n")
	}
	return b.String()
}

func formatGame(g *service.GameInfo) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Game #%d %q\n", g.ID, g.Name)
	fmt.Fprintf(&b, "State: %s\n", g.State)
	if g.Tournament {
		b.WriteString("Tournament: yes\n")
	}
	fmt.Fprintf(&b, "Field: %dx%d, %d ship(s)\n", g.Configuration.Width, g.Configuration.Height, len(g.Configuration.Ships))
	fmt.Fprintf(&b, "Players: %d/%d %s\n", len(g.Players), g.Configuration.MaxPlayerCount, joinIDs(g.Players))
	fmt.Fprintf(&b, "Spectators: %d %s\n", len(g.Spectators), joinIDs(g.Spectators))
	if g.Configuration.Rounds > 0 {
		fmt.Fprintf(&b, "Round: %d/%d\n", g.Round, g.Configuration.Rounds)
	} else {
		fmt.Fprintf(&b, "Round: %d\n", g.Round)
	}
	fmt.Fprintf(&b, "Remaining time: %dms\n", g.RemainingTime)

	if len(g.Points) > 0 {
		b.WriteString("Points:\n")
		for _, pid := range sortedPointIDs(g.Points) {
			fmt.Fprintf(&b, "  %d: %d\n", pid, g.Points[pid])
		}
	}
	return b.String()
}

func formatPresetList(presets []*service.PresetInfo) string {
	if len(presets) == 0 {
		return "No presets available."
	}

	var b strings.Builder
	b.WriteString("Available presets:\n")
	for _, p := range presets {
		rounds := "unlimited rounds"
		if p.Rounds > 0 {
			rounds = fmt.Sprintf("%d rounds", p.Rounds)
		}
		fmt.Fprintf(&b, "- %s: %dx%d, up to %d players, %d ship(s), %s\n",
			p.PresetID, p.Width, p.Height, p.MaxPlayerCount, p.Ships, rounds)
	}
	return b.String()
}

func joinIDs(ids []id.ID) string {
	if len(ids) == 0 {
		return ""
	}
	parts := make([]string, len(ids))
	for i, v := range ids {
		parts[i] = strconv.FormatInt(int64(v), 10)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func sortedPointIDs(points map[id.ID]int) []id.ID {
	ids := make([]id.ID, 0, len(points))
	for pid := range points {
		ids = append(ids, pid)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
