package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/wricardo/battleships-server/game/engine"
	"github.com/wricardo/battleships-server/game/id"
	"github.com/wricardo/battleships-server/game/service"
	"github.com/wricardo/battleships-server/game/session"
)

// Client implements service.AdminService against the REST API of a running
// server. It lets the stdio MCP server drive a remote process.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

var _ service.AdminService = (*Client)(nil)

// NewClient creates a client for the REST API rooted at baseURL
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// APIError is a non-2xx answer of the REST API
type APIError struct {
	Status  int
	Type    string
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("API error: %d", e.Status)
	}
	return e.Message
}

// Unwrap maps the reported error type back to the matching sentinel so
// errors.Is and service.ErrorType keep working across the wire.
func (e *APIError) Unwrap() error {
	switch e.Type {
	case service.ErrorTypeInvalidGameSize:
		return engine.ErrInvalidGameSize
	case service.ErrorTypeInvalidArgument:
		return service.ErrInvalidArgument
	case service.ErrorTypeNoSuchGame:
		return session.ErrNoSuchGame
	case service.ErrorTypeNoGameForClient:
		return session.ErrNoGameForClient
	case service.ErrorTypeAlreadyInGame:
		return session.ErrAlreadyInGame
	case service.ErrorTypeNotAllowed:
		return service.ErrNotAllowed
	case service.ErrorTypeInvalidAction:
		return engine.ErrIllegalTransition
	}
	return nil
}

func (c *Client) ListGames(ctx context.Context) ([]*service.GameInfo, error) {
	var games []*service.GameInfo
	if err := c.apiCall(ctx, http.MethodGet, "/api/games", nil, &games); err != nil {
		return nil, err
	}
	return games, nil
}

func (c *Client) GetGame(ctx context.Context, gameID id.ID) (*service.GameInfo, error) {
	var info service.GameInfo
	if err := c.apiCall(ctx, http.MethodGet, gamePath(gameID, ""), nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

func (c *Client) CreateGame(ctx context.Context, params service.CreateGameParams) (*service.GameInfo, error) {
	var info service.GameInfo
	if err := c.apiCall(ctx, http.MethodPost, "/api/games", params, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

func (c *Client) LaunchGame(ctx context.Context, gameID id.ID) (*service.GameInfo, error) {
	return c.lifecycle(ctx, gameID, "launch", nil)
}

func (c *Client) PauseGame(ctx context.Context, gameID id.ID) (*service.GameInfo, error) {
	return c.lifecycle(ctx, gameID, "pause", nil)
}

func (c *Client) ContinueGame(ctx context.Context, gameID id.ID) (*service.GameInfo, error) {
	return c.lifecycle(ctx, gameID, "continue", nil)
}

func (c *Client) AbortGame(ctx context.Context, gameID id.ID, keepPoints bool) (*service.GameInfo, error) {
	return c.lifecycle(ctx, gameID, "abort", map[string]bool{"keep_points": keepPoints})
}

func (c *Client) ListPresets(ctx context.Context) ([]*service.PresetInfo, error) {
	var presets []*service.PresetInfo
	if err := c.apiCall(ctx, http.MethodGet, "/api/presets", nil, &presets); err != nil {
		return nil, err
	}
	return presets, nil
}

func (c *Client) lifecycle(ctx context.Context, gameID id.ID, action string, body interface{}) (*service.GameInfo, error) {
	var info service.GameInfo
	if err := c.apiCall(ctx, http.MethodPost, gamePath(gameID, action), body, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

func gamePath(gameID id.ID, action string) string {
	path := "/api/games/" + gameID.String()
	if action != "" {
		path += "/" + action
	}
	return path
}

// Helper methods for API calls

func (c *Client) apiCall(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	url := c.baseURL + path

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		apiErr := &APIError{Status: resp.StatusCode}
		var errResp map[string]string
		if json.NewDecoder(resp.Body).Decode(&errResp) == nil {
			apiErr.Message = errResp["error"]
			apiErr.Type = errResp["type"]
		}
		return apiErr
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}

	return nil
}
