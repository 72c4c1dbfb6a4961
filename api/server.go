package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/wricardo/battleships-server/game/id"
	"github.com/wricardo/battleships-server/game/service"
	"github.com/wricardo/battleships-server/transport/websocket"
)

const maxBodyBytes = 1 << 20

// Server represents the REST API server
type Server struct {
	admin  service.AdminService
	hub    *websocket.Hub
	mcp    http.Handler
	log    *zap.SugaredLogger
	router *mux.Router
}

// Option customizes a Server
type Option func(*Server)

// WithMCPHandler mounts an MCP HTTP transport on /mcp
func WithMCPHandler(h http.Handler) Option {
	return func(s *Server) {
		s.mcp = h
	}
}

// NewServer creates a new API server. hub may be nil, in which case /ws
// answers 503.
func NewServer(admin service.AdminService, hub *websocket.Hub, log *zap.SugaredLogger, opts ...Option) *Server {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	s := &Server{
		admin:  admin,
		hub:    hub,
		log:    log,
		router: mux.NewRouter(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	s.router.Use(s.logRequests)

	api := s.router.PathPrefix("/api").Subrouter()

	// Games
	api.HandleFunc("/games", s.handleListGames).Methods("GET")
	api.HandleFunc("/games", s.handleCreateGame).Methods("POST")
	api.HandleFunc("/games/{id:[0-9]+}", s.handleGetGame).Methods("GET")
	api.HandleFunc("/games/{id:[0-9]+}/launch", s.handleLaunchGame).Methods("POST")
	api.HandleFunc("/games/{id:[0-9]+}/pause", s.handlePauseGame).Methods("POST")
	api.HandleFunc("/games/{id:[0-9]+}/continue", s.handleContinueGame).Methods("POST")
	api.HandleFunc("/games/{id:[0-9]+}/abort", s.handleAbortGame).Methods("POST")

	// Presets
	api.HandleFunc("/presets", s.handleListPresets).Methods("GET")

	api.HandleFunc("/health", s.handleHealth).Methods("GET")

	// WebSocket
	s.router.HandleFunc("/ws", s.handleWebSocket)

	if s.mcp != nil {
		s.router.PathPrefix("/mcp").Handler(s.mcp)
	}
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.Debugw("HTTP request", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, err error) {
	errType := service.ErrorType(err)
	respondJSON(w, statusFor(errType), map[string]string{
		"error": err.Error(),
		"type":  errType,
	})
}

// statusFor maps a service error type to an HTTP status
func statusFor(errType string) int {
	switch errType {
	case service.ErrorTypeInvalidGameSize, service.ErrorTypeInvalidArgument:
		return http.StatusBadRequest
	case service.ErrorTypeNoSuchGame, service.ErrorTypeNoGameForClient:
		return http.StatusNotFound
	case service.ErrorTypeNotAllowed:
		return http.StatusForbidden
	case service.ErrorTypeAlreadyInGame, service.ErrorTypeInvalidAction:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func gameIDVar(r *http.Request) (id.ID, error) {
	gameID, err := id.Parse(mux.Vars(r)["id"])
	if err != nil {
		return 0, fmt.Errorf("%w: game id %q", service.ErrInvalidArgument, mux.Vars(r)["id"])
	}
	return gameID, nil
}

// decodeBody decodes an optional JSON body into v. An empty body leaves v untouched.
func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	return fmt.Errorf("%w: %v", service.ErrInvalidArgument, err)
}

// Game Handlers

func (s *Server) handleListGames(w http.ResponseWriter, r *http.Request) {
	games, err := s.admin.ListGames(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, games)
}

func (s *Server) handleCreateGame(w http.ResponseWriter, r *http.Request) {
	var params service.CreateGameParams
	if err := decodeBody(w, r, &params); err != nil {
		respondError(w, err)
		return
	}

	info, err := s.admin.CreateGame(r.Context(), params)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, info)
}

func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	gameID, err := gameIDVar(r)
	if err != nil {
		respondError(w, err)
		return
	}

	info, err := s.admin.GetGame(r.Context(), gameID)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, info)
}

func (s *Server) handleLaunchGame(w http.ResponseWriter, r *http.Request) {
	gameID, err := gameIDVar(r)
	if err != nil {
		respondError(w, err)
		return
	}

	info, err := s.admin.LaunchGame(r.Context(), gameID)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, info)
}

func (s *Server) handlePauseGame(w http.ResponseWriter, r *http.Request) {
	gameID, err := gameIDVar(r)
	if err != nil {
		respondError(w, err)
		return
	}

	info, err := s.admin.PauseGame(r.Context(), gameID)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, info)
}

func (s *Server) handleContinueGame(w http.ResponseWriter, r *http.Request) {
	gameID, err := gameIDVar(r)
	if err != nil {
		respondError(w, err)
		return
	}

	info, err := s.admin.ContinueGame(r.Context(), gameID)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, info)
}

func (s *Server) handleAbortGame(w http.ResponseWriter, r *http.Request) {
	gameID, err := gameIDVar(r)
	if err != nil {
		respondError(w, err)
		return
	}

	var req struct {
		KeepPoints bool `json:"keep_points"`
	}
	if err := decodeBody(w, r, &req); err != nil {
		respondError(w, err)
		return
	}

	info, err := s.admin.AbortGame(r.Context(), gameID, req.KeepPoints)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, info)
}

// Preset Handlers

func (s *Server) handleListPresets(w http.ResponseWriter, r *http.Request) {
	presets, err := s.admin.ListPresets(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, presets)
}

// WebSocket Handler

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if s.hub == nil {
		http.Error(w, "websocket transport not available", http.StatusServiceUnavailable)
		return
	}
	s.hub.ServeWS(w, r)
}

// Health check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	games, err := s.admin.ListGames(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}

	connections := 0
	if s.hub != nil {
		connections = s.hub.Count()
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":      "healthy",
		"games":       len(games),
		"connections": connections,
	})
}
