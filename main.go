// Command battleships runs the battleships game server.
//
// It supports three commands:
//  1. "serve" (default) runs the HTTP server exposing the REST API, the websocket endpoint and /mcp
//  2. "mcp" runs the admin MCP tools over stdio, against a remote server (--api-url) or an in-process registry
//  3. "validate" checks preset files against the configured field bounds
//
// Settings come from an optional YAML file, BATTLESHIPS_ prefixed environment
// variables and flags, in increasing order of precedence. A .env file in the
// working directory is loaded first.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"
	"golang.org/x/sync/errgroup"

	"github.com/wricardo/battleships-server/api"
	"github.com/wricardo/battleships-server/game/client"
	"github.com/wricardo/battleships-server/game/config"
	"github.com/wricardo/battleships-server/game/id"
	"github.com/wricardo/battleships-server/game/message"
	"github.com/wricardo/battleships-server/game/service"
	"github.com/wricardo/battleships-server/game/session"
	"github.com/wricardo/battleships-server/tracing"
	"github.com/wricardo/battleships-server/transport/mcp"
	"github.com/wricardo/battleships-server/transport/websocket"
)

// Version information
const (
	Version     = "1.0.0"
	AppName     = "Battleships Server"
	ServiceName = "battleships"
)

const shutdownTimeout = 10 * time.Second

// main loads .env, wires signal handling and runs the command tree.
func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Warning: Error loading .env file: %v\n", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:    ServiceName,
		Usage:   AppName,
		Version: Version,
		Flags:   appFlags(),
		Action:  runServe,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP server with REST API, websocket and MCP endpoint",
				Action: runServe,
			},
			{
				Name:  "mcp",
				Usage: "Run the admin MCP tools over stdio",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "api-url",
						Usage:   "REST API of a running server; empty runs an in-process registry",
						Sources: cli.EnvVars("BATTLESHIPS_API_URL"),
					},
				},
				Action: runMCP,
			},
			{
				Name:      "validate",
				Usage:     "Validate preset files against the configured bounds",
				ArgsUsage: "<file.json>...",
				Action:    runValidate,
			},
		},
	}
}

// appFlags are shared by every command
func appFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "YAML settings file",
			Sources: cli.EnvVars("BATTLESHIPS_CONFIG"),
		},
		&cli.StringFlag{
			Name:    "addr",
			Usage:   "HTTP listen address",
			Sources: cli.EnvVars("BATTLESHIPS_SERVER_ADDR"),
		},
		&cli.StringFlag{
			Name:    "preset-dir",
			Usage:   "Directory containing game presets",
			Sources: cli.EnvVars("BATTLESHIPS_PRESET_DIR"),
		},
		&cli.BoolFlag{
			Name:    "debug",
			Usage:   "Enable debug logging",
			Sources: cli.EnvVars("BATTLESHIPS_DEBUG"),
		},
		&cli.BoolFlag{
			Name:    "ngrok",
			Usage:   "Expose the server through an ngrok tunnel (needs NGROK_AUTHTOKEN)",
			Sources: cli.EnvVars("BATTLESHIPS_SERVER_NGROK", "NGROK_ENABLED"),
		},
		&cli.StringFlag{
			Name:    "ngrok-domain",
			Usage:   "Custom ngrok domain",
			Sources: cli.EnvVars("BATTLESHIPS_SERVER_NGROK_DOMAIN", "NGROK_DOMAIN"),
		},
		&cli.StringFlag{
			Name:    "trace-exporter",
			Usage:   "Span exporter: stdout or none",
			Sources: cli.EnvVars("BATTLESHIPS_TRACING_EXPORTER"),
		},
	}
}

// loadSettings reads the settings file and environment, then applies the
// flags that were set explicitly.
func loadSettings(cmd *cli.Command) (*config.Settings, error) {
	s, err := config.Load(cmd.String("config"))
	if err != nil {
		return nil, err
	}

	if cmd.IsSet("addr") {
		s.Server.Addr = cmd.String("addr")
	}
	if cmd.IsSet("preset-dir") {
		s.PresetDir = cmd.String("preset-dir")
	}
	if cmd.IsSet("ngrok") {
		s.Server.Ngrok = cmd.Bool("ngrok")
	}
	if cmd.IsSet("ngrok-domain") {
		s.Server.NgrokDomain = cmd.String("ngrok-domain")
	}
	if cmd.IsSet("trace-exporter") {
		s.Tracing.Exporter = cmd.String("trace-exporter")
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// stack is the in-process game core shared by the transports
type stack struct {
	clients    *client.Registry
	games      *session.Manager
	presets    *config.Manager
	admin      service.AdminService
	dispatcher *service.Dispatcher
}

// newStack wires the registries and services. A missing preset directory
// only disables presets.
func newStack(s *config.Settings, log *zap.SugaredLogger) *stack {
	ids := id.NewAllocator(0)
	clients := client.NewRegistry(ids, message.Encode, log)
	games := session.NewManager(ids, clients, log,
		session.WithBounds(s.Game.Bounds),
		session.WithMinPlayers(s.Game.MinPlayers),
		session.WithTickInterval(s.Game.TickInterval),
	)

	st := &stack{clients: clients, games: games}

	var presets service.PresetStore
	if m, err := config.NewManager(s.PresetDir, s.Game.Bounds); err != nil {
		log.Warnw("Presets disabled", "dir", s.PresetDir, "error", err)
	} else {
		st.presets = m
		presets = m
	}

	st.admin = service.NewAdminService(games, presets, log)
	st.dispatcher = service.NewDispatcher(games, clients, presets, log)
	return st
}

func (st *stack) Close() {
	st.games.Close()
}

// runServe starts the HTTP server, the eviction routine and the optional
// ngrok tunnel, and blocks until the context is cancelled or one of them fails.
func runServe(ctx context.Context, cmd *cli.Command) error {
	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}

	logger, err := newLogger(cmd.Bool("debug"))
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer logger.Sync()
	log := logger.Sugar()

	shutdownTracer, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName: ServiceName,
		Environment: s.Tracing.Environment,
		Exporter:    s.Tracing.Exporter,
	}, log)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			log.Warnw("Tracer shutdown failed", "error", err)
		}
	}()

	st := newStack(s, log)
	defer st.Close()

	hub := websocket.NewHub(st.dispatcher, s.Server.AllowedOrigins, log)
	mcpServer := mcp.NewServer(st.admin, log)
	handler := api.NewServer(st.admin, hub, log,
		api.WithMCPHandler(server.NewStreamableHTTPServer(mcpServer.GetMCPServer())),
	)

	// No write timeout: websocket and MCP streams are long-lived.
	httpServer := &http.Server{
		Addr:              s.Server.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Infow("Starting server",
		"app", AppName,
		"version", Version,
		"addr", s.Server.Addr,
		"presetDir", s.PresetDir,
		"tickInterval", s.Game.TickInterval,
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Infow("HTTP server listening", "rest", "/api", "websocket", "/ws", "mcp", "/mcp")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Infow("Shutting down")
		hub.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		runEviction(gctx, st.games, s.Game.FinishedRetention, s.Game.EvictionInterval, log)
		return nil
	})

	if s.Server.Ngrok {
		g.Go(func() error {
			return serveNgrok(gctx, s.Server.NgrokDomain, handler, log)
		})
	}

	err = g.Wait()
	log.Infow("Server stopped", "error", err)
	return err
}

// runEviction drops terminal games older than retention every interval
func runEviction(ctx context.Context, games *session.Manager, retention, interval time.Duration, log *zap.SugaredLogger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := games.EvictFinished(retention); removed > 0 {
				log.Infow("Evicted finished games", "count", removed, "remaining", games.Count())
			}
		}
	}
}

// serveNgrok serves handler through an ngrok tunnel until ctx is done. A
// missing auth token or a failed tunnel is logged and does not stop the server.
func serveNgrok(ctx context.Context, domain string, handler http.Handler, log *zap.SugaredLogger) error {
	authToken := os.Getenv("NGROK_AUTHTOKEN")
	if authToken == "" {
		authToken = os.Getenv("NGROK_AUTH_TOKEN")
	}
	if authToken == "" {
		log.Warnw("Ngrok enabled but no auth token provided (set NGROK_AUTHTOKEN)")
		return nil
	}

	var tunnel ngrokConfig.Tunnel
	if domain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(domain))
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(authToken))
	if err != nil {
		log.Errorw("Failed to start ngrok tunnel", "error", err)
		return nil
	}

	go func() {
		<-ctx.Done()
		if err := tun.Close(); err != nil {
			log.Warnw("Failed to close ngrok tunnel", "error", err)
		}
	}()

	url := tun.URL()
	log.Infow("Ngrok tunnel established", "url", url, "rest", url+"/api", "websocket", url+"/ws", "mcp", url+"/mcp")

	if err := http.Serve(tun, handler); err != nil && ctx.Err() == nil {
		log.Errorw("Ngrok server error", "error", err)
	}
	log.Infow("Ngrok tunnel closed")
	return nil
}

// runMCP serves the admin tools over stdio. Logs go to stderr since stdout
// carries the protocol.
func runMCP(ctx context.Context, cmd *cli.Command) error {
	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}

	logger, err := newLogger(cmd.Bool("debug"))
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer logger.Sync()
	log := logger.Sugar()

	var admin service.AdminService
	if apiURL := cmd.String("api-url"); apiURL != "" {
		log.Infow("MCP stdio server using remote API", "url", apiURL)
		admin = mcp.NewClient(apiURL)
	} else {
		log.Infow("MCP stdio server using in-process registry", "presetDir", s.PresetDir)
		st := newStack(s, log)
		defer st.Close()

		evictCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		go runEviction(evictCtx, st.games, s.Game.FinishedRetention, s.Game.EvictionInterval, log)

		admin = st.admin
	}

	return server.ServeStdio(mcp.NewServer(admin, log).GetMCPServer())
}

// runValidate validates the preset files named on the command line
func runValidate(ctx context.Context, cmd *cli.Command) error {
	paths := cmd.Args().Slice()
	if len(paths) == 0 {
		return errors.New("validate: no preset files given")
	}

	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}

	results, ok := config.ValidateFiles(paths, s.Game.Bounds)
	printValidation(cmd.Root().Writer, results)
	if !ok {
		return fmt.Errorf("validate: %d of %d preset files invalid", countInvalid(results), len(results))
	}
	return nil
}

func printValidation(w io.Writer, results []config.ValidationResult) {
	for _, r := range results {
		if r.Valid {
			fmt.Fprintf(w, "✓ %s\n", r.File)
			for _, note := range r.Notes {
				fmt.Fprintf(w, "    %s\n", note)
			}
			continue
		}
		fmt.Fprintf(w, "✗ %s\n", r.File)
		for _, e := range r.Errors {
			fmt.Fprintf(w, "    %s\n", e)
		}
	}
}

func countInvalid(results []config.ValidationResult) int {
	n := 0
	for _, r := range results {
		if !r.Valid {
			n++
		}
	}
	return n
}
