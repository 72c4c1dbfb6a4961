package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap/zaptest"

	"github.com/wricardo/battleships-server/game/config"
	"github.com/wricardo/battleships-server/game/engine"
	"github.com/wricardo/battleships-server/game/service"
)

func TestConstants(t *testing.T) {
	if Version == "" {
		t.Error("Version should not be empty")
	}
	if AppName == "" {
		t.Error("AppName should not be empty")
	}
	if ServiceName != "battleships" {
		t.Errorf("Expected service name battleships, got %s", ServiceName)
	}
}

func TestNewApp(t *testing.T) {
	app := newApp()

	if app.Name != ServiceName {
		t.Errorf("Expected app name %s, got %s", ServiceName, app.Name)
	}
	if app.Action == nil {
		t.Error("Expected a default action")
	}

	want := map[string]bool{"serve": false, "mcp": false, "validate": false}
	for _, c := range app.Commands {
		if _, ok := want[c.Name]; ok {
			want[c.Name] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("Expected command %q", name)
		}
	}
}

// runWithSettings parses args with the app flags and returns the loaded settings
func runWithSettings(t *testing.T, args ...string) (*config.Settings, error) {
	t.Helper()
	var loaded *config.Settings
	cmd := &cli.Command{
		Name:  "test",
		Flags: appFlags(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			s, err := loadSettings(cmd)
			loaded = s
			return err
		},
	}
	err := cmd.Run(context.Background(), append([]string{"test"}, args...))
	return loaded, err
}

func TestLoadSettings(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		s, err := runWithSettings(t)
		if err != nil {
			t.Fatalf("loadSettings failed: %v", err)
		}
		if s.Server.Addr != ":8080" {
			t.Errorf("Expected default addr, got %s", s.Server.Addr)
		}
		if s.Tracing.Exporter != "none" {
			t.Errorf("Expected default exporter none, got %s", s.Tracing.Exporter)
		}
	})

	t.Run("flags override file", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "settings.yaml")
		content := "server:\n  addr: \":7000\"\npreset_dir: from-file\n"
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}

		s, err := runWithSettings(t, "--config", path, "--addr", ":9090", "--trace-exporter", "stdout")
		if err != nil {
			t.Fatalf("loadSettings failed: %v", err)
		}
		if s.Server.Addr != ":9090" {
			t.Errorf("Expected flag addr, got %s", s.Server.Addr)
		}
		if s.PresetDir != "from-file" {
			t.Errorf("Expected preset dir from file, got %s", s.PresetDir)
		}
		if s.Tracing.Exporter != "stdout" {
			t.Errorf("Expected stdout exporter, got %s", s.Tracing.Exporter)
		}
	})

	t.Run("env source", func(t *testing.T) {
		t.Setenv("BATTLESHIPS_PRESET_DIR", "from-env")
		s, err := runWithSettings(t, "--ngrok-domain", "example.ngrok.app")
		if err != nil {
			t.Fatalf("loadSettings failed: %v", err)
		}
		if s.PresetDir != "from-env" {
			t.Errorf("Expected preset dir from env, got %s", s.PresetDir)
		}
		if s.Server.NgrokDomain != "example.ngrok.app" {
			t.Errorf("Expected ngrok domain, got %s", s.Server.NgrokDomain)
		}
	})

	t.Run("invalid exporter", func(t *testing.T) {
		if _, err := runWithSettings(t, "--trace-exporter", "jaeger"); err == nil {
			t.Error("Expected error for unsupported exporter")
		}
	})
}

func TestNewStack(t *testing.T) {
	log := zaptest.NewLogger(t).Sugar()

	t.Run("with presets", func(t *testing.T) {
		s := config.Default()
		s.PresetDir = "presets"
		if _, err := os.Stat(s.PresetDir); os.IsNotExist(err) {
			t.Skip("Skipping test - presets directory not found")
		}

		st := newStack(s, log)
		defer st.Close()

		if st.presets == nil {
			t.Fatal("Expected preset manager")
		}
		presets, err := st.admin.ListPresets(context.Background())
		if err != nil {
			t.Fatalf("ListPresets failed: %v", err)
		}
		if len(presets) == 0 {
			t.Error("Expected bundled presets")
		}

		info, err := st.admin.CreateGame(context.Background(), service.CreateGameParams{Name: "from preset", Preset: "classic"})
		if err != nil {
			t.Fatalf("CreateGame failed: %v", err)
		}
		if info.State != engine.Created {
			t.Errorf("Expected CREATED, got %s", info.State)
		}
	})

	t.Run("missing preset dir", func(t *testing.T) {
		s := config.Default()
		s.PresetDir = filepath.Join(t.TempDir(), "missing")

		st := newStack(s, log)
		defer st.Close()

		if st.presets != nil {
			t.Error("Expected presets to be disabled")
		}
		presets, err := st.admin.ListPresets(context.Background())
		if err != nil {
			t.Fatalf("ListPresets failed: %v", err)
		}
		if len(presets) != 0 {
			t.Errorf("Expected no presets, got %d", len(presets))
		}
	})
}

func TestRunEviction(t *testing.T) {
	log := zaptest.NewLogger(t).Sugar()
	st := newStack(config.Default(), log)
	defer st.Close()

	cfg := engine.Configuration{
		MaxPlayerCount: 2, Width: 10, Height: 10, ShotCount: 1,
		RoundTime: 1000, Ships: map[int][]engine.Point{1: {{X: 0, Y: 0}}},
	}
	inst, err := st.games.CreateGame(cfg, "short lived", false)
	if err != nil {
		t.Fatalf("CreateGame failed: %v", err)
	}
	if err := st.games.AbortGame(inst.ID(), false); err != nil {
		t.Fatalf("AbortGame failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		runEviction(ctx, st.games, 0, time.Millisecond, log)
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for st.games.Count() != 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	<-done

	if n := st.games.Count(); n != 0 {
		t.Errorf("Expected aborted game to be evicted, %d left", n)
	}
}

func TestValidateCommand(t *testing.T) {
	dir := t.TempDir()
	valid := filepath.Join(dir, "valid.json")
	invalid := filepath.Join(dir, "invalid.json")

	os.WriteFile(valid, []byte(`{
		"maxPlayerCount": 2, "width": 10, "height": 10, "shotCount": 1,
		"hitPoints": 1, "sunkPoints": 3, "roundTime": 1000, "visualizationTime": 0,
		"ships": {"1": [{"x": 0, "y": 0}, {"x": 1, "y": 0}]}
	}`), 0644)
	os.WriteFile(invalid, []byte(`{"maxPlayerCount": 2, "width": 2, "height": 2}`), 0644)

	run := func(args ...string) (string, error) {
		app := newApp()
		var out bytes.Buffer
		app.Writer = &out
		app.ErrWriter = &out
		err := app.Run(context.Background(), append([]string{ServiceName, "validate"}, args...))
		return out.String(), err
	}

	out, err := run(valid)
	if err != nil {
		t.Fatalf("Expected valid preset to pass: %v\n%s", err, out)
	}
	if !strings.Contains(out, "✓ valid.json") {
		t.Errorf("Expected success line, got: %s", out)
	}

	out, err = run(valid, invalid)
	if err == nil {
		t.Fatal("Expected error for invalid preset")
	}
	if !strings.Contains(err.Error(), "1 of 2") {
		t.Errorf("Expected invalid count in error, got: %v", err)
	}
	if !strings.Contains(out, "✗ invalid.json") {
		t.Errorf("Expected failure line, got: %s", out)
	}

	if _, err := run(); err == nil {
		t.Error("Expected error without files")
	}
}
