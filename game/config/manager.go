package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/wricardo/battleships-server/game/engine"
	"github.com/wricardo/battleships-server/game/service"
)

var ErrInvalidPreset = errors.New("invalid preset")

// Manager handles game preset loading and caching
type Manager struct {
	presetDir string
	bounds    engine.Bounds
	presets   map[string]engine.Configuration
	mu        sync.RWMutex
}

var _ service.PresetStore = (*Manager)(nil)

// NewManager creates a preset manager over presetDir. Presets are validated
// against bounds when loaded.
func NewManager(presetDir string, bounds engine.Bounds) (*Manager, error) {
	if info, err := os.Stat(presetDir); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("preset directory does not exist: %s", presetDir)
	}

	return &Manager{
		presetDir: presetDir,
		bounds:    bounds,
		presets:   make(map[string]engine.Configuration),
	}, nil
}

// LoadPreset loads a preset by name
func (m *Manager) LoadPreset(name string) (engine.Configuration, error) {
	name = strings.TrimSuffix(name, ".json")
	if name == "" || filepath.Base(name) != name {
		return engine.Configuration{}, fmt.Errorf("%w: %q", service.ErrPresetNotFound, name)
	}

	m.mu.RLock()
	if cfg, ok := m.presets[name]; ok {
		m.mu.RUnlock()
		return cfg, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	// Double-check after acquiring write lock
	if cfg, ok := m.presets[name]; ok {
		return cfg, nil
	}

	cfg, err := LoadFile(filepath.Join(m.presetDir, name+".json"), m.bounds)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return engine.Configuration{}, fmt.Errorf("%w: %q", service.ErrPresetNotFound, name)
		}
		return engine.Configuration{}, err
	}

	m.presets[name] = cfg
	return cfg, nil
}

// ListPresets returns information about all loadable presets
func (m *Manager) ListPresets() ([]*service.PresetInfo, error) {
	entries, err := os.ReadDir(m.presetDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read preset directory: %w", err)
	}

	presets := []*service.PresetInfo{}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		name := strings.TrimSuffix(entry.Name(), ".json")
		cfg, err := m.LoadPreset(name)
		if err != nil {
			// Skip invalid presets
			continue
		}

		presets = append(presets, &service.PresetInfo{
			Filename:       entry.Name(),
			PresetID:       name,
			Width:          cfg.Width,
			Height:         cfg.Height,
			MaxPlayerCount: cfg.MaxPlayerCount,
			Rounds:         cfg.Rounds,
			Ships:          len(cfg.Ships),
		})
	}

	sort.Slice(presets, func(i, j int) bool { return presets[i].PresetID < presets[j].PresetID })
	return presets, nil
}

// SavePreset validates cfg and writes it to disk
func (m *Manager) SavePreset(name string, cfg engine.Configuration) error {
	name = strings.TrimSuffix(name, ".json")
	if name == "" || filepath.Base(name) != name {
		return fmt.Errorf("%w: bad preset name %q", ErrInvalidPreset, name)
	}
	if err := engine.ValidateConfiguration(cfg, m.bounds); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPreset, err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal preset: %w", err)
	}
	if err := os.WriteFile(filepath.Join(m.presetDir, name+".json"), data, 0644); err != nil {
		return fmt.Errorf("failed to write preset file: %w", err)
	}

	m.mu.Lock()
	m.presets[name] = cfg
	m.mu.Unlock()
	return nil
}

// RefreshCache drops every cached preset so the next load reads from disk
func (m *Manager) RefreshCache() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.presets = make(map[string]engine.Configuration)
}

// LoadFile reads one preset file and validates it against bounds
func LoadFile(path string, bounds engine.Bounds) (engine.Configuration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return engine.Configuration{}, fmt.Errorf("failed to read preset file: %w", err)
	}

	var cfg engine.Configuration
	if err := json.Unmarshal(data, &cfg); err != nil {
		return engine.Configuration{}, fmt.Errorf("%w: parse %s: %v", ErrInvalidPreset, filepath.Base(path), err)
	}
	if err := engine.ValidateConfiguration(cfg, bounds); err != nil {
		return engine.Configuration{}, fmt.Errorf("%w: %s: %w", ErrInvalidPreset, filepath.Base(path), err)
	}
	return cfg, nil
}
