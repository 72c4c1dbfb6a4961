// Package config provides configuration management for the battleships server.
//
// The config package handles:
//   - Server settings from a YAML file with BATTLESHIPS_ environment overrides
//   - Game presets stored as JSON files in the preset directory
//   - Validation of preset files for the validate command
//
// Settings:
//
// Load starts from Default, applies the YAML file when one is given and then
// the environment. Durations use Go syntax ("1ms", "10m"). Environment names
// follow the YAML nesting, for example BATTLESHIPS_GAME_TICK_INTERVAL or
// BATTLESHIPS_GAME_MAX_FIELD_SIZE.
//
// Presets:
//
// A preset is an engine.Configuration in its JSON form:
//
//	{
//	  "maxPlayerCount": 4,
//	  "width": 10,
//	  "height": 10,
//	  "shotCount": 1,
//	  "hitPoints": 1,
//	  "sunkPoints": 3,
//	  "roundTime": 5000,
//	  "visualizationTime": 1000,
//	  "rounds": 100,
//	  "ships": {"1": [{"x": 0, "y": 0}, {"x": 1, "y": 0}]}
//	}
//
// Manager loads presets by file name without the .json extension, validates
// them against the configured bounds and caches the result. Game init
// requests may name a preset instead of carrying a full configuration.
//
// Usage:
//
//	settings, err := config.Load("settings.yaml")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	presets, err := config.NewManager(settings.PresetDir, settings.Game.Bounds)
//	if err != nil {
//		log.Fatal(err)
//	}
//	cfg, err := presets.LoadPreset("classic")
package config
