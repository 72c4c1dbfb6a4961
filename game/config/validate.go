package config

import (
	"fmt"
	"path/filepath"

	"github.com/wricardo/battleships-server/game/engine"
)

// ValidationResult captures the outcome of validating a single preset file.
// If Valid is true, Notes holds informational messages; otherwise Errors
// explains what was wrong.
type ValidationResult struct {
	File   string
	Valid  bool
	Errors []string
	Notes  []string
}

// ValidateFile checks one preset file against bounds
func ValidateFile(path string, bounds engine.Bounds) ValidationResult {
	result := ValidationResult{File: filepath.Base(path), Valid: true}

	cfg, err := LoadFile(path, bounds)
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, err.Error())
		return result
	}

	occupied := 0
	for _, shape := range cfg.Ships {
		occupied += len(shape)
	}
	area := cfg.Width * cfg.Height
	result.Notes = append(result.Notes,
		fmt.Sprintf("field %dx%d, %d ships on %d cells (%.0f%% of the field)",
			cfg.Width, cfg.Height, len(cfg.Ships), occupied, 100*float64(occupied)/float64(area)))

	if cfg.Rounds == 0 {
		result.Notes = append(result.Notes, "unlimited rounds")
	} else {
		total := int64(cfg.Rounds)*cfg.RoundTime + int64(cfg.Rounds-1)*cfg.VisualizationTime
		result.Notes = append(result.Notes, fmt.Sprintf("%d rounds, at most %.1fs of play", cfg.Rounds, float64(total)/1000))
	}
	return result
}

// ValidateFiles checks every path and reports whether all of them are valid
func ValidateFiles(paths []string, bounds engine.Bounds) ([]ValidationResult, bool) {
	results := make([]ValidationResult, 0, len(paths))
	ok := true
	for _, p := range paths {
		r := ValidateFile(p, bounds)
		ok = ok && r.Valid
		results = append(results, r)
	}
	return results, ok
}
