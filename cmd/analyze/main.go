// Command analyze prints quick, human-readable heuristics about the preset
// files in a directory (default "presets"). It summarizes field size, fleet
// density, round timing and the best possible score, and highlights presets
// that are likely to play badly.
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/wricardo/battleships-server/game/config"
	"github.com/wricardo/battleships-server/game/engine"
)

const (
	crowdedDensity = 0.30
	sparseDensity  = 0.05
)

// Report is the analysis of one preset
type Report struct {
	File          string
	Width, Height int
	Ships         int
	ShipCells     int
	Largest       int
	Density       float64
	MatchTime     int64 // ms for all rounds, 0 when rounds are unlimited
	MaxPoints     int   // sinking the whole fleet of one opponent
	Warnings      []string
}

func main() {
	dir := "presets"
	if len(os.Args) > 1 {
		dir = os.Args[1]
	}

	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil || len(files) == 0 {
		fmt.Printf("No presets found in %s\n", dir)
		os.Exit(1)
	}
	sort.Strings(files)

	for _, file := range files {
		fmt.Printf("\n=== Analyzing %s ===\n", filepath.Base(file))
		cfg, err := config.LoadFile(file, engine.DefaultBounds())
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			continue
		}
		printReport(os.Stdout, analyze(filepath.Base(file), cfg))
	}
}

func analyze(file string, cfg engine.Configuration) Report {
	r := Report{
		File:   file,
		Width:  cfg.Width,
		Height: cfg.Height,
		Ships:  len(cfg.Ships),
	}

	for _, shape := range cfg.Ships {
		r.ShipCells += len(shape)
		if len(shape) > r.Largest {
			r.Largest = len(shape)
		}
	}
	r.Density = float64(r.ShipCells) / float64(cfg.Width*cfg.Height)
	r.MaxPoints = r.ShipCells*cfg.HitPoints + r.Ships*cfg.SunkPoints

	if cfg.Rounds > 0 {
		r.MatchTime = int64(cfg.Rounds)*cfg.RoundTime + int64(cfg.Rounds-1)*cfg.VisualizationTime
	}

	switch {
	case r.Density > crowdedDensity:
		r.Warnings = append(r.Warnings, fmt.Sprintf("crowded field: %.0f%% of the cells hold ships", 100*r.Density))
	case r.Density < sparseDensity:
		r.Warnings = append(r.Warnings, fmt.Sprintf("sparse field: only %.1f%% of the cells hold ships", 100*r.Density))
	}
	if cfg.Rounds > 0 && cfg.Rounds*cfg.ShotCount < r.ShipCells {
		r.Warnings = append(r.Warnings, fmt.Sprintf("%d shots over %d rounds cannot sink a fleet of %d cells",
			cfg.Rounds*cfg.ShotCount, cfg.Rounds, r.ShipCells))
	}
	if cfg.SunkPoints == 0 && cfg.HitPoints == 0 {
		r.Warnings = append(r.Warnings, "no points can be scored")
	}
	return r
}

func printReport(w io.Writer, r Report) {
	fmt.Fprintf(w, "Field: %d x %d\n", r.Width, r.Height)
	fmt.Fprintf(w, "Ships: %d on %d cells (largest %d)\n", r.Ships, r.ShipCells, r.Largest)
	fmt.Fprintf(w, "Fleet density: %.1f%%\n", 100*r.Density)
	if r.MatchTime > 0 {
		fmt.Fprintf(w, "Match time: %ds\n", r.MatchTime/1000)
	} else {
		fmt.Fprintf(w, "Match time: unlimited rounds\n")
	}
	fmt.Fprintf(w, "Max points per opponent fleet: %d\n", r.MaxPoints)

	if len(r.Warnings) == 0 {
		fmt.Fprintf(w, "✅ No issues found\n")
		return
	}
	for _, warning := range r.Warnings {
		fmt.Fprintf(w, "⚠️  WARNING: %s\n", warning)
	}
}
