// Package pocket predicts ligand-binding pockets with P2Rank and turns the
// ranked predictions into grid centers for docking.
package pocket

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/MangalamGSinha/DockSuiteX/internal/engine"
	"github.com/MangalamGSinha/DockSuiteX/internal/model"
)

// Pocket is one ranked binding-site prediction.
type Pocket struct {
	Rank   int          `json:"rank"`
	Name   string       `json:"name,omitempty"`
	Score  float64      `json:"score,omitempty"`
	Center model.Center `json:"center"`
}

// Finder wraps the prank binary.
type Finder struct {
	tc      engine.Toolchain
	threads int
	timeout time.Duration
}

func NewFinder(tc engine.Toolchain, threads int, timeout time.Duration) *Finder {
	if threads < 1 {
		threads = 1
	}
	return &Finder{tc: tc, threads: threads, timeout: timeout}
}

// Predict runs `prank predict` on a PDB or PDBQT structure, writing the full
// P2Rank report into outputDir and returning the ranked pocket centers.
func (f *Finder) Predict(ctx context.Context, structurePath, outputDir string) ([]Pocket, error) {
	ext := strings.ToLower(filepath.Ext(structurePath))
	if ext != ".pdb" && ext != ".pdbqt" {
		return nil, fmt.Errorf("pocket prediction needs a .pdb or .pdbqt structure, got %q", ext)
	}
	if _, err := os.Stat(structurePath); err != nil {
		return nil, fmt.Errorf("pocket prediction input: %w", err)
	}
	prank, err := f.tc.RequireTool("prank", f.tc.Prank)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("pocket prediction output dir: %w", err)
	}

	args := []string{
		"predict",
		"-f", structurePath,
		"-o", outputDir,
		"-threads", strconv.Itoa(f.threads),
	}
	if _, err := engine.RunTool(ctx, "prank", prank, args, "", f.timeout); err != nil {
		return nil, err
	}

	csvPath := filepath.Join(outputDir, filepath.Base(structurePath)+"_predictions.csv")
	pockets, err := ParsePredictions(csvPath)
	if err != nil {
		return nil, err
	}
	return pockets, nil
}

// ParsePredictions reads a P2Rank <structure>_predictions.csv. P2Rank pads
// header names with spaces, so every cell is trimmed before use.
func ParsePredictions(csvPath string) ([]Pocket, error) {
	file, err := os.Open(csvPath)
	if err != nil {
		return nil, fmt.Errorf("read predictions: %w", err)
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.TrimLeadingSpace = true
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse predictions %s: %w", csvPath, err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("no pocket centers in %s", csvPath)
	}

	col := map[string]int{}
	for i, h := range rows[0] {
		col[strings.TrimSpace(h)] = i
	}
	for _, required := range []string{"center_x", "center_y", "center_z"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("predictions %s missing column %q", csvPath, required)
		}
	}

	pockets := make([]Pocket, 0, len(rows)-1)
	for idx, row := range rows[1:] {
		cell := func(name string) string {
			i, ok := col[name]
			if !ok || i >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[i])
		}
		var center model.Center
		for axis, name := range []string{"center_x", "center_y", "center_z"} {
			v, err := strconv.ParseFloat(cell(name), 64)
			if err != nil {
				return nil, fmt.Errorf("predictions %s row %d: bad %s: %w", csvPath, idx+1, name, err)
			}
			center[axis] = v
		}
		p := Pocket{Rank: idx + 1, Name: cell("name"), Center: center}
		if s := cell("score"); s != "" {
			if v, err := strconv.ParseFloat(s, 64); err == nil {
				p.Score = v
			}
		}
		pockets = append(pockets, p)
	}
	return pockets, nil
}

// AssignCenters predicts pockets for every receptor and pairs each receptor
// ID with its top-ranked grid centers, ready for a batch request's
// per-receptor pairing. P2Rank reports land under outputRoot, one directory
// per receptor ID. Unprepared receptors are predicted from their raw source
// file, the same structure P2Rank would see standalone.
func (f *Finder) AssignCenters(ctx context.Context, receptors []model.StructureRef, outputRoot string, top int) (map[string][]model.Center, error) {
	byReceptor := make(map[string][]model.Center, len(receptors))
	for _, r := range receptors {
		structure := r.Path
		if structure == "" {
			structure = r.Source
		}
		pockets, err := f.Predict(ctx, structure, filepath.Join(outputRoot, r.ID))
		if err != nil {
			return nil, fmt.Errorf("pocket prediction for receptor %s: %w", r.ID, err)
		}
		byReceptor[r.ID] = Centers(pockets, top)
	}
	return byReceptor, nil
}

// Centers projects ranked pockets onto the grid centers used by the batch
// expander, best pocket first, capped at limit when limit is positive.
func Centers(pockets []Pocket, limit int) []model.Center {
	if limit > 0 && limit < len(pockets) {
		pockets = pockets[:limit]
	}
	centers := make([]model.Center, len(pockets))
	for i, p := range pockets {
		centers[i] = p.Center
	}
	return centers
}
