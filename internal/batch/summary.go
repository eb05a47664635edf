package batch

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/MangalamGSinha/DockSuiteX/internal/model"
)

const summaryFileName = "summary.csv"

// writeSummary flattens the batch outcome to one row per job, in expansion
// order, for downstream table parsing.
func writeSummary(resultRoot string, specs []model.JobSpec, results map[model.JobKey]model.JobResult) error {
	path := filepath.Join(resultRoot, summaryFileName)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := []string{"receptor_id", "ligand_id", "center_id", "status", "best_score", "error_kind", "error", "output_dir"}
	if err := w.Write(header); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	for _, s := range specs {
		res := results[s.Key]
		score := ""
		if res.Status == model.StatusCompleted {
			score = strconv.FormatFloat(res.BestScore, 'f', 3, 64)
		}
		row := []string{
			s.Key.ReceptorID,
			s.Key.LigandID,
			s.Key.CenterID,
			res.Status,
			score,
			res.ErrorKind,
			res.Error,
			res.OutputDir,
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write summary: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	return nil
}
