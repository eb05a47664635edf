package cli

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/MangalamGSinha/DockSuiteX/internal/model"
	"github.com/MangalamGSinha/DockSuiteX/internal/runstore"
)

func runStatus(args []string) error {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	dir := fs.String("dir", "results", "result root (or a directory of result roots)")
	failedOnly := fs.Bool("failed", false, "list only failed jobs")
	jsonOut := fs.Bool("json", false, "print JSON output")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}

	mf, path, err := loadManifest(strings.TrimSpace(*dir))
	if err != nil {
		return err
	}
	if *jsonOut {
		return printJSON(mf)
	}

	fmt.Printf("batch: %s (engine %s, %d workers)\n", mf.BatchID, mf.Engine, mf.Workers)
	fmt.Printf("manifest: %s\n", path)
	fmt.Printf("jobs: %d total | %d pending | %d running | %d completed | %d failed\n",
		mf.Total, mf.Pending, mf.Running, mf.Completed, mf.Failed)

	fmt.Printf("%-12s %-12s %-20s %-10s %-8s %s\n",
		"receptor", "ligand", "center", "status", "score", "error")
	for _, j := range mf.Jobs {
		if *failedOnly && j.Status != model.StatusFailed {
			continue
		}
		score := ""
		if j.Status == model.StatusCompleted {
			score = fmt.Sprintf("%.3f", j.BestScore)
		}
		errCol := ""
		if j.ErrorKind != "" {
			errCol = j.ErrorKind + ": " + j.Error
		}
		fmt.Printf("%-12s %-12s %-20s %-10s %-8s %s\n",
			j.ReceptorID, j.LigandID, j.CenterID, j.Status, score, errCol)
	}
	return nil
}

// loadManifest reads the manifest at dir, falling back to the newest batch
// directory under dir when dir itself holds none.
func loadManifest(dir string) (*model.BatchManifest, string, error) {
	path := runstore.ManifestPath(dir)
	var mf model.BatchManifest
	err := runstore.ReadJSON(path, &mf)
	if err == nil {
		return &mf, path, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, "", err
	}

	latest, lerr := runstore.LatestBatchDir(dir)
	if lerr != nil {
		return nil, "", fmt.Errorf("no batch manifest under %s: %w", dir, lerr)
	}
	path = runstore.ManifestPath(latest)
	if rerr := runstore.ReadJSON(path, &mf); rerr != nil {
		return nil, "", rerr
	}
	return &mf, path, nil
}
