package batch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/MangalamGSinha/DockSuiteX/internal/engine"
	"github.com/MangalamGSinha/DockSuiteX/internal/model"
	"github.com/MangalamGSinha/DockSuiteX/internal/runstore"
)

const scratchDirName = ".scratch"

// runOne executes exactly one job: isolated scratch dir, staged inputs,
// engine invocation, artifact publication. It never returns an error; every
// failure is classified into the result payload.
func runOne(ctx context.Context, spec model.JobSpec, eng engine.Engine, opts Options) model.JobResult {
	started := time.Now().UTC().Format(time.RFC3339)
	fail := func(kind string, err error) model.JobResult {
		return model.JobResult{
			Status:      model.StatusFailed,
			ErrorKind:   kind,
			Error:       err.Error(),
			StartedAt:   started,
			CompletedAt: time.Now().UTC().Format(time.RFC3339),
		}
	}

	scratch := filepath.Join(opts.ResultRoot, scratchDirName,
		fmt.Sprintf("%s_%s_%s_%s", spec.Key.ReceptorID, spec.Key.LigandID, spec.Key.CenterID, uuid.NewString()[:8]))
	if err := runstore.Mkdir(scratch); err != nil {
		return fail(model.ErrKindEngineStart, fmt.Errorf("create scratch dir: %w", err))
	}
	if !opts.KeepScratch {
		defer os.RemoveAll(scratch)
	}

	receptor, err := stageFile(spec.Receptor.Path, scratch, "receptor")
	if err != nil {
		return fail(model.ErrKindEngineStart, fmt.Errorf("stage receptor: %w", err))
	}
	ligand, err := stageFile(spec.Ligand.Path, scratch, "ligand")
	if err != nil {
		return fail(model.ErrKindEngineStart, fmt.Errorf("stage ligand: %w", err))
	}

	out, err := eng.Dock(ctx, engine.DockInput{
		ReceptorPath: receptor,
		LigandPath:   ligand,
		Center:       spec.Center,
		BoxSize:      spec.BoxSize,
		WorkDir:      scratch,
		Timeout:      opts.JobTimeout,
	})
	if err != nil {
		return fail(classifyEngineError(err), err)
	}

	jobDir, err := publish(opts.ResultRoot, spec.Key, out)
	if err != nil {
		return fail(model.ErrKindOutputMissing, err)
	}

	return model.JobResult{
		Status:      model.StatusCompleted,
		BestScore:   out.BestScore,
		PosePath:    filepath.Join(jobDir, filepath.Base(out.PosePath)),
		LogPath:     filepath.Join(jobDir, filepath.Base(out.LogPath)),
		OutputDir:   jobDir,
		StartedAt:   started,
		CompletedAt: time.Now().UTC().Format(time.RFC3339),
	}
}

func classifyEngineError(err error) string {
	var engErr *engine.Error
	if errors.As(err, &engErr) {
		return engErr.Kind
	}
	return model.ErrKindEngineStart
}

// publish moves a job's artifacts to the deterministic per-identity directory.
// Re-running the same identity overwrites rather than accumulates.
func publish(resultRoot string, key model.JobKey, out engine.DockOutput) (string, error) {
	jobDir := JobDir(resultRoot, key)
	if err := os.RemoveAll(jobDir); err != nil {
		return "", fmt.Errorf("clear job dir: %w", err)
	}
	if err := runstore.Mkdir(jobDir); err != nil {
		return "", fmt.Errorf("create job dir: %w", err)
	}
	for _, src := range []string{out.PosePath, out.LogPath} {
		if src == "" {
			continue
		}
		if err := copyFile(src, filepath.Join(jobDir, filepath.Base(src))); err != nil {
			return "", fmt.Errorf("publish %s: %w", filepath.Base(src), err)
		}
	}
	return jobDir, nil
}

// JobDir is the published artifact directory for one job identity.
func JobDir(resultRoot string, key model.JobKey) string {
	return filepath.Join(resultRoot, key.ReceptorID, key.LigandID, key.CenterID)
}

// stageFile copies src into dir under a role-prefixed name so a receptor and
// ligand with identical basenames never collide in the scratch dir.
func stageFile(src, dir, role string) (string, error) {
	dst := filepath.Join(dir, role+"_"+filepath.Base(src))
	if err := copyFile(src, dst); err != nil {
		return "", err
	}
	return dst, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
