package batch

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/MangalamGSinha/DockSuiteX/internal/model"
	"github.com/MangalamGSinha/DockSuiteX/internal/runstore"
)

// Preparer resolves raw structure inputs into engine-ready PDBQT files. The
// batch core calls it at most once per unique input, never once per job.
type Preparer interface {
	PrepareReceptor(ctx context.Context, inputPath, saveTo string) (string, error)
	PrepareLigand(ctx context.Context, inputPath, saveTo string) (string, error)
}

const preparedDirName = "prepared"

// stageInputs resolves every unprepared StructureRef in specs. Each unique
// source is prepared exactly once; specs whose input failed get a
// preparation-failure result up front and are excluded from dispatch.
func stageInputs(ctx context.Context, specs []model.JobSpec, preparer Preparer, resultRoot string) (runnable []model.JobSpec, failed map[model.JobKey]model.JobResult, err error) {
	failed = map[model.JobKey]model.JobResult{}

	needsPrep := false
	for _, s := range specs {
		if !s.Receptor.Prepared() || !s.Ligand.Prepared() {
			needsPrep = true
			break
		}
	}
	if !needsPrep {
		return specs, failed, nil
	}
	if preparer == nil {
		return nil, nil, configErrorf("raw structure inputs given but no preparer configured")
	}

	preparedDir := filepath.Join(resultRoot, preparedDirName)
	if err := runstore.Mkdir(preparedDir); err != nil {
		return nil, nil, fmt.Errorf("create prepared dir: %w", err)
	}

	type prepOutcome struct {
		path string
		err  error
	}
	receptorByID := map[string]prepOutcome{}
	ligandByID := map[string]prepOutcome{}

	resolve := func(ref model.StructureRef, cache map[string]prepOutcome, run func(context.Context, string, string) (string, error)) prepOutcome {
		if ref.Prepared() {
			return prepOutcome{path: ref.Path}
		}
		if out, ok := cache[ref.ID]; ok {
			return out
		}
		target := filepath.Join(preparedDir, ref.ID+".pdbqt")
		path, perr := run(ctx, ref.Source, target)
		out := prepOutcome{path: path, err: perr}
		cache[ref.ID] = out
		return out
	}

	for _, s := range specs {
		r := resolve(s.Receptor, receptorByID, preparer.PrepareReceptor)
		l := resolve(s.Ligand, ligandByID, preparer.PrepareLigand)

		if perr := firstErr(r.err, l.err); perr != nil {
			failed[s.Key] = model.JobResult{
				Status:    model.StatusFailed,
				ErrorKind: model.ErrKindPreparation,
				Error:     perr.Error(),
			}
			continue
		}
		s.Receptor.Path = r.path
		s.Ligand.Path = l.path
		runnable = append(runnable, s)
	}
	return runnable, failed, nil
}

func firstErr(errs ...error) error {
	for _, e := range errs {
		if e != nil {
			return e
		}
	}
	return nil
}
