package batch

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MangalamGSinha/DockSuiteX/internal/engine"
	"github.com/MangalamGSinha/DockSuiteX/internal/model"
	"github.com/MangalamGSinha/DockSuiteX/internal/runstore"
)

const manifestSchemaVersion = 1

// Options control one batch run.
type Options struct {
	// ResultRoot receives per-job artifact directories, the batch manifest,
	// and the optional summary table.
	ResultRoot string
	// Workers bounds concurrent engine processes; zero means NumCPU.
	Workers int
	// JobTimeout bounds each engine invocation independently; zero means no
	// supervisory bound.
	JobTimeout time.Duration
	// KeepScratch retains per-job scratch directories for debugging.
	KeepScratch bool
	// Summary writes summary.csv to the result root at batch end.
	Summary bool
	// Logf receives progress lines; nil discards them.
	Logf func(format string, args ...any)
}

// Result is the outcome of one whole batch: every expanded identity mapped to
// exactly one job outcome.
type Result struct {
	BatchID      string
	ResultRoot   string
	ManifestPath string
	Jobs         map[model.JobKey]model.JobResult
	Completed    int
	Failed       int
}

// Run executes a batch request end to end: expand, stage, dispatch under a
// bounded worker pool, aggregate. Only ConfigurationError (or failure to set
// up the result root and its lock) aborts the run; per-job failures are
// recorded in the returned mapping.
func Run(ctx context.Context, req Request, eng engine.Engine, preparer Preparer, opts Options) (*Result, error) {
	specs, err := Expand(req)
	if err != nil {
		return nil, err
	}

	logf := opts.Logf
	if logf == nil {
		logf = func(string, ...any) {}
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(specs) {
		workers = len(specs)
	}

	if err := runstore.Mkdir(opts.ResultRoot); err != nil {
		return nil, fmt.Errorf("create result root: %w", err)
	}
	lock, err := runstore.AcquireBatchLock(opts.ResultRoot)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = lock.Release()
	}()

	runnable, prepFailed, err := stageInputs(ctx, specs, preparer, opts.ResultRoot)
	if err != nil {
		return nil, err
	}

	mf := newManifest(specs, eng.Name(), opts.ResultRoot, workers)
	manifestPath := runstore.ManifestPath(opts.ResultRoot)

	results := make(map[model.JobKey]model.JobResult, len(specs))
	applyResult := func(key model.JobKey, res model.JobResult) error {
		results[key] = res
		if i := mf.FindJob(key); i >= 0 {
			mf.Jobs[i].ApplyResult(res)
		}
		mf.RecomputeCounts()
		mf.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
		return runstore.WriteJSON(manifestPath, mf)
	}

	for key, res := range prepFailed {
		if err := applyResult(key, res); err != nil {
			return nil, fmt.Errorf("persist batch manifest: %w", err)
		}
		logf("[prep] fail  %s (%s)\n", key, res.ErrorKind)
	}
	if err := runstore.WriteJSON(manifestPath, mf); err != nil {
		return nil, fmt.Errorf("persist batch manifest: %w", err)
	}

	type outcome struct {
		spec model.JobSpec
		res  model.JobResult
	}
	jobCh := make(chan model.JobSpec)
	resultCh := make(chan outcome)

	var stateMu sync.Mutex
	markRunning := func(key model.JobKey) {
		stateMu.Lock()
		defer stateMu.Unlock()
		if i := mf.FindJob(key); i >= 0 {
			_ = model.TransitionJobStatus(&mf.Jobs[i], model.StatusRunning)
		}
	}

	var wg sync.WaitGroup
	workerFn := func(workerID int) {
		defer wg.Done()
		for spec := range jobCh {
			markRunning(spec.Key)
			logf("[w%d] start %s\n", workerID, spec.Key)
			res := runOne(ctx, spec, eng, opts)
			resultCh <- outcome{spec: spec, res: res}
		}
	}
	for w := 1; w <= workers; w++ {
		wg.Add(1)
		go workerFn(w)
	}
	go func() {
		for _, spec := range runnable {
			jobCh <- spec
		}
		close(jobCh)
		wg.Wait()
		close(resultCh)
	}()

	// The aggregator is the sole writer of the result mapping and the
	// manifest file; workers only send outcomes.
	var persistErr error
	for out := range resultCh {
		stateMu.Lock()
		if err := applyResult(out.spec.Key, out.res); err != nil && persistErr == nil {
			persistErr = fmt.Errorf("persist batch manifest: %w", err)
		}
		done := mf.Completed + mf.Failed
		stateMu.Unlock()

		if out.res.Failed() {
			logf("[%d/%d] fail  %s (%s)\n", done, mf.Total, out.spec.Key, out.res.ErrorKind)
		} else {
			logf("[%d/%d] done  %s (best %.3f)\n", done, mf.Total, out.spec.Key, out.res.BestScore)
		}
	}
	if persistErr != nil {
		return nil, persistErr
	}

	if opts.Summary {
		if err := writeSummary(opts.ResultRoot, specs, results); err != nil {
			return nil, err
		}
	}

	return &Result{
		BatchID:      mf.BatchID,
		ResultRoot:   opts.ResultRoot,
		ManifestPath: manifestPath,
		Jobs:         results,
		Completed:    mf.Completed,
		Failed:       mf.Failed,
	}, nil
}

func newManifest(specs []model.JobSpec, engineName, resultRoot string, workers int) *model.BatchManifest {
	mf := &model.BatchManifest{
		SchemaVersion: manifestSchemaVersion,
		BatchID:       uuid.NewString()[:8],
		GeneratedAt:   time.Now().UTC().Format(time.RFC3339),
		Engine:        engineName,
		ResultRoot:    resultRoot,
		Workers:       workers,
	}
	for _, s := range specs {
		mf.Jobs = append(mf.Jobs, model.BatchJob{
			ReceptorID: s.Key.ReceptorID,
			LigandID:   s.Key.LigandID,
			CenterID:   s.Key.CenterID,
			Status:     model.StatusPending,
		})
	}
	mf.RecomputeCounts()
	return mf
}
