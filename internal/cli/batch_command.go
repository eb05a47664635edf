package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/MangalamGSinha/DockSuiteX/internal/batch"
	"github.com/MangalamGSinha/DockSuiteX/internal/batchfile"
	"github.com/MangalamGSinha/DockSuiteX/internal/engine"
	"github.com/MangalamGSinha/DockSuiteX/internal/pocket"
	"github.com/MangalamGSinha/DockSuiteX/internal/prep"
	"github.com/MangalamGSinha/DockSuiteX/internal/workspace"
)

func runBatch(args []string) error {
	fs := flag.NewFlagSet("batch", flag.ContinueOnError)
	file := fs.String("file", "batch.yaml", "batch request file")
	workers := fs.Int("workers", 0, "worker override (0 = batch file / settings default)")
	output := fs.String("output", "", "result root override")
	keepScratch := fs.Bool("keep-scratch", false, "retain per-job scratch directories")
	pockets := fs.Int("pockets", 0, "predict centers with P2Rank, top N pockets per receptor (0 = batch file)")
	summary := fs.Bool("summary", true, "write summary.csv to the result root")
	quiet := fs.Bool("quiet", false, "suppress per-job progress lines")
	config := fs.String("config", "", "settings file path")
	jsonOut := fs.Bool("json", false, "print JSON output")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}

	f, err := batchfile.Load(*file)
	if err != nil {
		return err
	}
	resolved, err := f.Resolve(filepath.Dir(*file))
	if err != nil {
		return err
	}

	settings, err := workspace.ReadSettings(*config)
	if err != nil {
		return err
	}

	tc := engine.ResolveToolchain()
	eng, err := buildResolvedEngine(tc, resolved)
	if err != nil {
		return err
	}
	preparer := &prep.Suite{
		Receptor: prep.NewReceptorPreparer(tc, prep.DefaultReceptorOptions(), os.TempDir()),
		Ligand:   prep.NewLigandPreparer(tc, prep.DefaultLigandOptions(), os.TempDir()),
	}

	opts := batch.Options{
		ResultRoot:  resolved.Output,
		Workers:     resolved.Workers,
		JobTimeout:  resolved.JobTimeout,
		KeepScratch: resolved.KeepScratch || *keepScratch,
		Summary:     *summary,
	}
	if opts.Workers <= 0 {
		opts.Workers = settings.Workers
	}
	if *workers > 0 {
		opts.Workers = *workers
	}
	if strings.TrimSpace(*output) != "" {
		opts.ResultRoot = *output
	}
	if !*quiet && !*jsonOut {
		opts.Logf = func(format string, a ...any) {
			fmt.Printf(format, a...)
		}
	}

	pocketsReq := resolved.Pockets
	if *pockets > 0 {
		if pocketsReq == nil {
			pocketsReq = &batchfile.ResolvedPockets{Top: *pockets}
		} else {
			pocketsReq.Top = *pockets
		}
	}
	if pocketsReq != nil {
		if len(resolved.Request.Centers) > 0 || len(resolved.Request.CentersByReceptor) > 0 {
			return fmt.Errorf("pocket prediction and explicit centers are mutually exclusive")
		}
		if opts.Logf != nil {
			opts.Logf("predicting pockets for %d receptor(s)\n", len(resolved.Request.Receptors))
		}
		finder := pocket.NewFinder(tc, pocketsReq.Threads, pocketsReq.Timeout)
		centers, err := finder.AssignCenters(context.Background(), resolved.Request.Receptors,
			filepath.Join(opts.ResultRoot, "pockets"), pocketsReq.Top)
		if err != nil {
			return err
		}
		resolved.Request.CentersByReceptor = centers
	}

	res, err := batch.Run(context.Background(), resolved.Request, eng, preparer, opts)
	if err != nil {
		return err
	}
	if *jsonOut {
		return printJSON(res)
	}

	fmt.Printf("batch %s finished: %d completed, %d failed (of %d)\n",
		res.BatchID, res.Completed, res.Failed, len(res.Jobs))
	fmt.Printf("manifest: %s\n", res.ManifestPath)
	if res.Failed > 0 {
		return fmt.Errorf("%d job(s) failed", res.Failed)
	}
	return nil
}

func buildResolvedEngine(tc engine.Toolchain, r *batchfile.Resolved) (engine.Engine, error) {
	switch r.Engine {
	case engine.EngineVina:
		params, ok := r.Request.Params.(engine.VinaParams)
		if !ok {
			return nil, fmt.Errorf("batch file resolved to engine %q with mismatched parameters", r.Engine)
		}
		eng, err := engine.NewVina(tc, params)
		if err != nil {
			return nil, err
		}
		return eng, nil
	case engine.EngineAD4:
		params, ok := r.Request.Params.(engine.AD4Params)
		if !ok {
			return nil, fmt.Errorf("batch file resolved to engine %q with mismatched parameters", r.Engine)
		}
		eng, err := engine.NewAutoDock4(tc, params)
		if err != nil {
			return nil, err
		}
		return eng, nil
	default:
		return nil, fmt.Errorf("unknown engine %q", r.Engine)
	}
}
