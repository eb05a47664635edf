package cli

import (
	"context"
	"flag"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/MangalamGSinha/DockSuiteX/internal/engine"
	"github.com/MangalamGSinha/DockSuiteX/internal/model"
	"github.com/MangalamGSinha/DockSuiteX/internal/runstore"
	"github.com/MangalamGSinha/DockSuiteX/internal/workspace"
)

func runDock(args []string) error {
	fs := flag.NewFlagSet("dock", flag.ContinueOnError)
	receptor := fs.String("receptor", "", "prepared receptor PDBQT")
	ligand := fs.String("ligand", "", "prepared ligand PDBQT")
	center := fs.String("center", "", "search box center as x,y,z")
	box := fs.String("box", "", "search box size as x,y,z (default: engine default)")
	engineName := fs.String("engine", engine.EngineVina, "docking engine: vina|autodock4")
	out := fs.String("out", "", "output directory (default: <results>/dock)")
	exhaustiveness := fs.Int("exhaustiveness", 0, "vina exhaustiveness (0 = settings default)")
	seed := fs.Int("seed", 0, "vina random seed (0 = engine chooses)")
	timeout := fs.Duration("timeout", 0, "bound on the engine run (0 = none)")
	config := fs.String("config", "", "settings file path")
	jsonOut := fs.Bool("json", false, "print JSON output")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}
	if strings.TrimSpace(*receptor) == "" || strings.TrimSpace(*ligand) == "" {
		return fmt.Errorf("--receptor and --ligand are required")
	}
	c, err := parseCenter(*center)
	if err != nil {
		return fmt.Errorf("--center: %w", err)
	}
	var boxSize model.BoxSize
	if strings.TrimSpace(*box) != "" {
		b, berr := parseCenter(*box)
		if berr != nil {
			return fmt.Errorf("--box: %w", berr)
		}
		boxSize = model.BoxSize(b)
	}

	settings, err := workspace.ReadSettings(*config)
	if err != nil {
		return err
	}
	if boxSize.IsZero() {
		boxSize = model.BoxSize(settings.BoxSize)
	}

	eng, err := buildEngine(*engineName, settings, *exhaustiveness, *seed)
	if err != nil {
		return err
	}

	outDir := strings.TrimSpace(*out)
	if outDir == "" {
		outDir = filepath.Join(settings.ResultsDir, "dock")
	}
	if err := runstore.Mkdir(outDir); err != nil {
		return err
	}

	started := time.Now()
	res, err := eng.Dock(context.Background(), engine.DockInput{
		ReceptorPath: *receptor,
		LigandPath:   *ligand,
		Center:       model.Center(c),
		BoxSize:      boxSize,
		WorkDir:      outDir,
		Timeout:      *timeout,
	})
	if err != nil {
		return err
	}
	if *jsonOut {
		return printJSON(map[string]any{
			"engine":     eng.Name(),
			"best_score": res.BestScore,
			"pose":       res.PosePath,
			"log":        res.LogPath,
			"elapsed":    time.Since(started).Round(time.Millisecond).String(),
		})
	}

	fmt.Printf("engine: %s\n", eng.Name())
	fmt.Printf("best_score: %.3f kcal/mol\n", res.BestScore)
	fmt.Printf("pose: %s\n", res.PosePath)
	fmt.Printf("log: %s\n", res.LogPath)
	fmt.Printf("elapsed: %s\n", time.Since(started).Round(time.Millisecond))
	return nil
}

// buildEngine constructs the named engine with defaults taken from the
// settings file, overridden by explicit flags.
func buildEngine(name string, settings workspace.Settings, exhaustiveness, seed int) (engine.Engine, error) {
	tc := engine.ResolveToolchain()
	switch strings.ToLower(strings.TrimSpace(name)) {
	case engine.EngineVina, "":
		params := engine.DefaultVinaParams()
		if settings.Exhaustiveness > 0 {
			params.Exhaustiveness = settings.Exhaustiveness
		}
		if exhaustiveness > 0 {
			params.Exhaustiveness = exhaustiveness
		}
		if seed != 0 {
			s := seed
			params.Seed = &s
		}
		eng, err := engine.NewVina(tc, params)
		if err != nil {
			return nil, err
		}
		return eng, nil
	case engine.EngineAD4:
		eng, err := engine.NewAutoDock4(tc, engine.DefaultAD4Params())
		if err != nil {
			return nil, err
		}
		return eng, nil
	default:
		return nil, fmt.Errorf("unknown engine %q (want %s or %s)", name, engine.EngineVina, engine.EngineAD4)
	}
}
