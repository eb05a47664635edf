package cli

import (
	"errors"
	"flag"
	"fmt"
	"strings"

	"github.com/MangalamGSinha/DockSuiteX/internal/engine"
	"github.com/MangalamGSinha/DockSuiteX/internal/workspace"
)

func runInit(args []string) error {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	resultsDir := fs.String("results-dir", workspace.DefaultResultsDir, "results directory")
	config := fs.String("config", "", "settings file path")
	jsonOut := fs.Bool("json", false, "print JSON output")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}

	res, err := workspace.InitWorkspace(workspace.InitWorkspaceOptions{
		ResultsDir: strings.TrimSpace(*resultsDir),
		ConfigPath: strings.TrimSpace(*config),
		Toolchain:  engine.ResolveToolchain(),
	})
	if err != nil {
		return err
	}
	if *jsonOut {
		return printJSON(res)
	}

	fmt.Println("workspace initialized")
	fmt.Printf("results_dir: %s\n", res.ResultsDir)
	fmt.Printf("config: %s\n", res.ConfigPath)
	fmt.Printf("created_results_dir: %t\n", res.CreatedResultsDir)
	fmt.Printf("created_config: %t\n", res.CreatedConfig)
	fmt.Println("checks:")
	for _, c := range res.DoctorResult.Checks {
		status := "ok"
		if !c.OK {
			status = "fail"
		}
		fmt.Printf("  %s: %s (%s)\n", c.Name, status, c.Message)
	}
	if !res.DoctorResult.OK {
		return errors.New("doctor checks failed")
	}
	fmt.Println("next: docksuitex batch --file batch.yaml")
	return nil
}

func runDoctor(args []string) error {
	fs := flag.NewFlagSet("doctor", flag.ContinueOnError)
	resultsDir := fs.String("results-dir", workspace.DefaultResultsDir, "results directory")
	config := fs.String("config", "", "settings file path")
	jsonOut := fs.Bool("json", false, "print JSON output")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}

	res, err := workspace.Doctor(workspace.DoctorOptions{
		ResultsDir: strings.TrimSpace(*resultsDir),
		ConfigPath: strings.TrimSpace(*config),
		Toolchain:  engine.ResolveToolchain(),
	})
	if err != nil {
		return err
	}
	if *jsonOut {
		return printJSON(res)
	}

	for _, c := range res.Checks {
		status := "ok"
		if !c.OK {
			status = "fail"
		}
		fmt.Printf("%s: %s (%s)\n", c.Name, status, c.Message)
	}
	if !res.OK {
		return errors.New("doctor checks failed")
	}
	fmt.Println("doctor: all checks passed")
	return nil
}

func runSettings(args []string) error {
	if len(args) == 0 {
		printSettingsUsage()
		return nil
	}
	switch args[0] {
	case "show":
		return runSettingsShow(args[1:])
	case "set":
		return runSettingsSet(args[1:])
	case "help", "-h", "--help":
		printSettingsUsage()
		return nil
	default:
		printSettingsUsage()
		return fmt.Errorf("unknown settings subcommand %q", args[0])
	}
}

func runSettingsShow(args []string) error {
	fs := flag.NewFlagSet("settings show", flag.ContinueOnError)
	config := fs.String("config", "", "settings file path")
	jsonOut := fs.Bool("json", false, "print JSON output")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}

	path := workspace.NormalizeConfigPath(strings.TrimSpace(*config))
	settings, err := workspace.ReadSettings(path)
	if err != nil {
		return err
	}
	if *jsonOut {
		return printJSON(map[string]any{
			"config_path": path,
			"settings":    settings,
		})
	}

	fmt.Printf("config: %s\n", path)
	printSettings(settings)
	return nil
}

func runSettingsSet(args []string) error {
	fs := flag.NewFlagSet("settings set", flag.ContinueOnError)
	config := fs.String("config", "", "settings file path")
	workers := fs.Int("workers", -1, "default batch workers (>=1, -1 keeps current)")
	exhaustiveness := fs.Int("exhaustiveness", -1, "default vina exhaustiveness (1-64, -1 keeps current)")
	box := fs.String("box", "", "default box size as x,y,z (empty keeps current)")
	resultsDir := fs.String("results-dir", "", "default results directory (empty keeps current)")
	keepScratch := fs.String("keep-scratch", "", "retain scratch dirs: yes|no (empty keeps current)")
	jsonOut := fs.Bool("json", false, "print JSON output")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}

	path := workspace.NormalizeConfigPath(strings.TrimSpace(*config))
	settings, err := workspace.ReadSettings(path)
	if err != nil {
		return err
	}

	if *workers != -1 {
		if *workers <= 0 {
			return errors.New("--workers must be >= 1")
		}
		settings.Workers = *workers
	}
	if *exhaustiveness != -1 {
		if *exhaustiveness < 1 || *exhaustiveness > 64 {
			return errors.New("--exhaustiveness must be in [1, 64]")
		}
		settings.Exhaustiveness = *exhaustiveness
	}
	if strings.TrimSpace(*box) != "" {
		b, berr := parseCenter(*box)
		if berr != nil {
			return fmt.Errorf("--box: %w", berr)
		}
		settings.BoxSize = b
	}
	if strings.TrimSpace(*resultsDir) != "" {
		settings.ResultsDir = strings.TrimSpace(*resultsDir)
	}
	switch strings.ToLower(strings.TrimSpace(*keepScratch)) {
	case "":
	case "yes", "y", "true":
		settings.KeepScratch = true
	case "no", "n", "false":
		settings.KeepScratch = false
	default:
		return errors.New("--keep-scratch must be yes or no")
	}

	res, err := workspace.UpdateSettings(workspace.UpdateSettingsOptions{
		ConfigPath: path,
		Settings:   settings,
	})
	if err != nil {
		return err
	}
	if *jsonOut {
		return printJSON(res)
	}

	fmt.Printf("updated settings in %s\n", res.ConfigPath)
	printSettings(res.Settings)
	return nil
}

func printSettings(s workspace.Settings) {
	fmt.Printf("workers: %d\n", s.Workers)
	fmt.Printf("exhaustiveness: %d\n", s.Exhaustiveness)
	if s.BoxSize == [3]float64{} {
		fmt.Println("box_size: (engine default)")
	} else {
		fmt.Printf("box_size: %g,%g,%g\n", s.BoxSize[0], s.BoxSize[1], s.BoxSize[2])
	}
	fmt.Printf("results_dir: %s\n", s.ResultsDir)
	fmt.Printf("keep_scratch: %t\n", s.KeepScratch)
	if s.UpdatedAt != "" {
		fmt.Printf("updated_at: %s\n", s.UpdatedAt)
	}
}

func printSettingsUsage() {
	fmt.Println(`Usage: docksuitex settings <subcommand> [flags]

Subcommands:
  show    print current settings
  set     update settings

Flags for set:
  --workers N           default batch workers
  --exhaustiveness N    default vina exhaustiveness
  --box x,y,z           default search box size
  --results-dir DIR     default results directory
  --keep-scratch yes|no retain per-job scratch directories`)
}
