package workspace

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/MangalamGSinha/DockSuiteX/internal/engine"
)

func TestReadSettingsDefaultsWhenMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	s, err := ReadSettings(path)
	if err != nil {
		t.Fatalf("ReadSettings: %v", err)
	}
	if s.Workers != DefaultWorkers {
		t.Fatalf("expected default workers %d, got %d", DefaultWorkers, s.Workers)
	}
	if s.ResultsDir != DefaultResultsDir {
		t.Fatalf("expected default results dir, got %q", s.ResultsDir)
	}
}

func TestUpdateAndReadSettings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	res, err := UpdateSettings(UpdateSettingsOptions{
		ConfigPath: path,
		Settings:   Settings{Workers: 8, Exhaustiveness: 16, KeepScratch: true},
	})
	if err != nil {
		t.Fatalf("UpdateSettings: %v", err)
	}
	if res.Settings.UpdatedAt == "" {
		t.Fatalf("expected updated_at to be set")
	}

	s, err := ReadSettings(path)
	if err != nil {
		t.Fatalf("ReadSettings: %v", err)
	}
	if s.Workers != 8 || s.Exhaustiveness != 16 || !s.KeepScratch {
		t.Fatalf("settings round trip mismatch: %+v", s)
	}
}

func TestSettingsNormalizedOnRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	raw := `{"workers": -3, "exhaustiveness": 900, "results_dir": "  "}`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := ReadSettings(path)
	if err != nil {
		t.Fatalf("ReadSettings: %v", err)
	}
	if s.Workers != DefaultWorkers {
		t.Fatalf("expected workers normalized to %d, got %d", DefaultWorkers, s.Workers)
	}
	if s.Exhaustiveness != DefaultExhaustiveness {
		t.Fatalf("expected exhaustiveness normalized to %d, got %d", DefaultExhaustiveness, s.Exhaustiveness)
	}
	if s.ResultsDir != DefaultResultsDir {
		t.Fatalf("expected results dir normalized, got %q", s.ResultsDir)
	}
}

func TestDoctorReportsMissingTools(t *testing.T) {
	dir := t.TempDir()
	res, err := Doctor(DoctorOptions{
		ResultsDir: filepath.Join(dir, "results"),
		ConfigPath: filepath.Join(dir, "settings.json"),
		Toolchain:  engine.Toolchain{Vina: "/usr/bin/vina"},
	})
	if err != nil {
		t.Fatalf("Doctor: %v", err)
	}
	if res.OK {
		t.Fatalf("expected doctor failure with missing tools")
	}

	byName := map[string]DoctorCheck{}
	for _, c := range res.Checks {
		byName[c.Name] = c
	}
	if !byName["dependency:vina"].OK {
		t.Fatalf("vina should be found: %+v", byName["dependency:vina"])
	}
	if byName["dependency:autodock4"].OK {
		t.Fatalf("autodock4 should be missing")
	}
	if !byName["directory:results"].OK {
		t.Fatalf("results dir should be writable: %+v", byName["directory:results"])
	}
}

func TestInitWorkspaceCreatesConfigAndResultsDir(t *testing.T) {
	dir := t.TempDir()
	resultsDir := filepath.Join(dir, "results")
	configPath := filepath.Join(dir, "cfg", "settings.json")

	res, err := InitWorkspace(InitWorkspaceOptions{
		ResultsDir: resultsDir,
		ConfigPath: configPath,
	})
	if err != nil {
		t.Fatalf("InitWorkspace: %v", err)
	}
	if !res.CreatedResultsDir || !res.CreatedConfig {
		t.Fatalf("expected both creations, got %+v", res)
	}
	if _, err := os.Stat(configPath); err != nil {
		t.Fatalf("settings file missing: %v", err)
	}

	// Second init is idempotent.
	res2, err := InitWorkspace(InitWorkspaceOptions{ResultsDir: resultsDir, ConfigPath: configPath})
	if err != nil {
		t.Fatalf("InitWorkspace again: %v", err)
	}
	if res2.CreatedResultsDir || res2.CreatedConfig {
		t.Fatalf("second init should create nothing, got %+v", res2)
	}
}
