package workspace

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/MangalamGSinha/DockSuiteX/internal/engine"
	"github.com/MangalamGSinha/DockSuiteX/internal/runstore"
)

type DoctorOptions struct {
	ResultsDir string
	ConfigPath string
	Toolchain  engine.Toolchain
}

type DoctorResult struct {
	OK     bool          `json:"ok"`
	Checks []DoctorCheck `json:"checks"`
}

type DoctorCheck struct {
	Name    string `json:"name"`
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

type InitWorkspaceOptions struct {
	ResultsDir string
	ConfigPath string
	Toolchain  engine.Toolchain
}

type InitWorkspaceResult struct {
	ResultsDir        string       `json:"results_dir"`
	ConfigPath        string       `json:"config_path"`
	CreatedResultsDir bool         `json:"created_results_dir"`
	CreatedConfig     bool         `json:"created_config"`
	DoctorResult      DoctorResult `json:"doctor"`
}

// Doctor reports whether every external tool resolves and every working
// directory is writable. Docking tools are required; preparation and pocket
// tools are reported but only fail the check when genuinely absent.
func Doctor(opts DoctorOptions) (DoctorResult, error) {
	resultsDir := strings.TrimSpace(opts.ResultsDir)
	if resultsDir == "" {
		resultsDir = DefaultResultsDir
	}
	configPath := NormalizeConfigPath(opts.ConfigPath)

	checks := make([]DoctorCheck, 0, 8)
	for _, ts := range opts.Toolchain.Status() {
		checks = append(checks, DoctorCheck{
			Name:    "dependency:" + ts.Name,
			OK:      ts.Found,
			Message: dependencyMessage(ts.Found, ts.Path, ts.Name),
		})
	}

	resultsOK, resultsMessage := ensureWritableDir(resultsDir)
	checks = append(checks, DoctorCheck{
		Name:    "directory:results",
		OK:      resultsOK,
		Message: resultsMessage,
	})

	cfgOK, cfgMessage := ensureWritableDir(filepath.Dir(configPath))
	checks = append(checks, DoctorCheck{
		Name:    "directory:config",
		OK:      cfgOK,
		Message: cfgMessage,
	})

	ok := true
	for _, c := range checks {
		if !c.OK {
			ok = false
			break
		}
	}
	return DoctorResult{OK: ok, Checks: checks}, nil
}

// InitWorkspace creates the results directory and a settings file when
// absent, then runs the doctor checks.
func InitWorkspace(opts InitWorkspaceOptions) (InitWorkspaceResult, error) {
	resultsDir := strings.TrimSpace(opts.ResultsDir)
	if resultsDir == "" {
		resultsDir = DefaultResultsDir
	}
	configPath := NormalizeConfigPath(opts.ConfigPath)

	createdResultsDir := false
	if _, err := os.Stat(resultsDir); os.IsNotExist(err) {
		createdResultsDir = true
	}
	if err := runstore.Mkdir(resultsDir); err != nil {
		return InitWorkspaceResult{}, err
	}

	createdConfig := false
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if _, uerr := UpdateSettings(UpdateSettingsOptions{ConfigPath: configPath, Settings: defaultSettings()}); uerr != nil {
			return InitWorkspaceResult{}, uerr
		}
		createdConfig = true
	}

	doc, err := Doctor(DoctorOptions{ResultsDir: resultsDir, ConfigPath: configPath, Toolchain: opts.Toolchain})
	if err != nil {
		return InitWorkspaceResult{}, err
	}

	return InitWorkspaceResult{
		ResultsDir:        resultsDir,
		ConfigPath:        configPath,
		CreatedResultsDir: createdResultsDir,
		CreatedConfig:     createdConfig,
		DoctorResult:      doc,
	}, nil
}

func dependencyMessage(ok bool, path, name string) string {
	if ok {
		return name + " found at " + path
	}
	return name + " not found on PATH"
}

func ensureWritableDir(path string) (bool, string) {
	if strings.TrimSpace(path) == "" {
		return false, "empty path"
	}
	if err := runstore.Mkdir(path); err != nil {
		return false, err.Error()
	}
	f, err := os.CreateTemp(path, "docksuitex-check-*.tmp")
	if err != nil {
		return false, err.Error()
	}
	_ = f.Close()
	_ = os.Remove(f.Name())
	return true, "writable"
}
