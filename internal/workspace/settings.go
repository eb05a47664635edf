// Package workspace manages the global settings file and the preflight
// checks for the external tool stack.
package workspace

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/MangalamGSinha/DockSuiteX/internal/runstore"
)

const (
	DefaultWorkers        = 4
	DefaultExhaustiveness = 8
	DefaultResultsDir     = "results"
)

// Settings is the persisted global configuration. Values are normalized on
// read so a hand-edited file can never produce a nonsensical runtime config.
type Settings struct {
	Workers        int        `json:"workers,omitempty"`
	Exhaustiveness int        `json:"exhaustiveness,omitempty"`
	BoxSize        [3]float64 `json:"box_size,omitempty"`
	ResultsDir     string     `json:"results_dir,omitempty"`
	KeepScratch    bool       `json:"keep_scratch,omitempty"`
	UpdatedAt      string     `json:"updated_at,omitempty"`
}

type UpdateSettingsOptions struct {
	ConfigPath string
	Settings   Settings
}

type UpdateSettingsResult struct {
	ConfigPath string   `json:"config_path"`
	Settings   Settings `json:"settings"`
}

func defaultSettings() Settings {
	return Settings{
		Workers:        DefaultWorkers,
		Exhaustiveness: DefaultExhaustiveness,
		ResultsDir:     DefaultResultsDir,
	}
}

func normalizeSettings(raw Settings) Settings {
	norm := raw
	if norm.Workers <= 0 {
		norm.Workers = DefaultWorkers
	}
	if norm.Exhaustiveness < 1 || norm.Exhaustiveness > 64 {
		norm.Exhaustiveness = DefaultExhaustiveness
	}
	for _, v := range norm.BoxSize {
		if v < 0 {
			norm.BoxSize = [3]float64{}
			break
		}
	}
	if strings.TrimSpace(norm.ResultsDir) == "" {
		norm.ResultsDir = DefaultResultsDir
	}
	return norm
}

// NormalizeConfigPath expands the default settings location when no explicit
// path is given.
func NormalizeConfigPath(configPath string) string {
	path := strings.TrimSpace(configPath)
	if path != "" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".docksuitex", "settings.json")
	}
	return filepath.Join(home, ".config", "docksuitex", "settings.json")
}

// ReadSettings loads settings, falling back to defaults when no file exists.
func ReadSettings(configPath string) (Settings, error) {
	path := NormalizeConfigPath(configPath)
	var s Settings
	err := runstore.ReadJSON(path, &s)
	if err == nil {
		return normalizeSettings(s), nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return defaultSettings(), nil
	}
	return Settings{}, err
}

// UpdateSettings normalizes and persists new settings.
func UpdateSettings(opts UpdateSettingsOptions) (UpdateSettingsResult, error) {
	path := NormalizeConfigPath(opts.ConfigPath)
	if err := runstore.Mkdir(filepath.Dir(path)); err != nil {
		return UpdateSettingsResult{}, err
	}
	s := normalizeSettings(opts.Settings)
	s.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
	if err := runstore.WriteJSON(path, s); err != nil {
		return UpdateSettingsResult{}, err
	}
	return UpdateSettingsResult{ConfigPath: path, Settings: s}, nil
}
