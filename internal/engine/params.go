package engine

import (
	"fmt"
	"runtime"
	"strconv"
	"strings"
)

const (
	EngineVina = "vina"
	EngineAD4  = "autodock4"
)

// VinaParams configures an AutoDock Vina run. Validation happens when a job
// spec is constructed, not when the worker finally invokes the engine.
type VinaParams struct {
	Exhaustiveness int  `json:"exhaustiveness" yaml:"exhaustiveness"`
	NumModes       int  `json:"num_modes" yaml:"num_modes"`
	Verbosity      int  `json:"verbosity" yaml:"verbosity"`
	Seed           *int `json:"seed,omitempty" yaml:"seed,omitempty"`
	CPU            int  `json:"cpu" yaml:"cpu"`
}

func DefaultVinaParams() VinaParams {
	return VinaParams{
		Exhaustiveness: 8,
		NumModes:       9,
		Verbosity:      1,
		CPU:            max(1, runtime.NumCPU()),
	}
}

func (p VinaParams) EngineName() string { return EngineVina }

func (p VinaParams) Validate() error {
	if p.Exhaustiveness < 1 || p.Exhaustiveness > 64 {
		return fmt.Errorf("vina exhaustiveness must be in [1, 64], got %d", p.Exhaustiveness)
	}
	if p.NumModes < 1 {
		return fmt.Errorf("vina num_modes must be positive, got %d", p.NumModes)
	}
	if p.Verbosity < 0 || p.Verbosity > 2 {
		return fmt.Errorf("vina verbosity must be 0, 1, or 2, got %d", p.Verbosity)
	}
	if p.CPU < 1 {
		return fmt.Errorf("vina cpu must be positive, got %d", p.CPU)
	}
	return nil
}

// AD4Params configures an AutoDock4 run: grid map generation plus the
// Lamarckian genetic algorithm search.
type AD4Params struct {
	Spacing          float64 `json:"spacing" yaml:"spacing"`
	Dielectric       float64 `json:"dielectric" yaml:"dielectric"`
	Smooth           float64 `json:"smooth" yaml:"smooth"`
	GAPopSize        int     `json:"ga_pop_size" yaml:"ga_pop_size"`
	GANumEvals       int     `json:"ga_num_evals" yaml:"ga_num_evals"`
	GANumGenerations int     `json:"ga_num_generations" yaml:"ga_num_generations"`
	GAElitism        int     `json:"ga_elitism" yaml:"ga_elitism"`
	GAMutationRate   float64 `json:"ga_mutation_rate" yaml:"ga_mutation_rate"`
	GACrossoverRate  float64 `json:"ga_crossover_rate" yaml:"ga_crossover_rate"`
	GARuns           int     `json:"ga_runs" yaml:"ga_runs"`
	RMSTol           float64 `json:"rmstol" yaml:"rmstol"`
	// Seed components are integers or the keywords "pid"/"time".
	Seed [2]string `json:"seed" yaml:"seed"`
}

func DefaultAD4Params() AD4Params {
	return AD4Params{
		Spacing:          0.375,
		Dielectric:       -0.1465,
		Smooth:           0.5,
		GAPopSize:        150,
		GANumEvals:       2_500_000,
		GANumGenerations: 27_000,
		GAElitism:        1,
		GAMutationRate:   0.02,
		GACrossoverRate:  0.8,
		GARuns:           10,
		RMSTol:           2.0,
		Seed:             [2]string{"pid", "time"},
	}
}

func (p AD4Params) EngineName() string { return EngineAD4 }

func (p AD4Params) Validate() error {
	if p.Spacing <= 0 {
		return fmt.Errorf("autodock4 spacing must be positive, got %g", p.Spacing)
	}
	if p.Smooth < 0 {
		return fmt.Errorf("autodock4 smooth must be non-negative, got %g", p.Smooth)
	}
	if p.GAPopSize < 1 {
		return fmt.Errorf("autodock4 ga_pop_size must be positive, got %d", p.GAPopSize)
	}
	if p.GANumEvals < 1 {
		return fmt.Errorf("autodock4 ga_num_evals must be positive, got %d", p.GANumEvals)
	}
	if p.GANumGenerations < 1 {
		return fmt.Errorf("autodock4 ga_num_generations must be positive, got %d", p.GANumGenerations)
	}
	if p.GAElitism < 0 {
		return fmt.Errorf("autodock4 ga_elitism must be non-negative, got %d", p.GAElitism)
	}
	if p.GAMutationRate < 0 || p.GAMutationRate > 1 {
		return fmt.Errorf("autodock4 ga_mutation_rate must be in [0, 1], got %g", p.GAMutationRate)
	}
	if p.GACrossoverRate < 0 || p.GACrossoverRate > 1 {
		return fmt.Errorf("autodock4 ga_crossover_rate must be in [0, 1], got %g", p.GACrossoverRate)
	}
	if p.GARuns < 1 {
		return fmt.Errorf("autodock4 ga_runs must be positive, got %d", p.GARuns)
	}
	if p.RMSTol <= 0 {
		return fmt.Errorf("autodock4 rmstol must be positive, got %g", p.RMSTol)
	}
	for _, s := range p.Seed {
		if err := validateSeedPart(s); err != nil {
			return err
		}
	}
	return nil
}

func validateSeedPart(s string) error {
	v := strings.TrimSpace(s)
	if v == "pid" || v == "time" {
		return nil
	}
	if _, err := strconv.Atoi(v); err != nil {
		return fmt.Errorf("autodock4 seed parts must be integers or \"pid\"/\"time\", got %q", s)
	}
	return nil
}
