// Package batchfile loads YAML batch requests and maps them onto the batch
// core's request type.
package batchfile

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/MangalamGSinha/DockSuiteX/internal/batch"
	"github.com/MangalamGSinha/DockSuiteX/internal/engine"
	"github.com/MangalamGSinha/DockSuiteX/internal/model"
)

// File is the on-disk batch request schema.
//
//	engine: vina
//	receptors:
//	  - receptors/1ubq.pdbqt
//	ligands:
//	  - ligands/
//	centers:
//	  - [10.5, -3.1, 0.0]
//	box_size: [20, 20, 20]
//	workers: 4
//	output: results/
type File struct {
	Engine    string   `yaml:"engine"`
	Receptors []string `yaml:"receptors"`
	Ligands   []string `yaml:"ligands"`

	Centers           [][3]float64            `yaml:"centers,omitempty"`
	CentersByReceptor map[string][][3]float64 `yaml:"centers_by_receptor,omitempty"`
	Pockets           *PocketSpec             `yaml:"pockets,omitempty"`

	BoxSize     [3]float64 `yaml:"box_size,omitempty"`
	Workers     int        `yaml:"workers,omitempty"`
	Output      string     `yaml:"output,omitempty"`
	JobTimeout  string     `yaml:"job_timeout,omitempty"`
	KeepScratch bool       `yaml:"keep_scratch,omitempty"`

	Vina *engine.VinaParams `yaml:"vina,omitempty"`
	AD4  *engine.AD4Params  `yaml:"autodock4,omitempty"`
}

// PocketSpec requests P2Rank pocket prediction in place of explicit centers:
// each receptor gets paired with its top-ranked predicted pockets.
//
//	pockets:
//	  top: 3
//	  threads: 2
//	  timeout: 15m
type PocketSpec struct {
	Top     int    `yaml:"top,omitempty"`
	Threads int    `yaml:"threads,omitempty"`
	Timeout string `yaml:"timeout,omitempty"`
}

// Load reads and parses a batch file without validating it.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read batch file: %w", err)
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse batch file %s: %w", path, err)
	}
	return &f, nil
}

// Resolved is a validated batch file mapped onto core types. Pockets is set
// when the file defers center selection to pocket prediction; the request
// carries no centers until the caller runs the prediction and fills
// CentersByReceptor.
type Resolved struct {
	Request     batch.Request
	Engine      string
	Workers     int
	Output      string
	JobTimeout  time.Duration
	KeepScratch bool
	Pockets     *ResolvedPockets
}

// ResolvedPockets is a validated pocket-prediction request.
type ResolvedPockets struct {
	Top     int
	Threads int
	Timeout time.Duration
}

// Resolve validates the file and expands receptor/ligand entries (files or
// directories) into structure refs. Paths are taken relative to baseDir.
func (f *File) Resolve(baseDir string) (*Resolved, error) {
	engineName := strings.ToLower(strings.TrimSpace(f.Engine))
	var params model.EngineParams
	switch engineName {
	case engine.EngineVina, "":
		engineName = engine.EngineVina
		p := engine.DefaultVinaParams()
		if f.Vina != nil {
			p = *f.Vina
		}
		params = p
	case engine.EngineAD4:
		p := engine.DefaultAD4Params()
		if f.AD4 != nil {
			p = *f.AD4
		}
		params = p
	default:
		return nil, fmt.Errorf("unknown engine %q (want %s or %s)", f.Engine, engine.EngineVina, engine.EngineAD4)
	}

	receptors, err := resolveRefs(baseDir, f.Receptors, receptorExtensions)
	if err != nil {
		return nil, fmt.Errorf("receptors: %w", err)
	}
	ligands, err := resolveRefs(baseDir, f.Ligands, ligandExtensions)
	if err != nil {
		return nil, fmt.Errorf("ligands: %w", err)
	}

	req := batch.Request{
		Receptors: receptors,
		Ligands:   ligands,
		BoxSize:   model.BoxSize(f.BoxSize),
		Params:    params,
	}
	for _, c := range f.Centers {
		req.Centers = append(req.Centers, model.Center(c))
	}
	if len(f.CentersByReceptor) > 0 {
		req.CentersByReceptor = map[string][]model.Center{}
		for rid, cs := range f.CentersByReceptor {
			for _, c := range cs {
				req.CentersByReceptor[rid] = append(req.CentersByReceptor[rid], model.Center(c))
			}
		}
	}

	var pockets *ResolvedPockets
	if f.Pockets != nil {
		if len(f.Centers) > 0 || len(f.CentersByReceptor) > 0 {
			return nil, fmt.Errorf("pockets and explicit centers are mutually exclusive")
		}
		if f.Pockets.Top < 0 {
			return nil, fmt.Errorf("pockets.top must be non-negative, got %d", f.Pockets.Top)
		}
		pockets = &ResolvedPockets{Top: f.Pockets.Top, Threads: f.Pockets.Threads}
		if pockets.Top == 0 {
			pockets.Top = 1
		}
		if strings.TrimSpace(f.Pockets.Timeout) != "" {
			pockets.Timeout, err = time.ParseDuration(f.Pockets.Timeout)
			if err != nil {
				return nil, fmt.Errorf("pockets.timeout: %w", err)
			}
		}
	}

	var timeout time.Duration
	if strings.TrimSpace(f.JobTimeout) != "" {
		timeout, err = time.ParseDuration(f.JobTimeout)
		if err != nil {
			return nil, fmt.Errorf("job_timeout: %w", err)
		}
	}

	output := f.Output
	if strings.TrimSpace(output) == "" {
		output = "results"
	}
	if !filepath.IsAbs(output) {
		output = filepath.Join(baseDir, output)
	}

	return &Resolved{
		Request:     req,
		Engine:      engineName,
		Workers:     f.Workers,
		Output:      output,
		JobTimeout:  timeout,
		KeepScratch: f.KeepScratch,
		Pockets:     pockets,
	}, nil
}

var receptorExtensions = map[string]bool{
	".pdb": true, ".pdbqt": true, ".mol2": true, ".sdf": true,
	".cif": true, ".ent": true, ".xyz": true,
}

var ligandExtensions = map[string]bool{
	".pdbqt": true, ".mol2": true, ".sdf": true, ".pdb": true,
	".mol": true, ".smi": true,
}

// resolveRefs expands each entry: a file becomes one ref, a directory
// contributes every supported structure file in it, sorted by name.
func resolveRefs(baseDir string, entries []string, supported map[string]bool) ([]model.StructureRef, error) {
	var refs []model.StructureRef
	for _, entry := range entries {
		path := entry
		if !filepath.IsAbs(path) {
			path = filepath.Join(baseDir, path)
		}
		info, err := os.Stat(path)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			refs = append(refs, newRef(path))
			continue
		}
		dirEntries, err := os.ReadDir(path)
		if err != nil {
			return nil, err
		}
		var names []string
		for _, de := range dirEntries {
			if de.IsDir() {
				continue
			}
			if supported[strings.ToLower(filepath.Ext(de.Name()))] {
				names = append(names, de.Name())
			}
		}
		if len(names) == 0 {
			return nil, fmt.Errorf("directory %s contains no supported structure files", path)
		}
		sort.Strings(names)
		for _, name := range names {
			refs = append(refs, newRef(filepath.Join(path, name)))
		}
	}
	return refs, nil
}

// newRef treats PDBQT files as already prepared; everything else needs the
// preparation step first.
func newRef(path string) model.StructureRef {
	ref := model.StructureRef{}
	if strings.ToLower(filepath.Ext(path)) == ".pdbqt" {
		ref.Path = path
	} else {
		ref.Source = path
	}
	ref.ID = model.RefID(ref)
	return ref
}
