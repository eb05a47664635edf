package model

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Center is a search-box center in Angstroms.
type Center [3]float64

// ID renders the center the way result directories are named. Two centers
// that round to the same hundredth are the same binding site for identity
// purposes.
func (c Center) ID() string {
	return fmt.Sprintf("%.2f_%.2f_%.2f", c[0], c[1], c[2])
}

func (c Center) String() string {
	return fmt.Sprintf("(%.2f, %.2f, %.2f)", c[0], c[1], c[2])
}

// BoxSize is a search-box extent per axis. A zero value means the engine
// default applies.
type BoxSize [3]float64

func (s BoxSize) IsZero() bool {
	return s[0] == 0 && s[1] == 0 && s[2] == 0
}

// StructureRef points at a receptor or ligand. Either Path names a prepared,
// engine-ready PDBQT file, or Source names a raw input that the preparation
// step must convert before any job using it can run.
type StructureRef struct {
	ID     string `json:"id"`
	Path   string `json:"path,omitempty"`
	Source string `json:"source,omitempty"`
}

// Prepared reports whether the ref already resolves to an engine-ready file.
func (r StructureRef) Prepared() bool {
	return strings.TrimSpace(r.Path) != ""
}

// RefID returns the explicit ID, or derives one from the file stem.
func RefID(r StructureRef) string {
	if strings.TrimSpace(r.ID) != "" {
		return strings.TrimSpace(r.ID)
	}
	p := r.Path
	if p == "" {
		p = r.Source
	}
	base := filepath.Base(p)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// JobKey is the identity of one docking job within a batch.
type JobKey struct {
	ReceptorID string `json:"receptor_id"`
	LigandID   string `json:"ligand_id"`
	CenterID   string `json:"center_id"`
}

func (k JobKey) String() string {
	return k.ReceptorID + "/" + k.LigandID + "/" + k.CenterID
}

// EngineParams is the engine-specific configuration bundle attached to a job.
// Implementations validate at construction so malformed parameters surface
// before any worker is spawned.
type EngineParams interface {
	EngineName() string
	Validate() error
}

// JobSpec fully describes one docking task. Specs are built by the batch
// expander and never mutated afterwards; by the time a spec reaches a worker
// both structure refs resolve to prepared files.
type JobSpec struct {
	Key      JobKey
	Receptor StructureRef
	Ligand   StructureRef
	Center   Center
	BoxSize  BoxSize
	Params   EngineParams
}

// Error kinds recorded on failed jobs. Only a malformed batch request aborts
// a whole batch; everything below is isolated to its job.
const (
	ErrKindPreparation   = "preparation_error"
	ErrKindEngineStart   = "engine_start_failure"
	ErrKindEngineTimeout = "engine_timeout"
	ErrKindEngineExit    = "engine_nonzero_exit"
	ErrKindOutputMissing = "output_missing"
)

// JobResult is the outcome of one JobSpec, created exactly once by the worker
// that ran it.
type JobResult struct {
	Status      string  `json:"status"`
	BestScore   float64 `json:"best_score,omitempty"`
	PosePath    string  `json:"pose_path,omitempty"`
	LogPath     string  `json:"log_path,omitempty"`
	OutputDir   string  `json:"output_dir,omitempty"`
	ErrorKind   string  `json:"error_kind,omitempty"`
	Error       string  `json:"error,omitempty"`
	StartedAt   string  `json:"started_at,omitempty"`
	CompletedAt string  `json:"completed_at,omitempty"`
}

// Failed reports whether the job ended in a documented failure.
func (r JobResult) Failed() bool {
	return r.Status == StatusFailed
}
