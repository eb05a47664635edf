package model

// BatchManifest is the canonical per-batch job state file, checkpointed by
// the aggregator as results arrive and read back by status/monitor surfaces.
type BatchManifest struct {
	SchemaVersion int        `json:"schema_version"`
	BatchID       string     `json:"batch_id"`
	GeneratedAt   string     `json:"generated_at"`
	UpdatedAt     string     `json:"updated_at,omitempty"`
	Engine        string     `json:"engine"`
	ResultRoot    string     `json:"result_root"`
	Workers       int        `json:"workers"`
	Total         int        `json:"total"`
	Pending       int        `json:"pending"`
	Running       int        `json:"running"`
	Completed     int        `json:"completed"`
	Failed        int        `json:"failed"`
	Jobs          []BatchJob `json:"jobs"`
}

// BatchJob is one manifest row: job identity plus its most recent result
// fields, flattened for JSON.
type BatchJob struct {
	ReceptorID  string  `json:"receptor_id"`
	LigandID    string  `json:"ligand_id"`
	CenterID    string  `json:"center_id"`
	Status      string  `json:"status"`
	BestScore   float64 `json:"best_score,omitempty"`
	PosePath    string  `json:"pose_path,omitempty"`
	OutputDir   string  `json:"output_dir,omitempty"`
	ErrorKind   string  `json:"error_kind,omitempty"`
	Error       string  `json:"error,omitempty"`
	StartedAt   string  `json:"started_at,omitempty"`
	CompletedAt string  `json:"completed_at,omitempty"`
}

func (j BatchJob) Key() JobKey {
	return JobKey{ReceptorID: j.ReceptorID, LigandID: j.LigandID, CenterID: j.CenterID}
}

// ApplyResult copies a job outcome into its manifest row.
func (j *BatchJob) ApplyResult(res JobResult) {
	j.Status = res.Status
	j.BestScore = res.BestScore
	j.PosePath = res.PosePath
	j.OutputDir = res.OutputDir
	j.ErrorKind = res.ErrorKind
	j.Error = res.Error
	j.StartedAt = res.StartedAt
	j.CompletedAt = res.CompletedAt
}

// RecomputeCounts refreshes the rollup counters from job rows.
func (m *BatchManifest) RecomputeCounts() {
	pending, running, completed, failed := 0, 0, 0, 0
	for _, j := range m.Jobs {
		switch j.Status {
		case StatusPending:
			pending++
		case StatusRunning:
			running++
		case StatusCompleted:
			completed++
		case StatusFailed:
			failed++
		}
	}
	m.Total = len(m.Jobs)
	m.Pending = pending
	m.Running = running
	m.Completed = completed
	m.Failed = failed
}

// FindJob returns the index of the row with the given identity, or -1.
func (m *BatchManifest) FindJob(key JobKey) int {
	for i := range m.Jobs {
		if m.Jobs[i].Key() == key {
			return i
		}
	}
	return -1
}
