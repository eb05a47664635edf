package model

import "fmt"

const (
	StatusPending   = "pending"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

var allowedTransitions = map[string]map[string]bool{
	"": {
		StatusPending: true,
	},
	StatusPending: {
		StatusPending: true,
		StatusRunning: true,
		StatusFailed:  true, // preparation failed before dispatch
	},
	StatusRunning: {
		StatusRunning:   true,
		StatusCompleted: true,
		StatusFailed:    true,
	},
	StatusCompleted: {
		StatusCompleted: true,
		StatusPending:   true, // re-run with the same identity overwrites
	},
	StatusFailed: {
		StatusFailed:  true,
		StatusPending: true,
		StatusRunning: true, // explicit retry
	},
}

func IsKnownStatus(status string) bool {
	_, ok := allowedTransitions[status]
	return ok
}

func CanTransition(from, to string) bool {
	next, ok := allowedTransitions[from]
	if !ok {
		return false
	}
	return next[to]
}

func TransitionJobStatus(job *BatchJob, toStatus string) error {
	from := job.Status
	if !CanTransition(from, toStatus) {
		return fmt.Errorf("invalid job status transition: %q -> %q (job=%s)", from, toStatus, job.Key())
	}
	job.Status = toStatus
	return nil
}
