package models

import (
	"time"

	"github.com/google/uuid"
)

// RunStatus is the final state of a run.
type RunStatus string

const (
	RunCompleted RunStatus = "completed"
	RunAborted   RunStatus = "aborted"
)

// RunSummary describes one finished run. It is stored in the run ledger and
// published on the events topic.
type RunSummary struct {
	ID           uuid.UUID `json:"id"`
	Recipe       string    `json:"recipe"`
	Mode         string    `json:"mode"`
	SourceBucket string    `json:"source_bucket,omitempty"`
	SourceKey    string    `json:"source_key,omitempty"`
	OutputKey    string    `json:"output_key,omitempty"`
	Rows         int       `json:"rows"`
	Succeeded    int       `json:"succeeded"`
	Failed       int       `json:"failed"`
	Status       RunStatus `json:"status"`
	Error        string    `json:"error,omitempty"`
	StartedAt    time.Time `json:"started_at"`
	FinishedAt   time.Time `json:"finished_at"`
}

// NewRunSummary starts a summary with a fresh ID.
func NewRunSummary(recipe, mode string, startedAt time.Time) *RunSummary {
	return &RunSummary{
		ID:        uuid.New(),
		Recipe:    recipe,
		Mode:      mode,
		StartedAt: startedAt,
	}
}

// Finish records the outcome. A non-nil err marks the run aborted.
func (s *RunSummary) Finish(rows, succeeded, failed int, err error, at time.Time) {
	s.Rows, s.Succeeded, s.Failed = rows, succeeded, failed
	s.FinishedAt = at
	s.Status = RunCompleted
	if err != nil {
		s.Status = RunAborted
		s.Error = err.Error()
	}
}
