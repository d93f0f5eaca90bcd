package scheduler

import (
	"bytes"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/me/batchsim/internal/workload"
	"github.com/me/batchsim/pkg/model"
)

// NewRunID returns a fresh run identifier.
func NewRunID() string {
	return "run_" + uuid.New().String()
}

// NewRun packages a finished (or aborted) simulation for the archive.
// runErr, if set, is recorded on the run instead of failing it.
func NewRun(w *workload.Workload, rep *model.RunReport, runErr error) (*model.Run, error) {
	var buf bytes.Buffer
	if err := w.Marshal(&buf); err != nil {
		return nil, fmt.Errorf("marshal workload: %w", err)
	}
	summary := rep.Summary
	run := &model.Run{
		ID:        NewRunID(),
		Name:      w.Name,
		Config:    rep.Config,
		Summary:   &summary,
		JobCount:  len(w.Jobs),
		CreatedAt: time.Now().UTC(),
		Workload:  buf.String(),
		Processes: rep.Processes,
		Events:    rep.Events,
	}
	if runErr != nil {
		run.Error = runErr.Error()
	}
	return run, nil
}
