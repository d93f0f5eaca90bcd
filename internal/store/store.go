package store

import (
	"context"

	"github.com/me/batchsim/pkg/model"
)

// Store defines the persistence layer for archived simulation runs.
type Store interface {
	// Run archive
	CreateRun(ctx context.Context, run *model.Run) error
	GetRun(ctx context.Context, id string) (*model.Run, error)
	ListRuns(ctx context.Context, opts model.ListOptions) ([]*model.Run, int, error)
	DeleteRun(ctx context.Context, id string) error

	// Run details
	ListRunProcesses(ctx context.Context, runID string) ([]model.ProcessResult, error)
	ListRunEvents(ctx context.Context, runID string, pid model.PID) ([]model.TraceEvent, error)

	// Lifecycle
	Close() error
	Migrate(ctx context.Context) error
}
