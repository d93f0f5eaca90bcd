package scheduler

import "context"

// Scheduler drives a simulation from admission to the last completion.
type Scheduler interface {
	// Start runs the simulation loop. Blocks until every job has ended,
	// ctx is cancelled or Stop is called.
	Start(ctx context.Context) error

	// Stop aborts a running simulation and waits for the loop to exit.
	Stop() error

	// Tick runs a single scheduling iteration. Used for testing.
	Tick(ctx context.Context) error
}
