package model

// Job is a workload entry waiting for admission. It becomes a PCB once the
// runner allocates a pid for it.
type Job struct {
	Name     string      `json:"name" yaml:"name"`
	PPID     PID         `json:"ppid" yaml:"ppid"`
	OwnerID  uint        `json:"owner" yaml:"owner"`
	Start    Tick        `json:"start" yaml:"start"`
	Duration Tick        `json:"duration" yaml:"duration"`
	Type     ProcessType `json:"type" yaml:"type"`

	// IO lists the I/O requests issued while the job runs, in ascending
	// order of the CPU time after which they occur.
	IO []IOBurst `json:"io,omitempty" yaml:"io,omitempty"`
}

// IOBurst blocks a process for Duration ticks once it has consumed After
// ticks of CPU time.
type IOBurst struct {
	After    Tick `json:"after" yaml:"after"`
	Duration Tick `json:"duration" yaml:"duration"`
}

// TotalIO returns the sum of all I/O durations of the job.
func (j *Job) TotalIO() Tick {
	var total Tick
	for _, b := range j.IO {
		total += b.Duration
	}
	return total
}
