package model

// PID identifies a process. It doubles as the index into the process table.
type PID uint

// NoProcess is the sentinel pid. It never names a live process.
const NoProcess PID = 0

// Tick is one unit of simulated time.
type Tick uint64

// MaxTick is the last representable instant.
const MaxTick = ^Tick(0)

// PCB is the process control record kept in the process table.
type PCB struct {
	Valid    bool          `json:"valid"`
	PID      PID           `json:"pid"`
	PPID     PID           `json:"ppid"`
	OwnerID  uint          `json:"owner_id"`
	Start    Tick          `json:"start"`
	Duration Tick          `json:"duration"`
	UsedCPU  Tick          `json:"used_cpu"`
	Type     ProcessType   `json:"type"`
	Status   ProcessStatus `json:"status"`
}

// Remaining returns the service time still required.
func (p *PCB) Remaining() Tick {
	if p.UsedCPU >= p.Duration {
		return 0
	}
	return p.Duration - p.UsedCPU
}

// Finished returns true once the process has received its full service time.
func (p *PCB) Finished() bool {
	return p.UsedCPU >= p.Duration
}

// EmptyPCB returns the defaults an unused table slot is reset to.
func EmptyPCB() PCB {
	return PCB{
		Valid:  false,
		Type:   ProcessTypeOS,
		Status: StatusEnded,
	}
}

// BlockedEntry is an element of the blocked queue.
type BlockedEntry struct {
	PID     PID  `json:"pid"`
	ReadyAt Tick `json:"ready_at"`
}

// ReadyEntry is an element of the ready queue. Remaining is a snapshot
// taken at insertion time.
type ReadyEntry struct {
	PID       PID  `json:"pid"`
	Remaining Tick `json:"remaining"`
}
