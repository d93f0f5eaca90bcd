package workload

import (
	"fmt"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/me/batchsim/internal/config"
	"github.com/me/batchsim/pkg/model"
)

// GenerateConfig parameterizes a synthetic workload.
type GenerateConfig struct {
	Jobs        int        // Number of jobs to create
	Rate        float64    // Mean arrivals per tick (Poisson lambda)
	MaxDuration model.Tick // Service times are uniform in [1, MaxDuration]
	IOChance    float64    // Probability that a job issues I/O at all
	MaxBursts   int        // Upper bound on I/O requests per job
	MaxIO       model.Tick // I/O waits are uniform in [1, MaxIO]
	OSShare     float64    // Fraction of jobs tagged as os processes
	Seed        int64
}

// DefaultGenerateConfig returns a small mixed workload.
func DefaultGenerateConfig() GenerateConfig {
	return GenerateConfig{
		Jobs:        10,
		Rate:        0.5,
		MaxDuration: 20,
		IOChance:    0.5,
		MaxBursts:   2,
		MaxIO:       10,
		OSShare:     0.1,
		Seed:        1,
	}
}

// Generate builds a workload whose arrivals follow a Poisson process. The
// same config always produces the same workload.
func Generate(gc GenerateConfig) (*Workload, error) {
	if gc.Jobs < 1 {
		return nil, fmt.Errorf("generate: jobs must be at least 1, got %d", gc.Jobs)
	}
	if gc.Rate <= 0 {
		return nil, fmt.Errorf("generate: rate must be positive, got %v", gc.Rate)
	}
	if gc.MaxDuration < 1 {
		return nil, fmt.Errorf("generate: max duration must be at least 1")
	}
	if gc.MaxIO < 1 {
		gc.MaxIO = 1
	}

	src := rand.NewSource(uint64(gc.Seed))
	arrivals := distuv.Poisson{Lambda: gc.Rate, Src: src}
	unit := distuv.Uniform{Min: 0, Max: 1, Src: src}

	// pick returns an integer uniform in [lo, hi].
	pick := func(lo, hi model.Tick) model.Tick {
		if hi <= lo {
			return lo
		}
		return lo + model.Tick(unit.Rand()*float64(hi-lo+1))
	}

	cfg := config.SimConfig{Seed: gc.Seed}
	w := &Workload{
		Name:   fmt.Sprintf("generated-%d", gc.Seed),
		Config: cfg,
	}
	for tick := model.Tick(0); len(w.Jobs) < gc.Jobs; tick++ {
		n := int(arrivals.Rand())
		for i := 0; i < n && len(w.Jobs) < gc.Jobs; i++ {
			j := model.Job{
				Name:     fmt.Sprintf("job-%d", len(w.Jobs)+1),
				Start:    tick,
				Duration: pick(1, gc.MaxDuration),
				Type:     model.ProcessTypeUser,
				OwnerID:  uint(pick(1, 4)),
			}
			if unit.Rand() < gc.OSShare {
				j.Type = model.ProcessTypeOS
			}
			if j.Duration > 1 && unit.Rand() < gc.IOChance {
				j.IO = bursts(j.Duration, gc.MaxBursts, gc.MaxIO, pick)
			}
			w.Jobs = append(w.Jobs, j)
		}
	}
	return w, nil
}

// bursts places up to n I/O requests at ascending offsets inside (0, d).
func bursts(d model.Tick, n int, maxIO model.Tick, pick func(lo, hi model.Tick) model.Tick) []model.IOBurst {
	var out []model.IOBurst
	after := model.Tick(0)
	for k := 0; k < n && after+1 < d; k++ {
		after = pick(after+1, d-1)
		out = append(out, model.IOBurst{After: after, Duration: pick(1, maxIO)})
	}
	return out
}
