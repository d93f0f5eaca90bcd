// Package workload reads, validates and generates the job lists fed to the
// simulator.
package workload

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/me/batchsim/internal/config"
	"github.com/me/batchsim/pkg/model"
)

// MaxJobTicks bounds every start time, duration and per-job I/O total, so
// that a whole run's clock stays far from overflow.
const MaxJobTicks model.Tick = 1 << 40

// Workload is a named list of jobs with optional simulation overrides.
type Workload struct {
	Name   string           `json:"name,omitempty" yaml:"name,omitempty"`
	Config config.SimConfig `json:"config" yaml:"config,omitempty"`
	Jobs   []model.Job      `json:"jobs" yaml:"jobs"`
}

// Load reads and parses the workload file at path.
func Load(path string) (*Workload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read workload: %w", err)
	}
	w, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return w, nil
}

// Parse decodes a YAML (or JSON) workload document, fills in defaults and
// validates it.
func Parse(data []byte) (*Workload, error) {
	var w Workload
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&w); err != nil {
		if err == io.EOF {
			return nil, model.NewValidationError("empty workload document")
		}
		return nil, fmt.Errorf("YAML parse error: %w", err)
	}
	w.normalize()
	if err := w.Validate(); err != nil {
		return nil, err
	}
	return &w, nil
}

func (w *Workload) normalize() {
	for i := range w.Jobs {
		j := &w.Jobs[i]
		if j.Name == "" {
			j.Name = fmt.Sprintf("job-%d", i+1)
		}
		if j.Type == "" {
			j.Type = model.ProcessTypeUser
		}
	}
}

// Validate checks every job and returns a validation *model.APIError listing
// all problems found.
func (w *Workload) Validate() error {
	var errs []model.FieldError
	add := func(path, field, msg string) {
		errs = append(errs, model.FieldError{Path: path, Field: field, Message: msg})
	}

	if w.Config.Capacity < 0 {
		add("config", "capacity", "must not be negative")
	}
	if len(w.Jobs) == 0 {
		add("jobs", "jobs", "at least one job is required")
	}

	names := make(map[string]int, len(w.Jobs))
	for i, j := range w.Jobs {
		path := fmt.Sprintf("jobs[%d]", i)
		if prev, ok := names[j.Name]; ok {
			add(path, "name", fmt.Sprintf("duplicate name %q (also jobs[%d])", j.Name, prev))
		}
		names[j.Name] = i

		if j.Duration == 0 {
			add(path, "duration", "must be greater than 0")
		}
		if j.Duration > MaxJobTicks {
			add(path, "duration", fmt.Sprintf("must not exceed %d", MaxJobTicks))
		}
		if j.Start > MaxJobTicks {
			add(path, "start", fmt.Sprintf("must not exceed %d", MaxJobTicks))
		}
		if j.Type != "" && !j.Type.Valid() {
			add(path, "type", fmt.Sprintf("unknown type %q (want os or user)", j.Type))
		}

		var last, totalIO model.Tick
		for k, b := range j.IO {
			bpath := fmt.Sprintf("%s.io[%d]", path, k)
			switch {
			case b.After == 0 || b.After >= j.Duration:
				add(bpath, "after", fmt.Sprintf("must lie strictly between 0 and the duration %d", j.Duration))
			case k > 0 && b.After <= last:
				add(bpath, "after", "offsets must be strictly ascending")
			}
			switch {
			case b.Duration == 0:
				add(bpath, "duration", "must be greater than 0")
			case b.Duration > MaxJobTicks:
				add(bpath, "duration", fmt.Sprintf("must not exceed %d", MaxJobTicks))
			case totalIO <= MaxJobTicks:
				totalIO += b.Duration
			}
			last = b.After
		}
		if totalIO > MaxJobTicks {
			add(path, "io", fmt.Sprintf("total I/O time must not exceed %d", MaxJobTicks))
		}
	}

	if len(errs) > 0 {
		return model.NewValidationError("invalid workload", errs...)
	}
	return nil
}

// Sorted returns the jobs in arrival order. Jobs arriving at the same tick
// keep their file order.
func (w *Workload) Sorted() []model.Job {
	jobs := make([]model.Job, len(w.Jobs))
	copy(jobs, w.Jobs)
	sort.SliceStable(jobs, func(a, b int) bool { return jobs[a].Start < jobs[b].Start })
	return jobs
}

// Marshal writes w as YAML.
func (w *Workload) Marshal(out io.Writer) error {
	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(w); err != nil {
		return fmt.Errorf("encode workload: %w", err)
	}
	return enc.Close()
}
