package workload

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/me/batchsim/pkg/model"
)

const sample = `
name: mixed
config:
  capacity: 8
  quantum: 3
jobs:
  - name: editor
    start: 0
    duration: 6
    io:
      - after: 2
        duration: 4
  - start: 1
    duration: 3
    type: os
  - name: batch
    start: 1
    duration: 10
    owner: 7
`

func TestParse(t *testing.T) {
	w, err := Parse([]byte(sample))
	require.NoError(t, err)

	assert.Equal(t, "mixed", w.Name)
	assert.Equal(t, 8, w.Config.Capacity)
	assert.Equal(t, model.Tick(3), w.Config.Quantum)
	require.Len(t, w.Jobs, 3)

	assert.Equal(t, []model.IOBurst{{After: 2, Duration: 4}}, w.Jobs[0].IO)
	assert.Equal(t, "job-2", w.Jobs[1].Name, "unnamed jobs get a positional name")
	assert.Equal(t, model.ProcessTypeOS, w.Jobs[1].Type)
	assert.Equal(t, model.ProcessTypeUser, w.Jobs[2].Type)
	assert.Equal(t, uint(7), w.Jobs[2].OwnerID)
}

func TestParse_JSON(t *testing.T) {
	w, err := Parse([]byte(`{"jobs":[{"name":"a","duration":2,"start":5}]}`))
	require.NoError(t, err)
	require.Len(t, w.Jobs, 1)
	assert.Equal(t, model.Tick(5), w.Jobs[0].Start)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name      string
		doc       string
		wantField string
	}{
		{"empty", ``, ""},
		{"no jobs", "jobs: []\n", "jobs"},
		{"zero duration", "jobs:\n  - duration: 0\n", "duration"},
		{"bad type", "jobs:\n  - duration: 2\n    type: daemon\n", "type"},
		{"io at zero", "jobs:\n  - duration: 4\n    io: [{after: 0, duration: 1}]\n", "after"},
		{"io past end", "jobs:\n  - duration: 4\n    io: [{after: 4, duration: 1}]\n", "after"},
		{"io not ascending", "jobs:\n  - duration: 9\n    io: [{after: 5, duration: 1}, {after: 3, duration: 1}]\n", "after"},
		{"io zero wait", "jobs:\n  - duration: 9\n    io: [{after: 5, duration: 0}]\n", "duration"},
		{"duration too long", "jobs:\n  - duration: 1099511627777\n", "duration"},
		{"start too late", "jobs:\n  - duration: 2\n    start: 1099511627777\n", "start"},
		{"io wait too long", "jobs:\n  - duration: 9\n    io: [{after: 5, duration: 18446744073709551615}]\n", "duration"},
		{"io total too long", "jobs:\n  - duration: 9\n    io: [{after: 1, duration: 1099511627776}, {after: 2, duration: 1}]\n", "io"},
		{"duplicate names", "jobs:\n  - {name: a, duration: 1}\n  - {name: a, duration: 1}\n", "name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			require.Error(t, err)

			var apiErr *model.APIError
			require.True(t, errors.As(err, &apiErr), "want *model.APIError, got %T: %v", err, err)
			assert.Equal(t, model.ErrValidation, apiErr.Code)
			if tt.wantField != "" {
				require.NotEmpty(t, apiErr.Details)
				assert.Equal(t, tt.wantField, apiErr.Details[0].Field)
			}
		})
	}
}

func TestParse_UnknownFieldRejected(t *testing.T) {
	_, err := Parse([]byte("jobs:\n  - duration: 2\n    priority: 9\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "priority")
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "w.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o644))

	w, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, w.Jobs, 3)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestSorted_StableByStart(t *testing.T) {
	w := &Workload{Jobs: []model.Job{
		{Name: "late", Start: 4},
		{Name: "a", Start: 1},
		{Name: "b", Start: 1},
	}}
	var names []string
	for _, j := range w.Sorted() {
		names = append(names, j.Name)
	}
	assert.Equal(t, []string{"a", "b", "late"}, names)
	assert.Equal(t, "late", w.Jobs[0].Name, "Sorted must not reorder the workload itself")
}

func TestMarshalRoundTrip(t *testing.T) {
	w, err := Parse([]byte(sample))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, w.Marshal(&buf))

	again, err := Parse(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, w, again)
}

func TestGenerate_Deterministic(t *testing.T) {
	gc := DefaultGenerateConfig()
	gc.Jobs = 25
	gc.Seed = 42

	a, err := Generate(gc)
	require.NoError(t, err)
	b, err := Generate(gc)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	require.Len(t, a.Jobs, 25)
	require.NoError(t, a.Validate(), "generated workloads must be valid")

	var last model.Tick
	for _, j := range a.Jobs {
		assert.GreaterOrEqual(t, j.Start, last, "arrivals are emitted in time order")
		assert.LessOrEqual(t, j.Duration, gc.MaxDuration)
		assert.GreaterOrEqual(t, j.Duration, model.Tick(1))
		assert.LessOrEqual(t, len(j.IO), gc.MaxBursts)
		last = j.Start
	}
}

func TestGenerate_RejectsBadConfig(t *testing.T) {
	gc := DefaultGenerateConfig()
	gc.Jobs = 0
	_, err := Generate(gc)
	assert.Error(t, err)

	gc = DefaultGenerateConfig()
	gc.Rate = 0
	_, err = Generate(gc)
	assert.Error(t, err)
}
