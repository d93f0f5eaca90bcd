package config

import (
	"testing"

	"github.com/me/batchsim/pkg/model"
)

func TestSimConfig_Merge(t *testing.T) {
	base := DefaultSimConfig()
	tests := []struct {
		name     string
		override SimConfig
		want     SimConfig
	}{
		{"empty keeps base", SimConfig{}, base},
		{"capacity only", SimConfig{Capacity: 3}, SimConfig{Capacity: 3, Quantum: 4, MaxTicks: 1_000_000}},
		{"quantum and seed", SimConfig{Quantum: 1, Seed: 9}, SimConfig{Capacity: 20, Quantum: 1, MaxTicks: 1_000_000, Seed: 9}},
		{"max ticks", SimConfig{MaxTicks: 50}, SimConfig{Capacity: 20, Quantum: 4, MaxTicks: 50}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := base.Merge(tt.override); got != tt.want {
				t.Errorf("Merge = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestSimConfig_Validate(t *testing.T) {
	if err := DefaultSimConfig().Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
	if err := (SimConfig{Capacity: 0}).Validate(); err == nil {
		t.Error("zero capacity should be rejected")
	}
	if err := (SimConfig{Capacity: -2}).Validate(); err == nil {
		t.Error("negative capacity should be rejected")
	}
}

func TestSimConfig_RunConfig(t *testing.T) {
	c := SimConfig{Capacity: 5, Quantum: 2, MaxTicks: 100, Seed: 42}
	want := model.RunConfig{Capacity: 5, Quantum: 2, MaxTicks: 100, Seed: 42}
	if got := c.RunConfig(); got != want {
		t.Errorf("RunConfig = %+v, want %+v", got, want)
	}
}

func TestDefaultServerConfig(t *testing.T) {
	cfg := DefaultServerConfig()
	if cfg.Addr != ":8080" || cfg.LogFormat != "text" {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.Sim != DefaultSimConfig() {
		t.Errorf("server sim config = %+v, want defaults", cfg.Sim)
	}
	if cfg.MaxConcurrentRuns < 1 {
		t.Errorf("max concurrent runs = %d, want at least 1", cfg.MaxConcurrentRuns)
	}
}

func TestDefaultDBPath(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	p, err := DefaultDBPath()
	if err != nil {
		t.Fatalf("DefaultDBPath: %v", err)
	}
	if want := ".batchsim/runs.db"; len(p) < len(want) || p[len(p)-len(want):] != want {
		t.Errorf("path = %q, want suffix %q", p, want)
	}
}
