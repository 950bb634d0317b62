package batch

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"wrapped transient", Transient(errors.New("anything at all")), true},
		{"deeply wrapped transient", fmt.Errorf("saving: %w", Transient(errors.New("x"))), true},
		{"connection text", errors.New("connection refused"), true},
		{"busy text", errors.New("database is locked"), true},
		{"sqlite busy", errors.New("SQLITE_BUSY"), true},
		{"permanent", errors.New("verse not found"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsTransient(tt.err); got != tt.want {
				t.Errorf("IsTransient(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestConfigValidate(t *testing.T) {
	valid := Config{BatchSize: 10, MaxWorkers: 2, MaxRetries: 1, RetryDelay: time.Second}
	if err := valid.Validate(); err != nil {
		t.Errorf("valid config rejected: %v", err)
	}

	for _, mutate := range []func(*Config){
		func(c *Config) { c.BatchSize = 0 },
		func(c *Config) { c.MaxWorkers = -1 },
		func(c *Config) { c.MaxRetries = 0 },
	} {
		c := valid
		mutate(&c)
		if err := c.Validate(); err == nil {
			t.Errorf("invalid config %+v accepted", c)
		}
	}
}

func TestStatusTerminal(t *testing.T) {
	for _, s := range []Status{StatusCompleted, StatusFailed, StatusCancelled} {
		if !s.Terminal() {
			t.Errorf("%s should be terminal", s)
		}
	}
	for _, s := range []Status{StatusPending, StatusRunning, StatusPaused} {
		if s.Terminal() {
			t.Errorf("%s should not be terminal", s)
		}
	}
}

func TestTrackerIgnoresTransitionsOutOfTerminal(t *testing.T) {
	tr := newTracker("b", 10)
	tr.setStatus(StatusRunning)
	tr.setStatus(StatusCompleted)
	tr.setStatus(StatusRunning)
	if got := tr.status(); got != StatusCompleted {
		t.Errorf("status = %s, want %s", got, StatusCompleted)
	}
}

func TestProgressPercent(t *testing.T) {
	p := Progress{Total: 0, Processed: 0}
	if got := p.Percent(); got != 0 {
		t.Errorf("empty batch percent = %f, want 0", got)
	}

	p = Progress{Total: 8, Processed: 2}
	if got := p.Percent(); got != 25 {
		t.Errorf("percent = %f, want 25", got)
	}
}
