package bootstrap

import (
	"context"
	"sync"
	"time"

	"github.com/kbukum/mysqlsvc/component"
	"github.com/kbukum/mysqlsvc/logger"
	"github.com/kbukum/mysqlsvc/validation"
)

// MonitorConfig controls periodic health polling.
type MonitorConfig struct {
	Enabled  bool   `yaml:"enabled" mapstructure:"enabled"`
	Interval string `yaml:"interval" mapstructure:"interval"`
}

// ApplyDefaults sets sensible defaults for zero-valued fields.
func (c *MonitorConfig) ApplyDefaults() {
	if c.Interval == "" {
		c.Interval = "30s"
	}
}

// Validate checks that the interval parses.
func (c *MonitorConfig) Validate() error {
	v := validation.New().Duration("interval", c.Interval)
	if d, err := time.ParseDuration(c.Interval); err == nil {
		v.Check(d > 0, "interval", "must be positive")
	}
	return v.Validate()
}

// Snapshot is one component's health and lifecycle state from a poll.
type Snapshot struct {
	component.Health
	State component.State `json:"state"`
}

// Monitor polls a registry's health and status on a fixed interval and
// logs every health change.
type Monitor struct {
	registry *component.Registry
	interval time.Duration
	log      *logger.Logger

	mu   sync.Mutex
	last map[string]component.HealthStatus

	cancel context.CancelFunc
	done   chan struct{}
}

// NewMonitor creates a monitor for registry. cfg should have defaults applied.
func NewMonitor(registry *component.Registry, cfg MonitorConfig, log *logger.Logger) *Monitor {
	interval, err := time.ParseDuration(cfg.Interval)
	if err != nil || interval <= 0 {
		interval = 30 * time.Second
	}
	return &Monitor{
		registry: registry,
		interval: interval,
		log:      log.WithComponent("monitor"),
		last:     make(map[string]component.HealthStatus),
	}
}

// Start begins polling in the background. It is a no-op if already started.
func (m *Monitor) Start(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cancel != nil {
		return
	}

	ctx, m.cancel = context.WithCancel(ctx)
	m.done = make(chan struct{})
	go m.loop(ctx, m.done)

	m.log.Debug("Health monitor started", map[string]interface{}{
		"interval": m.interval.String(),
	})
}

// Stop halts polling and waits for an in-flight poll to finish.
func (m *Monitor) Stop() {
	m.mu.Lock()
	cancel, done := m.cancel, m.done
	m.cancel, m.done = nil, nil
	m.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (m *Monitor) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Poll(ctx)
		}
	}
}

// Poll runs one round of health and status checks and logs changes.
func (m *Monitor) Poll(ctx context.Context) []Snapshot {
	states := make(map[string]component.State)
	for _, s := range m.registry.StatusAll(ctx) {
		states[s.Name] = s.State
	}

	results := m.registry.HealthAll(ctx)
	snapshots := make([]Snapshot, 0, len(results))
	for _, h := range results {
		snap := Snapshot{Health: h, State: states[h.Name]}
		snapshots = append(snapshots, snap)
		m.observe(snap)
	}
	return snapshots
}

func (m *Monitor) observe(s Snapshot) {
	m.mu.Lock()
	prev, seen := m.last[s.Name]
	m.last[s.Name] = s.Status
	m.mu.Unlock()

	if seen && prev == s.Status {
		return
	}
	if !seen && s.Healthy() {
		return
	}

	fields := map[string]interface{}{
		logger.FieldComponent: s.Name,
		logger.FieldStatus:    string(s.Status),
		logger.FieldState:     string(s.State),
	}
	if s.Message != "" {
		fields["detail"] = s.Message
	}
	if s.Healthy() {
		m.log.Info("Component recovered", fields)
	} else {
		m.log.Warn("Component unhealthy", fields)
	}
}
