package observability

import (
	"context"
	"errors"
	"time"

	"github.com/kbukum/mysqlsvc/validation"
)

// Config holds the OTLP export settings shared by tracing and metrics.
type Config struct {
	// Enabled turns on OTLP export. When false the global no-op providers stay in place.
	Enabled        bool    `mapstructure:"enabled"`
	Endpoint       string  `mapstructure:"endpoint"`
	Insecure       bool    `mapstructure:"insecure"`
	SampleRate     float64 `mapstructure:"sample_rate" validate:"gte=0,lte=1"`
	MetricInterval string  `mapstructure:"metric_interval"`
}

// ApplyDefaults sets sensible defaults for zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.Endpoint == "" {
		c.Endpoint = "localhost:4318"
	}
	if c.SampleRate == 0 {
		c.SampleRate = 1.0
	}
	if c.MetricInterval == "" {
		c.MetricInterval = "15s"
	}
}

// Validate checks the export settings.
func (c *Config) Validate() error {
	return validation.New().
		Merge(validation.Validate(c)).
		Duration("metric_interval", c.MetricInterval).
		Validate()
}

// Setup installs the OTLP tracer and meter providers when enabled and
// returns a function that flushes and shuts both down.
func Setup(ctx context.Context, cfg Config, service, version, environment string) (func(context.Context) error, error) {
	if !cfg.Enabled {
		return func(context.Context) error { return nil }, nil
	}

	tp, err := InitTracer(ctx, TracerConfig{
		ServiceName:    service,
		ServiceVersion: version,
		Environment:    environment,
		Endpoint:       cfg.Endpoint,
		Insecure:       cfg.Insecure,
		SampleRate:     cfg.SampleRate,
	})
	if err != nil {
		return nil, err
	}

	interval, _ := time.ParseDuration(cfg.MetricInterval)
	mp, err := InitMeter(ctx, MeterConfig{
		ServiceName:    service,
		ServiceVersion: version,
		Environment:    environment,
		Endpoint:       cfg.Endpoint,
		Insecure:       cfg.Insecure,
		Interval:       interval,
	})
	if err != nil {
		_ = tp.Shutdown(ctx)
		return nil, err
	}

	return func(ctx context.Context) error {
		return errors.Join(tp.Shutdown(ctx), mp.Shutdown(ctx))
	}, nil
}
