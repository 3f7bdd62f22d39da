package database

import (
	"fmt"
	"maps"
	"net"
	"strconv"
	"time"

	mysqldriver "github.com/go-sql-driver/mysql"

	"github.com/kbukum/mysqlsvc/validation"
)

// MigrationsTable is the table that records applied schema migrations.
const MigrationsTable = "migrations"

// Config holds MySQL connection configuration.
type Config struct {
	Host     string `mapstructure:"host" validate:"required"`
	Port     int    `mapstructure:"port" validate:"gte=1,lte=65535"`
	User     string `mapstructure:"user" validate:"required"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database" validate:"required"`

	// Params are driver-specific DSN parameters passed through verbatim
	// (e.g. charset, tls, loc).
	Params map[string]string `mapstructure:"params"`

	// MaxOpenConns sets the maximum number of open connections to the database.
	MaxOpenConns int `mapstructure:"max_open_conns" validate:"gte=1"`

	// MaxIdleConns sets the maximum number of idle connections in the pool.
	MaxIdleConns int `mapstructure:"max_idle_conns" validate:"gte=0"`

	// ConnMaxLifetime is the maximum time a connection may be reused (e.g. "1h", "30m").
	ConnMaxLifetime string `mapstructure:"conn_max_lifetime"`

	// ConnMaxIdleTime is the maximum time a connection may sit idle (e.g. "5m").
	ConnMaxIdleTime string `mapstructure:"conn_max_idle_time"`

	// SlowQueryThreshold is the duration above which queries are logged as slow (e.g. "200ms").
	SlowQueryThreshold string `mapstructure:"slow_query_threshold"`

	// LogLevel is the GORM log level: silent, error, warn or info.
	LogLevel string `mapstructure:"log_level" validate:"omitempty,oneof=silent error warn info"`

	// ProbeTimeout bounds each connectivity probe and the driver dial (e.g. "5s").
	ProbeTimeout string `mapstructure:"probe_timeout"`

	// FailOnProbeError makes Start fail when the startup probe fails instead
	// of reaching running with an unhealthy pool.
	FailOnProbeError bool `mapstructure:"fail_on_probe_error"`
}

// ApplyDefaults sets sensible defaults for zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.Port == 0 {
		c.Port = 3306
	}
	if c.MaxOpenConns <= 0 {
		c.MaxOpenConns = 25
	}
	if c.MaxIdleConns <= 0 {
		c.MaxIdleConns = 5
	}
	if c.ConnMaxLifetime == "" {
		c.ConnMaxLifetime = "1h"
	}
	if c.ConnMaxIdleTime == "" {
		c.ConnMaxIdleTime = "5m"
	}
	if c.SlowQueryThreshold == "" {
		c.SlowQueryThreshold = "200ms"
	}
	if c.LogLevel == "" {
		c.LogLevel = "warn"
	}
	if c.ProbeTimeout == "" {
		c.ProbeTimeout = "5s"
	}
}

// Validate checks that required fields are present and parseable.
func (c *Config) Validate() error {
	v := validation.New().Merge(validation.Validate(c))
	v.Check(c.MaxIdleConns <= c.MaxOpenConns, "max_idle_conns",
		fmt.Sprintf("must be <= max_open_conns (%d)", c.MaxOpenConns))
	v.Duration("conn_max_lifetime", c.ConnMaxLifetime).
		Duration("conn_max_idle_time", c.ConnMaxIdleTime).
		Duration("slow_query_threshold", c.SlowQueryThreshold).
		Duration("probe_timeout", c.ProbeTimeout)
	if d, err := time.ParseDuration(c.ProbeTimeout); err == nil {
		v.Check(d > 0, "probe_timeout", "must be positive")
	}
	return v.Validate()
}

// Address returns host:port.
func (c Config) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Redacted returns user@host, safe for logs.
func (c Config) Redacted() string {
	return c.User + "@" + c.Host
}

// DSN builds the go-sql-driver/mysql data source name.
func (c Config) DSN() string {
	mc := mysqldriver.NewConfig()
	mc.User = c.User
	mc.Passwd = c.Password
	mc.Net = "tcp"
	mc.Addr = c.Address()
	mc.DBName = c.Database
	mc.ParseTime = true
	mc.Timeout = c.probeTimeout()
	if len(c.Params) > 0 {
		mc.Params = maps.Clone(c.Params)
	}
	return mc.FormatDSN()
}

// clone returns a copy that shares no mutable state with c.
func (c Config) clone() Config {
	c.Params = maps.Clone(c.Params)
	return c
}

func (c Config) probeTimeout() time.Duration {
	return parseDuration(c.ProbeTimeout, 5*time.Second)
}

func (c Config) slowQueryThreshold() time.Duration {
	return parseDuration(c.SlowQueryThreshold, 200*time.Millisecond)
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
