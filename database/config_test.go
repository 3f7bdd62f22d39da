package database

import (
	"strings"
	"testing"
	"time"

	mysqldriver "github.com/go-sql-driver/mysql"

	apperrors "github.com/kbukum/mysqlsvc/errors"
	"github.com/kbukum/mysqlsvc/validation"
)

func validConfig() Config {
	cfg := Config{Host: "db", User: "u", Password: "p", Database: "app"}
	cfg.ApplyDefaults()
	return cfg
}

func TestConfig_ApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	want := Config{
		Port:               3306,
		MaxOpenConns:       25,
		MaxIdleConns:       5,
		ConnMaxLifetime:    "1h",
		ConnMaxIdleTime:    "5m",
		SlowQueryThreshold: "200ms",
		LogLevel:           "warn",
		ProbeTimeout:       "5s",
	}
	if cfg.Port != want.Port || cfg.MaxOpenConns != want.MaxOpenConns ||
		cfg.MaxIdleConns != want.MaxIdleConns || cfg.ConnMaxLifetime != want.ConnMaxLifetime ||
		cfg.ConnMaxIdleTime != want.ConnMaxIdleTime || cfg.SlowQueryThreshold != want.SlowQueryThreshold ||
		cfg.LogLevel != want.LogLevel || cfg.ProbeTimeout != want.ProbeTimeout {
		t.Errorf("ApplyDefaults() = %+v, want %+v", cfg, want)
	}
}

func TestConfig_ApplyDefaults_KeepsExplicitValues(t *testing.T) {
	cfg := Config{Port: 3307, MaxOpenConns: 50, ProbeTimeout: "1s", LogLevel: "info"}
	cfg.ApplyDefaults()

	if cfg.Port != 3307 || cfg.MaxOpenConns != 50 || cfg.ProbeTimeout != "1s" || cfg.LogLevel != "info" {
		t.Errorf("explicit values overwritten: %+v", cfg)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantField string
	}{
		{"valid", func(c *Config) {}, ""},
		{"missing host", func(c *Config) { c.Host = "" }, "host"},
		{"missing user", func(c *Config) { c.User = "" }, "user"},
		{"missing database", func(c *Config) { c.Database = "" }, "database"},
		{"empty password allowed", func(c *Config) { c.Password = "" }, ""},
		{"port out of range", func(c *Config) { c.Port = 70000 }, "port"},
		{"idle exceeds open", func(c *Config) { c.MaxIdleConns = 30 }, "max_idle_conns"},
		{"bad lifetime", func(c *Config) { c.ConnMaxLifetime = "forever" }, "conn_max_lifetime"},
		{"bad idle time", func(c *Config) { c.ConnMaxIdleTime = "x" }, "conn_max_idle_time"},
		{"bad slow threshold", func(c *Config) { c.SlowQueryThreshold = "slow" }, "slow_query_threshold"},
		{"bad probe timeout", func(c *Config) { c.ProbeTimeout = "soon" }, "probe_timeout"},
		{"zero probe timeout", func(c *Config) { c.ProbeTimeout = "0s" }, "probe_timeout"},
		{"bad log level", func(c *Config) { c.LogLevel = "trace" }, "log_level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			appErr, ok := apperrors.AsAppError(err)
			if !ok || appErr.Code != apperrors.ErrCodeInvalidInput {
				t.Fatalf("expected INVALID_INPUT AppError, got %v", err)
			}
			fields, _ := appErr.Details["fields"].([]validation.FieldError)
			found := false
			for _, f := range fields {
				if f.Field == tt.wantField {
					found = true
				}
			}
			if !found {
				t.Errorf("expected field %q in %+v", tt.wantField, fields)
			}
		})
	}
}

func TestConfig_DSN(t *testing.T) {
	cfg := validConfig()
	cfg.Params = map[string]string{"charset": "utf8mb4", "autocommit": "1"}
	cfg.ProbeTimeout = "2s"

	dsn := cfg.DSN()
	if !strings.HasPrefix(dsn, "u:p@tcp(db:3306)/app?") {
		t.Errorf("DSN() = %q", dsn)
	}

	parsed, err := mysqldriver.ParseDSN(dsn)
	if err != nil {
		t.Fatalf("ParseDSN: %v", err)
	}
	if parsed.User != "u" || parsed.Passwd != "p" || parsed.Addr != "db:3306" || parsed.DBName != "app" {
		t.Errorf("parsed = %+v", parsed)
	}
	if parsed.Timeout != 2*time.Second {
		t.Errorf("Timeout = %v, want 2s", parsed.Timeout)
	}
	if !parsed.ParseTime {
		t.Error("expected parseTime")
	}
	if parsed.Params["autocommit"] != "1" || !strings.Contains(dsn, "charset=utf8mb4") {
		t.Errorf("params not passed through: %q", dsn)
	}
}

func TestConfig_Redacted(t *testing.T) {
	cfg := validConfig()

	if got := cfg.Redacted(); got != "u@db" {
		t.Errorf("Redacted() = %q, want u@db", got)
	}
	if strings.Contains(cfg.Redacted(), cfg.Password) {
		t.Error("Redacted() leaks the password")
	}
	if got := cfg.Address(); got != "db:3306" {
		t.Errorf("Address() = %q", got)
	}
}

func TestConfig_CloneIsolatesParams(t *testing.T) {
	cfg := validConfig()
	cfg.Params = map[string]string{"tls": "true"}

	cp := cfg.clone()
	cfg.Params["tls"] = "false"
	if cp.Params["tls"] != "true" {
		t.Error("clone shares the params map")
	}
}
