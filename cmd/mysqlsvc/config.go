package main

import (
	"github.com/kbukum/mysqlsvc/bootstrap"
	"github.com/kbukum/mysqlsvc/config"
	"github.com/kbukum/mysqlsvc/database"
	"github.com/kbukum/mysqlsvc/observability"
	"github.com/kbukum/mysqlsvc/server"
	"github.com/kbukum/mysqlsvc/validation"
	"github.com/kbukum/mysqlsvc/version"
)

// AppConfig is the full configuration of the mysqlsvc binary.
type AppConfig struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`

	Database      database.Config         `yaml:"database" mapstructure:"database"`
	Server        server.Config           `yaml:"server" mapstructure:"server"`
	Observability observability.Config    `yaml:"observability" mapstructure:"observability"`
	Monitor       bootstrap.MonitorConfig `yaml:"monitor" mapstructure:"monitor"`
}

// ApplyDefaults fills every section.
func (c *AppConfig) ApplyDefaults() {
	if c.Version == "" {
		c.Version = version.Short()
	}
	c.ServiceConfig.ApplyDefaults()
	c.Database.ApplyDefaults()
	c.Server.ApplyDefaults()
	c.Observability.ApplyDefaults()
	c.Monitor.ApplyDefaults()
}

// Validate checks every section and reports fields as section.field.
func (c *AppConfig) Validate() error {
	v := validation.New().Merge(c.ServiceConfig.Validate()).
		MergeAs("database", c.Database.Validate()).
		MergeAs("observability", c.Observability.Validate()).
		MergeAs("monitor", c.Monitor.Validate())
	if c.Server.Enabled {
		v.MergeAs("server", c.Server.Validate())
	}
	return v.Validate()
}
