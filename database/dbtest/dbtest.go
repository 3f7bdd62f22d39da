// Package dbtest runs a database.Service over in-memory SQLite so code that
// depends on the service can be tested without a MySQL server.
package dbtest

import (
	"context"
	"fmt"
	"testing"

	"gorm.io/gorm"

	"github.com/kbukum/mysqlsvc/database"
	"github.com/kbukum/mysqlsvc/logger"
	"github.com/kbukum/mysqlsvc/testutil"
)

// Component is a database.Service backed by SQLite with AutoMigrate on start
// and a table-wiping Reset.
type Component struct {
	*database.Service
	models []interface{}
}

var _ testutil.TestComponent = (*Component)(nil)

// Config returns a valid configuration pointing at a host that is never dialed.
func Config() database.Config {
	return database.Config{Host: "sqlite", User: "test", Database: "test"}
}

// New creates a stopped component. Extra options are applied after the
// SQLite factory, so WithName and WithInstruments still work.
func New(opts ...database.ServiceOption) *Component {
	opts = append([]database.ServiceOption{database.WithFactory(database.SQLiteFactory(":memory:"))}, opts...)
	return &Component{Service: database.NewService(Config(), logger.NewNop(), opts...)}
}

// WithModels registers models migrated on every Start.
func (c *Component) WithModels(models ...interface{}) *Component {
	c.models = append(c.models, models...)
	return c
}

// Start starts the service and migrates registered models.
func (c *Component) Start(ctx context.Context) error {
	if err := c.Service.Start(ctx); err != nil {
		return err
	}
	if len(c.models) == 0 {
		return nil
	}
	db, err := c.DB()
	if err != nil {
		return err
	}
	if err := db.WithContext(ctx).AutoMigrate(c.models...); err != nil {
		return fmt.Errorf("auto-migrate failed: %w", err)
	}
	return nil
}

// Reset deletes every row from every table, keeping the schema.
func (c *Component) Reset(ctx context.Context) error {
	db, err := c.DB()
	if err != nil {
		return err
	}
	var tables []string
	if err := db.WithContext(ctx).
		Raw("SELECT name FROM sqlite_master WHERE type='table' AND name NOT LIKE 'sqlite_%'").
		Scan(&tables).Error; err != nil {
		return fmt.Errorf("failed to list tables: %w", err)
	}
	for _, table := range tables {
		if err := db.WithContext(ctx).Exec(fmt.Sprintf("DELETE FROM %q", table)).Error; err != nil {
			return fmt.Errorf("failed to clear table %s: %w", table, err)
		}
	}
	return nil
}

// Started returns a running component that stops when the test ends.
func Started(t testing.TB, opts ...database.ServiceOption) *Component {
	t.Helper()
	c := New(opts...)
	testutil.Start(t, c)
	return c
}

// LoadFixture inserts rows into table.
func LoadFixture(db *gorm.DB, table string, rows []map[string]interface{}) error {
	for _, row := range rows {
		if err := db.Table(table).Create(row).Error; err != nil {
			return fmt.Errorf("failed to insert fixture row into %s: %w", table, err)
		}
	}
	return nil
}
