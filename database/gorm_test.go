package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"testing/fstest"

	"gorm.io/gorm"

	"github.com/kbukum/mysqlsvc/component"
	apperrors "github.com/kbukum/mysqlsvc/errors"
	"github.com/kbukum/mysqlsvc/logger"
)

func newSQLitePool(t *testing.T) *GormPool {
	t.Helper()
	pool, err := SQLiteFactory(":memory:")(validConfig(), logger.NewNop())
	if err != nil {
		t.Fatalf("SQLiteFactory: %v", err)
	}
	t.Cleanup(func() { <-pool.Release() })
	return pool.(*GormPool)
}

func TestGormPool_ProbeAndRelease(t *testing.T) {
	pool := newSQLitePool(t)
	ctx := context.Background()

	if err := pool.Raw(ctx, ProbeQuery); err != nil {
		t.Fatalf("Raw(probe): %v", err)
	}
	if pool.MigrationsTable() != "migrations" {
		t.Errorf("MigrationsTable() = %q", pool.MigrationsTable())
	}

	if err := <-pool.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if err := pool.Raw(ctx, ProbeQuery); err == nil {
		t.Error("expected Raw to fail after Release")
	}
	if err := <-pool.Release(); err != nil {
		t.Errorf("second Release: %v", err)
	}
}

func TestGormPool_ReleaseRetriesAfterFailure(t *testing.T) {
	pool := newSQLitePool(t)
	ctx := context.Background()

	closeDB := pool.close
	attempts := 0
	pool.close = func() error {
		attempts++
		if attempts == 1 {
			return fmt.Errorf("close: broken pipe")
		}
		return closeDB()
	}

	if err := <-pool.Release(); err == nil {
		t.Fatal("expected first Release to fail")
	}
	if err := pool.Raw(ctx, ProbeQuery); err != nil {
		t.Fatalf("pool should stay open after a failed release: %v", err)
	}

	if err := <-pool.Release(); err != nil {
		t.Fatalf("retried Release: %v", err)
	}
	if attempts != 2 {
		t.Errorf("close attempts = %d, want 2", attempts)
	}
	if err := pool.Raw(ctx, ProbeQuery); err == nil {
		t.Error("expected Raw to fail after the retried Release")
	}
}

func TestService_RetriedStopClosesGormPool(t *testing.T) {
	var pool *GormPool
	factory := func(cfg Config, log *logger.Logger) (Pool, error) {
		p, err := SQLiteFactory(":memory:")(cfg, log)
		if err != nil {
			return nil, err
		}
		pool = p.(*GormPool)
		closeDB, failed := pool.close, false
		pool.close = func() error {
			if !failed {
				failed = true
				return fmt.Errorf("close: broken pipe")
			}
			return closeDB()
		}
		return pool, nil
	}
	svc := NewService(validConfig(), logger.NewNop(), WithFactory(factory))
	ctx := context.Background()

	if err := svc.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := svc.Stop(ctx); err == nil {
		t.Fatal("expected first Stop to fail")
	}
	if got := svc.Status(ctx).State; got != component.StateStopping {
		t.Errorf("state = %s, want stopping", got)
	}
	if err := svc.Stop(ctx); err != nil {
		t.Fatalf("retried Stop: %v", err)
	}
	if got := svc.Status(ctx).State; got != component.StateStopped {
		t.Errorf("state = %s, want stopped", got)
	}
	if err := pool.Raw(ctx, ProbeQuery); err == nil {
		t.Error("pool still open after the retried Stop")
	}
}

func TestGormPool_DistinctIDs(t *testing.T) {
	a := newSQLitePool(t)
	b := newSQLitePool(t)
	if a.ID() == b.ID() {
		t.Error("expected distinct pool IDs")
	}
}

type widget struct {
	ID   uint
	Name string
}

func TestGormPool_WithTransaction(t *testing.T) {
	pool := newSQLitePool(t)
	ctx := context.Background()
	if err := pool.DB().AutoMigrate(&widget{}); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}

	err := pool.WithTransaction(ctx, func(tx *gorm.DB) error {
		return tx.Create(&widget{Name: "kept"}).Error
	})
	if err != nil {
		t.Fatalf("commit: %v", err)
	}

	boom := fmt.Errorf("boom")
	err = pool.WithTransaction(ctx, func(tx *gorm.DB) error {
		if err := tx.Create(&widget{Name: "dropped"}).Error; err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("rollback err = %v", err)
	}

	var count int64
	pool.WithContext(ctx).Model(&widget{}).Count(&count)
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}
	if pool.Stats().OpenConnections > 1 {
		t.Errorf("sqlite pool opened %d connections", pool.Stats().OpenConnections)
	}
}

func TestGormPool_Migrator(t *testing.T) {
	pool := newSQLitePool(t)
	fsys := fstest.MapFS{
		"sql/1_widgets.up.sql":   {Data: []byte("CREATE TABLE widgets (id INTEGER PRIMARY KEY, name TEXT);")},
		"sql/1_widgets.down.sql": {Data: []byte("DROP TABLE widgets;")},
	}

	m, err := pool.Migrator(fsys, "sql")
	if err != nil {
		t.Fatalf("Migrator: %v", err)
	}
	if err := m.Up(); err != nil {
		t.Fatalf("Up: %v", err)
	}

	var version int
	if err := pool.DB().Raw("SELECT version FROM " + MigrationsTable).Scan(&version).Error; err != nil {
		t.Fatalf("read %s: %v", MigrationsTable, err)
	}
	if version != 1 {
		t.Errorf("version = %d, want 1", version)
	}
}

func TestGormPool_MigrationDriverUnknownDialect(t *testing.T) {
	pool := newSQLitePool(t)
	pool.dialect = "oracle"
	if _, err := pool.MigrationDriver(); err == nil {
		t.Error("expected error for unknown dialect")
	}
}

// unreachableConfig points at a local port with nothing listening.
func unreachableConfig() Config {
	cfg := Config{Host: "127.0.0.1", Port: 1, User: "u", Password: "p", Database: "app", ProbeTimeout: "2s"}
	cfg.ApplyDefaults()
	return cfg
}

func TestMySQLFactory_IsLazy(t *testing.T) {
	pool, err := MySQLFactory(unreachableConfig(), logger.NewNop())
	if err != nil {
		t.Fatalf("construction must not dial: %v", err)
	}

	err = pool.Raw(context.Background(), ProbeQuery)
	if err == nil {
		t.Fatal("expected probe to fail against a closed port")
	}
	if !IsConnectionError(err) {
		t.Errorf("IsConnectionError(%v) = false", err)
	}
	if err := <-pool.Release(); err != nil {
		t.Errorf("Release: %v", err)
	}
}

func TestService_WithSQLitePool(t *testing.T) {
	svc := NewService(validConfig(), logger.NewNop(), WithFactory(SQLiteFactory(":memory:")))
	ctx := context.Background()

	if err := svc.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if h := svc.Health(ctx); !h.Healthy() {
		t.Fatalf("Health() = %+v", h)
	}
	db, err := svc.DB()
	if err != nil {
		t.Fatalf("DB(): %v", err)
	}
	var result int
	if err := db.Raw(ProbeQuery).Scan(&result).Error; err != nil || result != 2 {
		t.Errorf("probe result = %d, err = %v", result, err)
	}
	stats, err := svc.Stats()
	if err != nil {
		t.Fatalf("Stats(): %v", err)
	}
	if stats.MaxOpenConnections != 1 {
		t.Errorf("MaxOpenConnections = %d, want 1", stats.MaxOpenConnections)
	}

	if err := svc.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if h := svc.Health(ctx); h.Healthy() || h.Message != "mysql instance not initialised" {
		t.Errorf("Health() after stop = %+v", h)
	}
	if _, err := svc.Stats(); !errors.Is(err, ErrNotReady) {
		t.Errorf("Stats() after stop err = %v, want ErrNotReady", err)
	}
}

func TestService_WithUnreachableMySQL(t *testing.T) {
	ctx := context.Background()

	svc := NewService(unreachableConfig(), logger.NewNop())
	if err := svc.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if got := svc.Status(ctx).State; got != component.StateRunning {
		t.Errorf("state = %s, want running", got)
	}
	h := svc.Health(ctx)
	if h.Healthy() || !strings.HasPrefix(h.Message, "Failed to connect to mysql: ") {
		t.Errorf("Health() = %+v", h)
	}
	if err := svc.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	cfg := unreachableConfig()
	cfg.FailOnProbeError = true
	strict := NewService(cfg, logger.NewNop())
	err := strict.Start(ctx)
	if !apperrors.IsAppError(err) || !IsConnectionError(errors.Unwrap(err)) {
		t.Errorf("strict Start err = %v", err)
	}
}
