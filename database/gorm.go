package database

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"sync"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratedb "github.com/golang-migrate/migrate/v4/database"
	migratemysql "github.com/golang-migrate/migrate/v4/database/mysql"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/kbukum/mysqlsvc/logger"
)

const (
	dialectMySQL  = "mysql"
	dialectSQLite = "sqlite"
)

// GormPool is a Pool backed by a GORM session and its database/sql pool.
type GormPool struct {
	id      uuid.UUID
	db      *gorm.DB
	dialect string
	log     *logger.Logger

	closeMu sync.Mutex
	close   func() error
}

var _ Pool = (*GormPool)(nil)

// MySQLFactory builds a GormPool against MySQL. No connection is made until
// the first query.
func MySQLFactory(cfg Config, log *logger.Logger) (Pool, error) {
	dialector := gormmysql.New(gormmysql.Config{
		DSN:                       cfg.DSN(),
		SkipInitializeWithVersion: true,
	})
	p, err := openGormPool(dialector, dialectMySQL, cfg, log)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// SQLiteFactory returns a Factory that opens path with SQLite instead of
// MySQL. The pool is limited to one connection so ":memory:" databases
// stay shared for the lifetime of the handle.
func SQLiteFactory(path string) Factory {
	return func(cfg Config, log *logger.Logger) (Pool, error) {
		p, err := openGormPool(sqlite.Open(path), dialectSQLite, cfg, log)
		if err != nil {
			return nil, err
		}
		sqlDB, err := p.db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetConnMaxLifetime(0)
		sqlDB.SetConnMaxIdleTime(0)
		return p, nil
	}
}

func openGormPool(dialector gorm.Dialector, dialect string, cfg Config, log *logger.Logger) (*GormPool, error) {
	if log == nil {
		log = logger.NewNop()
	}
	cfg.ApplyDefaults()

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:               newGormLogger(log, cfg.slowQueryThreshold(), parseLogLevel(cfg.LogLevel)),
		DisableAutomaticPing: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s pool: %w", dialect, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("open %s pool: %w", dialect, err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	if lifetime, parseErr := time.ParseDuration(cfg.ConnMaxLifetime); parseErr == nil {
		sqlDB.SetConnMaxLifetime(lifetime)
	}
	if idleTime, parseErr := time.ParseDuration(cfg.ConnMaxIdleTime); parseErr == nil {
		sqlDB.SetConnMaxIdleTime(idleTime)
	}

	return &GormPool{
		id:      uuid.New(),
		db:      db,
		dialect: dialect,
		log:     log,
		close:   sqlDB.Close,
	}, nil
}

// ID returns the handle's generation ID.
func (p *GormPool) ID() uuid.UUID { return p.id }

// MigrationsTable returns the migrations bookkeeping table name.
func (p *GormPool) MigrationsTable() string { return MigrationsTable }

// Raw runs query through GORM and drains the result set.
func (p *GormPool) Raw(ctx context.Context, query string) error {
	rows, err := p.db.WithContext(ctx).Raw(query).Rows()
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
	}
	return rows.Err()
}

// Release closes the underlying sql.DB in the background. Calls are
// serialised and each one attempts the close, so a release that failed can
// be retried. Closing an already closed pool succeeds.
func (p *GormPool) Release() <-chan error {
	if _, err := p.db.DB(); err != nil {
		return resolved(err)
	}

	done := make(chan error, 1)
	go func() {
		p.closeMu.Lock()
		defer p.closeMu.Unlock()
		done <- p.close()
	}()
	return done
}

// DB returns the GORM session for query code.
func (p *GormPool) DB() *gorm.DB { return p.db }

// WithContext returns a GORM session scoped to the given context.
func (p *GormPool) WithContext(ctx context.Context) *gorm.DB {
	return p.db.WithContext(ctx)
}

// Stats returns database/sql pool statistics.
func (p *GormPool) Stats() sql.DBStats {
	sqlDB, err := p.db.DB()
	if err != nil {
		return sql.DBStats{}
	}
	return sqlDB.Stats()
}

// TransactionFunc defines a function that runs within a transaction.
type TransactionFunc func(tx *gorm.DB) error

// WithTransaction executes fn within a transaction. A panic in fn rolls the
// transaction back and is re-raised.
func (p *GormPool) WithTransaction(ctx context.Context, fn TransactionFunc) error {
	tx := p.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return fmt.Errorf("failed to begin transaction: %w", tx.Error)
	}

	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			p.log.Error("Transaction rolled back due to panic", map[string]interface{}{
				"panic": fmt.Sprintf("%v", r),
			})
			panic(r)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback().Error; rbErr != nil {
			return fmt.Errorf("transaction failed: %w, rollback failed: %v", err, rbErr)
		}
		return err
	}

	if err := tx.Commit().Error; err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// MigrationDriver returns a golang-migrate driver bound to this pool and
// the migrations table. Closing the driver closes the pool, so leave
// closing to Release.
func (p *GormPool) MigrationDriver() (migratedb.Driver, error) {
	sqlDB, err := p.db.DB()
	if err != nil {
		return nil, err
	}

	switch p.dialect {
	case dialectMySQL:
		return migratemysql.WithInstance(sqlDB, &migratemysql.Config{MigrationsTable: MigrationsTable})
	case dialectSQLite:
		return migratesqlite.WithInstance(sqlDB, &migratesqlite.Config{MigrationsTable: MigrationsTable})
	default:
		return nil, fmt.Errorf("no migration driver for dialect %q", p.dialect)
	}
}

// Migrator returns a migrate instance reading versioned SQL files
// (VERSION_name.up.sql / VERSION_name.down.sql) from dir in fsys.
// Running it is left to the caller.
func (p *GormPool) Migrator(fsys fs.FS, dir string) (*migrate.Migrate, error) {
	source, err := iofs.New(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("create migration source: %w", err)
	}

	driver, err := p.MigrationDriver()
	if err != nil {
		return nil, fmt.Errorf("create migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, p.dialect, driver)
	if err != nil {
		return nil, fmt.Errorf("create migrator: %w", err)
	}
	return m, nil
}
