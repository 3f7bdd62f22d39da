// Package database manages the lifecycle of a MySQL connection pool.
//
// A Service owns at most one Pool at a time and implements
// component.Component and component.StatusReporter, so it can be handed to a
// component.Registry or the bootstrap App:
//
//	svc := database.NewService(cfg.Database, log)
//	if err := svc.Start(ctx); err != nil {
//	    return err
//	}
//	defer svc.Stop(ctx)
//
//	db, err := svc.DB() // *gorm.DB, or an error matching database.ErrNotReady
//
// Pools are built by a Factory. MySQLFactory opens a lazy GORM pool through
// go-sql-driver/mysql; SQLiteFactory substitutes SQLite for tests and local
// runs. Start probes the pool with "select 1+1 as result" once. A failing
// probe leaves the service running and unhealthy unless
// Config.FailOnProbeError is set.
//
// GormPool.Migrator exposes golang-migrate bound to the "migrations" table
// for hosting code that runs its own schema migrations.
package database
