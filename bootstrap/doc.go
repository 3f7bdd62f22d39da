// Package bootstrap orchestrates application lifecycle.
//
// An App owns a typed config, a logger and a component.Registry. Run starts
// every registered component in order, runs the configure and ready hooks,
// prints a startup summary, optionally polls component health in the
// background, then blocks until SIGINT/SIGTERM and stops everything in
// reverse order within the graceful timeout.
//
//	app, err := bootstrap.NewApp(&cfg, bootstrap.WithMonitor(cfg.Monitor))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	app.RegisterComponent(database.NewService(cfg.Database, app.Logger))
//	if err := app.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
// RunTask is the finite variant for one-shot jobs such as migrations.
package bootstrap
