// Command mysqlsvc runs a managed MySQL connection pool behind an HTTP
// status surface for external process managers.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/kbukum/mysqlsvc/bootstrap"
	"github.com/kbukum/mysqlsvc/config"
	"github.com/kbukum/mysqlsvc/database"
	"github.com/kbukum/mysqlsvc/logger"
	"github.com/kbukum/mysqlsvc/observability"
	"github.com/kbukum/mysqlsvc/server"
	"github.com/kbukum/mysqlsvc/server/endpoint"
	"github.com/kbukum/mysqlsvc/version"
)

const serviceName = "mysqlsvc"

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	flags := pflag.NewFlagSet(serviceName, pflag.ContinueOnError)
	configFile := flags.String("config", "", "path to config.yml (default: searched)")
	envFile := flags.String("env-file", "", "path to .env (default: searched)")
	envPrefix := flags.String("env-prefix", "", "only bind environment variables named PREFIX_*")
	showVersion := flags.Bool("version", false, "print version and exit")
	if err := flags.Parse(args); err != nil {
		return err
	}

	if *showVersion {
		fmt.Println(version.Short())
		return nil
	}

	var opts []config.LoaderOption
	if *configFile != "" {
		opts = append(opts, config.WithConfigFile(*configFile))
	}
	if *envFile != "" {
		opts = append(opts, config.WithEnvFile(*envFile))
	}
	if *envPrefix != "" {
		opts = append(opts, config.WithEnvPrefix(*envPrefix))
	}

	var cfg AppConfig
	if err := config.LoadConfig(serviceName, &cfg, opts...); err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	app, err := bootstrap.NewApp(&cfg, bootstrap.WithMonitor(cfg.Monitor))
	if err != nil {
		return err
	}

	shutdownTelemetry, err := observability.Setup(ctx, cfg.Observability, cfg.Name, cfg.Version, cfg.Environment)
	if err != nil {
		return fmt.Errorf("observability: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(flushCtx); err != nil {
			app.Logger.Warn("Telemetry shutdown failed", logger.ErrorFields("telemetry", err))
		}
	}()

	if err := wire(app); err != nil {
		return err
	}
	return app.Run(ctx)
}

// wire registers the database service and, when enabled, the HTTP server.
// The server is registered last so it stops first.
func wire(app *bootstrap.App[*AppConfig]) error {
	db := database.NewService(app.Cfg.Database, logger.Get(app.Name))
	if err := app.RegisterComponent(db); err != nil {
		return err
	}

	if !app.Cfg.Server.Enabled {
		return nil
	}
	srv := server.New(app.Cfg.Server, app.Logger)
	srv.ApplyDefaults(app.Name, app.Components, endpoint.MetricsSource{
		Name:    db.Name(),
		Collect: poolStats(db),
	})
	return app.RegisterComponent(server.NewComponent(srv))
}

// poolStats reports the live pool's database/sql statistics.
func poolStats(db *database.Service) func(context.Context) (any, error) {
	return func(context.Context) (any, error) {
		st, err := db.Stats()
		if err != nil {
			return nil, err
		}
		return map[string]any{
			"max_open_connections": st.MaxOpenConnections,
			"open_connections":     st.OpenConnections,
			"in_use":               st.InUse,
			"idle":                 st.Idle,
			"wait_count":           st.WaitCount,
			"wait_duration_ms":     st.WaitDuration.Milliseconds(),
			"max_idle_closed":      st.MaxIdleClosed,
			"max_lifetime_closed":  st.MaxLifetimeClosed,
		}, nil
	}
}
