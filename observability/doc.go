// Package observability wires OpenTelemetry tracing and metrics.
//
// Setup installs OTLP HTTP exporters as the global providers when enabled:
//
//	shutdown, err := observability.Setup(ctx, cfg.Observability, "mysqlsvc", version, env)
//	defer shutdown(ctx)
//
// Lifecycle components report through Instruments, which default to the
// global providers and therefore follow whatever Setup installed:
//
//	inst := observability.DefaultInstruments()
//	ctx, span := inst.StartSpan(ctx, "mysql", "mysql.start")
//	defer span.End()
//	inst.RecordTransition(ctx, "mysql", "running")
package observability
