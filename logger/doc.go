// Package logger provides structured logging for mysqlsvc using zerolog.
//
// It supports JSON and console output, log level configuration, and
// component-scoped loggers with structured fields. Managed components
// receive a *Logger and emit their lifecycle messages at info level.
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "json"
//
// # Usage
//
//	log := logger.Get("mysql")
//	log.Info("Connecting to MySQL", logger.Fields("host", "db"))
package logger
