// Package config loads service configuration from config.yml, .env files
// and environment variables using Viper.
//
// # Usage
//
//	var cfg AppConfig
//	if err := config.LoadConfig("mysqlsvc", &cfg); err != nil {
//	    return err
//	}
//
// Files are searched in cmd/<service>/, config/ and the working directory.
// Environment variables override file values; DATABASE_HOST binds to
// database.host. WithEnvPrefix limits binding to PREFIX_* variables.
package config
