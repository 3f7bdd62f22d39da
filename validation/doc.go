// Package validation validates configuration structs.
//
// Struct tag validation covers per-field rules; the Validator collects
// cross-field rules on top of it. Both report an INVALID_INPUT AppError
// whose "fields" detail lists every failing field.
//
//	v := validation.New().Merge(validation.Validate(cfg))
//	v.Check(cfg.MaxIdleConns <= cfg.MaxOpenConns, "max_idle_conns", "must not exceed max_open_conns")
//	v.Duration("conn_max_lifetime", cfg.ConnMaxLifetime)
//	return v.Validate()
package validation
