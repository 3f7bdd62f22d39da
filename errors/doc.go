// Package errors provides unified error handling for mysqlsvc.
// It implements structured error types with error codes, HTTP status mapping,
// and retryable detection. Lifecycle failures of managed components (not-ready
// access, overlapping start, failed teardown) are reported as *AppError.
package errors
