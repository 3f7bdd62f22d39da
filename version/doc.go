// Package version exposes build metadata set via -ldflags:
//
//	go build -ldflags "-X github.com/kbukum/mysqlsvc/version.Version=1.4.0"
package version
