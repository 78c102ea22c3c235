// Package testinfra starts a disposable PostgreSQL container with the
// courselens schema applied, for integration tests built with the
// "integration" tag:
//
//	go test -tags integration ./...
//
// Tests skip when Docker is unavailable.
package testinfra
