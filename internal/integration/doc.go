// Package integration provides cross-package integration tests for o1.
// These tests drive a full pipeline through a real HTTP backend, the file
// sink and the run ledger together.
//
// Build tag: integration
// Run with: go test -tags integration ./internal/integration/...
package integration
