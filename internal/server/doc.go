// Package server implements the HTTP server and HTTP handlers for
// medidrop. It wires together the HTTP routes and their dependencies
// (credential store, blob store, token registry) and provides lifecycle
// helpers used by tests and the production binary.
package server
