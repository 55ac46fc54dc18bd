// Package daemon coordinates the long-running miqa process.
//
// It wires configuration, the document store and the session service into a
// single lifecycle with flock-based locking to prevent multiple instances,
// and serves the HTTP API: import, session listing, export and download,
// plus annotation, site and settings endpoints.
//
// Keep orchestration here: import/export semantics live in the session
// package, and wire formats live in api.
package daemon
