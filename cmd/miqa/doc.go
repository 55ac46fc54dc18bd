// Package main hosts the miqa CLI entrypoint and command graph.
//
// `miqa serve` runs the HTTP daemon in the foreground; `start`, `stop` and
// `status` manage a detached daemon. The session commands (import, export,
// sessions, sites, annotate, settings) open the store directly, so they work
// without a running daemon. SQLite serializes writers when both are active.
package main
