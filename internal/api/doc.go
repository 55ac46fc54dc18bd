// Package api defines wire-format types and converters for the HTTP API and
// the CLI's --json output. It translates session and store models into
// transport-friendly DTOs so clients never couple to internal types.
//
// # Key Types
//
// Experiment/Session/Dataset: the nested review tree returned by
// GET /miqa/sessions.
//
// ImportResult: success and failure counts of an import.
//
// ErrorResponse: the body of every non-2xx response; validation failures list
// each violation in Details.
//
// Status: daemon runtime information and document store counts.
//
// # Design Notes
//
// DTOs use camelCase JSON tags, except identifiers of tree nodes, which keep
// the "_id" key the review client expects. Timestamps use RFC3339 with
// milliseconds. Scan metadata is passed through as a plain object.
package api
