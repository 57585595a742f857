// Package internal documents the PredictChain server internals.
//
// The internal tree is organized by responsibility:
// - api: HTTP routing, handlers, middleware and problem responses
// - domain: the event model, review workflow and identifiers
// - storage: event stores backed by memory, PostgreSQL and MongoDB
// - auth, audit, config, metrics, telemetry: shared infrastructure
// - loadtest: synthetic traffic generation
//
// Code in internal/ is not meant for external import.
package internal
