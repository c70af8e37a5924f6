// Package history persists automation runs in SQLite.
//
// Each run records the roster it was started from, its final status, and one
// row per class group with the per-student lookup outcomes, so the CLI and the
// HTTP API can show what was prepared in the portal and what still needs a
// manual touch. Schema changes bump the version in schema.go; users clear the
// database to adopt the new schema.
package history
