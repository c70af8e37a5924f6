// Package automation orchestrates a complete form run.
//
// Runner.Run loads and validates the roster, runs the input preflight checks,
// takes the single-run file lock, opens a history record and a per-run log,
// attaches to (or launches) the browser, drives the form with tcrform and
// persists the report. A browser session is cached between runs and reused
// while its tab is still alive.
package automation
