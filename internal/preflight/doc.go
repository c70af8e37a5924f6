// Package preflight checks that a run can start: writable state directories,
// a parsable roster, a PDF attachment and a reachable (or launchable) browser.
//
// The CLI `check` command prints every result; the automation runner refuses
// to start when a required check fails.
package preflight
