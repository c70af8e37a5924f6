// Package main hosts the makeupexam CLI entrypoint and command graph.
//
// The Cobra command tree fills the Testing Center make-up exam form from a
// students CSV (run), previews rosters (roster), opens the portal for sign-in
// (login), checks prerequisites (check), browses the run ledger (history),
// serves the HTTP API used by the web page (serve), and scaffolds
// configuration (config).
//
// Keep this package thin: behaviour lives in the internal packages and the
// commands here only resolve configuration, wire dependencies, and render
// results as tables or JSON.
package main
