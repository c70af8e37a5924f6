// Package server exposes the automation over HTTP for the makeup exam web
// page: launching the login browser, previewing the roster, starting a run
// with an uploaded exam PDF, and browsing run history.
//
// Every route answers JSON. When server.api_token is configured, requests must
// carry "Authorization: Bearer <token>".
package server
