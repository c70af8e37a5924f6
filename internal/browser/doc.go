// Package browser drives a headful Chrome over the DevTools protocol.
//
// Connect attaches to a browser already listening on the remote debugging
// port, reusing its first page tab, and falls back to starting a detached
// Chrome when nothing answers. Sessions expose the small surface the form
// driver needs (Page, Scope and Element) so form logic can be tested against
// fakes. Closing a session only drops the DevTools connection; the browser and
// the prepared tab stay open for manual review.
package browser
