// Package tcrform drives the testing-center request form.
//
// An Automator walks a parsed roster class by class: it reloads the portal
// form, fills the request header and course information, selects each
// student through the PeopleSoft lookup modal using best-match name scoring,
// fills the exam details from the first student of the class, and uploads the
// exam attachment. The form is left for the user to review and submit.
//
// Per-student lookup problems are logged and the class continues. Failures
// while filling the header, course or exam details abandon the class, and the
// run moves on to the next one. Every outcome is collected into a Report.
package tcrform
