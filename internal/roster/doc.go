// Package roster parses the students CSV that drives an automation run.
//
// The file carries a term/exam header pair on its first two non-blank lines,
// followed by a student table keyed by its own header row. Students are
// grouped by class code in first-appearance order; one form is prepared per
// group.
package roster
