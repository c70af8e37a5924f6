package preflight

import (
	"context"
	"strings"

	"makeupexam/internal/config"
	"makeupexam/internal/services"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail"`
	// Optional results are reported but never block a run.
	Optional bool `json:"optional,omitempty"`
}

// RunAll executes every environment check for the given config: the run
// inputs followed by the browser endpoint.
func RunAll(ctx context.Context, cfg *config.Config, rosterPath, attachment string) []Result {
	if cfg == nil {
		return nil
	}
	return append(RunInputs(cfg, rosterPath, attachment), CheckBrowser(ctx, cfg))
}

// RunInputs checks the state directories, the roster and the attachment. The
// roster check uses rosterPath when set, otherwise the configured roster. The
// attachment check runs only when attachment is set.
func RunInputs(cfg *config.Config, rosterPath, attachment string) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("State directory", cfg.Paths.StateDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
		CheckDirectoryAccess("Upload directory", cfg.Paths.UploadDir),
	}

	if strings.TrimSpace(rosterPath) == "" {
		rosterPath = cfg.Roster.Path
	}
	results = append(results, CheckRoster(rosterPath))

	if strings.TrimSpace(attachment) != "" {
		results = append(results, CheckAttachment(attachment))
	}
	return results
}

// Failures returns the required checks that did not pass.
func Failures(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed && !r.Optional {
			failed = append(failed, r)
		}
	}
	return failed
}

// Error converts required failures into a validation error, or nil.
func Error(results []Result) error {
	failed := Failures(results)
	if len(failed) == 0 {
		return nil
	}
	parts := make([]string, 0, len(failed))
	for _, r := range failed {
		parts = append(parts, r.Name+": "+r.Detail)
	}
	return services.Wrap(services.ErrValidation, "preflight", "", strings.Join(parts, "; "), nil)
}
