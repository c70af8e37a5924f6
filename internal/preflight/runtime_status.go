package preflight

import (
	"context"
	"fmt"

	"makeupexam/internal/browser"
	"makeupexam/internal/config"
)

// BrowserStatus reports the current DevTools endpoint snapshot.
type BrowserStatus struct {
	Endpoint  string `json:"endpoint"`
	Reachable bool   `json:"reachable"`
	Browser   string `json:"browser,omitempty"`
	Protocol  string `json:"protocol,omitempty"`
	Error     string `json:"error,omitempty"`
}

// CheckBrowser asks the configured endpoint which browser is listening.
func CheckBrowser(ctx context.Context, cfg *config.Config) BrowserStatus {
	if cfg == nil {
		return BrowserStatus{Error: "no configuration"}
	}
	status := BrowserStatus{Endpoint: cfg.Browser.CDPEndpoint}
	version, err := browser.QueryVersion(ctx, cfg.Browser.CDPEndpoint)
	if err != nil {
		status.Error = err.Error()
		return status
	}
	status.Reachable = true
	status.Browser = version.Browser
	status.Protocol = version.ProtocolVersion
	return status
}

// Detail renders a display-friendly summary for status UIs.
func (s BrowserStatus) Detail() string {
	if !s.Reachable {
		return fmt.Sprintf("%s not reachable", s.Endpoint)
	}
	if s.Browser == "" {
		return fmt.Sprintf("%s reachable", s.Endpoint)
	}
	return fmt.Sprintf("%s on %s", s.Browser, s.Endpoint)
}
