package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"makeupexam/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// Settle pauses are zeroed so form runs against fakes finish immediately.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.UploadDir = filepath.Join(base, "uploads")
	cfgVal.Roster.Path = filepath.Join(base, "Students.csv")
	cfgVal.Browser.UserDataDir = filepath.Join(base, "chrome")
	cfgVal.Browser.LoginUserDataDir = filepath.Join(base, "browser_data")
	cfgVal.Browser.AttachSettleDelay = 0
	cfgVal.Browser.LaunchOnFailure = false
	cfgVal.Server.Bind = "127.0.0.1:0"
	cfgVal.Logging.RetentionDays = 0
	cfgVal.Timing.AfterNavigate = 0
	cfgVal.Timing.AfterAdd = 0
	cfgVal.Timing.AfterRowAction = 0
	cfgVal.Timing.AfterAttachClick = 0
	cfgVal.Timing.AfterFileSet = 0
	cfgVal.Timing.AfterUpload = 0

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithAPIToken sets the bearer token required by the HTTP API.
func WithAPIToken(token string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Server.APIToken = token
	}
}

// WithCDPEndpoint points the browser section at endpoint.
func WithCDPEndpoint(endpoint string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Browser.CDPEndpoint = endpoint
	}
}

// WithRoster writes contents to the configured roster path.
func WithRoster(contents string) ConfigOption {
	return func(b *configBuilder) {
		if err := os.WriteFile(b.cfg.Roster.Path, []byte(contents), 0o644); err != nil {
			b.t.Fatalf("write roster: %v", err)
		}
	}
}

// WithStubbedBrowser writes a stub chrome executable and points the browser
// section at it.
func WithStubbedBrowser() ConfigOption {
	return func(b *configBuilder) {
		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		target := filepath.Join(binDir, "google-chrome")
		if err := os.WriteFile(target, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
			b.t.Fatalf("write stub browser: %v", err)
		}
		b.cfg.Browser.ExecPath = target
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StateDir)
}
