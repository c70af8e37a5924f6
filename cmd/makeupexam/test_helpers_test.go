package main

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"makeupexam/internal/config"
	"makeupexam/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	baseDir    string
}

// setupCLITestEnv writes a config file pointing every path into a temp dir and
// the browser endpoint at a closed port.
func setupCLITestEnv(t *testing.T, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)
	for _, key := range []string{"MAKEUPEXAM_CDP_ENDPOINT", "MAKEUPEXAM_API_TOKEN", "MAKEUPEXAM_ROSTER", "CHROME_PATH"} {
		t.Setenv(key, "")
	}

	closed := httptest.NewServer(http.NotFoundHandler())
	endpoint := closed.URL
	closed.Close()

	cfg := testsupport.NewConfig(t, append([]testsupport.ConfigOption{testsupport.WithCDPEndpoint(endpoint)}, opts...)...)
	configPath := filepath.Join(base, "config.toml")
	writeTestConfig(t, configPath, cfg)

	return &cliTestEnv{cfg: cfg, configPath: configPath, baseDir: base}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	lines := []string{
		"[paths]",
		fmt.Sprintf("state_dir = %q", cfg.Paths.StateDir),
		fmt.Sprintf("log_dir = %q", cfg.Paths.LogDir),
		fmt.Sprintf("upload_dir = %q", cfg.Paths.UploadDir),
		"[roster]",
		fmt.Sprintf("path = %q", cfg.Roster.Path),
		"[browser]",
		fmt.Sprintf("cdp_endpoint = %q", cfg.Browser.CDPEndpoint),
		fmt.Sprintf("user_data_dir = %q", cfg.Browser.UserDataDir),
		fmt.Sprintf("login_user_data_dir = %q", cfg.Browser.LoginUserDataDir),
		"launch_on_failure = false",
		"attach_settle_ms = 0",
		"[timing]",
		"after_navigate_ms = 0",
		"after_add_ms = 0",
		"after_row_action_ms = 0",
		"after_attach_click_ms = 0",
		"after_file_set_ms = 0",
		"after_upload_ms = 0",
		"[server]",
		fmt.Sprintf("bind = %q", cfg.Server.Bind),
		"[logging]",
		"level = 'error'",
		"retention_days = 0",
	}
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
