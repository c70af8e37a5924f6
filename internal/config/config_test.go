package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"makeupexam/internal/config"
)

func isolateEnv(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("MAKEUPEXAM_CDP_ENDPOINT", "")
	t.Setenv("MAKEUPEXAM_API_TOKEN", "")
	t.Setenv("MAKEUPEXAM_ROSTER", "")
	t.Setenv("CHROME_PATH", "")
	return home
}

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	home := isolateEnv(t)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantState := filepath.Join(home, ".local", "share", "makeupexam")
	if cfg.Paths.StateDir != wantState {
		t.Fatalf("unexpected state dir: got %q want %q", cfg.Paths.StateDir, wantState)
	}
	if cfg.Roster.Path != filepath.Join(home, "Make-Up-Exam-Macro", "Students.csv") {
		t.Fatalf("unexpected roster path: %q", cfg.Roster.Path)
	}
	if cfg.Browser.CDPEndpoint != "http://localhost:9222" {
		t.Fatalf("unexpected cdp endpoint: %q", cfg.Browser.CDPEndpoint)
	}
	if cfg.Form.OfficeLocation != "F255" || cfg.Form.BackupPhone != "281-636-7774" || cfg.Form.Campus != "400" {
		t.Fatalf("unexpected form constants: %+v", cfg.Form)
	}
	if cfg.Form.MatchThreshold != 0.5 {
		t.Fatalf("unexpected match threshold: %v", cfg.Form.MatchThreshold)
	}
	if cfg.Logging.Format != "console" || cfg.Logging.Level != "info" {
		t.Fatalf("unexpected logging defaults: %+v", cfg.Logging)
	}
	if cfg.HistoryPath() != filepath.Join(wantState, "history.db") {
		t.Fatalf("unexpected history path: %q", cfg.HistoryPath())
	}
}

func TestLoadCustomConfigOverrides(t *testing.T) {
	home := isolateEnv(t)

	contents := strings.Join([]string{
		"[roster]",
		"path = '~/classes/students.csv'",
		"[browser]",
		"cdp_endpoint = 'http://127.0.0.1:9333/'",
		"headless = true",
		"extra_args = [' --no-sandbox ', '']",
		"[form]",
		"office_location = 'B100'",
		"match_threshold = 0.7",
		"exam_from_attachment = true",
		"[[form.calculator_rules]]",
		"contains = '2413'",
		"label = 'Graphing'",
		"[logging]",
		"format = 'JSON'",
		"level = 'DEBUG'",
	}, "\n")
	path := filepath.Join(t.TempDir(), "custom.toml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("expected config to be read from %q, got %q (exists=%v)", path, resolved, exists)
	}
	if cfg.Roster.Path != filepath.Join(home, "classes", "students.csv") {
		t.Fatalf("unexpected roster path: %q", cfg.Roster.Path)
	}
	if cfg.Browser.CDPEndpoint != "http://127.0.0.1:9333" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.Browser.CDPEndpoint)
	}
	if !cfg.Browser.Headless || len(cfg.Browser.ExtraArgs) != 1 || cfg.Browser.ExtraArgs[0] != "--no-sandbox" {
		t.Fatalf("unexpected launch flags: headless=%v args=%q", cfg.Browser.Headless, cfg.Browser.ExtraArgs)
	}
	if cfg.Form.OfficeLocation != "B100" {
		t.Fatalf("unexpected office location: %q", cfg.Form.OfficeLocation)
	}
	if !cfg.Form.ExamFromAttachment {
		t.Fatal("expected exam_from_attachment to be enabled")
	}
	if cfg.Form.BackupPhone != "281-636-7774" {
		t.Fatalf("expected default phone retained, got %q", cfg.Form.BackupPhone)
	}
	if got := cfg.CalculatorFor("MATH-2413-001"); got != "Graphing" {
		t.Fatalf("unexpected calculator label: %q", got)
	}
	if got := cfg.CalculatorFor("MATH-1314-001"); got != "None" {
		t.Fatalf("expected replaced rules to fall back to default, got %q", got)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Fatalf("unexpected logging config: %+v", cfg.Logging)
	}
}

func TestEnvironmentOverrides(t *testing.T) {
	isolateEnv(t)
	t.Setenv("MAKEUPEXAM_CDP_ENDPOINT", "ws://localhost:9444")
	t.Setenv("MAKEUPEXAM_API_TOKEN", " secret ")

	cfg, _, _, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Browser.CDPEndpoint != "ws://localhost:9444" {
		t.Fatalf("unexpected cdp endpoint: %q", cfg.Browser.CDPEndpoint)
	}
	if cfg.Server.APIToken != "secret" {
		t.Fatalf("unexpected api token: %q", cfg.Server.APIToken)
	}
}

func TestCalculatorForDefaults(t *testing.T) {
	cfg := config.Default()
	cases := map[string]string{
		"MATH-1314-20001": "Scientific",
		"MATH-1324-20002": "Any",
		"MATH-2413-20003": "None",
	}
	for class, want := range cases {
		if got := cfg.CalculatorFor(class); got != want {
			t.Fatalf("CalculatorFor(%q) = %q, want %q", class, got, want)
		}
	}
}

func TestValidateRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"endpoint scheme", func(c *config.Config) { c.Browser.CDPEndpoint = "ftp://localhost:9222" }, "browser.cdp_endpoint"},
		{"window position", func(c *config.Config) { c.Browser.WindowPosition = "left" }, "browser.window_position"},
		{"form url", func(c *config.Config) { c.Form.URL = "not a url" }, "form.url"},
		{"threshold", func(c *config.Config) { c.Form.MatchThreshold = 1.5 }, "form.match_threshold"},
		{"element timeout", func(c *config.Config) { c.Timing.ElementTimeout = 0 }, "timing.element_timeout_ms"},
		{"settle delay", func(c *config.Config) { c.Timing.AfterUpload = -1 }, "timing.after_upload_ms"},
		{"bind", func(c *config.Config) { c.Server.Bind = "localhost" }, "server.bind"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error mentioning %q, got %v", tt.want, err)
			}
		})
	}
}

func TestCreateSampleProducesLoadableConfig(t *testing.T) {
	isolateEnv(t)
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample returned error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	var parsed config.Config
	if err := toml.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("sample config is not valid TOML: %v", err)
	}
	if len(parsed.Form.CalculatorRules) != 2 {
		t.Fatalf("expected two calculator rules in sample, got %d", len(parsed.Form.CalculatorRules))
	}

	if _, _, exists, err := config.Load(path); err != nil || !exists {
		t.Fatalf("expected sample to load cleanly (exists=%v): %v", exists, err)
	}
}
