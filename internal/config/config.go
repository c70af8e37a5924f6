package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and file locations.
type Paths struct {
	StateDir  string `toml:"state_dir"`
	LogDir    string `toml:"log_dir"`
	UploadDir string `toml:"upload_dir"`
}

// Roster locates the students CSV.
type Roster struct {
	// Path is the CSV read when a command does not name one explicitly.
	Path string `toml:"path"`
}

// Browser contains CDP attach and launch settings.
type Browser struct {
	CDPEndpoint       string `toml:"cdp_endpoint"`
	DebugPort         int    `toml:"debug_port"`
	ExecPath          string `toml:"exec_path"`
	UserDataDir       string `toml:"user_data_dir"`
	LoginUserDataDir  string `toml:"login_user_data_dir"`
	WindowPosition    string `toml:"window_position"`
	WindowWidth       int    `toml:"window_width"`
	WindowHeight      int    `toml:"window_height"`
	LaunchOnFailure   bool   `toml:"launch_on_failure"`
	AttachSettleDelay int    `toml:"attach_settle_ms"`
	// Headless and ExtraArgs only affect browsers started by makeupexam.
	Headless  bool     `toml:"headless"`
	ExtraArgs []string `toml:"extra_args"`
}

// CalculatorRule maps a class-code fragment to a calculator option label.
type CalculatorRule struct {
	Contains string `toml:"contains"`
	Label    string `toml:"label"`
}

// Form contains the fixed values typed into the request form.
type Form struct {
	URL                string           `toml:"url"`
	OfficeLocation     string           `toml:"office_location"`
	BackupPhone        string           `toml:"backup_phone"`
	Campus             string           `toml:"campus"`
	CampusSelector     string           `toml:"campus_selector"`
	CalculatorRules    []CalculatorRule `toml:"calculator_rules"`
	CalculatorDefault  string           `toml:"calculator_default"`
	MatchThreshold     float64          `toml:"match_threshold"`
	ExamFromAttachment bool             `toml:"exam_from_attachment"`
}

// Timing contains element timeouts and the settle pauses between form steps.
// All values are milliseconds.
type Timing struct {
	NavigationTimeout int `toml:"navigation_timeout_ms"`
	ElementTimeout    int `toml:"element_timeout_ms"`
	LookupTimeout     int `toml:"lookup_timeout_ms"`
	ModalTimeout      int `toml:"modal_timeout_ms"`
	AfterNavigate     int `toml:"after_navigate_ms"`
	AfterAdd          int `toml:"after_add_ms"`
	AfterRowAction    int `toml:"after_row_action_ms"`
	AfterAttachClick  int `toml:"after_attach_click_ms"`
	AfterFileSet      int `toml:"after_file_set_ms"`
	AfterUpload       int `toml:"after_upload_ms"`
}

// Server contains HTTP API settings.
type Server struct {
	Bind     string `toml:"bind"`
	APIToken string `toml:"api_token"`
	// MaxUploadMiB bounds the multipart body accepted for exam files.
	MaxUploadMiB int `toml:"max_upload_mib"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for makeupexam.
//
// Configuration sections by subsystem:
//   - Paths: state (history database, run lock), logs and uploads
//   - Roster: default students CSV location
//   - Browser: CDP endpoint, debugging port, launch flags
//   - Form: portal URL and the constant values typed into the form
//   - Timing: element timeouts and settle pauses
//   - Server: HTTP API bind address and token
//   - Logging: log format and level
type Config struct {
	Paths   Paths   `toml:"paths"`
	Roster  Roster  `toml:"roster"`
	Browser Browser `toml:"browser"`
	Form    Form    `toml:"form"`
	Timing  Timing  `toml:"timing"`
	Server  Server  `toml:"server"`
	Logging Logging `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("makeupexam.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the state, log and upload directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StateDir, c.Paths.LogDir, c.Paths.UploadDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// HistoryPath returns the SQLite database holding the run ledger.
func (c *Config) HistoryPath() string {
	return filepath.Join(c.Paths.StateDir, "history.db")
}

// LockPath returns the file lock that serializes automation runs.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.StateDir, "automation.lock")
}

// CalculatorFor returns the calculator label for a class code. The first rule
// whose fragment occurs in the class code wins.
func (c *Config) CalculatorFor(classCode string) string {
	for _, rule := range c.Form.CalculatorRules {
		if rule.Contains != "" && strings.Contains(classCode, rule.Contains) {
			return rule.Label
		}
	}
	return c.Form.CalculatorDefault
}

// Millis converts a millisecond setting into a duration.
func Millis(value int) time.Duration {
	return time.Duration(value) * time.Millisecond
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
