package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeBrowser(); err != nil {
		return err
	}
	c.normalizeForm()
	c.normalizeServer()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.UploadDir) == "" {
		c.Paths.UploadDir = defaultUploadDir
	}
	if c.Paths.UploadDir, err = expandPath(c.Paths.UploadDir); err != nil {
		return fmt.Errorf("paths.upload_dir: %w", err)
	}
	if value, ok := os.LookupEnv("MAKEUPEXAM_ROSTER"); ok && strings.TrimSpace(value) != "" {
		c.Roster.Path = strings.TrimSpace(value)
	}
	if c.Roster.Path, err = expandPath(strings.TrimSpace(c.Roster.Path)); err != nil {
		return fmt.Errorf("roster.path: %w", err)
	}
	return nil
}

func (c *Config) normalizeBrowser() error {
	var err error
	if value, ok := os.LookupEnv("MAKEUPEXAM_CDP_ENDPOINT"); ok && strings.TrimSpace(value) != "" {
		c.Browser.CDPEndpoint = value
	}
	c.Browser.CDPEndpoint = strings.TrimRight(strings.TrimSpace(c.Browser.CDPEndpoint), "/")
	if c.Browser.CDPEndpoint == "" {
		c.Browser.CDPEndpoint = defaultCDPEndpoint
	}
	if c.Browser.DebugPort <= 0 {
		c.Browser.DebugPort = defaultDebugPort
	}
	if value, ok := os.LookupEnv("CHROME_PATH"); ok && strings.TrimSpace(c.Browser.ExecPath) == "" {
		c.Browser.ExecPath = value
	}
	c.Browser.ExecPath = strings.TrimSpace(c.Browser.ExecPath)
	if strings.TrimSpace(c.Browser.UserDataDir) == "" {
		c.Browser.UserDataDir = defaultUserDataDir
	}
	if c.Browser.UserDataDir, err = expandPath(c.Browser.UserDataDir); err != nil {
		return fmt.Errorf("browser.user_data_dir: %w", err)
	}
	if strings.TrimSpace(c.Browser.LoginUserDataDir) == "" {
		c.Browser.LoginUserDataDir = defaultLoginUserDataDir
	}
	if c.Browser.LoginUserDataDir, err = expandPath(c.Browser.LoginUserDataDir); err != nil {
		return fmt.Errorf("browser.login_user_data_dir: %w", err)
	}
	c.Browser.WindowPosition = strings.ReplaceAll(strings.TrimSpace(c.Browser.WindowPosition), " ", "")
	if c.Browser.WindowWidth <= 0 {
		c.Browser.WindowWidth = defaultWindowWidth
	}
	if c.Browser.WindowHeight <= 0 {
		c.Browser.WindowHeight = defaultWindowHeight
	}
	if c.Browser.AttachSettleDelay < 0 {
		c.Browser.AttachSettleDelay = 0
	}
	args := make([]string, 0, len(c.Browser.ExtraArgs))
	for _, arg := range c.Browser.ExtraArgs {
		if arg = strings.TrimSpace(arg); arg != "" {
			args = append(args, arg)
		}
	}
	c.Browser.ExtraArgs = args
	return nil
}

func (c *Config) normalizeForm() {
	c.Form.URL = strings.TrimSpace(c.Form.URL)
	if c.Form.URL == "" {
		c.Form.URL = defaultFormURL
	}
	c.Form.OfficeLocation = strings.TrimSpace(c.Form.OfficeLocation)
	c.Form.BackupPhone = strings.TrimSpace(c.Form.BackupPhone)
	c.Form.Campus = strings.TrimSpace(c.Form.Campus)
	c.Form.CampusSelector = strings.TrimSpace(c.Form.CampusSelector)
	if c.Form.CampusSelector == "" {
		c.Form.CampusSelector = defaultCampusSelector
	}
	rules := make([]CalculatorRule, 0, len(c.Form.CalculatorRules))
	for _, rule := range c.Form.CalculatorRules {
		rule.Contains = strings.TrimSpace(rule.Contains)
		rule.Label = strings.TrimSpace(rule.Label)
		if rule.Contains == "" {
			continue
		}
		rules = append(rules, rule)
	}
	c.Form.CalculatorRules = rules
	c.Form.CalculatorDefault = strings.TrimSpace(c.Form.CalculatorDefault)
	if c.Form.CalculatorDefault == "" {
		c.Form.CalculatorDefault = defaultCalculatorLabel
	}
	if c.Form.MatchThreshold == 0 {
		c.Form.MatchThreshold = defaultMatchThreshold
	}
}

func (c *Config) normalizeServer() {
	c.Server.Bind = strings.TrimSpace(c.Server.Bind)
	if c.Server.Bind == "" {
		c.Server.Bind = defaultServerBind
	}
	c.Server.APIToken = strings.TrimSpace(c.Server.APIToken)
	if c.Server.APIToken == "" {
		if value, ok := os.LookupEnv("MAKEUPEXAM_API_TOKEN"); ok {
			c.Server.APIToken = strings.TrimSpace(value)
		}
	}
	if c.Server.MaxUploadMiB <= 0 {
		c.Server.MaxUploadMiB = defaultMaxUploadMiB
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}
