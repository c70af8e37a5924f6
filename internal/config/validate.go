package config

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateBrowser(); err != nil {
		return err
	}
	if err := c.validateForm(); err != nil {
		return err
	}
	if err := c.validateTiming(); err != nil {
		return err
	}
	if err := c.validateServer(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateBrowser() error {
	parsed, err := url.Parse(c.Browser.CDPEndpoint)
	if err != nil {
		return fmt.Errorf("browser.cdp_endpoint: %w", err)
	}
	switch parsed.Scheme {
	case "http", "https", "ws", "wss":
	default:
		return fmt.Errorf("browser.cdp_endpoint must use http, https, ws or wss (got %q)", c.Browser.CDPEndpoint)
	}
	if parsed.Host == "" {
		return errors.New("browser.cdp_endpoint must include a host")
	}
	if c.Browser.DebugPort > 65535 {
		return errors.New("browser.debug_port must be a valid TCP port")
	}
	if pos := c.Browser.WindowPosition; pos != "" {
		parts := strings.Split(pos, ",")
		if len(parts) != 2 {
			return fmt.Errorf("browser.window_position must be \"x,y\" (got %q)", pos)
		}
		for _, part := range parts {
			if _, err := strconv.Atoi(part); err != nil {
				return fmt.Errorf("browser.window_position must be \"x,y\" (got %q)", pos)
			}
		}
	}
	return nil
}

func (c *Config) validateForm() error {
	parsed, err := url.Parse(c.Form.URL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("form.url must be an absolute URL (got %q)", c.Form.URL)
	}
	for i, rule := range c.Form.CalculatorRules {
		if rule.Label == "" {
			return fmt.Errorf("form.calculator_rules[%d].label must be set", i)
		}
	}
	if c.Form.MatchThreshold < 0 || c.Form.MatchThreshold >= 1 {
		return errors.New("form.match_threshold must be between 0 and 1")
	}
	return nil
}

func (c *Config) validateTiming() error {
	if err := ensurePositiveMap(map[string]int{
		"timing.navigation_timeout_ms": c.Timing.NavigationTimeout,
		"timing.element_timeout_ms":    c.Timing.ElementTimeout,
		"timing.lookup_timeout_ms":     c.Timing.LookupTimeout,
		"timing.modal_timeout_ms":      c.Timing.ModalTimeout,
	}); err != nil {
		return err
	}
	for key, value := range map[string]int{
		"timing.after_navigate_ms":     c.Timing.AfterNavigate,
		"timing.after_add_ms":          c.Timing.AfterAdd,
		"timing.after_row_action_ms":   c.Timing.AfterRowAction,
		"timing.after_attach_click_ms": c.Timing.AfterAttachClick,
		"timing.after_file_set_ms":     c.Timing.AfterFileSet,
		"timing.after_upload_ms":       c.Timing.AfterUpload,
	} {
		if value < 0 {
			return fmt.Errorf("%s must be >= 0", key)
		}
	}
	return nil
}

func (c *Config) validateServer() error {
	if _, _, err := splitHostPort(c.Server.Bind); err != nil {
		return fmt.Errorf("server.bind: %w", err)
	}
	return nil
}

func splitHostPort(bind string) (string, string, error) {
	idx := strings.LastIndex(bind, ":")
	if idx < 0 {
		return "", "", fmt.Errorf("missing port in %q", bind)
	}
	port := bind[idx+1:]
	if _, err := strconv.Atoi(port); err != nil {
		return "", "", fmt.Errorf("invalid port in %q", bind)
	}
	return bind[:idx], port, nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
