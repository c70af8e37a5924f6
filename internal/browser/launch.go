package browser

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"makeupexam/internal/logging"
	"makeupexam/internal/services"
)

// ErrExecutableNotFound reports that no Chrome binary could be located.
var ErrExecutableNotFound = errors.New("chrome executable not found")

func executableCandidates() []string {
	switch runtime.GOOS {
	case "darwin":
		return []string{
			"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
			"/Applications/Chromium.app/Contents/MacOS/Chromium",
			"google-chrome",
			"chromium",
		}
	case "windows":
		return []string{
			`C:\Program Files\Google\Chrome\Application\chrome.exe`,
			`C:\Program Files (x86)\Google\Chrome\Application\chrome.exe`,
			"chrome.exe",
		}
	default:
		return []string{
			"google-chrome",
			"google-chrome-stable",
			"chromium",
			"chromium-browser",
			"chrome",
		}
	}
}

// FindExecutable returns configured when set, otherwise the first well-known
// Chrome binary found on this system.
func FindExecutable(configured string) (string, error) {
	if configured = strings.TrimSpace(configured); configured != "" {
		path, err := exec.LookPath(configured)
		if err != nil {
			return "", fmt.Errorf("%w: %s: %w", ErrExecutableNotFound, configured, err)
		}
		return path, nil
	}
	for _, candidate := range executableCandidates() {
		if path, err := exec.LookPath(candidate); err == nil {
			return path, nil
		}
	}
	return "", ErrExecutableNotFound
}

// LaunchArgs builds the Chrome command line for a debuggable window.
func LaunchArgs(opts Options, userDataDir, url string) []string {
	port := opts.DebugPort
	if port <= 0 {
		port = 9222
	}
	args := []string{
		fmt.Sprintf("--remote-debugging-port=%d", port),
		"--no-first-run",
		"--no-default-browser-check",
	}
	if userDataDir != "" {
		args = append(args, "--user-data-dir="+userDataDir)
	}
	if opts.WindowPosition != "" {
		args = append(args, "--window-position="+opts.WindowPosition)
	}
	if opts.WindowWidth > 0 && opts.WindowHeight > 0 {
		args = append(args, fmt.Sprintf("--window-size=%d,%d", opts.WindowWidth, opts.WindowHeight))
	}
	if opts.Headless {
		args = append(args, "--headless=new", "--disable-gpu")
	}
	args = append(args, opts.ExtraArgs...)
	if url != "" {
		args = append(args, url)
	}
	return args
}

// StartDetached starts Chrome without tying its lifetime to this process and
// returns its pid.
func StartDetached(opts Options, userDataDir, url string) (int, error) {
	path, err := FindExecutable(opts.ExecPath)
	if err != nil {
		return 0, err
	}
	if userDataDir != "" {
		if err := os.MkdirAll(userDataDir, 0o755); err != nil {
			return 0, fmt.Errorf("create user data dir: %w", err)
		}
	}
	cmd := exec.Command(path, LaunchArgs(opts, userDataDir, url)...)
	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("start %s: %w", path, err)
	}
	pid := cmd.Process.Pid
	if err := cmd.Process.Release(); err != nil {
		return pid, fmt.Errorf("release browser process: %w", err)
	}
	return pid, nil
}

// LoginResult describes how the login window was opened.
type LoginResult struct {
	PID      int    `json:"pid,omitempty"`
	Reused   bool   `json:"reused"`
	Endpoint string `json:"endpoint"`
	Browser  string `json:"browser,omitempty"`
}

// LaunchForLogin opens url in a debuggable browser with a persistent profile
// so the user can sign in before an automation run. When a browser already
// answers on the debugging port the url is opened in its current tab instead.
func LaunchForLogin(ctx context.Context, opts Options, url string) (*LoginResult, error) {
	logger := logging.NewComponentLogger(opts.Logger, "browser")
	local := opts.LocalEndpoint()

	if version, err := QueryVersion(ctx, local); err == nil {
		session, err := attach(ctx, local, opts)
		if err != nil {
			return nil, services.Wrap(services.ErrBrowser, "login", "attach", local, err)
		}
		defer session.Close()
		if err := session.Navigate(ctx, url, opts.launchTimeout()); err != nil {
			return nil, services.Wrap(services.ErrBrowser, "login", "navigate", url, err)
		}
		logger.Info("opened login page in running browser", logging.String("endpoint", local))
		return &LoginResult{Reused: true, Endpoint: local, Browser: version.Browser}, nil
	}

	pid, err := StartDetached(opts, opts.UserDataDir, url)
	if err != nil {
		return nil, services.Wrap(services.ErrBrowser, "login", "launch", "", err)
	}
	version, err := WaitForEndpoint(ctx, local, opts.launchTimeout())
	if err != nil {
		return nil, services.Wrap(services.ErrBrowser, "login", "launch", fmt.Sprintf("browser pid %d never answered on %s", pid, local), err)
	}
	logger.Info("launched login browser", logging.Int("pid", pid), logging.String("endpoint", local))
	return &LoginResult{PID: pid, Endpoint: local, Browser: version.Browser}, nil
}
