package automation

import (
	"context"
	"log/slog"

	"makeupexam/internal/browser"
	"makeupexam/internal/config"
	"makeupexam/internal/logging"
)

// Browser is a page plus the lifecycle hooks the runner needs to cache it.
type Browser interface {
	browser.Page
	Alive(ctx context.Context) bool
	Close()
}

// Connector opens a browser session.
type Connector func(ctx context.Context, opts browser.Options) (Browser, error)

func connectSession(ctx context.Context, opts browser.Options) (Browser, error) {
	session, err := browser.Connect(ctx, opts)
	if err != nil {
		return nil, err
	}
	return session, nil
}

// BrowserOptions maps configuration onto session options.
func BrowserOptions(cfg *config.Config) browser.Options {
	return browser.Options{
		Endpoint:        cfg.Browser.CDPEndpoint,
		ExecPath:        cfg.Browser.ExecPath,
		UserDataDir:     cfg.Browser.UserDataDir,
		DebugPort:       cfg.Browser.DebugPort,
		WindowPosition:  cfg.Browser.WindowPosition,
		WindowWidth:     cfg.Browser.WindowWidth,
		WindowHeight:    cfg.Browser.WindowHeight,
		LaunchOnFailure: cfg.Browser.LaunchOnFailure,
		Headless:        cfg.Browser.Headless,
		ExtraArgs:       cfg.Browser.ExtraArgs,
		SettleDelay:     config.Millis(cfg.Browser.AttachSettleDelay),
		ElementTimeout:  config.Millis(cfg.Timing.ElementTimeout),
	}
}

// LoginOptions maps configuration onto the options used for the login window,
// which keeps its own persistent profile.
func LoginOptions(cfg *config.Config) browser.Options {
	opts := BrowserOptions(cfg)
	opts.UserDataDir = cfg.Browser.LoginUserDataDir
	return opts
}

// launchReporter is implemented by sessions that know whether they started
// the browser themselves.
type launchReporter interface {
	Launched() bool
}

// acquire returns the cached session when its tab is still alive, otherwise a
// fresh connection. The second result reports whether a browser was started.
func (r *Runner) acquire(ctx context.Context, logger *slog.Logger) (Browser, bool, error) {
	r.mu.Lock()
	cached := r.session
	r.mu.Unlock()

	if cached != nil {
		if cached.Alive(ctx) {
			logger.Debug("reusing browser session")
			return cached, false, nil
		}
		logger.Info("cached browser session is gone; reconnecting")
		r.mu.Lock()
		if r.session == cached {
			r.session = nil
		}
		r.mu.Unlock()
		cached.Close()
	}

	opts := BrowserOptions(r.cfg)
	opts.Logger = logger
	session, err := r.connect(ctx, opts)
	if err != nil {
		return nil, false, err
	}
	launched := false
	if reporter, ok := session.(launchReporter); ok {
		launched = reporter.Launched()
	}
	logger.Info("browser session ready", logging.Bool("launched", launched))

	r.mu.Lock()
	r.session = session
	r.mu.Unlock()
	return session, launched, nil
}

// dropSession closes the cached session. Callers must hold r.mu.
func (r *Runner) dropSession() {
	if r.session != nil {
		r.session.Close()
		r.session = nil
	}
}
