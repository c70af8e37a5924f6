package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"

	"makeupexam/internal/logging"
	"makeupexam/internal/services"
)

const (
	defaultElementTimeout = 10 * time.Second
	defaultLaunchTimeout  = 15 * time.Second
)

// Options configures how a session is attached or launched.
type Options struct {
	Endpoint        string
	ExecPath        string
	UserDataDir     string
	DebugPort       int
	WindowPosition  string
	WindowWidth     int
	WindowHeight    int
	LaunchOnFailure bool
	Headless        bool
	// ExtraArgs are appended to the command line of launched browsers.
	ExtraArgs []string
	// SettleDelay is waited before the first attach attempt.
	SettleDelay    time.Duration
	ElementTimeout time.Duration
	LaunchTimeout  time.Duration
	Logger         *slog.Logger
}

func (o Options) elementTimeout() time.Duration {
	if o.ElementTimeout > 0 {
		return o.ElementTimeout
	}
	return defaultElementTimeout
}

func (o Options) launchTimeout() time.Duration {
	if o.LaunchTimeout > 0 {
		return o.LaunchTimeout
	}
	return defaultLaunchTimeout
}

// LocalEndpoint is the DevTools endpoint of a browser started by this package.
func (o Options) LocalEndpoint() string {
	port := o.DebugPort
	if port <= 0 {
		port = 9222
	}
	return fmt.Sprintf("http://127.0.0.1:%d", port)
}

// Session is an attached browser tab.
type Session struct {
	ctx            context.Context
	cancelTab      context.CancelFunc
	cancelAlloc    context.CancelFunc
	endpoint       string
	launched       bool
	elementTimeout time.Duration
	logger         *slog.Logger
}

var _ Page = (*Session)(nil)

// Connect attaches to the browser at opts.Endpoint. When nothing answers and
// LaunchOnFailure is set, a detached headful Chrome is started with the
// remote debugging port and the session attaches to it instead.
func Connect(ctx context.Context, opts Options) (*Session, error) {
	logger := logging.NewComponentLogger(opts.Logger, "browser")
	endpoint := strings.TrimSpace(opts.Endpoint)
	if endpoint == "" {
		endpoint = opts.LocalEndpoint()
	}

	if err := sleep(ctx, opts.SettleDelay); err != nil {
		return nil, err
	}

	session, err := attach(ctx, endpoint, opts)
	if err == nil {
		logger.Info("attached to browser", logging.String("endpoint", endpoint))
		return session, nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if !opts.LaunchOnFailure {
		return nil, services.Wrap(services.ErrBrowser, "browser", "attach", endpoint, err)
	}

	logging.WarnWithContext(logger, "cdp attach failed; launching browser", "browser_attach_failed",
		logging.String("endpoint", endpoint),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "start Chrome with --remote-debugging-port to reuse an existing login"),
		logging.String(logging.FieldImpact, "a new browser window opens and may require signing in"),
	)

	pid, launchErr := StartDetached(opts, opts.UserDataDir, "about:blank")
	if launchErr != nil {
		return nil, services.Wrap(services.ErrBrowser, "browser", "launch", "", errors.Join(err, launchErr))
	}
	local := opts.LocalEndpoint()
	if _, err := WaitForEndpoint(ctx, local, opts.launchTimeout()); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		marker := services.ErrBrowser
		if services.IsTimeout(err) {
			marker = services.ErrTimeout
		}
		return nil, services.Wrap(marker, "browser", "launch", fmt.Sprintf("browser pid %d never answered on %s", pid, local), err)
	}
	session, err = attach(ctx, local, opts)
	if err != nil {
		return nil, services.Wrap(services.ErrBrowser, "browser", "attach", local, err)
	}
	session.launched = true
	logger.Info("launched browser", logging.Int("pid", pid), logging.String("endpoint", local))
	return session, nil
}

func attach(ctx context.Context, endpoint string, opts Options) (*Session, error) {
	allocURL := endpoint
	var allocOpts []chromedp.RemoteAllocatorOption
	if parsed, err := url.Parse(endpoint); err == nil && (parsed.Scheme == "http" || parsed.Scheme == "https") {
		version, err := QueryVersion(ctx, endpoint)
		if err != nil {
			return nil, err
		}
		if version.WebSocketDebuggerURL == "" {
			return nil, fmt.Errorf("%s did not report a websocket debugger url", endpoint)
		}
		allocURL = version.WebSocketDebuggerURL
		allocOpts = append(allocOpts, chromedp.NoModifyURL)
	}

	// The allocator outlives the caller's context; the tab stays attached
	// across requests until Close.
	allocCtx, cancelAlloc := chromedp.NewRemoteAllocator(context.Background(), allocURL, allocOpts...)
	stop := context.AfterFunc(ctx, cancelAlloc)
	defer stop()

	targetID, err := firstPageTarget(allocCtx)
	if err != nil {
		cancelAlloc()
		return nil, fmt.Errorf("list targets: %w", err)
	}

	var tabCtx context.Context
	var cancelTab context.CancelFunc
	if targetID != "" {
		tabCtx, cancelTab = chromedp.NewContext(allocCtx, chromedp.WithTargetID(targetID))
	} else {
		tabCtx, cancelTab = chromedp.NewContext(allocCtx)
	}
	if err := chromedp.Run(tabCtx); err != nil {
		cancelTab()
		cancelAlloc()
		return nil, fmt.Errorf("attach to page: %w", err)
	}
	if ctx.Err() != nil {
		cancelTab()
		cancelAlloc()
		return nil, ctx.Err()
	}

	return &Session{
		ctx:            tabCtx,
		cancelTab:      cancelTab,
		cancelAlloc:    cancelAlloc,
		endpoint:       endpoint,
		elementTimeout: opts.elementTimeout(),
		logger:         logging.NewComponentLogger(opts.Logger, "browser"),
	}, nil
}

func firstPageTarget(allocCtx context.Context) (target.ID, error) {
	listCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	targets, err := chromedp.Targets(listCtx)
	if err != nil {
		return "", err
	}
	for _, t := range targets {
		if t.Type == "page" {
			return t.TargetID, nil
		}
	}
	return "", nil
}

// Endpoint reports the DevTools endpoint the session is attached to.
func (s *Session) Endpoint() string { return s.endpoint }

// Launched reports whether the browser was started by Connect.
func (s *Session) Launched() bool { return s.launched }

// Alive reports whether the tab still answers.
func (s *Session) Alive(ctx context.Context) bool {
	if s == nil || s.ctx.Err() != nil {
		return false
	}
	var state string
	return s.run(ctx, 2*time.Second, chromedp.Evaluate(`document.readyState`, &state)) == nil
}

// Close drops the DevTools connection. The tab was attached, not created by
// this context, so the browser keeps it open.
func (s *Session) Close() {
	if s == nil {
		return
	}
	if s.cancelTab != nil {
		s.cancelTab()
	}
	if s.cancelAlloc != nil {
		s.cancelAlloc()
	}
}

// run executes actions on the tab, bounded by timeout and the caller's context.
func (s *Session) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if timeout <= 0 {
		timeout = s.elementTimeout
	}
	runCtx, cancel := context.WithTimeout(s.ctx, timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	err := chromedp.Run(runCtx, actions...)
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	if err != nil && errors.Is(err, context.DeadlineExceeded) {
		return services.Wrap(services.ErrTimeout, "browser", "wait", timeout.String(), err)
	}
	return err
}

func (s *Session) Navigate(ctx context.Context, url string, timeout time.Duration) error {
	if err := s.run(ctx, timeout, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	return nil
}

func (s *Session) Reload(ctx context.Context, timeout time.Duration) error {
	if err := s.run(ctx, timeout, chromedp.Reload()); err != nil {
		return fmt.Errorf("reload: %w", err)
	}
	return nil
}

func (s *Session) Document() Scope {
	return &cdpScope{session: s, label: "document"}
}

func (s *Session) Frame(ctx context.Context, name string, timeout time.Duration) (Scope, bool, error) {
	return s.waitFrame(ctx, fmt.Sprintf(`iframe[name=%q]`, name), timeout)
}

func (s *Session) FrameWithPrefix(ctx context.Context, prefix string, timeout time.Duration) (Scope, bool, error) {
	return s.waitFrame(ctx, fmt.Sprintf(`iframe[name^=%q]`, prefix), timeout)
}

func (s *Session) waitFrame(ctx context.Context, sel string, timeout time.Duration) (Scope, bool, error) {
	var nodes []*cdp.Node
	err := s.run(ctx, timeout, chromedp.Nodes(sel, &nodes, chromedp.ByQuery))
	switch {
	case err == nil && len(nodes) > 0:
		return &cdpScope{session: s, frameSel: sel, label: sel}, true, nil
	case err == nil, services.IsTimeout(err) && ctx.Err() == nil:
		return nil, false, nil
	default:
		return nil, false, fmt.Errorf("wait for %s: %w", sel, err)
	}
}

func (s *Session) Frames(ctx context.Context) ([]Scope, error) {
	var nodes []*cdp.Node
	if err := s.run(ctx, 0, chromedp.Nodes("iframe", &nodes, chromedp.ByQueryAll, chromedp.AtLeast(0))); err != nil {
		return nil, fmt.Errorf("list frames: %w", err)
	}
	scopes := make([]Scope, 0, len(nodes))
	for _, node := range nodes {
		label := "iframe"
		if name := node.AttributeValue("name"); name != "" {
			label = fmt.Sprintf("iframe %s", name)
		}
		scopes = append(scopes, &cdpScope{session: s, frameNode: node, label: label})
	}
	return scopes, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
