package browser

import (
	"context"
	"time"
)

// Element is a handle to a node returned by a query.
type Element interface {
	Text() string
	Click(ctx context.Context) error
}

// Scope runs queries against one document: the top-level page or an iframe.
type Scope interface {
	// WaitVisible blocks until sel is visible or timeout elapses.
	WaitVisible(ctx context.Context, sel string, timeout time.Duration) error
	Exists(ctx context.Context, sel string) (bool, error)
	// Fill sets the value of sel and fires input and change events.
	Fill(ctx context.Context, sel, value string) error
	// Check clicks a checkbox or radio only when it is not already checked.
	Check(ctx context.Context, sel string) error
	Click(ctx context.Context, sel string) error
	// SelectByLabel picks the option whose trimmed text equals label.
	SelectByLabel(ctx context.Context, sel, label string) error
	Elements(ctx context.Context, sel string) ([]Element, error)
	SetFiles(ctx context.Context, sel string, files []string) error
	ButtonWithText(ctx context.Context, text string) (Element, bool, error)
}

// Page is a browser tab.
type Page interface {
	Navigate(ctx context.Context, url string, timeout time.Duration) error
	Reload(ctx context.Context, timeout time.Duration) error
	Document() Scope
	// Frame waits up to timeout for an iframe with the given name.
	Frame(ctx context.Context, name string, timeout time.Duration) (Scope, bool, error)
	// FrameWithPrefix waits up to timeout for an iframe whose name starts with prefix.
	FrameWithPrefix(ctx context.Context, prefix string, timeout time.Duration) (Scope, bool, error)
	Frames(ctx context.Context) ([]Scope, error)
}
