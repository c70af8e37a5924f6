// Package browsertest provides an in-memory browser.Page for tests.
package browsertest

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"makeupexam/internal/browser"
)

// ErrMissing is returned for selectors a fake scope was told are absent.
var ErrMissing = errors.New("element not found")

// Call records one interaction with a fake scope or page.
type Call struct {
	Scope    string
	Op       string
	Selector string
	Value    string
}

// Page is a scriptable browser.Page. Frames must be registered before use.
type Page struct {
	mu          sync.Mutex
	calls       []Call
	doc         *Scope
	named       map[string]*Scope
	prefixed    map[string]*Scope
	ordered     []*Scope
	NavigateErr error
	ReloadErr   error
}

var _ browser.Page = (*Page)(nil)

// NewPage returns an empty page with a top-level document scope.
func NewPage() *Page {
	p := &Page{
		named:    make(map[string]*Scope),
		prefixed: make(map[string]*Scope),
	}
	p.doc = newScope(p, "document")
	return p
}

// Doc returns the document scope for scripting.
func (p *Page) Doc() *Scope { return p.doc }

// AddFrame registers an iframe found by exact name.
func (p *Page) AddFrame(name string) *Scope {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := newScope(p, name)
	p.named[name] = s
	p.ordered = append(p.ordered, s)
	return s
}

// AddPrefixFrame registers an iframe found by name prefix.
func (p *Page) AddPrefixFrame(prefix string) *Scope {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := newScope(p, prefix+"*")
	p.prefixed[prefix] = s
	p.ordered = append(p.ordered, s)
	return s
}

// Calls returns a copy of every recorded interaction.
func (p *Page) Calls() []Call {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Call(nil), p.calls...)
}

// CallsFor filters recorded interactions by operation.
func (p *Page) CallsFor(op string) []Call {
	var out []Call
	for _, c := range p.Calls() {
		if c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

func (p *Page) record(c Call) {
	p.mu.Lock()
	p.calls = append(p.calls, c)
	p.mu.Unlock()
}

func (p *Page) Navigate(ctx context.Context, url string, _ time.Duration) error {
	p.record(Call{Scope: "page", Op: "navigate", Value: url})
	if err := ctx.Err(); err != nil {
		return err
	}
	return p.NavigateErr
}

func (p *Page) Reload(ctx context.Context, _ time.Duration) error {
	p.record(Call{Scope: "page", Op: "reload"})
	if err := ctx.Err(); err != nil {
		return err
	}
	return p.ReloadErr
}

func (p *Page) Document() browser.Scope { return p.doc }

func (p *Page) Frame(ctx context.Context, name string, _ time.Duration) (browser.Scope, bool, error) {
	p.record(Call{Scope: "page", Op: "frame", Selector: name})
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if s, ok := p.named[name]; ok {
		return s, true, nil
	}
	return nil, false, nil
}

func (p *Page) FrameWithPrefix(ctx context.Context, prefix string, _ time.Duration) (browser.Scope, bool, error) {
	p.record(Call{Scope: "page", Op: "frame_prefix", Selector: prefix})
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if s, ok := p.prefixed[prefix]; ok {
		return s, true, nil
	}
	return nil, false, nil
}

func (p *Page) Frames(ctx context.Context) ([]browser.Scope, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]browser.Scope, 0, len(p.ordered))
	for _, s := range p.ordered {
		out = append(out, s)
	}
	return out, nil
}

// Scope is a scriptable browser.Scope. By default every selector exists and
// every interaction succeeds; Fail, Absent, Links and Buttons change that.
type Scope struct {
	page *Page
	name string

	mu      sync.Mutex
	fail    map[string]error
	absent  map[string]bool
	present map[string]bool
	links   map[string][]*Element
	buttons []*Element
	values  map[string]string
	checked map[string]bool
	labels  map[string]string
	files   map[string][]string
}

var _ browser.Scope = (*Scope)(nil)

func newScope(p *Page, name string) *Scope {
	return &Scope{
		page:    p,
		name:    name,
		fail:    make(map[string]error),
		absent:  make(map[string]bool),
		present: make(map[string]bool),
		links:   make(map[string][]*Element),
		values:  make(map[string]string),
		checked: make(map[string]bool),
		labels:  make(map[string]string),
		files:   make(map[string][]string),
	}
}

// Fail makes every interaction with sel return err.
func (s *Scope) Fail(sel string, err error) *Scope {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail[sel] = err
	return s
}

// Absent makes sel report as missing.
func (s *Scope) Absent(sel string) *Scope {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.absent[sel] = true
	return s
}

// Present makes Exists report sel. Exists is false for unregistered selectors.
func (s *Scope) Present(sel string) *Scope {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.present[sel] = true
	return s
}

// Links registers the elements returned by Elements(sel).
func (s *Scope) Links(sel string, texts ...string) []*Element {
	s.mu.Lock()
	defer s.mu.Unlock()
	elements := make([]*Element, 0, len(texts))
	for _, text := range texts {
		elements = append(elements, &Element{scope: s, text: text})
	}
	s.links[sel] = elements
	return elements
}

// Buttons registers the elements searched by ButtonWithText.
func (s *Scope) Buttons(texts ...string) []*Element {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buttons = s.buttons[:0]
	for _, text := range texts {
		s.buttons = append(s.buttons, &Element{scope: s, text: text})
	}
	return s.buttons
}

// Value returns the last value filled into sel.
func (s *Scope) Value(sel string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.values[sel]
}

// IsChecked reports whether Check was called for sel.
func (s *Scope) IsChecked(sel string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.checked[sel]
}

// Selected returns the label chosen for sel.
func (s *Scope) Selected(sel string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.labels[sel]
}

// Files returns the files set on sel.
func (s *Scope) Files(sel string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.files[sel]...)
}

func (s *Scope) interact(ctx context.Context, op, sel, value string) error {
	s.page.record(Call{Scope: s.name, Op: op, Selector: sel, Value: value})
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err, ok := s.fail[sel]; ok {
		return err
	}
	if s.absent[sel] {
		return ErrMissing
	}
	return nil
}

func (s *Scope) WaitVisible(ctx context.Context, sel string, _ time.Duration) error {
	return s.interact(ctx, "wait", sel, "")
}

func (s *Scope) Exists(ctx context.Context, sel string) (bool, error) {
	s.page.record(Call{Scope: s.name, Op: "exists", Selector: sel})
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.present[sel] && !s.absent[sel], nil
}

func (s *Scope) Fill(ctx context.Context, sel, value string) error {
	if err := s.interact(ctx, "fill", sel, value); err != nil {
		return err
	}
	s.mu.Lock()
	s.values[sel] = value
	s.mu.Unlock()
	return nil
}

func (s *Scope) Check(ctx context.Context, sel string) error {
	if err := s.interact(ctx, "check", sel, ""); err != nil {
		return err
	}
	s.mu.Lock()
	s.checked[sel] = true
	s.mu.Unlock()
	return nil
}

func (s *Scope) Click(ctx context.Context, sel string) error {
	return s.interact(ctx, "click", sel, "")
}

func (s *Scope) SelectByLabel(ctx context.Context, sel, label string) error {
	if err := s.interact(ctx, "select", sel, label); err != nil {
		return err
	}
	s.mu.Lock()
	s.labels[sel] = label
	s.mu.Unlock()
	return nil
}

func (s *Scope) Elements(ctx context.Context, sel string) ([]browser.Element, error) {
	if err := s.interact(ctx, "elements", sel, ""); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]browser.Element, 0, len(s.links[sel]))
	for _, el := range s.links[sel] {
		out = append(out, el)
	}
	return out, nil
}

func (s *Scope) SetFiles(ctx context.Context, sel string, files []string) error {
	if err := s.interact(ctx, "set_files", sel, strings.Join(files, ",")); err != nil {
		return err
	}
	s.mu.Lock()
	s.files[sel] = append([]string(nil), files...)
	s.mu.Unlock()
	return nil
}

func (s *Scope) ButtonWithText(ctx context.Context, text string) (browser.Element, bool, error) {
	s.page.record(Call{Scope: s.name, Op: "button", Value: text})
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	want := strings.ToLower(text)
	for _, el := range s.buttons {
		if strings.Contains(strings.ToLower(el.text), want) {
			return el, true, nil
		}
	}
	return nil, false, nil
}

// Element is a clickable fake node.
type Element struct {
	scope   *Scope
	text    string
	mu      sync.Mutex
	clicked int
	// ClickErr is returned from Click when set.
	ClickErr error
}

func (e *Element) Text() string { return e.text }

func (e *Element) Click(ctx context.Context) error {
	e.scope.page.record(Call{Scope: e.scope.name, Op: "click_element", Value: e.text})
	if err := ctx.Err(); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.ClickErr != nil {
		return e.ClickErr
	}
	e.clicked++
	return nil
}

// Clicked reports how many times the element was clicked successfully.
func (e *Element) Clicked() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.clicked
}
