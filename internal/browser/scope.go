package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"github.com/mailru/easyjson"
)

const buttonSelector = `button, input[type="button"], input[type="submit"]`

// cdpScope queries either the top-level document or one iframe. Frames named
// by selector are re-resolved on every call because PeopleSoft replaces the
// iframe document after most postbacks.
type cdpScope struct {
	session   *Session
	frameSel  string
	frameNode *cdp.Node
	label     string
}

var _ Scope = (*cdpScope)(nil)

func (s *cdpScope) root(ctx context.Context) ([]chromedp.QueryOption, error) {
	switch {
	case s.frameNode != nil:
		return []chromedp.QueryOption{chromedp.FromNode(frameDocument(s.frameNode))}, nil
	case s.frameSel != "":
		var frames []*cdp.Node
		if err := chromedp.Nodes(s.frameSel, &frames, chromedp.ByQuery).Do(ctx); err != nil {
			return nil, fmt.Errorf("locate %s: %w", s.label, err)
		}
		return []chromedp.QueryOption{chromedp.FromNode(frameDocument(frames[0]))}, nil
	default:
		return nil, nil
	}
}

// frameDocument returns the content document of an iframe node, or node itself
// when the document has not been reported yet.
func frameDocument(node *cdp.Node) *cdp.Node {
	if node.ContentDocument != nil {
		return node.ContentDocument
	}
	return node
}

func (s *cdpScope) do(ctx context.Context, timeout time.Duration, sel string, fn func(ctx context.Context, opts []chromedp.QueryOption) error) error {
	err := s.session.run(ctx, timeout, chromedp.ActionFunc(func(ctx context.Context) error {
		opts, err := s.root(ctx)
		if err != nil {
			return err
		}
		return fn(ctx, opts)
	}))
	if err != nil {
		return fmt.Errorf("%s in %s: %w", sel, s.label, err)
	}
	return nil
}

func (s *cdpScope) node(ctx context.Context, sel string, opts []chromedp.QueryOption) (*cdp.Node, error) {
	var nodes []*cdp.Node
	queryOpts := append([]chromedp.QueryOption{chromedp.ByQuery}, opts...)
	if err := chromedp.Nodes(sel, &nodes, queryOpts...).Do(ctx); err != nil {
		return nil, err
	}
	return nodes[0], nil
}

func (s *cdpScope) all(ctx context.Context, sel string, opts []chromedp.QueryOption) ([]*cdp.Node, error) {
	var nodes []*cdp.Node
	queryOpts := append([]chromedp.QueryOption{chromedp.ByQueryAll, chromedp.AtLeast(0)}, opts...)
	if err := chromedp.Nodes(sel, &nodes, queryOpts...).Do(ctx); err != nil {
		return nil, err
	}
	return nodes, nil
}

func (s *cdpScope) WaitVisible(ctx context.Context, sel string, timeout time.Duration) error {
	return s.do(ctx, timeout, sel, func(ctx context.Context, opts []chromedp.QueryOption) error {
		return chromedp.WaitVisible(sel, append([]chromedp.QueryOption{chromedp.ByQuery}, opts...)...).Do(ctx)
	})
}

func (s *cdpScope) Exists(ctx context.Context, sel string) (bool, error) {
	var found bool
	err := s.do(ctx, 0, sel, func(ctx context.Context, opts []chromedp.QueryOption) error {
		nodes, err := s.all(ctx, sel, opts)
		found = len(nodes) > 0
		return err
	})
	return found, err
}

func (s *cdpScope) Fill(ctx context.Context, sel, value string) error {
	return s.do(ctx, 0, sel, func(ctx context.Context, opts []chromedp.QueryOption) error {
		node, err := s.node(ctx, sel, opts)
		if err != nil {
			return err
		}
		return callOn(ctx, node, fillFunction, nil, value)
	})
}

func (s *cdpScope) Check(ctx context.Context, sel string) error {
	return s.do(ctx, 0, sel, func(ctx context.Context, opts []chromedp.QueryOption) error {
		node, err := s.node(ctx, sel, opts)
		if err != nil {
			return err
		}
		var checked bool
		if err := callOn(ctx, node, checkFunction, &checked); err != nil {
			return err
		}
		if !checked {
			return fmt.Errorf("element did not become checked")
		}
		return nil
	})
}

func (s *cdpScope) Click(ctx context.Context, sel string) error {
	return s.do(ctx, 0, sel, func(ctx context.Context, opts []chromedp.QueryOption) error {
		return chromedp.Click(sel, append([]chromedp.QueryOption{chromedp.ByQuery}, opts...)...).Do(ctx)
	})
}

func (s *cdpScope) SelectByLabel(ctx context.Context, sel, label string) error {
	return s.do(ctx, 0, sel, func(ctx context.Context, opts []chromedp.QueryOption) error {
		node, err := s.node(ctx, sel, opts)
		if err != nil {
			return err
		}
		var selected bool
		if err := callOn(ctx, node, selectByLabelFunction, &selected, label); err != nil {
			return err
		}
		if !selected {
			return fmt.Errorf("no option labelled %q", label)
		}
		return nil
	})
}

func (s *cdpScope) Elements(ctx context.Context, sel string) ([]Element, error) {
	var elements []Element
	err := s.do(ctx, 0, sel, func(ctx context.Context, opts []chromedp.QueryOption) error {
		nodes, err := s.all(ctx, sel, opts)
		if err != nil {
			return err
		}
		elements, err = s.wrap(ctx, nodes)
		return err
	})
	return elements, err
}

func (s *cdpScope) SetFiles(ctx context.Context, sel string, files []string) error {
	return s.do(ctx, 0, sel, func(ctx context.Context, opts []chromedp.QueryOption) error {
		return chromedp.SetUploadFiles(sel, files, append([]chromedp.QueryOption{chromedp.ByQuery}, opts...)...).Do(ctx)
	})
}

func (s *cdpScope) ButtonWithText(ctx context.Context, text string) (Element, bool, error) {
	want := strings.ToLower(strings.TrimSpace(text))
	var found Element
	err := s.do(ctx, 0, buttonSelector, func(ctx context.Context, opts []chromedp.QueryOption) error {
		nodes, err := s.all(ctx, buttonSelector, opts)
		if err != nil {
			return err
		}
		elements, err := s.wrap(ctx, nodes)
		if err != nil {
			return err
		}
		for _, el := range elements {
			if strings.Contains(strings.ToLower(el.Text()), want) {
				found = el
				return nil
			}
		}
		return nil
	})
	return found, found != nil, err
}

func (s *cdpScope) wrap(ctx context.Context, nodes []*cdp.Node) ([]Element, error) {
	elements := make([]Element, 0, len(nodes))
	for _, node := range nodes {
		var text string
		if err := callOn(ctx, node, textFunction, &text); err != nil {
			return nil, err
		}
		elements = append(elements, &cdpElement{session: s.session, node: node, text: text})
	}
	return elements, nil
}

type cdpElement struct {
	session *Session
	node    *cdp.Node
	text    string
}

func (e *cdpElement) Text() string { return e.text }

// Click scrolls the node into view and sends a real mouse click, falling back
// to a DOM click for nodes without a layout box.
func (e *cdpElement) Click(ctx context.Context) error {
	return e.session.run(ctx, 0, chromedp.ActionFunc(func(ctx context.Context) error {
		if err := dom.ScrollIntoViewIfNeeded().WithNodeID(e.node.NodeID).Do(ctx); err == nil {
			if err := chromedp.MouseClickNode(e.node).Do(ctx); err == nil {
				return nil
			}
		}
		return callOn(ctx, e.node, clickFunction, nil)
	}))
}

// callOn invokes fn with this bound to node. args are JSON encoded; a non-nil
// res receives the JSON decoded return value.
func callOn(ctx context.Context, node *cdp.Node, fn string, res any, args ...any) error {
	obj, err := dom.ResolveNode().WithNodeID(node.NodeID).Do(ctx)
	if err != nil {
		return fmt.Errorf("resolve node: %w", err)
	}
	defer func() { _ = runtime.ReleaseObject(obj.ObjectID).Do(ctx) }()

	call := runtime.CallFunctionOn(fn).WithObjectID(obj.ObjectID).WithReturnByValue(true)
	if len(args) > 0 {
		callArgs := make([]*runtime.CallArgument, 0, len(args))
		for _, arg := range args {
			raw, err := json.Marshal(arg)
			if err != nil {
				return fmt.Errorf("encode argument: %w", err)
			}
			callArgs = append(callArgs, &runtime.CallArgument{Value: easyjson.RawMessage(raw)})
		}
		call = call.WithArguments(callArgs)
	}
	value, exception, err := call.Do(ctx)
	if err != nil {
		return err
	}
	if exception != nil {
		return exception
	}
	if res == nil || value == nil || len(value.Value) == 0 {
		return nil
	}
	return json.Unmarshal(value.Value, res)
}
