// internal/browser/interface.go
package browser

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/chromedp/chromedp/kb"
)

// QueryKind selects the selector language of a Query.
type QueryKind int

const (
	CSS QueryKind = iota
	XPath
)

// Query is a selector evaluated either against the whole document or, when
// passed to Element.Find, relative to an element.
type Query struct {
	Kind QueryKind
	Expr string
}

// ByCSS builds a CSS selector query.
func ByCSS(expr string) Query { return Query{Kind: CSS, Expr: expr} }

// ByXPath builds an XPath query. Relative expressions such as
// "ancestor::form[1]" are evaluated with the receiving element as context node.
func ByXPath(expr string) Query { return Query{Kind: XPath, Expr: expr} }

func (q Query) String() string {
	if q.Kind == XPath {
		return "xpath=" + q.Expr
	}
	return "css=" + q.Expr
}

// Key is a keyboard key dispatched to the focused element.
type Key string

const (
	KeyEnter  Key = kb.Enter
	KeyEscape Key = kb.Escape
)

// Element is a live handle to a node in the current document. Handles go
// stale on navigation; callers re-query after every page transition.
type Element interface {
	Text(ctx context.Context) (string, error)
	// Attribute returns the attribute value and whether it is present.
	Attribute(ctx context.Context, name string) (string, bool, error)
	Visible(ctx context.Context) (bool, error)
	Enabled(ctx context.Context) (bool, error)
	Click(ctx context.Context) error
	Clear(ctx context.Context) error
	Type(ctx context.Context, text string) error
	Press(ctx context.Context, key Key) error
	// Find runs q with this element as the query root.
	Find(ctx context.Context, q Query) ([]Element, error)
	// Call invokes the JavaScript function source fn with this bound to the
	// element and returns its JSON-serialized result. Scripts must return
	// plain values, never nodes.
	Call(ctx context.Context, fn string) (json.RawMessage, error)
}

// Page is the browsing context capability set the workflow drives.
type Page interface {
	// Navigate performs a full page load and blocks until the load event.
	Navigate(ctx context.Context, url string) error
	// Stop aborts any in-flight load.
	Stop(ctx context.Context) error
	CurrentURL(ctx context.Context) (string, error)
	Source(ctx context.Context) (string, error)
	Screenshot(ctx context.Context) ([]byte, error)
	// Find runs q against the document without waiting.
	Find(ctx context.Context, q Query) ([]Element, error)
	Press(ctx context.Context, key Key) error
}

// ScriptError reports an exception thrown by an injected script.
type ScriptError struct {
	Message string
}

func (e *ScriptError) Error() string {
	return fmt.Sprintf("script exception: %s", e.Message)
}
