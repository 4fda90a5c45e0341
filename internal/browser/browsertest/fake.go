// internal/browser/browsertest/fake.go

// Package browsertest provides an in-memory browser.Page for exercising
// workflow logic without Chrome. Queries are matched by their exact
// expression string, so tests register elements under the same selector the
// code under test asks for.
package browsertest

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/xkilldash9x/dailyembed/internal/browser"
)

// Page is a scriptable fake browsing context.
type Page struct {
	mu sync.Mutex

	url      string
	html     string
	elements map[string][]*Element
	findErrs map[string]error

	// NavigateFunc replaces the default navigation behavior, which sets the
	// current URL. Returning an error simulates a failed load.
	NavigateFunc func(ctx context.Context, p *Page, url string) error
	// ScreenshotErr and SourceErr simulate diagnostic capture failures.
	ScreenshotErr error
	SourceErr     error

	Navigations []string
	Stops       int
	Keys        []browser.Key
}

var _ browser.Page = (*Page)(nil)

// NewPage returns an empty page at about:blank.
func NewPage() *Page {
	return &Page{
		url:      "about:blank",
		elements: make(map[string][]*Element),
		findErrs: make(map[string]error),
	}
}

// SetURL moves the page without recording a navigation.
func (p *Page) SetURL(u string) *Page {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.url = u
	return p
}

// SetHTML sets the markup returned by Source.
func (p *Page) SetHTML(h string) *Page {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.html = h
	return p
}

// Set replaces the elements returned for expr.
func (p *Page) Set(expr string, els ...*Element) *Page {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.elements[expr] = els
	return p
}

// Clear removes every element registered under expr.
func (p *Page) Clear(expr string) *Page {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.elements, expr)
	return p
}

// FailFind makes Find(expr) return err.
func (p *Page) FailFind(expr string, err error) *Page {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.findErrs[expr] = err
	return p
}

// NavigationCount returns how many loads were attempted.
func (p *Page) NavigationCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.Navigations)
}

func (p *Page) Navigate(ctx context.Context, url string) error {
	p.mu.Lock()
	p.Navigations = append(p.Navigations, url)
	fn := p.NavigateFunc
	p.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	if fn != nil {
		return fn(ctx, p, url)
	}
	p.SetURL(url)
	return nil
}

func (p *Page) Stop(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Stops++
	return nil
}

func (p *Page) CurrentURL(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.url, nil
}

func (p *Page) Source(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.SourceErr != nil {
		return "", p.SourceErr
	}
	return p.html, nil
}

func (p *Page) Screenshot(ctx context.Context) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ScreenshotErr != nil {
		return nil, p.ScreenshotErr
	}
	return []byte("\x89PNG fake"), nil
}

func (p *Page) Find(ctx context.Context, q browser.Query) ([]browser.Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.findErrs[q.Expr]; err != nil {
		return nil, err
	}
	return toElements(p.elements[q.Expr]), nil
}

func (p *Page) Press(ctx context.Context, key browser.Key) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Keys = append(p.Keys, key)
	return nil
}

// Element is a fake DOM element.
type Element struct {
	mu sync.Mutex

	text     string
	attrs    map[string]string
	hidden   bool
	disabled bool
	children map[string][]*Element

	// OnClick runs on every click. Returning an error fails the click.
	OnClick func() error
	// OnPress runs for every key pressed on the element.
	OnPress func(key browser.Key)
	// CallFunc answers injected scripts. Unset, Call returns null.
	CallFunc func(fn string) (json.RawMessage, error)

	Clicks  int
	Clears  int
	Value   string
	Pressed []browser.Key
	Scripts []string
}

var _ browser.Element = (*Element)(nil)

// NewElement returns a visible, enabled element with the given text.
func NewElement(text string) *Element {
	return &Element{
		text:     text,
		attrs:    make(map[string]string),
		children: make(map[string][]*Element),
	}
}

func (e *Element) WithAttr(name, value string) *Element {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.attrs[name] = value
	return e
}

func (e *Element) RemoveAttr(name string) *Element {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.attrs, name)
	return e
}

func (e *Element) SetHidden(h bool) *Element {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.hidden = h
	return e
}

func (e *Element) SetDisabled(d bool) *Element {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.disabled = d
	return e
}

// WithChild registers els as the result of Find(expr) on this element.
func (e *Element) WithChild(expr string, els ...*Element) *Element {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.children[expr] = els
	return e
}

func (e *Element) ClickCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.Clicks
}

func (e *Element) Text(ctx context.Context) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.text, nil
}

func (e *Element) Attribute(ctx context.Context, name string) (string, bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	v, ok := e.attrs[name]
	return v, ok, nil
}

func (e *Element) Visible(ctx context.Context) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return !e.hidden, nil
}

func (e *Element) Enabled(ctx context.Context) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return !e.disabled, nil
}

func (e *Element) Click(ctx context.Context) error {
	e.mu.Lock()
	e.Clicks++
	fn := e.OnClick
	e.mu.Unlock()
	if fn != nil {
		return fn()
	}
	return nil
}

func (e *Element) Clear(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.disabled {
		return errors.New("element is disabled")
	}
	e.Clears++
	e.Value = ""
	return nil
}

func (e *Element) Type(ctx context.Context, text string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Value += text
	return nil
}

func (e *Element) Press(ctx context.Context, key browser.Key) error {
	e.mu.Lock()
	e.Pressed = append(e.Pressed, key)
	fn := e.OnPress
	e.mu.Unlock()
	if fn != nil {
		fn(key)
	}
	return nil
}

func (e *Element) Find(ctx context.Context, q browser.Query) ([]browser.Element, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return toElements(e.children[q.Expr]), nil
}

func (e *Element) Call(ctx context.Context, fn string) (json.RawMessage, error) {
	e.mu.Lock()
	e.Scripts = append(e.Scripts, fn)
	call := e.CallFunc
	e.mu.Unlock()
	if call == nil {
		return json.RawMessage("null"), nil
	}
	return call(fn)
}

func toElements(els []*Element) []browser.Element {
	out := make([]browser.Element, len(els))
	for i, el := range els {
		out[i] = el
	}
	return out
}
