// internal/browser/page.go
package browser

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

const objectGroup = "dailyembed"

// CDPPage drives a single chromedp tab.
type CDPPage struct {
	tab             context.Context
	logger          *zap.Logger
	pageLoadTimeout time.Duration
}

var _ Page = (*CDPPage)(nil)

// NewCDPPage wraps an already started chromedp tab context.
func NewCDPPage(tab context.Context, logger *zap.Logger, pageLoadTimeout time.Duration) *CDPPage {
	if pageLoadTimeout <= 0 {
		pageLoadTimeout = 90 * time.Second
	}
	return &CDPPage{tab: tab, logger: logger.Named("page"), pageLoadTimeout: pageLoadTimeout}
}

// run executes actions on the tab under the caller's cancellation and deadline.
func (p *CDPPage) run(ctx context.Context, actions ...chromedp.Action) error {
	opCtx, cancel := CombineContext(p.tab, ctx)
	defer cancel()

	err := chromedp.Run(opCtx, actions...)
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

func (p *CDPPage) Navigate(ctx context.Context, url string) error {
	p.logger.Debug("Loading page.", zap.String("url", url))
	navCtx, cancel := context.WithTimeout(ctx, p.pageLoadTimeout)
	defer cancel()

	if err := p.run(navCtx, chromedp.Navigate(url)); err != nil {
		if errors.Is(navCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return fmt.Errorf("page load of %s timed out after %s: %w", url, p.pageLoadTimeout, context.DeadlineExceeded)
		}
		return fmt.Errorf("page load of %s failed: %w", url, err)
	}
	return nil
}

func (p *CDPPage) Stop(ctx context.Context) error {
	return p.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		return page.StopLoading().Do(ctx)
	}))
}

func (p *CDPPage) CurrentURL(ctx context.Context) (string, error) {
	var u string
	if err := p.run(ctx, chromedp.Location(&u)); err != nil {
		return "", fmt.Errorf("reading location: %w", err)
	}
	return u, nil
}

func (p *CDPPage) Source(ctx context.Context) (string, error) {
	var html string
	err := p.run(ctx, chromedp.Evaluate(
		`document.documentElement ? document.documentElement.outerHTML : ""`, &html))
	if err != nil {
		return "", fmt.Errorf("reading page source: %w", err)
	}
	return html, nil
}

func (p *CDPPage) Screenshot(ctx context.Context) ([]byte, error) {
	var buf []byte
	if err := p.run(ctx, chromedp.CaptureScreenshot(&buf)); err != nil {
		return nil, fmt.Errorf("capturing screenshot: %w", err)
	}
	return buf, nil
}

func (p *CDPPage) Find(ctx context.Context, q Query) ([]Element, error) {
	var out []Element
	err := p.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		expr := fmt.Sprintf("(%s)(document, %s, %s)", findFn, JSValue(queryKind(q)), JSValue(q.Expr))
		arr, exc, err := runtime.Evaluate(expr).
			WithObjectGroup(objectGroup).
			WithReturnByValue(false).
			Do(ctx)
		if err != nil {
			return err
		}
		if exc != nil {
			return &ScriptError{Message: exceptionText(exc)}
		}
		out, err = p.collect(ctx, arr)
		return err
	}))
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", q, err)
	}
	return out, nil
}

func (p *CDPPage) Press(ctx context.Context, key Key) error {
	return p.run(ctx, chromedp.KeyEvent(string(key)))
}

// release drops every remote object handed out by this page.
func (p *CDPPage) release(ctx context.Context) error {
	return p.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		return runtime.ReleaseObjectGroup(objectGroup).Do(ctx)
	}))
}

// collect turns a remote array of nodes into element handles and frees the array.
func (p *CDPPage) collect(ctx context.Context, arr *runtime.RemoteObject) ([]Element, error) {
	if arr == nil || arr.ObjectID == "" {
		return nil, nil
	}
	defer func() { _ = runtime.ReleaseObject(arr.ObjectID).Do(ctx) }()

	lengthObj, err := callFunctionOn(ctx, arr.ObjectID, `function() { return this.length; }`, true)
	if err != nil {
		return nil, err
	}
	var n int
	if err := Decode([]byte(lengthObj.Value), &n); err != nil {
		return nil, err
	}

	elements := make([]Element, 0, n)
	for i := 0; i < n; i++ {
		item, err := callFunctionOn(ctx, arr.ObjectID, fmt.Sprintf(`function() { return this[%d]; }`, i), false)
		if err != nil {
			return nil, err
		}
		if item.ObjectID == "" {
			continue
		}
		elements = append(elements, &cdpElement{page: p, id: item.ObjectID})
	}
	return elements, nil
}

func callFunctionOn(ctx context.Context, id runtime.RemoteObjectID, fn string, byValue bool) (*runtime.RemoteObject, error) {
	res, exc, err := runtime.CallFunctionOn(fn).
		WithObjectID(id).
		WithObjectGroup(objectGroup).
		WithReturnByValue(byValue).
		WithAwaitPromise(true).
		Do(ctx)
	if err != nil {
		return nil, err
	}
	if exc != nil {
		return nil, &ScriptError{Message: exceptionText(exc)}
	}
	return res, nil
}

func exceptionText(exc *runtime.ExceptionDetails) string {
	if exc.Exception != nil && exc.Exception.Description != "" {
		return exc.Exception.Description
	}
	return exc.Text
}

func queryKind(q Query) string {
	if q.Kind == XPath {
		return "xpath"
	}
	return "css"
}
