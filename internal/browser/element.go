// internal/browser/element.go
package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

// cdpElement is a remote object handle for a DOM element.
type cdpElement struct {
	page *CDPPage
	id   runtime.RemoteObjectID
}

var _ Element = (*cdpElement)(nil)

func (e *cdpElement) Call(ctx context.Context, fn string) (json.RawMessage, error) {
	var raw json.RawMessage
	err := e.page.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		res, err := callFunctionOn(ctx, e.id, fn, true)
		if err != nil {
			return err
		}
		raw = json.RawMessage(res.Value)
		return nil
	}))
	return raw, err
}

func (e *cdpElement) Text(ctx context.Context) (string, error) {
	return CallAs[string](ctx, e, textFn)
}

func (e *cdpElement) Attribute(ctx context.Context, name string) (string, bool, error) {
	fn := fmt.Sprintf(`function() { return this.hasAttribute(%[1]s) ? this.getAttribute(%[1]s) : null; }`, JSValue(name))
	v, err := CallAs[*string](ctx, e, fn)
	if err != nil || v == nil {
		return "", false, err
	}
	return *v, true, nil
}

func (e *cdpElement) Visible(ctx context.Context) (bool, error) {
	return CallAs[bool](ctx, e, visibleFn)
}

func (e *cdpElement) Enabled(ctx context.Context) (bool, error) {
	return CallAs[bool](ctx, e, enabledFn)
}

type clickPoint struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Hittable bool    `json:"hittable"`
}

// Click scrolls the element into view and dispatches a real mouse click at
// its center. When another node covers that point, or dispatch fails, it
// falls back to a scripted click.
func (e *cdpElement) Click(ctx context.Context) error {
	pt, err := CallAs[clickPoint](ctx, e, prepareClickFn)
	if err != nil {
		return fmt.Errorf("preparing click: %w", err)
	}

	if pt.Hittable {
		err = e.page.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
			if err := input.DispatchMouseEvent(input.MouseMoved, pt.X, pt.Y).Do(ctx); err != nil {
				return err
			}
			if err := input.DispatchMouseEvent(input.MousePressed, pt.X, pt.Y).
				WithButton(input.Left).WithClickCount(1).Do(ctx); err != nil {
				return err
			}
			return input.DispatchMouseEvent(input.MouseReleased, pt.X, pt.Y).
				WithButton(input.Left).WithClickCount(1).Do(ctx)
		}))
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		e.page.logger.Debug("Pointer click failed; using scripted click.", zap.Error(err))
	}

	if _, err := e.Call(ctx, jsClickFn); err != nil {
		return fmt.Errorf("scripted click: %w", err)
	}
	return nil
}

func (e *cdpElement) Clear(ctx context.Context) error {
	ok, err := CallAs[bool](ctx, e, clearFn)
	if err != nil {
		return fmt.Errorf("clearing element: %w", err)
	}
	if !ok {
		return errors.New("clearing element: element is disabled or read-only")
	}
	return nil
}

func (e *cdpElement) focus(ctx context.Context) error {
	if _, err := CallAs[bool](ctx, e, focusFn); err != nil {
		return fmt.Errorf("focusing element: %w", err)
	}
	return nil
}

func (e *cdpElement) Type(ctx context.Context, text string) error {
	if err := e.focus(ctx); err != nil {
		return err
	}
	return e.page.run(ctx, chromedp.KeyEvent(text))
}

func (e *cdpElement) Press(ctx context.Context, key Key) error {
	if err := e.focus(ctx); err != nil {
		return err
	}
	return e.page.run(ctx, chromedp.KeyEvent(string(key)))
}

func (e *cdpElement) Find(ctx context.Context, q Query) ([]Element, error) {
	var out []Element
	err := e.page.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		fn := fmt.Sprintf("function() { return (%s)(this, %s, %s); }", findFn, JSValue(queryKind(q)), JSValue(q.Expr))
		arr, err := callFunctionOn(ctx, e.id, fn, false)
		if err != nil {
			return err
		}
		out, err = e.page.collect(ctx, arr)
		return err
	}))
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", q, err)
	}
	return out, nil
}
