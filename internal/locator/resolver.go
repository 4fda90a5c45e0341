// File: internal/locator/resolver.go
package locator

import (
	"context"
	"errors"
	"time"

	"github.com/xkilldash9x/dailyembed/internal/browser"
	"github.com/xkilldash9x/dailyembed/internal/observability"
	"go.uber.org/zap"
)

// Resolver turns strategies into usable elements.
type Resolver struct {
	logger *zap.Logger
	poll   time.Duration
}

// NewResolver creates a resolver polling every poll interval.
func NewResolver(logger *zap.Logger, poll time.Duration) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{logger: logger.Named("locator"), poll: poll}
}

// Resolve runs a single strategy, waiting up to timeout for a visible and
// enabled match. It fails with a *browser.TimeoutError when nothing matched
// at all and with a *NotActionableError when only unusable elements did.
func (r *Resolver) Resolve(ctx context.Context, root Searcher, s Strategy, timeout time.Duration) (browser.Element, error) {
	var (
		found   browser.Element
		matched int
	)
	err := browser.WaitUntil(ctx, s.Name(), timeout, r.poll, func(ctx context.Context) (bool, error) {
		candidates, err := s.Candidates(ctx, root)
		if err != nil {
			return false, err
		}
		matched = len(candidates)
		el, err := FirstActionable(ctx, candidates)
		if err != nil {
			return false, err
		}
		found = el
		return el != nil, nil
	})
	if err == nil {
		return found, nil
	}

	var te *browser.TimeoutError
	if errors.As(err, &te) && matched > 0 {
		return nil, &NotActionableError{Strategy: s.Name(), Matched: matched}
	}
	return nil, err
}

// Chain tries strategies in order with timeoutPer each and returns the first
// usable element with the index of the strategy that produced it. target
// names what is being located, for diagnostics.
func (r *Resolver) Chain(ctx context.Context, root Searcher, target string, strategies []Strategy, timeoutPer time.Duration) (browser.Element, int, error) {
	names := make([]string, 0, len(strategies))
	var last error
	for i, s := range strategies {
		names = append(names, s.Name())
		el, err := r.Resolve(ctx, root, s, timeoutPer)
		if err == nil {
			r.logger.Debug("Element located.", observability.Label(target), zap.String("strategy", s.Name()), zap.Int("index", i))
			return el, i, nil
		}
		if ctx.Err() != nil {
			return nil, -1, ctx.Err()
		}
		r.logger.Debug("Strategy failed; advancing.", observability.Label(target), zap.String("strategy", s.Name()), zap.Error(err))
		last = err
	}
	if last == nil {
		last = ErrNotFound
	}
	return nil, -1, &LocatorExhaustedError{Target: target, Strategies: names, Last: last}
}

// Present waits up to timeout for s to match anything and returns the first
// match, visible or not. Text markers only need to exist.
func (r *Resolver) Present(ctx context.Context, root Searcher, s Strategy, timeout time.Duration) (browser.Element, error) {
	var found browser.Element
	err := browser.WaitUntil(ctx, s.Name(), timeout, r.poll, func(ctx context.Context) (bool, error) {
		candidates, err := s.Candidates(ctx, root)
		if err != nil || len(candidates) == 0 {
			return false, err
		}
		found = candidates[0]
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

// Find returns the first usable element for s without waiting.
func (r *Resolver) Find(ctx context.Context, root Searcher, s Strategy) (browser.Element, error) {
	candidates, err := s.Candidates(ctx, root)
	if err != nil {
		return nil, err
	}
	el, err := FirstActionable(ctx, candidates)
	if err != nil {
		return nil, err
	}
	if el == nil {
		if len(candidates) > 0 {
			return nil, &NotActionableError{Strategy: s.Name(), Matched: len(candidates)}
		}
		return nil, ErrNotFound
	}
	return el, nil
}

// FirstActionable returns the first element that is visible and enabled, or
// nil when none is.
func FirstActionable(ctx context.Context, els []browser.Element) (browser.Element, error) {
	for _, el := range els {
		ok, err := Actionable(ctx, el)
		if err != nil {
			// Stale handles are skipped, not fatal.
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			continue
		}
		if ok {
			return el, nil
		}
	}
	return nil, nil
}

// Actionable reports whether el is visible and enabled.
func Actionable(ctx context.Context, el browser.Element) (bool, error) {
	visible, err := el.Visible(ctx)
	if err != nil || !visible {
		return false, err
	}
	return el.Enabled(ctx)
}
