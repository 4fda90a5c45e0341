// File: internal/locator/resolver_test.go
package locator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xkilldash9x/dailyembed/internal/browser"
	"github.com/xkilldash9x/dailyembed/internal/browser/browsertest"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const (
	shortWait = 30 * time.Millisecond
	poll      = 2 * time.Millisecond
)

func newResolver(t *testing.T) *Resolver {
	return NewResolver(zaptest.NewLogger(t), poll)
}

func TestResolve(t *testing.T) {
	ctx := context.Background()

	t.Run("returns first visible and enabled candidate", func(t *testing.T) {
		hidden := browsertest.NewElement("a").SetHidden(true)
		disabled := browsertest.NewElement("b").SetDisabled(true)
		good := browsertest.NewElement("c")
		page := browsertest.NewPage().Set("a.link", hidden, disabled, good)

		el, err := newResolver(t).Resolve(ctx, page, CSS{Selector: "a.link"}, shortWait)
		require.NoError(t, err)
		assert.Same(t, good, el)
	})

	t.Run("waits for a late element", func(t *testing.T) {
		page := browsertest.NewPage()
		late := browsertest.NewElement("late")
		timer := time.AfterFunc(5*time.Millisecond, func() { page.Set("#late", late) })
		defer timer.Stop()

		el, err := newResolver(t).Resolve(ctx, page, CSS{Selector: "#late"}, time.Second)
		require.NoError(t, err)
		assert.Same(t, late, el)
	})

	t.Run("nothing matched is a timeout", func(t *testing.T) {
		_, err := newResolver(t).Resolve(ctx, browsertest.NewPage(), CSS{Selector: "#missing"}, shortWait)
		var te *browser.TimeoutError
		require.True(t, errors.As(err, &te))
		assert.False(t, errors.Is(err, ErrNotActionable))
	})

	t.Run("found but unusable is distinct", func(t *testing.T) {
		page := browsertest.NewPage().Set("#btn", browsertest.NewElement("x").SetHidden(true))

		_, err := newResolver(t).Resolve(ctx, page, CSS{Selector: "#btn"}, shortWait)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrNotActionable)
		var nae *NotActionableError
		require.True(t, errors.As(err, &nae))
		assert.Equal(t, 1, nae.Matched)
	})
}

func TestChain(t *testing.T) {
	ctx := context.Background()

	t.Run("first match semantics skip an unusable first strategy", func(t *testing.T) {
		invisible := browsertest.NewElement("Evangelios").SetHidden(true)
		visible := browsertest.NewElement("Evangelios")
		first := CSS{Selector: "a[href*='/evangelios']"}
		second := Attribute{Tag: "a", Attr: "href", Contains: "/evangelios"}
		page := browsertest.NewPage().
			Set(first.Selector, invisible).
			Set(second.XPath(), visible)

		el, idx, err := newResolver(t).Chain(ctx, page, "link", []Strategy{first, second}, shortWait)
		require.NoError(t, err)
		assert.Equal(t, 1, idx)
		assert.Same(t, visible, el)
	})

	t.Run("exhaustion carries every strategy and the last error", func(t *testing.T) {
		strategies := []Strategy{
			CSS{Selector: "#a"},
			Text{Tags: []string{"a", "button"}, Text: "Evangelios"},
		}
		_, idx, err := newResolver(t).Chain(ctx, browsertest.NewPage(), "link", strategies, shortWait)

		assert.Equal(t, -1, idx)
		var exhausted *LocatorExhaustedError
		require.True(t, errors.As(err, &exhausted))
		assert.Equal(t, "link", exhausted.Target)
		assert.Len(t, exhausted.Strategies, 2)
		var te *browser.TimeoutError
		assert.True(t, errors.As(err, &te), "the last timeout propagates")
	})

	t.Run("empty chain synthesizes not found", func(t *testing.T) {
		_, _, err := newResolver(t).Chain(ctx, browsertest.NewPage(), "nothing", nil, shortWait)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("cancellation stops the chain", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, _, err := newResolver(t).Chain(cctx, browsertest.NewPage(), "x", []Strategy{CSS{Selector: "#a"}, CSS{Selector: "#b"}}, shortWait)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestFind(t *testing.T) {
	ctx := context.Background()
	r := newResolver(t)

	_, err := r.Find(ctx, browsertest.NewPage(), CSS{Selector: "#none"})
	assert.ErrorIs(t, err, ErrNotFound)

	page := browsertest.NewPage().Set("#d", browsertest.NewElement("").SetDisabled(true))
	_, err = r.Find(ctx, page, CSS{Selector: "#d"})
	assert.ErrorIs(t, err, ErrNotActionable)

	ok := browsertest.NewElement("ok")
	page.Set("#ok", ok)
	el, err := r.Find(ctx, page, CSS{Selector: "#ok"})
	require.NoError(t, err)
	assert.Same(t, ok, el)
}

func TestPresent(t *testing.T) {
	ctx := context.Background()
	hidden := browsertest.NewElement("Evangelios actuales").SetHidden(true)
	marker := Text{Text: "Evangelios actuales"}
	page := browsertest.NewPage().Set(marker.XPath(), hidden)

	el, err := newResolver(t).Present(ctx, page, marker, shortWait)
	require.NoError(t, err)
	assert.Same(t, hidden, el, "presence ignores visibility")

	_, err = newResolver(t).Present(ctx, browsertest.NewPage(), marker, shortWait)
	var te *browser.TimeoutError
	assert.True(t, errors.As(err, &te))
}
