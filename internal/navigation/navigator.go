// File: internal/navigation/navigator.go
package navigation

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/xkilldash9x/dailyembed/internal/browser"
	"github.com/xkilldash9x/dailyembed/internal/config"
	"github.com/xkilldash9x/dailyembed/internal/observability"
	"go.uber.org/zap"
)

// stopTimeout bounds the best-effort abort of an in-flight load.
const stopTimeout = 5 * time.Second

// Target is a page to load. Label only appears in logs and errors.
type Target struct {
	URL   string
	Label string
}

// Navigator performs page loads with a bounded retry policy.
type Navigator struct {
	page   browser.Page
	cfg    config.NavigationConfig
	logger *zap.Logger
}

// NewNavigator creates a navigator driving page.
func NewNavigator(page browser.Page, cfg config.NavigationConfig, logger *zap.Logger) *Navigator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Navigator{page: page, cfg: cfg, logger: logger.Named("navigator")}
}

// Navigate loads target, retrying transient failures. Between attempts the
// in-flight load is stopped and the navigator waits the configured delay.
// It returns a *NavigationError once every attempt failed.
func (n *Navigator) Navigate(ctx context.Context, target Target) error {
	label := target.Label
	if label == "" {
		label = target.URL
	}
	maxAttempts := n.cfg.MaxAttempts()

	attempt := 0
	var lastErr error
	operation := func() error {
		attempt++
		n.logger.Info("Navigating.",
			observability.Phase(observability.PhaseNavigate),
			observability.Label(label),
			observability.URL(target.URL),
			observability.Attempt(attempt),
		)

		err := n.page.Navigate(ctx, target.URL)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return backoff.Permanent(ctx.Err())
		}
		lastErr = err
		return err
	}
	notify := func(err error, wait time.Duration) {
		n.logger.Warn("Page load failed; retrying.",
			observability.Label(label),
			observability.Attempt(attempt),
			zap.Duration("retry_wait", wait),
			zap.Error(err),
		)
		n.stop(ctx)
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(n.cfg.RetryWait), uint64(maxAttempts-1)),
		ctx,
	)
	if err := backoff.RetryNotify(operation, policy, notify); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &NavigationError{URL: target.URL, Label: label, Attempts: attempt, Err: lastErr}
	}
	return nil
}

func (n *Navigator) stop(ctx context.Context) {
	sctx, cancel := context.WithTimeout(ctx, stopTimeout)
	defer cancel()
	if err := n.page.Stop(sctx); err != nil {
		n.logger.Debug("Stop loading failed.", zap.Error(err))
	}
}
