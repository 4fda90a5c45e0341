// File: internal/editor/formatter.go
package editor

import (
	"context"
	"fmt"
	"time"

	"github.com/xkilldash9x/dailyembed/internal/browser"
	"github.com/xkilldash9x/dailyembed/internal/config"
	"github.com/xkilldash9x/dailyembed/internal/feed"
	"github.com/xkilldash9x/dailyembed/internal/observability"
	"go.uber.org/zap"
)

// Formatter sizes and centers the embed of the current video.
type Formatter struct {
	cfg     config.EditorConfig
	domains []string
	timeout time.Duration
	poll    time.Duration
	logger  *zap.Logger
}

func NewFormatter(cfg config.EditorConfig, domains []string, bcfg config.BrowserConfig, logger *zap.Logger) *Formatter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Formatter{
		cfg:     cfg,
		domains: domains,
		timeout: bcfg.DefaultTimeout,
		poll:    bcfg.PollInterval,
		logger:  logger.Named("formatter"),
	}
}

// Format waits for the embed to appear, then stamps its layout. Running it
// again on a formatted embed changes nothing.
func (f *Formatter) Format(ctx context.Context, editor browser.Element, ref feed.VideoReference) error {
	fn := formatEmbedFn(f.cfg.EmbedSelector, ref.ID(), f.domains, f.cfg.VideoWidth, f.cfg.VideoHeight)
	err := browser.WaitUntil(ctx, "embed formatting", f.timeout, f.poll, func(ctx context.Context) (bool, error) {
		return browser.CallAs[bool](ctx, editor, fn)
	})
	if err != nil {
		return fmt.Errorf("formatting embed for %s: %w", ref, err)
	}
	f.logger.Info("Embed formatted.",
		observability.Phase(observability.PhaseEditor),
		zap.Int("width", f.cfg.VideoWidth),
		zap.Int("height", f.cfg.VideoHeight),
	)
	return nil
}
