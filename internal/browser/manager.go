// internal/browser/manager.go
package browser

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/xkilldash9x/dailyembed/internal/config"
	"go.uber.org/zap"
)

const shutdownGracePeriod = 10 * time.Second

// Browser owns the Chrome process and the single tab the workflow drives.
type Browser struct {
	logger      *zap.Logger
	allocCancel context.CancelFunc
	tabCtx      context.Context
	tabCancel   context.CancelFunc
	page        *CDPPage

	closeOnce sync.Once
}

// Launch starts Chrome with the configured flags and opens one tab. The
// returned Browser must be closed on every exit path.
func Launch(ctx context.Context, cfg config.BrowserConfig, logger *zap.Logger) (*Browser, error) {
	logger = logger.Named("browser")
	logger.Info("Launching browser...", zap.Bool("headless", cfg.Headless))

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, buildAllocatorOptions(cfg)...)
	sugar := logger.Sugar()
	tabCtx, tabCancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(sugar.Debugf),
		chromedp.WithErrorf(sugar.Debugf),
	)

	// The first Run allocates the process; it must use the tab context itself
	// so the browser lives as long as the tab.
	if err := chromedp.Run(tabCtx, chromedp.Navigate("about:blank")); err != nil {
		tabCancel()
		allocCancel()
		return nil, fmt.Errorf("browser failed to start or respond: %w", err)
	}

	b := &Browser{
		logger:      logger,
		allocCancel: allocCancel,
		tabCtx:      tabCtx,
		tabCancel:   tabCancel,
		page:        NewCDPPage(tabCtx, logger, cfg.PageLoadTimeout),
	}
	logger.Info("Browser launched successfully and is responsive.")
	return b, nil
}

// Page returns the tab the workflow drives.
func (b *Browser) Page() Page { return b.page }

// Close releases script handles, closes the tab and terminates the process.
// It is safe to call more than once.
func (b *Browser) Close() error {
	var err error
	b.closeOnce.Do(func() {
		cleanupCtx, cancel := context.WithTimeout(Detach(b.tabCtx), shutdownGracePeriod)
		defer cancel()

		if relErr := b.page.release(cleanupCtx); relErr != nil {
			b.logger.Debug("Releasing script handles failed.", zap.Error(relErr))
		}
		// chromedp.Cancel closes the tab gracefully before the process is killed.
		if cErr := chromedp.Cancel(b.tabCtx); cErr != nil {
			err = fmt.Errorf("closing tab: %w", cErr)
		}
		b.tabCancel()
		b.allocCancel()
		b.logger.Info("Browser closed.")
	})
	return err
}

// buildAllocatorOptions assembles Chrome options from the defaults plus the
// flags derived from cfg. Later options win, so the automation banner that
// the defaults enable is switched off by allocatorFlags.
func buildAllocatorOptions(cfg config.BrowserConfig) []chromedp.ExecAllocatorOption {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)

	flags := allocatorFlags(cfg, runtime.GOOS)
	names := make([]string, 0, len(flags))
	for name := range flags {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		opts = append(opts, chromedp.Flag(name, flags[name]))
	}

	if cfg.WindowWidth > 0 && cfg.WindowHeight > 0 {
		opts = append(opts, chromedp.WindowSize(cfg.WindowWidth, cfg.WindowHeight))
	}
	if cfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(cfg.UserAgent))
	}
	if cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ExecPath))
	}
	return opts
}

// allocatorFlags returns the command line flags for cfg on the given OS.
// Configured args override the built-in flags of the same name.
func allocatorFlags(cfg config.BrowserConfig, goos string) map[string]interface{} {
	flags := map[string]interface{}{
		"headless":                  cfg.Headless,
		"ignore-certificate-errors": cfg.IgnoreTLSErrors,
		"disable-blink-features":    "AutomationControlled",
		"enable-automation":         false,
		"disable-extensions":        true,
		"disable-gpu":               cfg.Headless,
	}

	// Required when running inside containers.
	if goos == "linux" {
		flags["no-sandbox"] = true
		flags["disable-dev-shm-usage"] = true
		flags["disable-setuid-sandbox"] = true
	}

	for _, arg := range cfg.Args {
		parts := strings.SplitN(arg, "=", 2)
		name := strings.TrimPrefix(strings.TrimSpace(parts[0]), "--")
		if name == "" {
			continue
		}
		if len(parts) == 2 {
			flags[name] = parts[1]
		} else {
			flags[name] = true
		}
	}
	return flags
}
