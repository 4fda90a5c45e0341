// File: internal/diagnostics/sink.go
package diagnostics

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xkilldash9x/dailyembed/internal/browser"
	"github.com/xkilldash9x/dailyembed/internal/config"
	"github.com/xkilldash9x/dailyembed/internal/observability"
	"go.uber.org/zap"
)

// captureTimeout bounds each screenshot or markup read so that a wedged
// renderer cannot stall failure handling.
const captureTimeout = 10 * time.Second

// DebugArtifact names the files written for one capture. A path is empty
// when that half of the capture failed.
type DebugArtifact struct {
	ScreenshotPath string
	HTMLPath       string
}

// Capturer records the state of a page at a named failure point.
type Capturer interface {
	Capture(ctx context.Context, page browser.Page, label string) DebugArtifact
}

// Sink writes debug-<label>-<timestamp>.png and .html into a directory.
// Every failure is logged and swallowed.
type Sink struct {
	dir     string
	enabled bool
	logger  *zap.Logger
	now     func() time.Time
}

var _ Capturer = (*Sink)(nil)

// NewSink creates a sink. When cfg.ArtifactDir is empty, fallbackDir is used.
func NewSink(cfg config.DebugConfig, fallbackDir string, logger *zap.Logger) *Sink {
	if logger == nil {
		logger = zap.NewNop()
	}
	dir := cfg.ArtifactDir
	if dir == "" {
		dir = fallbackDir
	}
	if dir == "" {
		dir = "."
	}
	return &Sink{
		dir:     dir,
		enabled: cfg.Enabled,
		logger:  logger.Named("diagnostics"),
		now:     time.Now,
	}
}

// Dir returns the directory artifacts are written to.
func (s *Sink) Dir() string { return s.dir }

// Capture saves a screenshot and the page markup. It never fails.
func (s *Sink) Capture(ctx context.Context, page browser.Page, label string) DebugArtifact {
	var art DebugArtifact
	if !s.enabled || page == nil {
		return art
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		s.logger.Warn("Could not create artifact directory.", zap.String("dir", s.dir), zap.Error(err))
		return art
	}

	base := filepath.Join(s.dir, fmt.Sprintf("debug-%s-%s", SanitizeLabel(label), s.now().Format("20060102-150405")))

	// Capture still has to work when the run's context was the thing that
	// timed out.
	cctx, cancel := context.WithTimeout(browser.Detach(ctx), captureTimeout)
	defer cancel()

	if png, err := page.Screenshot(cctx); err != nil {
		s.logger.Warn("Could not capture screenshot.", observability.Label(label), zap.Error(err))
	} else if err := os.WriteFile(base+".png", png, 0o644); err != nil {
		s.logger.Warn("Could not write screenshot.", observability.Label(label), zap.Error(err))
	} else {
		art.ScreenshotPath = base + ".png"
	}

	if html, err := page.Source(cctx); err != nil {
		s.logger.Warn("Could not read page markup.", observability.Label(label), zap.Error(err))
	} else if err := os.WriteFile(base+".html", []byte(html), 0o644); err != nil {
		s.logger.Warn("Could not write page markup.", observability.Label(label), zap.Error(err))
	} else {
		art.HTMLPath = base + ".html"
	}

	s.logger.Info("Debug artifacts captured.",
		observability.Label(label),
		zap.String("screenshot", art.ScreenshotPath),
		zap.String("html", art.HTMLPath),
	)
	return art
}

// SanitizeLabel keeps ASCII letters, digits, '-' and '_', replacing
// everything else with '_'.
func SanitizeLabel(label string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '_'
	}, label)
}

// Nop discards every capture.
type Nop struct{}

func (Nop) Capture(context.Context, browser.Page, string) DebugArtifact { return DebugArtifact{} }
