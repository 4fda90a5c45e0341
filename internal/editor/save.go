// File: internal/editor/save.go
package editor

import (
	"context"
	"strings"

	"github.com/xkilldash9x/dailyembed/internal/browser"
	"github.com/xkilldash9x/dailyembed/internal/config"
	"github.com/xkilldash9x/dailyembed/internal/locator"
	"github.com/xkilldash9x/dailyembed/internal/observability"
	"go.uber.org/zap"
)

// SaveCommitter finds and clicks the control that persists the editor.
type SaveCommitter struct {
	page     browser.Page
	resolver *locator.Resolver
	cfg      config.EditorConfig
	logger   *zap.Logger
}

func NewSaveCommitter(page browser.Page, resolver *locator.Resolver, cfg config.EditorConfig, logger *zap.Logger) *SaveCommitter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SaveCommitter{page: page, resolver: resolver, cfg: cfg, logger: logger.Named("save")}
}

// Locate returns the save control for editor without clicking it.
func (s *SaveCommitter) Locate(ctx context.Context, editor browser.Element) (browser.Element, error) {
	var tried []string
	last := locator.ErrNotFound

	forms, err := editor.Find(ctx, browser.ByXPath("ancestor::form[1]"))
	if err != nil {
		return nil, err
	}
	if len(forms) > 0 {
		tried = append(tried, "form keyword", "form submit")
		if btn, err := s.inForm(ctx, forms[0]); err != nil || btn != nil {
			return btn, err
		}
	}

	for _, label := range s.cfg.SaveLabels {
		strategy := locator.Text{Tags: []string{"button"}, Text: label}
		tried = append(tried, strategy.Name())
		btn, err := s.resolver.Find(ctx, s.page, strategy)
		if err == nil {
			return btn, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		last = err
	}
	return nil, &SaveControlNotFoundError{Tried: tried, Last: last}
}

// inForm prefers a usable button whose label holds a save keyword, then any
// type=submit button of the form.
func (s *SaveCommitter) inForm(ctx context.Context, form browser.Element) (browser.Element, error) {
	buttons, err := form.Find(ctx, browser.ByCSS("button"))
	if err != nil {
		return nil, err
	}
	for _, b := range buttons {
		if ok, err := locator.Actionable(ctx, b); err != nil || !ok {
			continue
		}
		label, err := b.Text(ctx)
		if err != nil {
			continue
		}
		if s.hasKeyword(label) {
			return b, nil
		}
	}
	for _, b := range buttons {
		if t, ok, err := b.Attribute(ctx, "type"); err == nil && ok && t == "submit" {
			return b, nil
		}
	}
	return nil, nil
}

func (s *SaveCommitter) hasKeyword(label string) bool {
	label = strings.ToLower(strings.TrimSpace(label))
	for _, kw := range s.cfg.SaveKeywords {
		if kw != "" && strings.Contains(label, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// Commit clicks the save control. With dryRun set it only locates it.
func (s *SaveCommitter) Commit(ctx context.Context, editor browser.Element, dryRun bool) error {
	btn, err := s.Locate(ctx, editor)
	if err != nil {
		return err
	}
	log := s.logger.With(observability.Phase(observability.PhaseSave))
	if dryRun {
		text, _ := btn.Text(ctx)
		log.Info("Dry run; not saving.", observability.Label(strings.TrimSpace(text)))
		return nil
	}
	if err := btn.Click(ctx); err != nil {
		return err
	}
	log.Info("Changes saved.")
	return nil
}
