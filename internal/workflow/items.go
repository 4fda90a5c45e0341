// File: internal/workflow/items.go
package workflow

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xkilldash9x/dailyembed/internal/browser"
	"github.com/xkilldash9x/dailyembed/internal/config"
	"github.com/xkilldash9x/dailyembed/internal/locator"
	"github.com/xkilldash9x/dailyembed/internal/observability"
	"go.uber.org/zap"
)

// ItemSelector picks the day, the current item and opens its editor.
type ItemSelector struct {
	page     browser.Page
	resolver *locator.Resolver
	cfg      config.TargetConfig
	timeout  time.Duration
	poll     time.Duration
	logger   *zap.Logger
}

func NewItemSelector(page browser.Page, resolver *locator.Resolver, cfg config.TargetConfig, bcfg config.BrowserConfig, logger *zap.Logger) *ItemSelector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ItemSelector{
		page:     page,
		resolver: resolver,
		cfg:      cfg,
		timeout:  bcfg.DefaultTimeout,
		poll:     bcfg.PollInterval,
		logger:   logger.Named("items").With(observability.Phase(observability.PhaseItems)),
	}
}

// SelectDay clicks the calendar button labeled with day.
func (s *ItemSelector) SelectDay(ctx context.Context, day int) error {
	strategy := locator.Text{Tags: []string{"button"}, Text: strconv.Itoa(day)}
	btn, err := s.resolver.Resolve(ctx, s.page, strategy, s.timeout)
	if err != nil {
		return fmt.Errorf("day %d button: %w", day, err)
	}
	if err := btn.Click(ctx); err != nil {
		return fmt.Errorf("clicking day %d: %w", day, err)
	}
	s.logger.Info("Day selected.", zap.Int("day", day))
	return nil
}

// FindCurrentItemButton returns the first labeled, usable button inside
// the section headed by the current-items marker.
func (s *ItemSelector) FindCurrentItemButton(ctx context.Context) (browser.Element, error) {
	marker, err := s.resolver.Present(ctx, s.page, locator.Text{Text: s.cfg.CurrentItemsMarker}, s.timeout)
	if err != nil {
		return nil, fmt.Errorf("current items marker %q: %w", s.cfg.CurrentItemsMarker, err)
	}
	containers, err := marker.Find(ctx, browser.ByXPath("ancestor::*[self::div or self::section][1]"))
	if err != nil {
		return nil, err
	}
	if len(containers) == 0 {
		return nil, ErrNoCurrentItem
	}
	buttons, err := containers[0].Find(ctx, browser.ByCSS("button"))
	if err != nil {
		return nil, err
	}
	for _, b := range buttons {
		if ok, err := locator.Actionable(ctx, b); err != nil || !ok {
			continue
		}
		text, err := b.Text(ctx)
		if err != nil || strings.TrimSpace(text) == "" {
			continue
		}
		return b, nil
	}
	return nil, ErrNoCurrentItem
}

// FindEditControl returns the clickable element around the edit marker:
// its button ancestor, else its link ancestor, else the marker itself.
func (s *ItemSelector) FindEditControl(ctx context.Context) (browser.Element, error) {
	marker, err := s.resolver.Present(ctx, s.page, locator.Text{Text: s.cfg.EditMarker}, s.timeout)
	if err != nil {
		return nil, fmt.Errorf("edit marker %q: %w", s.cfg.EditMarker, err)
	}
	for _, xp := range []string{"ancestor::button[1]", "ancestor::a[1]"} {
		found, err := marker.Find(ctx, browser.ByXPath(xp))
		if err != nil {
			return nil, err
		}
		if len(found) > 0 {
			return found[0], nil
		}
	}
	return marker, nil
}

// WaitUntilEditable waits until el has no disabled attribute and no
// disabled-style class.
func (s *ItemSelector) WaitUntilEditable(ctx context.Context, el browser.Element) error {
	disabledClass := strings.ToLower(s.cfg.DisabledClass)
	return browser.WaitUntil(ctx, "edit control enabled", s.timeout, s.poll, func(ctx context.Context) (bool, error) {
		if _, disabled, err := el.Attribute(ctx, "disabled"); err != nil || disabled {
			return false, err
		}
		class, _, err := el.Attribute(ctx, "class")
		if err != nil {
			return false, err
		}
		return disabledClass == "" || !strings.Contains(strings.ToLower(class), disabledClass), nil
	})
}

// WaitForEditor waits for the visible rich-text surface.
func (s *ItemSelector) WaitForEditor(ctx context.Context) (browser.Element, error) {
	el, err := s.resolver.Resolve(ctx, s.page, locator.CSS{Selector: s.cfg.EditorSelector}, s.timeout)
	if err != nil {
		return nil, fmt.Errorf("editor surface: %w", err)
	}
	return el, nil
}

// OpenEditor selects the current item, waits for its edit control to
// enable, clicks it and returns the editor.
func (s *ItemSelector) OpenEditor(ctx context.Context) (browser.Element, error) {
	item, err := s.FindCurrentItemButton(ctx)
	if err != nil {
		return nil, err
	}
	if err := item.Click(ctx); err != nil {
		return nil, fmt.Errorf("selecting current item: %w", err)
	}
	s.logger.Info("Current item selected.")

	edit, err := s.FindEditControl(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.WaitUntilEditable(ctx, edit); err != nil {
		return nil, err
	}
	if err := edit.Click(ctx); err != nil {
		return nil, fmt.Errorf("opening editor: %w", err)
	}
	return s.WaitForEditor(ctx)
}
