// File: internal/editor/dialog.go
package editor

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/xkilldash9x/dailyembed/internal/browser"
	"github.com/xkilldash9x/dailyembed/internal/config"
	"github.com/xkilldash9x/dailyembed/internal/feed"
	"github.com/xkilldash9x/dailyembed/internal/locator"
	"github.com/xkilldash9x/dailyembed/internal/observability"
	"go.uber.org/zap"
)

// toolbarRootXPath climbs from the editor to the nearest ancestor holding
// toolbar controls.
const toolbarRootXPath = "ancestor::*[.//button[@type='button'] or .//span[@role='button']][1]"

// modalContainerXPaths are tried in order from the URL-entry surface.
var modalContainerXPaths = []string{
	"ancestor::*[@role='dialog'][1]",
	"ancestor::*[@aria-modal='true'][1]",
	"ancestor::*[contains(@class,'modal')][1]",
	"ancestor::form[1]",
}

// InsertionDialog drives the editor's "insert video" surface.
type InsertionDialog struct {
	page     browser.Page
	resolver *locator.Resolver
	cfg      config.EditorConfig
	poll     time.Duration
	logger   *zap.Logger
}

func NewInsertionDialog(page browser.Page, resolver *locator.Resolver, cfg config.EditorConfig, bcfg config.BrowserConfig, logger *zap.Logger) *InsertionDialog {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InsertionDialog{
		page:     page,
		resolver: resolver,
		cfg:      cfg,
		poll:     bcfg.PollInterval,
		logger:   logger.Named("dialog").With(observability.Phase(observability.PhaseEditor)),
	}
}

// Insert places the cursor, opens the URL-entry surface, submits the
// video's embed URL and waits for the surface to close.
func (d *InsertionDialog) Insert(ctx context.Context, editor browser.Element, ref feed.VideoReference) error {
	PlaceCursor(ctx, editor, d.cfg.CursorMarker, d.logger)

	input, err := d.Open(ctx, editor)
	if err != nil {
		return err
	}
	return d.Submit(ctx, input, ref.EmbedURL())
}

// Open returns the visible URL-entry surface, opening it from the toolbar
// if needed.
func (d *InsertionDialog) Open(ctx context.Context, editor browser.Element) (browser.Element, error) {
	if input, err := d.visibleInput(ctx); err != nil {
		return nil, err
	} else if input != nil {
		d.logger.Debug("URL entry already open.")
		return input, nil
	}

	root := d.toolbarRoot(ctx, editor)

	if d.cfg.VideoButtonSelector != "" {
		if btn, err := d.resolver.Find(ctx, root, locator.CSS{Selector: d.cfg.VideoButtonSelector}); err == nil {
			d.logger.Info("Opening video dialog from labeled control.")
			if err := btn.Click(ctx); err != nil {
				return nil, &InsertionDialogError{Stage: "open", Err: err}
			}
			return d.waitOpen(ctx, d.cfg.DialogTimeout)
		} else if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}

	candidates, err := d.unlabeledControls(ctx, root)
	if err != nil {
		return nil, &InsertionDialogError{Stage: "open", Err: err}
	}
	d.logger.Info("No labeled video control; probing toolbar.", zap.Int("candidates", len(candidates)))

	if d.cfg.VideoButtonIndex != nil {
		idx := *d.cfg.VideoButtonIndex
		if idx < 0 || idx >= len(candidates) {
			return nil, &InsertionDialogError{Stage: "open", Err: errors.New("editor.video_button_index is out of range")}
		}
		if err := candidates[idx].Click(ctx); err != nil {
			return nil, &InsertionDialogError{Stage: "open", Err: err}
		}
		return d.waitOpen(ctx, d.cfg.DialogTimeout)
	}

	for i, c := range candidates {
		if err := c.Click(ctx); err != nil {
			d.logger.Debug("Trial click failed.", zap.Int("index", i), zap.Error(err))
			continue
		}
		input, err := d.waitOpen(ctx, d.cfg.TrialTimeout)
		if err == nil {
			d.logger.Info("Video dialog opened by a trial click.", zap.Int("index", i))
			return input, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		d.undoTrial(ctx, c)
	}
	return nil, &InsertionDialogError{Stage: "open", Err: ErrNoVideoControl}
}

// undoTrial reverts a toggle a trial click may have turned on and dismisses
// whatever it opened.
func (d *InsertionDialog) undoTrial(ctx context.Context, c browser.Element) {
	if v, ok, err := c.Attribute(ctx, "aria-pressed"); err == nil && ok && v == "true" {
		_ = c.Click(ctx)
	}
	if err := d.page.Press(ctx, browser.KeyEscape); err != nil {
		d.logger.Debug("Escape after trial click failed.", zap.Error(err))
	}
}

// Submit types url into the surface, confirms with Enter and, when the
// surface stays open, clicks the dialog's confirm button.
func (d *InsertionDialog) Submit(ctx context.Context, input browser.Element, url string) error {
	if err := input.Clear(ctx); err != nil {
		return &InsertionDialogError{Stage: "confirm", Err: err}
	}
	if err := input.Type(ctx, url); err != nil {
		return &InsertionDialogError{Stage: "confirm", Err: err}
	}
	if err := input.Press(ctx, browser.KeyEnter); err != nil {
		return &InsertionDialogError{Stage: "confirm", Err: err}
	}

	err := d.waitClosed(ctx)
	if err == nil {
		d.logger.Info("Video URL submitted.", observability.URL(url))
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	d.logger.Warn("Dialog still open after Enter; using its confirm button.", zap.Error(err))
	btn, err := d.confirmButton(ctx, input)
	if err != nil {
		return &InsertionDialogError{Stage: "confirm", Err: err}
	}
	if err := btn.Click(ctx); err != nil {
		return &InsertionDialogError{Stage: "confirm", Err: err}
	}
	if err := d.waitClosed(ctx); err != nil {
		return &InsertionDialogError{Stage: "confirm", Err: err}
	}
	d.logger.Info("Video URL submitted via dialog button.", observability.URL(url))
	return nil
}

// confirmButton prefers a submit button in the dialog container, then the
// first labeled button that is not a cancel action.
func (d *InsertionDialog) confirmButton(ctx context.Context, input browser.Element) (browser.Element, error) {
	var container browser.Element
	for _, xp := range modalContainerXPaths {
		found, err := input.Find(ctx, browser.ByXPath(xp))
		if err != nil {
			return nil, err
		}
		if len(found) > 0 {
			container = found[0]
			break
		}
	}
	if container == nil {
		return nil, ErrNoModalContainer
	}

	buttons, err := container.Find(ctx, browser.ByCSS("button"))
	if err != nil {
		return nil, err
	}
	var usable []browser.Element
	for _, b := range buttons {
		if ok, err := locator.Actionable(ctx, b); err == nil && ok {
			usable = append(usable, b)
		}
	}
	for _, b := range usable {
		if t, ok, err := b.Attribute(ctx, "type"); err == nil && ok && t == "submit" {
			return b, nil
		}
	}
	for _, b := range usable {
		label, err := b.Text(ctx)
		if err != nil {
			continue
		}
		label = strings.ToLower(strings.TrimSpace(label))
		if label != "" && !d.isCancel(label) {
			return b, nil
		}
	}
	return nil, ErrNoConfirmControl
}

func (d *InsertionDialog) isCancel(label string) bool {
	for _, c := range d.cfg.CancelLabels {
		if label == strings.ToLower(c) {
			return true
		}
	}
	return false
}

func (d *InsertionDialog) toolbarRoot(ctx context.Context, editor browser.Element) browser.Element {
	found, err := editor.Find(ctx, browser.ByXPath(toolbarRootXPath))
	if err != nil || len(found) == 0 {
		return editor
	}
	return found[0]
}

// unlabeledControls returns visible, enabled toolbar controls with no text.
func (d *InsertionDialog) unlabeledControls(ctx context.Context, root browser.Element) ([]browser.Element, error) {
	all, err := root.Find(ctx, browser.ByCSS(d.cfg.ToolbarControls))
	if err != nil {
		return nil, err
	}
	var out []browser.Element
	for _, c := range all {
		ok, err := locator.Actionable(ctx, c)
		if err != nil || !ok {
			continue
		}
		text, err := c.Text(ctx)
		if err != nil || strings.TrimSpace(text) != "" {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (d *InsertionDialog) visibleInput(ctx context.Context) (browser.Element, error) {
	found, err := d.page.Find(ctx, browser.ByCSS(d.cfg.VideoURLSelector))
	if err != nil {
		return nil, err
	}
	for _, el := range found {
		if ok, err := el.Visible(ctx); err == nil && ok {
			return el, nil
		}
	}
	return nil, nil
}

func (d *InsertionDialog) waitOpen(ctx context.Context, timeout time.Duration) (browser.Element, error) {
	var input browser.Element
	err := browser.WaitUntil(ctx, "video URL entry", timeout, d.poll, func(ctx context.Context) (bool, error) {
		el, err := d.visibleInput(ctx)
		input = el
		return el != nil, err
	})
	if err != nil {
		return nil, &InsertionDialogError{Stage: "open", Err: err}
	}
	return input, nil
}

func (d *InsertionDialog) waitClosed(ctx context.Context) error {
	return browser.WaitUntil(ctx, "video URL entry to close", d.cfg.DialogTimeout, d.poll, func(ctx context.Context) (bool, error) {
		el, err := d.visibleInput(ctx)
		return el == nil && err == nil, err
	})
}
