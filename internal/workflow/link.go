// File: internal/workflow/link.go
package workflow

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/cenkalti/backoff/v4"
	"github.com/xkilldash9x/dailyembed/internal/browser"
	"github.com/xkilldash9x/dailyembed/internal/config"
	"github.com/xkilldash9x/dailyembed/internal/diagnostics"
	"github.com/xkilldash9x/dailyembed/internal/locator"
	"github.com/xkilldash9x/dailyembed/internal/navigation"
	"github.com/xkilldash9x/dailyembed/internal/observability"
	"go.uber.org/zap"
)

// Authenticator is the part of the session manager the link resolver needs
// to recover from an expired session.
type Authenticator interface {
	Login(ctx context.Context) error
	CheckExpiry(ctx context.Context) (expired bool, currentURL string, err error)
}

// LinkSource records how the target URL was obtained.
type LinkSource string

const (
	SourceLink   LinkSource = "link"
	SourceMarkup LinkSource = "markup"
	SourceDirect LinkSource = "direct"
)

// Resolution is the outcome of a successful link resolution.
type Resolution struct {
	URL      string
	Source   LinkSource
	Attempts int
}

type linkState int

const (
	stateCheckSession linkState = iota
	stateSearchLink
	stateInferFromMarkup
	stateDirectURL
	stateNavigate
	stateVerifySession
	stateConfirmSection
	stateDone
)

func (s linkState) String() string {
	switch s {
	case stateCheckSession:
		return "check_session"
	case stateSearchLink:
		return "search_link"
	case stateInferFromMarkup:
		return "infer_from_markup"
	case stateDirectURL:
		return "direct_url_fallback"
	case stateNavigate:
		return "navigate"
	case stateVerifySession:
		return "verify_session"
	case stateConfirmSection:
		return "confirm_section"
	case stateDone:
		return "done"
	}
	return fmt.Sprintf("linkState(%d)", int(s))
}

// LinkResolver finds and opens the day's sub-page from the landing page.
type LinkResolver struct {
	page     browser.Page
	nav      *navigation.Navigator
	auth     Authenticator
	resolver *locator.Resolver
	diag     diagnostics.Capturer
	cfg      config.LinkConfig
	landing  string
	poll     time.Duration
	logger   *zap.Logger
}

func NewLinkResolver(
	page browser.Page,
	nav *navigation.Navigator,
	auth Authenticator,
	resolver *locator.Resolver,
	diag diagnostics.Capturer,
	cfg config.LinkConfig,
	landingURL string,
	poll time.Duration,
	logger *zap.Logger,
) *LinkResolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	if diag == nil {
		diag = diagnostics.Nop{}
	}
	return &LinkResolver{
		page:     page,
		nav:      nav,
		auth:     auth,
		resolver: resolver,
		diag:     diag,
		cfg:      cfg,
		landing:  landingURL,
		poll:     poll,
		logger:   logger.Named("link").With(observability.Phase(observability.PhaseLink)),
	}
}

// Strategies returns the link search chain: href by CSS, href by XPath,
// exact label on a link or button, and the link around the exact label.
func (r *LinkResolver) Strategies() []locator.Strategy {
	label := locator.Text{Text: r.cfg.Label}
	return []locator.Strategy{
		locator.CSS{Selector: "a[href*=" + locator.CSSString(r.cfg.HrefFragment) + "]"},
		locator.Attribute{Tag: "a", Attr: "href", Contains: r.cfg.HrefFragment},
		locator.Text{Tags: []string{"a", "button"}, Text: r.cfg.Label},
		locator.AncestorOf{Of: label, Tag: "a"},
	}
}

// Resolve runs the state machine until a section marker confirms the
// target page or the attempts run out. Every attempt after the first starts
// again from the landing page.
func (r *LinkResolver) Resolve(ctx context.Context) (Resolution, error) {
	retries := r.cfg.Retries
	if retries < 0 {
		retries = 0
	}

	var (
		res       Resolution
		attempt   int
		retryable bool
	)
	operation := func() error {
		attempt++
		if attempt > 1 {
			label := fmt.Sprintf("landing_retry_%d", attempt-1)
			if err := r.nav.Navigate(ctx, navigation.Target{URL: r.landing, Label: label}); err != nil {
				retryable = false
				return backoff.Permanent(&LinkResolutionError{Attempts: attempt - 1, Err: err})
			}
		}
		var err error
		res, err = r.runAttempt(ctx, attempt)
		var permanent *backoff.PermanentError
		retryable = err != nil && !errors.As(err, &permanent)
		return err
	}
	notify := func(err error, _ time.Duration) {
		r.logger.Warn("Link resolution attempt failed; returning to the landing page.",
			observability.Attempt(attempt), zap.Error(err))
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(&backoff.ZeroBackOff{}, uint64(retries)), ctx)
	if err := backoff.RetryNotify(operation, policy, notify); err != nil {
		if ctx.Err() != nil {
			return Resolution{}, ctx.Err()
		}
		if retryable {
			return Resolution{}, &LinkResolutionError{Attempts: attempt, Err: err}
		}
		return Resolution{}, err
	}
	return res, nil
}

// runAttempt walks the states once. Failures that another attempt cannot
// fix are wrapped with backoff.Permanent.
func (r *LinkResolver) runAttempt(ctx context.Context, attempt int) (Resolution, error) {
	log := r.logger.With(observability.Attempt(attempt))
	var (
		target   string
		source   LinkSource
		relogged bool
		lastErr  error
	)

	state := stateCheckSession
	for state != stateDone {
		log.Debug("Link resolution state.", zap.Stringer("state", state))

		switch state {
		case stateCheckSession:
			if err := r.recoverSession(ctx, log); err != nil {
				return Resolution{}, backoff.Permanent(err)
			}
			state = stateSearchLink

		case stateSearchLink:
			href, err := r.searchLink(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return Resolution{}, backoff.Permanent(ctx.Err())
				}
				current, _ := r.page.CurrentURL(ctx)
				log.Warn("Link not found on page; falling back.", observability.URL(current), zap.Error(err))
				r.diag.Capture(ctx, r.page, fmt.Sprintf("link_%d", attempt))
				state = stateInferFromMarkup
				continue
			}
			target, source = href, SourceLink
			state = stateNavigate

		case stateInferFromMarkup:
			html, err := r.page.Source(ctx)
			if err != nil {
				log.Debug("Could not read page markup.", zap.Error(err))
			}
			if inferred, ok := InferLinkFromMarkup(html, r.cfg.MarkupPattern, r.landing); ok {
				log.Warn("Using link inferred from markup.", observability.URL(inferred))
				target, source = inferred, SourceMarkup
				state = stateNavigate
				continue
			}
			state = stateDirectURL

		case stateDirectURL:
			if r.cfg.DirectURL == "" {
				return Resolution{}, backoff.Permanent(&LinkResolutionError{Attempts: attempt, Err: ErrNoLinkTarget})
			}
			log.Warn("Using direct URL fallback.", observability.URL(r.cfg.DirectURL))
			target, source = r.cfg.DirectURL, SourceDirect
			state = stateNavigate

		case stateNavigate:
			err := r.nav.Navigate(ctx, navigation.Target{URL: target, Label: fmt.Sprintf("link_%s_%d", source, attempt)})
			if err != nil {
				if ctx.Err() != nil {
					return Resolution{}, backoff.Permanent(ctx.Err())
				}
				lastErr = err
				state = stateDone
				continue
			}
			state = stateVerifySession

		case stateVerifySession:
			// The target itself may bounce to the login form.
			expired, current, err := r.auth.CheckExpiry(ctx)
			if err != nil {
				return Resolution{}, backoff.Permanent(err)
			}
			if !expired {
				state = stateConfirmSection
				continue
			}
			if relogged {
				return Resolution{}, backoff.Permanent(&LinkResolutionError{Attempts: attempt, Err: ErrSessionLost})
			}
			log.Warn("Session expired on the target page; logging in again.", observability.URL(current))
			if err := r.auth.Login(ctx); err != nil {
				return Resolution{}, backoff.Permanent(err)
			}
			relogged = true
			state = stateNavigate

		case stateConfirmSection:
			if err := r.confirmSection(ctx); err != nil {
				if ctx.Err() != nil {
					return Resolution{}, backoff.Permanent(ctx.Err())
				}
				current, _ := r.page.CurrentURL(ctx)
				log.Warn("Section not confirmed.", observability.URL(current), zap.Error(err))
				r.diag.Capture(ctx, r.page, fmt.Sprintf("section_%d", attempt))
				lastErr = err
				state = stateDone
				continue
			}
			log.Info("Link resolved.", observability.URL(target), zap.String("source", string(source)))
			return Resolution{URL: target, Source: source, Attempts: attempt}, nil
		}
	}
	return Resolution{}, lastErr
}

// recoverSession logs in again and returns to the landing page when the
// browser was bounced to the login form.
func (r *LinkResolver) recoverSession(ctx context.Context, log *zap.Logger) error {
	expired, current, err := r.auth.CheckExpiry(ctx)
	if err != nil || !expired {
		return err
	}
	log.Warn("Session expired; logging in again.", observability.URL(current))
	if err := r.auth.Login(ctx); err != nil {
		return err
	}
	return r.nav.Navigate(ctx, navigation.Target{URL: r.landing, Label: "landing_relogin"})
}

func (r *LinkResolver) searchLink(ctx context.Context) (string, error) {
	el, _, err := r.resolver.Chain(ctx, r.page, "day link", r.Strategies(), r.cfg.Timeout)
	if err != nil {
		return "", err
	}
	href, ok, err := el.Attribute(ctx, "href")
	if err != nil {
		return "", err
	}
	if !ok || strings.TrimSpace(href) == "" {
		return "", fmt.Errorf("located link has no href")
	}
	return resolveAgainst(r.landing, href), nil
}

// confirmSection waits for any configured section marker.
func (r *LinkResolver) confirmSection(ctx context.Context) error {
	markers := make([]locator.Strategy, len(r.cfg.SectionMarkers))
	for i, m := range r.cfg.SectionMarkers {
		markers[i] = locator.Text{Text: m}
	}
	return browser.WaitUntil(ctx, "section marker", r.cfg.Timeout, r.poll, func(ctx context.Context) (bool, error) {
		for _, m := range markers {
			found, err := m.Candidates(ctx, r.page)
			if err != nil {
				return false, err
			}
			if len(found) > 0 {
				return true, nil
			}
		}
		return false, nil
	})
}

// hrefPattern finds any quoted href holding pattern, for markup where the
// link is not a plain anchor.
func hrefPattern(pattern string) *regexp.Regexp {
	return regexp.MustCompile(`href=["']([^"']*` + regexp.QuoteMeta(pattern) + `[^"']*)["']`)
}

// InferLinkFromMarkup returns the first href in html containing pattern,
// resolved against base.
func InferLinkFromMarkup(html, pattern, base string) (string, bool) {
	if html == "" || pattern == "" {
		return "", false
	}
	var href string
	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(html)); err == nil {
		doc.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
			v, _ := s.Attr("href")
			if strings.Contains(v, pattern) {
				href = v
				return false
			}
			return true
		})
	}
	if href == "" {
		if m := hrefPattern(pattern).FindStringSubmatch(html); m != nil {
			href = m[1]
		}
	}
	if href == "" {
		return "", false
	}
	return resolveAgainst(base, href), true
}

func resolveAgainst(base, ref string) string {
	ref = strings.TrimSpace(ref)
	b, err := url.Parse(base)
	if err != nil {
		return ref
	}
	r, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return b.ResolveReference(r).String()
}
