// File: internal/navigation/session.go
package navigation

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/xkilldash9x/dailyembed/internal/browser"
	"github.com/xkilldash9x/dailyembed/internal/config"
	"github.com/xkilldash9x/dailyembed/internal/diagnostics"
	"github.com/xkilldash9x/dailyembed/internal/locator"
	"github.com/xkilldash9x/dailyembed/internal/observability"
	"go.uber.org/zap"
)

// Session is the authentication state of the browsing context.
type Session struct {
	Authenticated bool
}

// SessionManager logs in and notices when the admin UI has bounced the
// browser back to the login form.
type SessionManager struct {
	page     browser.Page
	nav      *Navigator
	resolver *locator.Resolver
	diag     diagnostics.Capturer
	cfg      config.AuthConfig
	logger   *zap.Logger

	// findTimeout bounds the wait for each login form field.
	findTimeout time.Duration
	poll        time.Duration

	mu      sync.Mutex
	session Session
}

// NewSessionManager wires a session manager to a page and its navigator.
func NewSessionManager(
	page browser.Page,
	nav *Navigator,
	resolver *locator.Resolver,
	diag diagnostics.Capturer,
	cfg config.AuthConfig,
	bcfg config.BrowserConfig,
	logger *zap.Logger,
) *SessionManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	if diag == nil {
		diag = diagnostics.Nop{}
	}
	return &SessionManager{
		page:        page,
		nav:         nav,
		resolver:    resolver,
		diag:        diag,
		cfg:         cfg,
		logger:      logger.Named("session"),
		findTimeout: bcfg.DefaultTimeout,
		poll:        bcfg.PollInterval,
	}
}

// Session returns a snapshot of the current session state.
func (m *SessionManager) Session() Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session
}

func (m *SessionManager) setAuthenticated(v bool) {
	m.mu.Lock()
	m.session.Authenticated = v
	m.mu.Unlock()
}

// Login opens the login form, submits the credentials and waits for either
// the post-login URL or the navigation menu. On timeout it looks for an
// anti-bot challenge, captures debug artifacts and returns an
// *AuthenticationError.
func (m *SessionManager) Login(ctx context.Context) error {
	log := m.logger.With(observability.Phase(observability.PhaseLogin))
	log.Info("Logging in.")
	m.setAuthenticated(false)

	if err := m.nav.Navigate(ctx, Target{URL: m.cfg.LoginURL, Label: "login"}); err != nil {
		return err
	}

	if err := m.fill(ctx, m.cfg.UsernameSelector, m.cfg.Username); err != nil {
		return m.fail(ctx, "login_form", "", err)
	}
	if err := m.fill(ctx, m.cfg.PasswordSelector, m.cfg.Password); err != nil {
		return m.fail(ctx, "login_form", "", err)
	}
	submit, err := m.resolver.Resolve(ctx, m.page, locator.CSS{Selector: m.cfg.SubmitSelector}, m.findTimeout)
	if err != nil {
		return m.fail(ctx, "login_form", "", err)
	}
	if err := submit.Click(ctx); err != nil {
		return m.fail(ctx, "login_form", "", err)
	}

	err = browser.WaitUntil(ctx, "login landing", m.cfg.LoginTimeout, m.poll, m.landed)
	if err == nil {
		m.setAuthenticated(true)
		log.Info("Login succeeded.")
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	current, _ := m.page.CurrentURL(ctx)
	source, _ := m.page.Source(ctx)
	challenge := DetectChallenge(current, source, m.cfg.ChallengeMarkers)
	if challenge != "" {
		log.Warn("Possible anti-bot challenge detected.", observability.URL(current), zap.String("marker", challenge))
	}
	return m.fail(ctx, "login_timeout", challenge, err)
}

// fill types value into the field matched by selector.
func (m *SessionManager) fill(ctx context.Context, selector, value string) error {
	el, err := m.resolver.Resolve(ctx, m.page, locator.CSS{Selector: selector}, m.findTimeout)
	if err != nil {
		return err
	}
	if err := el.Clear(ctx); err != nil {
		return err
	}
	return el.Type(ctx, value)
}

// landed reports whether the post-login landing page is showing.
func (m *SessionManager) landed(ctx context.Context) (bool, error) {
	current, err := m.page.CurrentURL(ctx)
	if err != nil {
		return false, err
	}
	if m.cfg.SuccessURLFragment != "" && strings.Contains(current, m.cfg.SuccessURLFragment) {
		return true, nil
	}
	if m.cfg.MenuSelector == "" {
		return false, nil
	}
	found, err := m.page.Find(ctx, browser.ByCSS(m.cfg.MenuSelector))
	if err != nil {
		return false, err
	}
	return len(found) > 0, nil
}

func (m *SessionManager) fail(ctx context.Context, label, challenge string, cause error) error {
	if errors.Is(cause, context.Canceled) {
		return cause
	}
	current, _ := m.page.CurrentURL(browser.Detach(ctx))
	m.diag.Capture(ctx, m.page, label)
	return &AuthenticationError{URL: current, Challenge: challenge, Err: cause}
}

// DetectExpiry reports whether currentURL is the login form, meaning the
// session has expired.
func (m *SessionManager) DetectExpiry(currentURL string) bool {
	return m.cfg.LoginPathMarker != "" && strings.Contains(currentURL, m.cfg.LoginPathMarker)
}

// CheckExpiry reads the current URL and marks the session unauthenticated
// when it shows the login form.
func (m *SessionManager) CheckExpiry(ctx context.Context) (bool, string, error) {
	current, err := m.page.CurrentURL(ctx)
	if err != nil {
		return false, "", err
	}
	if m.DetectExpiry(current) {
		m.setAuthenticated(false)
		return true, current, nil
	}
	return false, current, nil
}

// DetectChallenge returns the first challenge marker found in the URL or in
// the page markup, or "" when none is present. Markup is inspected through
// element attributes and text; unparsable markup falls back to a plain
// substring search.
func DetectChallenge(currentURL, source string, markers []string) string {
	lowerURL := strings.ToLower(currentURL)
	for _, mk := range markers {
		if mk != "" && strings.Contains(lowerURL, strings.ToLower(mk)) {
			return mk
		}
	}
	if source == "" {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(source))
	if err != nil {
		return firstMarker(strings.ToLower(source), markers)
	}

	found := ""
	doc.Find("iframe, script, div, form, input, textarea").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		for _, attr := range []string{"src", "class", "id", "name", "title"} {
			v, ok := s.Attr(attr)
			if !ok {
				continue
			}
			if mk := firstMarker(strings.ToLower(v), markers); mk != "" {
				found = mk
				return false
			}
		}
		if _, ok := s.Attr("data-sitekey"); ok {
			found = "captcha"
			return false
		}
		return true
	})
	if found != "" {
		return found
	}
	return firstMarker(strings.ToLower(doc.Find("body").Text()), markers)
}

func firstMarker(haystack string, markers []string) string {
	for _, mk := range markers {
		if mk != "" && strings.Contains(haystack, strings.ToLower(mk)) {
			return mk
		}
	}
	return ""
}
