// File: internal/workflow/runner.go
package workflow

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/xkilldash9x/dailyembed/internal/browser"
	"github.com/xkilldash9x/dailyembed/internal/config"
	"github.com/xkilldash9x/dailyembed/internal/diagnostics"
	"github.com/xkilldash9x/dailyembed/internal/editor"
	"github.com/xkilldash9x/dailyembed/internal/feed"
	"github.com/xkilldash9x/dailyembed/internal/locator"
	"github.com/xkilldash9x/dailyembed/internal/navigation"
	"github.com/xkilldash9x/dailyembed/internal/observability"
	"go.uber.org/zap"
)

// BrowserSession is a launched browser owned by one run.
type BrowserSession interface {
	Page() browser.Page
	Close() error
}

// Launcher starts a browser.
type Launcher func(ctx context.Context, cfg config.BrowserConfig, logger *zap.Logger) (BrowserSession, error)

// ChromeLauncher launches Chrome through the DevTools protocol.
func ChromeLauncher(ctx context.Context, cfg config.BrowserConfig, logger *zap.Logger) (BrowserSession, error) {
	b, err := browser.Launch(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// Result summarizes a completed run.
type Result struct {
	RunID   string
	Day     int
	Video   feed.VideoReference
	Link    Resolution
	Outcome editor.Outcome
	Saved   bool
}

// Runner drives one end-to-end update: feed, login, landing page, day,
// link, editor, embed and save.
type Runner struct {
	cfg    config.Interface
	feed   feed.Resolver
	launch Launcher
	logger *zap.Logger
	now    func() time.Time
}

func NewRunner(cfg config.Interface, feedResolver feed.Resolver, launch Launcher, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	if launch == nil {
		launch = ChromeLauncher
	}
	return &Runner{cfg: cfg, feed: feedResolver, launch: launch, logger: logger, now: time.Now}
}

// Run executes the workflow. The feed is resolved before any browser is
// started, and the browser is always closed before Run returns.
func (r *Runner) Run(ctx context.Context) (Result, error) {
	res := Result{RunID: uuid.NewString()}
	log := r.logger.With(observability.RunID(res.RunID))
	log.Info("Run started.", zap.Bool("dry_run", r.cfg.Run().DryRun))

	day, err := r.cfg.Target().ResolveDay(r.now())
	if err != nil {
		return res, &config.ConfigurationError{Reason: err.Error()}
	}
	res.Day = day

	log.Info("Resolving latest video.", observability.Phase(observability.PhaseFeed))
	entry, err := r.feed.Latest(ctx)
	if err != nil {
		return res, err
	}
	res.Video = entry.Video
	log.Info("Latest video resolved.",
		zap.Stringer("video", entry.Video),
		observability.URL(entry.Video.CanonicalURL()),
		zap.String("title", entry.Title),
	)

	sess, err := r.launch(ctx, r.cfg.Browser(), log)
	if err != nil {
		return res, fmt.Errorf("launching browser: %w", err)
	}
	defer func() {
		if cerr := sess.Close(); cerr != nil {
			log.Warn("Browser close reported an error.", zap.Error(cerr))
		}
	}()

	w := r.wire(sess.Page(), log)
	return w.run(ctx, res)
}

// wired holds every component bound to one page.
type wired struct {
	cfg       config.Interface
	page      browser.Page
	log       *zap.Logger
	diag      diagnostics.Capturer
	nav       *navigation.Navigator
	session   *navigation.SessionManager
	links     *LinkResolver
	items     *ItemSelector
	normalize *editor.Normalizer
	dialog    *editor.InsertionDialog
	formatter *editor.Formatter
	save      *editor.SaveCommitter
}

func (r *Runner) wire(page browser.Page, log *zap.Logger) *wired {
	cfg := r.cfg
	bcfg := cfg.Browser()
	domains := cfg.Feed().VideoDomains

	resolver := locator.NewResolver(log, bcfg.PollInterval)
	diag := diagnostics.NewSink(cfg.Debug(), filepath.Dir(cfg.Logger().LogFile), log)
	nav := navigation.NewNavigator(page, cfg.Navigation(), log)
	session := navigation.NewSessionManager(page, nav, resolver, diag, cfg.Auth(), bcfg, log)

	return &wired{
		cfg:       cfg,
		page:      page,
		log:       log,
		diag:      diag,
		nav:       nav,
		session:   session,
		links:     NewLinkResolver(page, nav, session, resolver, diag, cfg.Link(), cfg.Target().LandingURL, bcfg.PollInterval, log),
		items:     NewItemSelector(page, resolver, cfg.Target(), bcfg, log),
		normalize: editor.NewNormalizer(cfg.Editor(), domains, log),
		dialog:    editor.NewInsertionDialog(page, resolver, cfg.Editor(), bcfg, log),
		formatter: editor.NewFormatter(cfg.Editor(), domains, bcfg, log),
		save:      editor.NewSaveCommitter(page, resolver, cfg.Editor(), log),
	}
}

func (w *wired) phase(p string) {
	w.log.Info("Phase started.", observability.Phase(p))
}

// fail captures artifacts for a failed phase and annotates err.
func (w *wired) fail(ctx context.Context, phase string, err error) error {
	if ctx.Err() == nil {
		w.diag.Capture(ctx, w.page, phase)
	}
	return fmt.Errorf("%s: %w", phase, err)
}

func (w *wired) run(ctx context.Context, res Result) (Result, error) {
	w.phase(observability.PhaseLogin)
	if err := w.session.Login(ctx); err != nil {
		return res, err
	}

	w.phase(observability.PhaseNavigate)
	landing := w.cfg.Target().LandingURL
	if err := w.nav.Navigate(ctx, navigation.Target{URL: landing, Label: "landing"}); err != nil {
		return res, err
	}
	if err := w.items.SelectDay(ctx, res.Day); err != nil {
		return res, w.fail(ctx, "select_day", err)
	}

	w.phase(observability.PhaseLink)
	link, err := w.links.Resolve(ctx)
	if err != nil {
		return res, err
	}
	res.Link = link

	w.phase(observability.PhaseItems)
	ed, err := w.items.OpenEditor(ctx)
	if err != nil {
		return res, w.fail(ctx, observability.PhaseItems, err)
	}

	w.phase(observability.PhaseEditor)
	plan, err := w.normalize.Apply(ctx, ed, res.Video)
	if err != nil {
		return res, w.fail(ctx, observability.PhaseEditor, err)
	}
	res.Outcome = plan.Outcome
	if plan.Outcome == editor.NeedsInsertion {
		if err := w.dialog.Insert(ctx, ed, res.Video); err != nil {
			return res, w.fail(ctx, "insert_video", err)
		}
	}
	if err := w.formatter.Format(ctx, ed, res.Video); err != nil {
		return res, w.fail(ctx, "format_video", err)
	}

	w.phase(observability.PhaseSave)
	dryRun := w.cfg.Run().DryRun
	if err := w.save.Commit(ctx, ed, dryRun); err != nil {
		return res, w.fail(ctx, observability.PhaseSave, err)
	}
	res.Saved = !dryRun

	w.log.Info("Run finished.",
		zap.Int("day", res.Day),
		zap.Stringer("outcome", res.Outcome),
		zap.Bool("saved", res.Saved),
		observability.URL(res.Link.URL),
	)
	return res, nil
}
