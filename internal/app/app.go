package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ibeckermayer/searchscroll/internal/auth"
	"github.com/ibeckermayer/searchscroll/internal/browser"
	"github.com/ibeckermayer/searchscroll/internal/config"
	"github.com/ibeckermayer/searchscroll/internal/output"
	"github.com/ibeckermayer/searchscroll/internal/scraper"
)

// Browser is everything a run needs from a browser session
type Browser interface {
	scraper.Page
	scraper.Navigator
	auth.Browser
	WaitVisible(ctx context.Context, selector string, timeout time.Duration) error
	Context() context.Context
	Close()
}

// Opener starts a browser session
type Opener func(ctx context.Context, cfg config.BrowserConfig, log *zap.Logger) (Browser, error)

// OpenChrome starts Chrome on the configured profile
func OpenChrome(ctx context.Context, cfg config.BrowserConfig, log *zap.Logger) (Browser, error) {
	s, err := browser.Open(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Result summarizes a finished scrape
type Result struct {
	Posts int
	Paths output.Paths
}

// App holds the application state.
type App struct {
	config *config.Config
	log    *zap.Logger
	open   Opener
	writer *output.Writer
}

// New creates a new App instance.
func New(cfg *config.Config, log *zap.Logger, open Opener) *App {
	if log == nil {
		log = zap.NewNop()
	}
	if open == nil {
		open = OpenChrome
	}
	return &App{
		config: cfg,
		log:    log,
		open:   open,
		writer: output.NewWriter(cfg.Output),
	}
}

// Scrape performs the full navigate -> scroll/extract -> write flow.
// Nothing is written unless the scroll loop completes.
func (a *App) Scrape(ctx context.Context) (Result, error) {
	cfg := a.config

	b, err := a.open(ctx, cfg.Browser, a.log)
	if err != nil {
		return Result{}, err
	}
	defer b.Close()
	ctx = b.Context()

	// Step 1: Load the search page
	a.log.Info("navigating to search page", zap.String("url", cfg.Search.URL))
	policy := scraper.RetryPolicy{
		Attempts: cfg.Navigation.Retries,
		Timeout:  cfg.Navigation.Timeout.Duration,
		Backoff:  cfg.Navigation.Backoff.Duration,
	}
	if err := scraper.NavigateWithRetry(ctx, b, cfg.Search.URL, policy, a.log); err != nil {
		return Result{}, err
	}

	// Step 2: Wait for the feed, leaving time for a manual login
	a.log.Info("if a login page appears, log in manually; the session is kept for next runs",
		zap.Duration("wait", cfg.Navigation.FeedWait.Duration))
	if err := b.WaitVisible(ctx, scraper.WaitForPosts, cfg.Navigation.FeedWait.Duration); err != nil {
		return Result{}, fmt.Errorf("failed to load feed: %w", err)
	}

	if status, err := auth.NewManager(b, a.log).Check(ctx); err != nil {
		a.log.Warn("could not check login session", zap.Error(err))
	} else if !status.LoggedIn {
		a.log.Warn("no login session in browser profile; results may be limited",
			zap.String("profile", cfg.Browser.UserDataDir))
	}

	// Step 3: Scroll and extract
	sc := scraper.New(b, scraper.Options{
		MaxScrolls:    cfg.Scroll.MaxScrolls,
		ScrollWait:    cfg.Scroll.Wait.Duration,
		ImageExcludes: cfg.Extract.ImageExcludes,
	}, a.log)

	posts, err := sc.Run(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("failed to scrape posts: %w", err)
	}

	// Step 4: Save
	paths, err := a.writer.Write(posts)
	if err != nil {
		return Result{}, fmt.Errorf("failed to save posts: %w", err)
	}

	a.log.Info("done",
		zap.Int("posts", len(posts)),
		zap.String("json", paths.JSON),
		zap.String("csv", paths.CSV),
	)
	return Result{Posts: len(posts), Paths: paths}, nil
}

// Login opens the profile on the login page and waits for the user to log in.
func (a *App) Login(ctx context.Context, timeout time.Duration) error {
	b, err := a.open(ctx, a.config.Browser, a.log)
	if err != nil {
		return err
	}
	defer b.Close()

	m := auth.NewManager(b, a.log)
	_, err = m.Login(b.Context(), timeout, 2*time.Second)
	return err
}
