package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/storage"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/ibeckermayer/searchscroll/internal/config"
)

// initScript runs before any page script on every new document.
const initScript = `
Object.defineProperty(navigator, 'webdriver', { get: () => undefined });
Object.defineProperty(navigator, 'languages', { get: () => ['en-US', 'en'] });
Object.defineProperty(navigator, 'platform', { get: () => 'Win32' });
`

// Session is one browser tab running on the persistent profile.
//
// Every ctx passed to its methods must be derived from Context(); chromedp
// resolves the target tab from the context.
type Session struct {
	ctx    context.Context
	cancel context.CancelFunc
	log    *zap.Logger
}

// Open launches the browser and prepares the first tab. Cancelling parent
// tears the browser down as well as Close does.
func Open(parent context.Context, cfg config.BrowserConfig, log *zap.Logger) (*Session, error) {
	if log == nil {
		log = zap.NewNop()
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(parent, Options(cfg)...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(log.Sugar().Debugf),
		chromedp.WithErrorf(log.Sugar().Debugf),
	)

	s := &Session{
		ctx: browserCtx,
		cancel: func() {
			browserCancel()
			allocCancel()
		},
		log: log,
	}

	// The first Run starts the browser process.
	err := chromedp.Run(browserCtx,
		chromedp.ActionFunc(func(ctx context.Context) error {
			_, err := page.AddScriptToEvaluateOnNewDocument(initScript).Do(ctx)
			return err
		}),
	)
	if err != nil {
		s.cancel()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}

	log.Info("browser started",
		zap.String("profile", cfg.UserDataDir),
		zap.Bool("headless", cfg.Headless),
	)
	return s, nil
}

// Context returns the context bound to the session's tab
func (s *Session) Context() context.Context {
	return s.ctx
}

// Close shuts the browser down
func (s *Session) Close() {
	s.cancel()
	s.log.Info("browser closed")
}

// Navigate loads url and waits until the document body is ready
func (s *Session) Navigate(ctx context.Context, url string) error {
	return chromedp.Run(ctx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
}

// WaitVisible blocks until selector matches a visible element or timeout elapses
func (s *Session) WaitVisible(ctx context.Context, selector string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	return chromedp.Run(ctx,
		chromedp.WaitVisible(selector, chromedp.ByQuery),
	)
}

// Scroll scrolls the window down by the full document height
func (s *Session) Scroll(ctx context.Context) error {
	return chromedp.Run(ctx,
		chromedp.Evaluate(`window.scrollBy(0, document.body.scrollHeight)`, nil),
	)
}

// ContainerHTML returns the outer HTML of every element matching selector, in document order
func (s *Session) ContainerHTML(ctx context.Context, selector string) ([]string, error) {
	var html []string
	js := fmt.Sprintf(`Array.from(document.querySelectorAll(%q)).map(el => el.outerHTML)`, selector)

	if err := chromedp.Run(ctx, chromedp.Evaluate(js, &html)); err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", selector, err)
	}
	return html, nil
}

// Location returns the current page URL
func (s *Session) Location(ctx context.Context) (string, error) {
	var url string
	if err := chromedp.Run(ctx, chromedp.Location(&url)); err != nil {
		return "", err
	}
	return url, nil
}

// Cookies returns every cookie stored in the profile
func (s *Session) Cookies(ctx context.Context) ([]*network.Cookie, error) {
	var cookies []*network.Cookie

	err := chromedp.Run(ctx,
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			cookies, err = storage.GetCookies().Do(ctx)
			return err
		}),
	)

	return cookies, err
}
