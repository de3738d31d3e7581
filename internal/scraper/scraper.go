package scraper

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ibeckermayer/searchscroll/internal/types"
)

// Page is the part of a browser tab the scroll loop needs
type Page interface {
	Scroll(ctx context.Context) error
	ContainerHTML(ctx context.Context, selector string) ([]string, error)
	Location(ctx context.Context) (string, error)
}

// Options controls the scroll loop
type Options struct {
	MaxScrolls    int
	ScrollWait    time.Duration
	ImageExcludes []string
}

// Scraper handles extracting posts from a search results page
type Scraper struct {
	page      Page
	opts      Options
	extractor *Extractor
	log       *zap.Logger
}

// New creates a new scraper reading from page
func New(page Page, opts Options, log *zap.Logger) *Scraper {
	if log == nil {
		log = zap.NewNop()
	}
	return &Scraper{
		page:      page,
		opts:      opts,
		extractor: NewExtractor(opts.ImageExcludes),
		log:       log,
	}
}

// Run scrolls the page opts.MaxScrolls times, extracting and deduplicating
// posts after each scroll. A failed scroll is logged and the loop moves on;
// only context cancellation stops it early.
func (s *Scraper) Run(ctx context.Context) ([]types.Post, error) {
	collector := NewCollector()

	for i := 0; i < s.opts.MaxScrolls; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if err := s.scrollOnce(ctx, i, collector); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			s.log.Warn("error during scroll", zap.Int("scroll", i+1), zap.Error(err))
			continue
		}

		s.log.Info("scroll complete",
			zap.Int("scroll", i+1),
			zap.Int("of", s.opts.MaxScrolls),
			zap.Int("collected", collector.Len()),
		)
	}

	return collector.Posts(), nil
}

// scrollOnce scrolls, waits for content to load and extracts every rendered container
func (s *Scraper) scrollOnce(ctx context.Context, i int, collector *Collector) error {
	if err := s.page.Scroll(ctx); err != nil {
		return fmt.Errorf("failed to scroll: %w", err)
	}

	if err := sleep(ctx, s.opts.ScrollWait); err != nil {
		return err
	}

	containers, err := s.page.ContainerHTML(ctx, PostContainer)
	if err != nil {
		return fmt.Errorf("failed to read post containers: %w", err)
	}
	s.log.Info("found post containers", zap.Int("scroll", i+1), zap.Int("count", len(containers)))

	pageURL, err := s.page.Location(ctx)
	if err != nil {
		s.log.Warn("could not read page url, links stay relative", zap.Error(err))
		pageURL = ""
	}

	for idx, html := range containers {
		s.processContainer(idx, html, pageURL, collector)
	}

	return nil
}

func (s *Scraper) processContainer(idx int, html, pageURL string, collector *Collector) {
	post, fieldErrs, err := s.extractor.Extract(html, pageURL)
	if err != nil {
		s.log.Warn("error processing post container", zap.Int("container", idx), zap.Error(err))
		return
	}

	for _, ferr := range fieldErrs {
		s.log.Debug("field extraction failed", zap.Int("container", idx), zap.Error(ferr))
	}

	s.log.Debug("extracted",
		zap.String("username", post.Username),
		zap.String("handle", post.Handle),
		zap.String("text", preview(post.Text, 50)),
	)

	if collector.Add(post) {
		s.log.Debug("new post", zap.String("link", post.Link))
	}
}

// sleep waits for d or until ctx is done
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func preview(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
