package app

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ibeckermayer/searchscroll/internal/config"
	"github.com/ibeckermayer/searchscroll/internal/types"
)

type fakeBrowser struct {
	ctx        context.Context
	navFails   int
	navCalls   int
	waitErr    error
	containers []string
	scrolls    int
	closed     bool
}

func (b *fakeBrowser) Context() context.Context { return b.ctx }
func (b *fakeBrowser) Close()                   { b.closed = true }

func (b *fakeBrowser) Navigate(ctx context.Context, url string) error {
	b.navCalls++
	if b.navCalls <= b.navFails {
		return errors.New("net::ERR_TIMED_OUT")
	}
	return nil
}

func (b *fakeBrowser) WaitVisible(ctx context.Context, selector string, timeout time.Duration) error {
	return b.waitErr
}

func (b *fakeBrowser) Scroll(ctx context.Context) error {
	b.scrolls++
	return nil
}

func (b *fakeBrowser) ContainerHTML(ctx context.Context, selector string) ([]string, error) {
	return b.containers, nil
}

func (b *fakeBrowser) Location(ctx context.Context) (string, error) {
	return "https://x.com/search?q=test&f=live", nil
}

func (b *fakeBrowser) Cookies(ctx context.Context) ([]*network.Cookie, error) {
	return nil, nil
}

func container(handle, id string) string {
	return fmt.Sprintf(`<div data-testid="cellInnerDiv">`+
		`<div data-testid="User-Name"><span>%[1]s</span><span>@%[1]s</span></div>`+
		`<a href="/%[1]s/status/%[2]s"><time datetime="2025-04-01T08:00:00.000Z">1m</time></a>`+
		`<div data-testid="tweetText">post %[2]s</div></div>`, handle, id)
}

func testConfig(t *testing.T) *config.Config {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Navigation.Backoff = config.NewDuration(time.Millisecond)
	cfg.Scroll.MaxScrolls = 5
	cfg.Scroll.Wait = config.NewDuration(0)
	cfg.Output.JSONPath = filepath.Join(dir, "tweets.json")
	cfg.Output.CSVPath = filepath.Join(dir, "tweets.csv")
	return cfg
}

func opener(b *fakeBrowser) Opener {
	return func(ctx context.Context, cfg config.BrowserConfig, log *zap.Logger) (Browser, error) {
		b.ctx = ctx
		return b, nil
	}
}

func TestScrapeWritesDeduplicatedPosts(t *testing.T) {
	cfg := testConfig(t)
	b := &fakeBrowser{
		navFails:   1,
		containers: []string{container("ann", "1"), container("bob", "2"), container("ann", "1"), container("cy", "3")},
	}

	res, err := New(cfg, nil, opener(b)).Scrape(context.Background())
	require.NoError(t, err)
	assert.True(t, b.closed)
	assert.Equal(t, 2, b.navCalls)
	assert.Equal(t, 5, b.scrolls)
	assert.Equal(t, 3, res.Posts)

	data, err := os.ReadFile(res.Paths.JSON)
	require.NoError(t, err)
	var posts []types.Post
	require.NoError(t, json.Unmarshal(data, &posts))
	require.Len(t, posts, 3)
	assert.Equal(t, "@ann", posts[0].Handle)
	assert.Equal(t, "https://x.com/ann/status/1", posts[0].Link)

	f, err := os.Open(res.Paths.CSV)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4)
	for i, p := range posts {
		assert.Equal(t, p.Link, rows[i+1][4])
	}
}

func TestScrapeAbortsWhenNavigationExhausted(t *testing.T) {
	cfg := testConfig(t)
	b := &fakeBrowser{navFails: 100, containers: []string{container("ann", "1")}}

	_, err := New(cfg, nil, opener(b)).Scrape(context.Background())
	require.Error(t, err)
	assert.Equal(t, cfg.Navigation.Retries, b.navCalls)
	assert.Zero(t, b.scrolls)
	assert.True(t, b.closed)
	assert.NoFileExists(t, cfg.Output.JSONPath)
	assert.NoFileExists(t, cfg.Output.CSVPath)
}

func TestScrapeAbortsWhenFeedNeverAppears(t *testing.T) {
	cfg := testConfig(t)
	b := &fakeBrowser{waitErr: context.DeadlineExceeded}

	_, err := New(cfg, nil, opener(b)).Scrape(context.Background())
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Zero(t, b.scrolls)
	assert.NoFileExists(t, cfg.Output.JSONPath)
}

func TestScrapeOpenFailure(t *testing.T) {
	cfg := testConfig(t)
	failing := func(ctx context.Context, cfg config.BrowserConfig, log *zap.Logger) (Browser, error) {
		return nil, errors.New("chrome not found")
	}

	_, err := New(cfg, nil, failing).Scrape(context.Background())
	require.EqualError(t, err, "chrome not found")
}
