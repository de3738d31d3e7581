package scraper

import "github.com/andybalholm/cascadia"

// X.com DOM selectors
// These are isolated here because X changes their DOM frequently
// Update these when scraping breaks

const (
	// PostContainer wraps one rendered entry of the search timeline
	PostContainer = `div[data-testid="cellInnerDiv"]`

	PostText      = `div[data-testid="tweetText"]`
	PostAuthor    = `div[data-testid="User-Name"]`
	PostTimestamp = `time`
	PostLink      = `a[href*="/status/"]`
	PostImage     = `img`
)

// Common wait conditions
const (
	WaitForPosts = PostContainer
)

// Compiled matchers for the goquery side of extraction
var (
	authorSpans   = cascadia.MustCompile(PostAuthor + ` span`)
	authorLinks   = cascadia.MustCompile(PostAuthor + ` a[href^="/"]`)
	textMatcher   = cascadia.MustCompile(PostText)
	timeMatcher   = cascadia.MustCompile(PostTimestamp)
	linkMatcher   = cascadia.MustCompile(PostLink)
	imageMatcher  = cascadia.MustCompile(PostImage)
	anchorMatcher = cascadia.MustCompile(`a`)
)
