package scraper

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/ibeckermayer/searchscroll/internal/types"
)

// ErrFieldMissing marks a field that could not be extracted from a container.
// The field is left empty and the post is kept.
var ErrFieldMissing = errors.New("field missing")

// Extractor turns the HTML of one post container into a types.Post
type Extractor struct {
	imageExcludes []string
}

// NewExtractor creates an extractor that drops image URLs containing any of imageExcludes
func NewExtractor(imageExcludes []string) *Extractor {
	return &Extractor{imageExcludes: imageExcludes}
}

// Extract parses a container's outer HTML. pageURL is used to resolve relative links.
//
// Every field is extracted on its own: fieldErrs lists the fields that came
// back empty, and the returned post is still usable. err is only set when the
// HTML cannot be parsed at all.
func (e *Extractor) Extract(containerHTML, pageURL string) (post types.Post, fieldErrs []error, err error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(containerHTML))
	if err != nil {
		return types.Post{}, nil, fmt.Errorf("failed to parse container html: %w", err)
	}
	root := doc.Selection

	var base *url.URL
	if pageURL != "" {
		if parsed, perr := url.Parse(pageURL); perr == nil {
			base = parsed
		}
	}

	collect := func(err error) {
		if err != nil {
			fieldErrs = append(fieldErrs, err)
		}
	}

	var usernameErr, handleErr, linkErr error
	post.Username, usernameErr = extractUsername(root)
	post.Handle, handleErr = extractHandle(root)
	collect(usernameErr)
	collect(handleErr)

	var textErr, timestampErr error
	post.Text, textErr = extractText(root)
	post.Timestamp, timestampErr = extractTimestamp(root)
	collect(textErr)
	collect(timestampErr)

	post.Link, linkErr = extractLink(root, base)
	collect(linkErr)

	post.Images = e.extractImages(root, base)

	return post, fieldErrs, nil
}

func missing(field string) error {
	return fmt.Errorf("%w: %s", ErrFieldMissing, field)
}

// extractUsername returns the first author span that is not the @handle
func extractUsername(root *goquery.Selection) (string, error) {
	var username string
	root.FindMatcher(authorSpans).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		t := strings.TrimSpace(s.Text())
		if t != "" && !strings.HasPrefix(t, "@") {
			username = t
			return false
		}
		return true
	})
	if username == "" {
		return "", missing("username")
	}
	return username, nil
}

// extractHandle prefers the rendered "@name" span and falls back to the profile link
func extractHandle(root *goquery.Selection) (string, error) {
	var handle string
	root.FindMatcher(authorSpans).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		t := strings.TrimSpace(s.Text())
		if strings.HasPrefix(t, "@") && len(t) > 1 {
			handle = t
			return false
		}
		return true
	})
	if handle != "" {
		return handle, nil
	}

	root.FindMatcher(authorLinks).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href, _ := s.Attr("href")
		name := strings.Trim(href, "/")
		if name != "" && !strings.Contains(name, "/") {
			handle = "@" + name
			return false
		}
		return true
	})
	if handle == "" {
		return "", missing("handle")
	}
	return handle, nil
}

// extractText reads the post body, falling back to the whole container text
func extractText(root *goquery.Selection) (string, error) {
	if body := root.FindMatcher(textMatcher).First(); body.Length() > 0 {
		if t := strings.TrimSpace(body.Text()); t != "" {
			return t, nil
		}
	}
	if t := strings.TrimSpace(root.Text()); t != "" {
		return t, nil
	}
	return "", missing("text")
}

func extractTimestamp(root *goquery.Selection) (string, error) {
	if ts, ok := root.FindMatcher(timeMatcher).First().Attr("datetime"); ok && strings.TrimSpace(ts) != "" {
		return strings.TrimSpace(ts), nil
	}
	return "", missing("timestamp")
}

// extractLink finds the permalink: the anchor wrapping the timestamp, else
// the first status link in the container.
func extractLink(root *goquery.Selection, base *url.URL) (string, error) {
	var href string

	if parent := root.FindMatcher(timeMatcher).First().Parent(); parent.IsMatcher(anchorMatcher) {
		href, _ = parent.Attr("href")
	}
	if strings.TrimSpace(href) == "" {
		href, _ = root.FindMatcher(linkMatcher).First().Attr("href")
	}

	link := CanonicalLink(href, base)
	if link == "" {
		return "", missing("link")
	}
	return link, nil
}

func (e *Extractor) extractImages(root *goquery.Selection, base *url.URL) []string {
	images := []string{}
	root.FindMatcher(imageMatcher).Each(func(_ int, s *goquery.Selection) {
		src, _ := s.Attr("src")
		src = strings.TrimSpace(src)
		if src == "" || e.excluded(src) {
			return
		}
		images = append(images, resolve(src, base))
	})
	return images
}

func (e *Extractor) excluded(src string) bool {
	for _, sub := range e.imageExcludes {
		if sub != "" && strings.Contains(src, sub) {
			return true
		}
	}
	return false
}

// CanonicalLink resolves href against base and trims a status URL down to
// ".../status/<id>", dropping media suffixes, query and fragment.
// Links without a status segment are only resolved.
func CanonicalLink(href string, base *url.URL) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}

	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if base != nil {
		u = base.ResolveReference(u)
	}

	segments := strings.Split(u.Path, "/")
	for i := 0; i+1 < len(segments); i++ {
		if segments[i] == "status" && isDigits(segments[i+1]) {
			u.Path = strings.Join(segments[:i+2], "/")
			u.RawPath = ""
			u.RawQuery = ""
			u.Fragment = ""
			break
		}
	}

	return u.String()
}

func resolve(raw string, base *url.URL) string {
	if base == nil {
		return raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.IsAbs() {
		return raw
	}
	return base.ResolveReference(u).String()
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
