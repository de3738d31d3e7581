package scraper

import "github.com/ibeckermayer/searchscroll/internal/types"

// Collector accumulates posts in discovery order, keeping one per permalink
type Collector struct {
	posts []types.Post
	seen  map[string]bool
}

// NewCollector creates an empty collector
func NewCollector() *Collector {
	return &Collector{seen: make(map[string]bool)}
}

// Add keeps p if it has a permalink that has not been seen yet and reports whether it was kept
func (c *Collector) Add(p types.Post) bool {
	if !p.HasLink() || c.seen[p.Link] {
		return false
	}
	c.seen[p.Link] = true
	c.posts = append(c.posts, p)
	return true
}

// Len returns the number of posts kept so far
func (c *Collector) Len() int {
	return len(c.posts)
}

// Posts returns a copy of the kept posts in the order they were added
func (c *Collector) Posts() []types.Post {
	out := make([]types.Post, len(c.posts))
	copy(out, c.posts)
	return out
}
