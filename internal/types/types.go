package types

// Post represents a post scraped from a search results page
type Post struct {
	Username  string   `json:"username"`
	Handle    string   `json:"handle"`
	Text      string   `json:"text"`
	Timestamp string   `json:"timestamp"`
	Link      string   `json:"tweet_link"`
	Images    []string `json:"images"`
}

// HasLink reports whether the post carries a permalink
func (p Post) HasLink() bool {
	return p.Link != ""
}
