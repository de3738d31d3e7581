// Package output writes scraped posts to JSON and CSV files.
package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ibeckermayer/searchscroll/internal/config"
	"github.com/ibeckermayer/searchscroll/internal/types"
)

// CSVHeader is the fixed first row of the CSV output
var CSVHeader = []string{"username", "handle", "text", "timestamp", "tweet_link", "images"}

// Paths reports where a Write put its files
type Paths struct {
	JSON string
	CSV  string
}

// Writer flushes a finished run to disk
type Writer struct {
	cfg config.OutputConfig
	now func() time.Time
}

// NewWriter creates a writer for the configured output paths
func NewWriter(cfg config.OutputConfig) *Writer {
	return &Writer{cfg: cfg, now: time.Now}
}

// Write serializes posts to both the JSON and the CSV file
func (w *Writer) Write(posts []types.Post) (Paths, error) {
	paths := Paths{JSON: w.cfg.JSONPath, CSV: w.cfg.CSVPath}
	if w.cfg.Timestamped {
		stamp := w.now().Format("2006-01-02T15-04-05")
		paths.JSON = withSuffix(paths.JSON, stamp)
		paths.CSV = withSuffix(paths.CSV, stamp)
	}

	if err := WriteJSON(paths.JSON, posts); err != nil {
		return Paths{}, err
	}
	if err := WriteCSV(paths.CSV, posts, w.cfg.ImageSeparator); err != nil {
		return Paths{}, err
	}
	return paths, nil
}

// WriteJSON writes posts as an indented JSON array
func WriteJSON(path string, posts []types.Post) error {
	if posts == nil {
		posts = []types.Post{}
	}

	f, err := create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(posts); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}

// WriteCSV writes a header row and one row per post, joining images with sep
func WriteCSV(path string, posts []types.Post, sep string) error {
	f, err := create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(CSVHeader); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	for _, p := range posts {
		row := []string{p.Username, p.Handle, p.Text, p.Timestamp, p.Link, strings.Join(p.Images, sep)}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}

func create(path string) (*os.File, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create output dir: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", path, err)
	}
	return f, nil
}

// withSuffix turns "out/tweets.json" into "out/tweets_<suffix>.json"
func withSuffix(path, suffix string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + "_" + suffix + ext
}
