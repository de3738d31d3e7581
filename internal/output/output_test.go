package output

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ibeckermayer/searchscroll/internal/config"
	"github.com/ibeckermayer/searchscroll/internal/types"
)

func samplePosts() []types.Post {
	return []types.Post{
		{
			Username:  "Gopher",
			Handle:    "@gopher",
			Text:      "stress <and> \"quotes\", commas\nnewline",
			Timestamp: "2025-02-11T17:00:00.000Z",
			Link:      "https://x.com/gopher/status/1",
			Images:    []string{"https://pbs.twimg.com/media/a.jpg", "https://pbs.twimg.com/media/b.jpg"},
		},
		{
			Link:   "https://x.com/someone/status/2",
			Images: []string{},
		},
	}
}

func readJSON(t *testing.T, path string) []types.Post {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var posts []types.Post
	require.NoError(t, json.Unmarshal(data, &posts))
	return posts
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestWriterWritesBothFormats(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(config.OutputConfig{
		JSONPath:       filepath.Join(dir, "out", "tweets.json"),
		CSVPath:        filepath.Join(dir, "out", "tweets.csv"),
		ImageSeparator: " | ",
	})

	paths, err := w.Write(samplePosts())
	require.NoError(t, err)

	fromJSON := readJSON(t, paths.JSON)
	assert.Equal(t, samplePosts(), fromJSON)

	rows := readCSV(t, paths.CSV)
	require.Len(t, rows, 3)
	assert.Equal(t, CSVHeader, rows[0])
	assert.Equal(t, "stress <and> \"quotes\", commas\nnewline", rows[1][2])
	assert.Equal(t, "https://pbs.twimg.com/media/a.jpg | https://pbs.twimg.com/media/b.jpg", rows[1][5])
	assert.Equal(t, []string{"", "", "", "", "https://x.com/someone/status/2", ""}, rows[2])

	// both outputs carry the same permalinks
	jsonLinks := map[string]bool{}
	for _, p := range fromJSON {
		jsonLinks[p.Link] = true
	}
	csvLinks := map[string]bool{}
	for _, row := range rows[1:] {
		csvLinks[row[4]] = true
	}
	assert.Equal(t, jsonLinks, csvLinks)
}

func TestWriteJSONKeepsFieldNamesAndUnicode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tweets.json")
	posts := []types.Post{{Text: "stres sosial media 😩 <b>", Link: "https://x.com/a/status/1", Images: []string{}}}
	require.NoError(t, WriteJSON(path, posts))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	s := string(data)

	for _, key := range []string{`"username"`, `"handle"`, `"text"`, `"timestamp"`, `"tweet_link"`, `"images": []`} {
		assert.Contains(t, s, key)
	}
	assert.Contains(t, s, "😩 <b>")
	assert.True(t, strings.HasPrefix(s, "[\n  {"))
}

func TestWriteEmptyRun(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(config.OutputConfig{
		JSONPath: filepath.Join(dir, "tweets.json"),
		CSVPath:  filepath.Join(dir, "tweets.csv"),
	})

	paths, err := w.Write(nil)
	require.NoError(t, err)

	data, err := os.ReadFile(paths.JSON)
	require.NoError(t, err)
	assert.Equal(t, "[]\n", string(data))
	assert.Equal(t, [][]string{CSVHeader}, readCSV(t, paths.CSV))
}

func TestTimestampedPaths(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(config.OutputConfig{
		JSONPath:    filepath.Join(dir, "tweets.json"),
		CSVPath:     filepath.Join(dir, "tweets.csv"),
		Timestamped: true,
	})
	w.now = func() time.Time { return time.Date(2025, 3, 1, 9, 30, 5, 0, time.UTC) }

	paths, err := w.Write(samplePosts())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "tweets_2025-03-01T09-30-05.json"), paths.JSON)
	assert.Equal(t, filepath.Join(dir, "tweets_2025-03-01T09-30-05.csv"), paths.CSV)
	assert.FileExists(t, paths.JSON)
	assert.FileExists(t, paths.CSV)
}

func TestWriteFailsOnUnwritablePath(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0644))

	err := WriteJSON(filepath.Join(blocker, "tweets.json"), samplePosts())
	require.Error(t, err)
}
