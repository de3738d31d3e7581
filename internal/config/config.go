package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// DefaultSearchURL is the live search the scraper opens when none is configured.
const DefaultSearchURL = "https://x.com/search?q=sosial%20media%20stress&src=typed_query&f=live"

// Config holds all application configuration
type Config struct {
	Version    int              `toml:"version"`
	Search     SearchConfig     `toml:"search"`
	Browser    BrowserConfig    `toml:"browser"`
	Navigation NavigationConfig `toml:"navigation"`
	Scroll     ScrollConfig     `toml:"scroll"`
	Extract    ExtractConfig    `toml:"extract"`
	Output     OutputConfig     `toml:"output"`
	Log        LogConfig        `toml:"log"`
}

type SearchConfig struct {
	URL string `toml:"url"`
}

type BrowserConfig struct {
	Headless       bool   `toml:"headless"`
	UserDataDir    string `toml:"user_data_dir"`
	StartMaximized bool   `toml:"start_maximized"`
	ExecPath       string `toml:"exec_path"`
}

type NavigationConfig struct {
	Retries  int      `toml:"retries"`
	Timeout  Duration `toml:"timeout"`
	Backoff  Duration `toml:"backoff"`
	FeedWait Duration `toml:"feed_wait"`
}

type ScrollConfig struct {
	MaxScrolls int      `toml:"max_scrolls"`
	Wait       Duration `toml:"wait"`
}

type ExtractConfig struct {
	// ImageExcludes drops any image whose src contains one of these substrings.
	ImageExcludes []string `toml:"image_excludes"`
}

type OutputConfig struct {
	JSONPath       string `toml:"json_path"`
	CSVPath        string `toml:"csv_path"`
	ImageSeparator string `toml:"image_separator"`
	Timestamped    bool   `toml:"timestamped"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "console" or "json"
}

// Duration is a time.Duration stored as a string such as "60s" in TOML
type Duration struct {
	time.Duration
}

// NewDuration wraps d
func NewDuration(d time.Duration) Duration {
	return Duration{Duration: d}
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}
	d.Duration = parsed
	return nil
}

// Default returns a Config with sensible defaults
func Default() *Config {
	return &Config{
		Version: 1,
		Search: SearchConfig{
			URL: DefaultSearchURL,
		},
		Browser: BrowserConfig{
			Headless:       false,
			UserDataDir:    "user_data",
			StartMaximized: true,
		},
		Navigation: NavigationConfig{
			Retries:  3,
			Timeout:  NewDuration(60 * time.Second),
			Backoff:  NewDuration(5 * time.Second),
			FeedWait: NewDuration(60 * time.Second),
		},
		Scroll: ScrollConfig{
			MaxScrolls: 20,
			Wait:       NewDuration(2 * time.Second),
		},
		Extract: ExtractConfig{
			ImageExcludes: []string{"profile_images", "emoji"},
		},
		Output: OutputConfig{
			JSONPath:       "tweets.json",
			CSVPath:        "tweets.csv",
			ImageSeparator: " | ",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Validate reports the first setting that would make a run meaningless
func (c *Config) Validate() error {
	if c.Search.URL == "" {
		return errors.New("search.url is empty")
	}
	u, err := url.Parse(c.Search.URL)
	if err != nil {
		return fmt.Errorf("search.url is invalid: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("search.url must be http(s), got %q", c.Search.URL)
	}
	if c.Navigation.Retries < 1 {
		return fmt.Errorf("navigation.retries must be at least 1, got %d", c.Navigation.Retries)
	}
	if c.Navigation.Timeout.Duration <= 0 {
		return errors.New("navigation.timeout must be positive")
	}
	if c.Navigation.Backoff.Duration < 0 || c.Scroll.Wait.Duration < 0 {
		return errors.New("navigation.backoff and scroll.wait must not be negative")
	}
	if c.Scroll.MaxScrolls < 0 {
		return fmt.Errorf("scroll.max_scrolls must not be negative, got %d", c.Scroll.MaxScrolls)
	}
	if c.Output.JSONPath == "" || c.Output.CSVPath == "" {
		return errors.New("output.json_path and output.csv_path are required")
	}
	if c.Browser.UserDataDir == "" {
		return errors.New("browser.user_data_dir is required")
	}
	return nil
}

// ConfigDir returns the platform-appropriate config directory
func ConfigDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "searchscroll"), nil
}

// ConfigPath returns the full path to the config file
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Load reads config from the default path
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFile(path)
}

// LoadFile reads config from path. Keys missing from the file keep their defaults.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes config to the default path
func (c *Config) Save() error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return c.SaveFile(path)
}

// SaveFile writes config to path, creating its directory
func (c *Config) SaveFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	return encoder.Encode(c)
}
