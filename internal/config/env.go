package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const envPrefix = "SEARCHSCROLL_"

// LoadDotEnv loads variables from the given .env files into the process
// environment. Missing files are ignored; existing variables are not overwritten.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return nil
}

// ApplyEnv overrides config values from SEARCHSCROLL_* environment variables
func (c *Config) ApplyEnv() {
	c.Search.URL = envOr("URL", c.Search.URL)

	c.Browser.Headless = envBoolOr("HEADLESS", c.Browser.Headless)
	c.Browser.UserDataDir = envOr("USER_DATA_DIR", c.Browser.UserDataDir)
	c.Browser.ExecPath = envOr("CHROME_PATH", c.Browser.ExecPath)

	c.Navigation.Retries = envIntOr("NAV_RETRIES", c.Navigation.Retries)
	c.Navigation.Timeout.Duration = envDurationOr("NAV_TIMEOUT", c.Navigation.Timeout.Duration)
	c.Navigation.Backoff.Duration = envDurationOr("NAV_BACKOFF", c.Navigation.Backoff.Duration)
	c.Navigation.FeedWait.Duration = envDurationOr("FEED_WAIT", c.Navigation.FeedWait.Duration)

	c.Scroll.MaxScrolls = envIntOr("MAX_SCROLLS", c.Scroll.MaxScrolls)
	c.Scroll.Wait.Duration = envDurationOr("SCROLL_WAIT", c.Scroll.Wait.Duration)

	c.Extract.ImageExcludes = envSliceOr("IMAGE_EXCLUDES", c.Extract.ImageExcludes)

	c.Output.JSONPath = envOr("OUTPUT_JSON", c.Output.JSONPath)
	c.Output.CSVPath = envOr("OUTPUT_CSV", c.Output.CSVPath)

	c.Log.Level = envOr("LOG_LEVEL", c.Log.Level)
	c.Log.Format = envOr("LOG_FORMAT", c.Log.Format)
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(envPrefix + key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(envPrefix + key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(envPrefix + key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(envPrefix + key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envSliceOr(key string, fallback []string) []string {
	if v := os.Getenv(envPrefix + key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return fallback
}
