package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/pkg/browser"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ibeckermayer/searchscroll/internal/app"
	"github.com/ibeckermayer/searchscroll/internal/config"
	"github.com/ibeckermayer/searchscroll/internal/logger"
)

type flags struct {
	configPath string
	envFile    string
	url        string
	scrolls    int
	headless   bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	f := &flags{}

	root := &cobra.Command{
		Use:           "searchscroll",
		Short:         "Scroll an X search results page and save the posts to JSON and CSV",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScrape(cmd, f)
		},
	}
	root.PersistentFlags().StringVar(&f.configPath, "config", "", "config file (default is the user config dir)")
	root.PersistentFlags().StringVar(&f.envFile, "env-file", ".env", "dotenv file with SEARCHSCROLL_* overrides")
	root.PersistentFlags().StringVar(&f.url, "url", "", "search URL to scrape (overrides config)")
	root.PersistentFlags().IntVar(&f.scrolls, "scrolls", 0, "number of scroll iterations (overrides config)")
	root.PersistentFlags().BoolVar(&f.headless, "headless", false, "run the browser headless (overrides config)")

	scrape := &cobra.Command{
		Use:   "scrape",
		Short: "Run the scraper (default command)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScrape(cmd, f)
		},
	}

	var loginTimeout time.Duration
	login := &cobra.Command{
		Use:   "login",
		Short: "Open the browser profile on the X login page and wait for a manual login",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup(cmd, f)
			if err != nil {
				return err
			}
			defer log.Sync()

			cfg.Browser.Headless = false
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return app.New(cfg, log, nil).Login(ctx, loginTimeout)
		},
	}
	login.Flags().DurationVar(&loginTimeout, "timeout", 5*time.Minute, "how long to wait for the login")

	open := &cobra.Command{
		Use:       "open <config|output>",
		Short:     "Open the config file or the output directory",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"config", "output"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOpen(cmd, f, args[0])
		},
	}

	var force bool
	configCmd := &cobra.Command{Use: "config", Short: "Manage the config file"}
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := configPath(f)
			if err != nil {
				return err
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
			if err := config.Default().SaveFile(path); err != nil {
				return fmt.Errorf("failed to save config: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Created default config at:", path)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing config file")
	configCmd.AddCommand(initCmd)

	root.AddCommand(scrape, login, open, configCmd)
	return root
}

func runScrape(cmd *cobra.Command, f *flags) error {
	cfg, log, err := setup(cmd, f)
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info("searchscroll starting",
		zap.String("url", cfg.Search.URL),
		zap.Int("scrolls", cfg.Scroll.MaxScrolls),
	)
	res, err := app.New(cfg, log, nil).Scrape(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			log.Warn("interrupted, nothing saved")
		}
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Saved %d posts to %s and %s\n", res.Posts, res.Paths.JSON, res.Paths.CSV)
	return nil
}

func runOpen(cmd *cobra.Command, f *flags, target string) error {
	var path string
	switch target {
	case "config":
		p, err := configPath(f)
		if err != nil {
			return err
		}
		path = p
	case "output":
		cfg, log, err := setup(cmd, f)
		if err != nil {
			return err
		}
		defer log.Sync()
		abs, err := filepath.Abs(cfg.Output.JSONPath)
		if err != nil {
			return err
		}
		path = filepath.Dir(abs)
	default:
		return fmt.Errorf("unknown target: %s", target)
	}

	if err := browser.OpenFile(path); err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	return nil
}

// setup resolves the configuration (file, then .env/environment, then flags) and builds the logger
func setup(cmd *cobra.Command, f *flags) (*config.Config, *zap.Logger, error) {
	if err := config.LoadDotEnv(f.envFile); err != nil {
		return nil, nil, fmt.Errorf("failed to load %s: %w", f.envFile, err)
	}

	path, err := configPath(f)
	if err != nil {
		return nil, nil, err
	}

	cfg, err := config.LoadFile(path)
	usedDefaults := false
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, nil, fmt.Errorf("failed to load config %s: %w", path, err)
		}
		cfg = config.Default()
		usedDefaults = true
	}

	cfg.ApplyEnv()
	if cmd.Flags().Changed("url") {
		cfg.Search.URL = f.url
	}
	if cmd.Flags().Changed("scrolls") {
		cfg.Scroll.MaxScrolls = f.scrolls
	}
	if cmd.Flags().Changed("headless") {
		cfg.Browser.Headless = f.headless
	}

	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid config: %w", err)
	}

	log, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, nil, err
	}
	if usedDefaults {
		log.Info("no config file found, using defaults", zap.String("path", path))
	} else {
		log.Debug("loaded config", zap.String("path", path))
	}
	return cfg, log, nil
}

func configPath(f *flags) (string, error) {
	if f.configPath != "" {
		return f.configPath, nil
	}
	return config.ConfigPath()
}
