package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/network"
	"go.uber.org/zap"
)

// LoginURL is where Login sends the browser
const LoginURL = "https://x.com/login"

// ErrLoginTimeout is returned when the user did not finish logging in in time
var ErrLoginTimeout = errors.New("login timeout exceeded")

// Browser is the part of a browser session the auth manager needs
type Browser interface {
	Navigate(ctx context.Context, url string) error
	Cookies(ctx context.Context) ([]*network.Cookie, error)
}

// Manager handles the X.com login held by the persistent browser profile
type Manager struct {
	browser Browser
	log     *zap.Logger
	now     func() time.Time
}

// NewManager creates a new auth manager
func NewManager(browser Browser, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{browser: browser, log: log, now: time.Now}
}

// Check reports whether the profile currently holds a session
func (m *Manager) Check(ctx context.Context) (Status, error) {
	cookies, err := m.browser.Cookies(ctx)
	if err != nil {
		return Status{}, fmt.Errorf("failed to read cookies: %w", err)
	}
	return SessionStatus(cookies, m.now()), nil
}

// Login opens the login page and waits for the user to log in by hand
func (m *Manager) Login(ctx context.Context, timeout, poll time.Duration) (Status, error) {
	if err := m.browser.Navigate(ctx, LoginURL); err != nil {
		return Status{}, fmt.Errorf("failed to navigate to login page: %w", err)
	}
	m.log.Info("waiting for login in the browser window", zap.Duration("timeout", timeout))

	status, err := m.waitForLogin(ctx, timeout, poll)
	if err != nil {
		return Status{}, fmt.Errorf("login failed: %w", err)
	}
	m.log.Info("login detected, session saved in profile", zap.Time("expires", status.ExpiresAt))
	return status, nil
}

// waitForLogin polls the profile cookies until a session appears
func (m *Manager) waitForLogin(ctx context.Context, timeout, poll time.Duration) (Status, error) {
	deadline := time.After(timeout)
	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	for {
		select {
		case <-deadline:
			return Status{}, ErrLoginTimeout
		case <-ticker.C:
			status, err := m.Check(ctx)
			if err != nil {
				m.log.Debug("cookie check failed", zap.Error(err))
				continue
			}
			if status.LoggedIn {
				return status, nil
			}
		case <-ctx.Done():
			return Status{}, ctx.Err()
		}
	}
}
