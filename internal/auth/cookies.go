package auth

import (
	"time"

	"github.com/chromedp/cdproto/network"
)

// Cookies X sets once a login completes
const (
	authTokenCookie = "auth_token"
	csrfCookie      = "ct0"
)

// Status describes the login session held by the browser profile
type Status struct {
	LoggedIn  bool
	ExpiresAt time.Time // earliest expiry of the session cookies, zero if unknown
}

// SessionStatus inspects profile cookies for a usable X session at now
func SessionStatus(cookies []*network.Cookie, now time.Time) Status {
	var hasAuthToken, hasCT0 bool
	var earliestExpiry time.Time

	for _, c := range cookies {
		if !isXDomain(c.Domain) || c.Value == "" {
			continue
		}
		if c.Name != authTokenCookie && c.Name != csrfCookie {
			continue
		}

		// Session cookies (Expires <= 0) live as long as the profile does.
		if c.Expires > 0 {
			exp := time.Unix(int64(c.Expires), 0)
			if !exp.After(now) {
				continue
			}
			if earliestExpiry.IsZero() || exp.Before(earliestExpiry) {
				earliestExpiry = exp
			}
		}

		switch c.Name {
		case authTokenCookie:
			hasAuthToken = true
		case csrfCookie:
			hasCT0 = true
		}
	}

	return Status{
		LoggedIn:  hasAuthToken && hasCT0,
		ExpiresAt: earliestExpiry,
	}
}

func isXDomain(domain string) bool {
	switch domain {
	case ".x.com", "x.com", ".twitter.com", "twitter.com":
		return true
	}
	return false
}
