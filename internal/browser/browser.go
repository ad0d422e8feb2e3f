// Package browser models the controlled browser session the authenticator
// drives. The portal has no public API: login must execute the site's own
// JavaScript and ride its session cookies, so authentication happens inside
// a real browser. Everything above this package depends only on the Session
// interface and tests against a fake.
package browser

import (
	"context"
	"fmt"
	"net/url"
)

// Session is the minimal capability surface the authenticator needs from a
// browser: navigate, inspect, fill, click, read cookies.
type Session interface {
	// Navigate loads url and waits for the document to become ready.
	Navigate(ctx context.Context, url string) error

	// Location returns the page's current URL.
	Location(ctx context.Context) (string, error)

	// Evaluate runs a JavaScript expression in the page and unmarshals its
	// result into out.
	Evaluate(ctx context.Context, js string, out any) error

	// Fill types value into the element matched by the CSS selector.
	Fill(ctx context.Context, selector, value string) error

	// Click clicks the element matched by the CSS selector.
	Click(ctx context.Context, selector string) error

	// Cookies returns the cookie jar of the current browsing context.
	Cookies(ctx context.Context) ([]Cookie, error)

	// Close releases the browser. Idempotent.
	Close() error
}

// Cookie is one cookie from the browser's jar.
type Cookie struct {
	Name   string
	Value  string
	Domain string
	Path   string
}

// The portal's anti-forgery cookie. Its decoded value must accompany every
// API request as the X-XSRF-TOKEN header.
const xsrfCookieName = "XSRF-TOKEN"

// Credential is the session's cookie jar plus anti-forgery token. Valid
// only while the page that produced it stays open; never persisted.
type Credential struct {
	Cookies   map[string]string
	XSRFToken string
}

// CredentialFromCookies builds a Credential from a browser cookie jar. The
// anti-forgery token is the URL-decoded value of the XSRF-TOKEN cookie.
func CredentialFromCookies(cookies []Cookie) (Credential, error) {
	cred := Credential{Cookies: make(map[string]string, len(cookies))}
	for _, c := range cookies {
		cred.Cookies[c.Name] = c.Value
		if c.Name == xsrfCookieName {
			decoded, err := url.QueryUnescape(c.Value)
			if err != nil {
				return Credential{}, fmt.Errorf("decoding %s cookie: %w", xsrfCookieName, err)
			}
			cred.XSRFToken = decoded
		}
	}
	if cred.XSRFToken == "" {
		return Credential{}, fmt.Errorf("cookie %s not present in session", xsrfCookieName)
	}
	return cred, nil
}

// CookieHeader renders the jar as a Cookie request header value.
func (c Credential) CookieHeader() string {
	header := ""
	for name, value := range c.Cookies {
		if header != "" {
			header += "; "
		}
		header += name + "=" + value
	}
	return header
}
