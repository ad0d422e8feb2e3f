// Package auth drives the portal's login flow inside a controlled browser:
// load the login page, fill the form, submit, then wait for the user to
// approve the push notification on their phone. The outcome is the session
// credential the API clients ride for the rest of the run.
package auth

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/dvloznov/cardsync/internal/browser"
	"github.com/dvloznov/cardsync/internal/logger"
	"github.com/dvloznov/cardsync/internal/progress"
	"github.com/dvloznov/cardsync/internal/syncerr"
)

// State is the authenticator's position in the login flow. Failed is
// absorbing: once entered the run cannot recover it.
type State string

const (
	StateIdle                 State = "idle"
	StatePageLoading          State = "page_loading"
	StateFormFilling          State = "form_filling"
	StateSubmitting           State = "submitting"
	StateAwaitingSecondFactor State = "awaiting_second_factor"
	StateAuthenticated        State = "authenticated"
	StateFailed               State = "failed"
)

// Timeouts and poll cadence for the login flow.
const (
	DefaultPageLoadTimeout     = 30 * time.Second
	DefaultSecondFactorTimeout = 120 * time.Second
	DefaultSubmitGrace         = 5 * time.Second
	DefaultPollInterval        = time.Second
)

// Config tells the authenticator where the login entry point is and how to
// recognize an authenticated location.
type Config struct {
	LoginURL string

	// Path substrings: a location still containing LoginPathMark is not
	// authenticated; one containing AuthenticatedPathMark is.
	LoginPathMark         string
	AuthenticatedPathMark string

	PageLoadTimeout     time.Duration
	SecondFactorTimeout time.Duration
	SubmitGrace         time.Duration
	PollInterval        time.Duration
}

func (c Config) withDefaults() Config {
	if c.LoginPathMark == "" {
		c.LoginPathMark = "/login"
	}
	if c.AuthenticatedPathMark == "" {
		c.AuthenticatedPathMark = "/dashboard"
	}
	if c.PageLoadTimeout == 0 {
		c.PageLoadTimeout = DefaultPageLoadTimeout
	}
	if c.SecondFactorTimeout == 0 {
		c.SecondFactorTimeout = DefaultSecondFactorTimeout
	}
	if c.SubmitGrace == 0 {
		c.SubmitGrace = DefaultSubmitGrace
	}
	if c.PollInterval == 0 {
		c.PollInterval = DefaultPollInterval
	}
	return c
}

// Authenticator walks the login state machine over a browser session.
type Authenticator struct {
	session  browser.Session
	cfg      Config
	reporter progress.Reporter
	state    State

	// Injectable clock and sleep for testing the second-factor wait.
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates an Authenticator over an open browser session.
func New(session browser.Session, cfg Config, reporter progress.Reporter) *Authenticator {
	return &Authenticator{
		session:  session,
		cfg:      cfg.withDefaults(),
		reporter: reporter,
		state:    StateIdle,
		now:      time.Now,
		sleep:    sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// State returns the authenticator's current state.
func (a *Authenticator) State() State { return a.state }

func (a *Authenticator) fail(kind syncerr.Kind, step string, err error) error {
	a.state = StateFailed
	return syncerr.New(kind, step, err)
}

// Login runs the full flow and returns the session credential. Any failure
// is fatal for the run; the caller may offer the user a fresh run.
func (a *Authenticator) Login(ctx context.Context, username, password string) (browser.Credential, error) {
	log := logger.FromContext(ctx)

	// PageLoading: navigate to the login entry point.
	a.state = StatePageLoading
	a.reporter.Event(progress.StepPageLoad, "loading login page", map[string]any{"url": a.cfg.LoginURL})

	navCtx, cancel := context.WithTimeout(ctx, a.cfg.PageLoadTimeout)
	err := a.session.Navigate(navCtx, a.cfg.LoginURL)
	cancel()
	if err != nil {
		return browser.Credential{}, a.fail(syncerr.KindAuthentication, "page_load",
			fmt.Errorf("login page unreachable: %w", err))
	}

	// Consent banners block clicks when present. Dismissal is best effort;
	// most sessions never see one.
	if err := a.session.Evaluate(ctx, dismissConsentJS, nil); err != nil {
		log.Debug().Err(err).Msg("consent dismissal script failed, continuing")
	}

	// FormFilling: locate the credentials inputs by structural inspection
	// rather than site-specific element ids.
	a.state = StateFormFilling
	a.reporter.Event(progress.StepFormFill, "filling login form", nil)

	var found fieldDiscovery
	if err := a.session.Evaluate(ctx, discoverFieldsJS, &found); err != nil {
		return browser.Credential{}, a.fail(syncerr.KindAuthentication, "form_fill",
			fmt.Errorf("inspecting login form: %w", err))
	}
	if !found.Found {
		return browser.Credential{}, a.fail(syncerr.KindAuthentication, "form_fill",
			fmt.Errorf("login form controls not found: %s", found.Reason))
	}
	if err := a.session.Fill(ctx, usernameSelector, username); err != nil {
		return browser.Credential{}, a.fail(syncerr.KindAuthentication, "form_fill",
			fmt.Errorf("filling username: %w", err))
	}
	if err := a.session.Fill(ctx, passwordSelector, password); err != nil {
		return browser.Credential{}, a.fail(syncerr.KindAuthentication, "form_fill",
			fmt.Errorf("filling password: %w", err))
	}

	// Submitting: invoke the submit control. A post-submit navigation may
	// not be observable inside the grace window; its absence is fine, the
	// second-factor poll below decides the outcome.
	a.state = StateSubmitting
	a.reporter.Event(progress.StepFormSubmit, "submitting login form", nil)

	var submit fieldDiscovery
	if err := a.session.Evaluate(ctx, discoverSubmitJS, &submit); err != nil || !submit.Found {
		if err == nil {
			err = fmt.Errorf("submit control not found: %s", submit.Reason)
		}
		return browser.Credential{}, a.fail(syncerr.KindAuthentication, "form_submit", err)
	}
	if err := a.session.Click(ctx, submitSelector); err != nil {
		return browser.Credential{}, a.fail(syncerr.KindAuthentication, "form_submit",
			fmt.Errorf("clicking submit: %w", err))
	}
	_ = a.sleep(ctx, a.cfg.SubmitGrace)

	// AwaitingSecondFactor: the human approves a push notification on a
	// separate device. We only observe its effect: the browser leaving the
	// login path for an authenticated one.
	a.state = StateAwaitingSecondFactor
	a.reporter.Event(progress.StepSecondFactorWait, "waiting for second factor approval",
		map[string]any{"timeout_seconds": int(a.cfg.SecondFactorTimeout.Seconds())})

	if err := a.awaitSecondFactor(ctx); err != nil {
		a.state = StateFailed
		return browser.Credential{}, err
	}

	a.state = StateAuthenticated
	a.reporter.Event(progress.StepSecondFactorOK, "second factor confirmed", nil)

	cookies, err := a.session.Cookies(ctx)
	if err != nil {
		return browser.Credential{}, a.fail(syncerr.KindAuthentication, "credential",
			fmt.Errorf("reading session cookies: %w", err))
	}
	cred, err := browser.CredentialFromCookies(cookies)
	if err != nil {
		return browser.Credential{}, a.fail(syncerr.KindAuthentication, "credential", err)
	}
	return cred, nil
}

func (a *Authenticator) awaitSecondFactor(ctx context.Context) error {
	deadline := a.now().Add(a.cfg.SecondFactorTimeout)
	for {
		loc, err := a.session.Location(ctx)
		if err == nil && a.isAuthenticatedLocation(loc) {
			return nil
		}
		// Location can fail transiently mid-navigation; keep polling.

		if !a.now().Before(deadline) {
			return syncerr.New(syncerr.KindSecondFactorTimeout, "second_factor",
				fmt.Errorf("second factor not confirmed within %s", a.cfg.SecondFactorTimeout))
		}
		if err := a.sleep(ctx, a.cfg.PollInterval); err != nil {
			return syncerr.New(syncerr.KindAuthentication, "second_factor", err)
		}
	}
}

func (a *Authenticator) isAuthenticatedLocation(loc string) bool {
	u, err := url.Parse(loc)
	if err != nil {
		return false
	}
	return !strings.Contains(u.Path, a.cfg.LoginPathMark) &&
		strings.Contains(u.Path, a.cfg.AuthenticatedPathMark)
}
