// Package sync sequences the full pipeline: authenticate in a controlled
// browser, resolve the account, fetch raw transactions chunk by chunk,
// transform them, and upload in batches. Exactly one terminal RunResult per
// invocation; the browser is released on every exit path.
package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dvloznov/cardsync/internal/accounts"
	"github.com/dvloznov/cardsync/internal/auth"
	"github.com/dvloznov/cardsync/internal/browser"
	"github.com/dvloznov/cardsync/internal/config"
	"github.com/dvloznov/cardsync/internal/daterange"
	"github.com/dvloznov/cardsync/internal/domain"
	"github.com/dvloznov/cardsync/internal/ledger"
	"github.com/dvloznov/cardsync/internal/logger"
	"github.com/dvloznov/cardsync/internal/progress"
	"github.com/dvloznov/cardsync/internal/source"
	"github.com/dvloznov/cardsync/internal/syncerr"
	"github.com/dvloznov/cardsync/internal/transform"
	"github.com/dvloznov/cardsync/internal/uploader"
)

// LedgerAPI is the downstream surface the run writes through.
type LedgerAPI interface {
	uploader.API
	EnsureTag(ctx context.Context, name string) (int64, error)
}

// Runner owns one run's resources and sequencing. The run-in-progress
// guard belongs to the caller: acquire it before Run, release it after.
type Runner struct {
	cfg      *config.Config
	reporter progress.Reporter

	// DryRun fetches and transforms but skips the upload stage.
	DryRun bool

	// Factories, replaceable in tests.
	newSession func(ctx context.Context) (browser.Session, error)
	newSource  func(cred browser.Credential) source.API
	newLedger  func() LedgerAPI
	now        func() time.Time
	authCfg    auth.Config
}

// NewRunner creates a Runner wired to a real browser and real API clients.
func NewRunner(cfg *config.Config, reporter progress.Reporter) *Runner {
	return &Runner{
		cfg:      cfg,
		reporter: reporter,
		newSession: func(ctx context.Context) (browser.Session, error) {
			return browser.NewChrome(ctx, cfg.Headless)
		},
		newSource: func(cred browser.Credential) source.API {
			return source.NewClient(cfg.BankBaseURL, cred)
		},
		newLedger: func() LedgerAPI {
			return ledger.NewClient(cfg.LedgerBaseURL, cfg.LedgerToken)
		},
		now:     time.Now,
		authCfg: auth.Config{LoginURL: cfg.LoginURL},
	}
}

// Run executes one sync run end to end and returns its terminal result.
// The terminal result is reported exactly once on every path.
func (r *Runner) Run(ctx context.Context) domain.RunResult {
	result := r.run(ctx)
	r.reportResult(result)
	return result
}

func (r *Runner) run(ctx context.Context) (result domain.RunResult) {
	log := logger.FromContext(ctx)

	// Programming faults must surface as a terminal result, never escape
	// the run. Registered first so it runs after the browser cleanup.
	defer func() {
		if p := recover(); p != nil {
			log.Error().Interface("panic", p).Msg("sync run panicked")
			result = failure(syncerr.New(syncerr.KindUnhandled, "run",
				fmt.Errorf("unhandled fault: %v", p)))
		}
	}()

	r.reporter.Event(progress.StepBrowserLaunch, "launching browser",
		map[string]any{"headless": r.cfg.Headless})

	session, err := r.newSession(ctx)
	if err != nil {
		return failure(syncerr.New(syncerr.KindAuthentication, "browser_launch", err))
	}
	defer func() {
		if err := session.Close(); err != nil {
			log.Warn().Err(err).Msg("browser close failed")
		}
	}()

	authenticator := auth.New(session, r.authCfg, r.reporter)
	cred, err := authenticator.Login(ctx, r.cfg.BankUsername, r.cfg.BankPassword)
	if err != nil {
		return failure(err)
	}

	api := r.newSource(cred)
	accountID, err := accounts.NewResolver(api, r.reporter).Resolve(ctx, r.cfg.AccountID)
	if err != nil {
		return failure(err)
	}

	ranges, err := daterange.Chunks(r.now(), r.cfg.LookbackDays)
	if err != nil {
		return failure(syncerr.New(syncerr.KindConfiguration, "chunk", err))
	}
	from := ranges[len(ranges)-1].From
	until := ranges[0].Until

	raw, err := source.NewFetcher(api, r.reporter).FetchAll(ctx, accountID, ranges)
	if err != nil {
		return failure(err)
	}

	// Empty results are not an error: nothing to transform or upload.
	if len(raw) == 0 {
		return domain.RunResult{
			Success:   true,
			Message:   "no transactions in the lookback window",
			From:      from,
			Until:     until,
			AccountID: accountID,
		}
	}

	r.reporter.Event(progress.StepTransform, "transforming transactions",
		map[string]any{"count": len(raw)})

	runTag := transform.RunTag(r.now())
	txs, err := transform.All(raw, accountID, runTag)
	if err != nil {
		return failure(err)
	}

	if r.DryRun {
		return domain.RunResult{
			Success:           true,
			Message:           fmt.Sprintf("dry run: %d transactions would be submitted", len(txs)),
			TransactionsFound: len(raw),
			From:              from,
			Until:             until,
			AccountID:         accountID,
		}
	}

	led := r.newLedger()
	if _, err := led.EnsureTag(ctx, runTag); err != nil {
		return failure(err)
	}

	upRes, err := uploader.New(led, r.reporter).Upload(ctx, txs)
	if err != nil {
		res := failure(err)
		res.TransactionsFound = len(raw)
		res.Inserted = upRes.Inserted
		res.SkippedDuplicates = upRes.Skipped
		res.AccountID = accountID
		res.Message = fmt.Sprintf("%s (%d inserted before failure)", res.Message, upRes.Inserted)
		return res
	}

	message := fmt.Sprintf("synced %d transactions: %d inserted, %d duplicates skipped",
		upRes.Submitted, upRes.Inserted, upRes.Skipped)
	if upRes.ReconcileMismatch {
		message += " (warning: counts do not reconcile)"
	}

	return domain.RunResult{
		Success:           true,
		Message:           message,
		TransactionsFound: len(raw),
		Submitted:         upRes.Submitted,
		Inserted:          upRes.Inserted,
		SkippedDuplicates: upRes.Skipped,
		From:              from,
		Until:             until,
		AccountID:         accountID,
	}
}

func failure(err error) domain.RunResult {
	result := domain.RunResult{
		Success:    false,
		Message:    err.Error(),
		ErrorKind:  string(syncerr.KindOf(err)),
		FailedStep: syncerr.StepOf(err),
	}
	var ambiguous *syncerr.AmbiguousAccountsError
	if errors.As(err, &ambiguous) {
		result.FailedStep = "account_resolve"
	}
	return result
}

func (r *Runner) reportResult(result domain.RunResult) {
	fields := map[string]any{
		"success":            result.Success,
		"transactions_found": result.TransactionsFound,
		"inserted":           result.Inserted,
		"skipped_duplicates": result.SkippedDuplicates,
	}
	if result.ErrorKind != "" {
		fields["error_kind"] = result.ErrorKind
		fields["failed_step"] = result.FailedStep
	}
	r.reporter.Event(progress.StepResult, result.Message, fields)
}
