package sync

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvloznov/cardsync/internal/auth"
	"github.com/dvloznov/cardsync/internal/browser"
	"github.com/dvloznov/cardsync/internal/config"
	"github.com/dvloznov/cardsync/internal/domain"
	"github.com/dvloznov/cardsync/internal/ledger"
	"github.com/dvloznov/cardsync/internal/progress"
	"github.com/dvloznov/cardsync/internal/source"
	"github.com/dvloznov/cardsync/internal/syncerr"
)

// fakeSession authenticates immediately unless stuckOnLogin is set.
type fakeSession struct {
	stuckOnLogin bool
	closed       bool
}

func (f *fakeSession) Navigate(ctx context.Context, url string) error { return nil }

func (f *fakeSession) Location(ctx context.Context) (string, error) {
	if f.stuckOnLogin {
		return "https://bank.test/login", nil
	}
	return "https://bank.test/dashboard", nil
}

func (f *fakeSession) Evaluate(ctx context.Context, js string, out any) error {
	if out != nil {
		return json.Unmarshal([]byte(`{"found":true}`), out)
	}
	return nil
}

func (f *fakeSession) Fill(ctx context.Context, selector, value string) error { return nil }
func (f *fakeSession) Click(ctx context.Context, selector string) error       { return nil }

func (f *fakeSession) Cookies(ctx context.Context) ([]browser.Cookie, error) {
	return []browser.Cookie{
		{Name: "SESSION", Value: "s1"},
		{Name: "XSRF-TOKEN", Value: "tok"},
	}, nil
}

func (f *fakeSession) Close() error {
	f.closed = true
	return nil
}

type fakeSource struct {
	accounts []domain.AccountDescriptor
	perRange []domain.RawTransaction
}

func (f *fakeSource) ListAccounts(ctx context.Context) ([]domain.AccountDescriptor, error) {
	return f.accounts, nil
}

func (f *fakeSource) SearchTransactions(ctx context.Context, accountID string, r domain.DateRange) ([]domain.RawTransaction, error) {
	return f.perRange, nil
}

type fakeLedger struct {
	insertCalls int
	tagNames    []string
	insertErr   error
	result      ledger.InsertResult
}

func (f *fakeLedger) InsertTransactions(ctx context.Context, txs []domain.LedgerTransaction) (ledger.InsertResult, error) {
	f.insertCalls++
	if f.insertErr != nil {
		return ledger.InsertResult{}, f.insertErr
	}
	if f.result != (ledger.InsertResult{}) {
		return f.result, nil
	}
	return ledger.InsertResult{Inserted: len(txs)}, nil
}

func (f *fakeLedger) EnsureTag(ctx context.Context, name string) (int64, error) {
	f.tagNames = append(f.tagNames, name)
	return 1, nil
}

func rawTx(date string) domain.RawTransaction {
	return domain.RawTransaction{
		TransactionDate: date,
		ProcessingTime:  "09:30:00",
		BatchNumber:     "771",
		BatchSequence:   1,
		BilledAmount:    decimal.RequireFromString("10.00"),
		BilledCurrency:  "ILS",
		DebitCredit:     domain.IndicatorDebit,
		MerchantName:    "Grocery",
	}
}

func testRunner(sess *fakeSession, src *fakeSource, led *fakeLedger) *Runner {
	cfg := &config.Config{
		BankUsername:  "user",
		BankPassword:  "hunter2",
		BankBaseURL:   "https://bank.test",
		LoginURL:      "https://bank.test/login",
		LedgerBaseURL: "https://ledger.test",
		LedgerToken:   "tok",
		LookbackDays:  30,
	}
	r := NewRunner(cfg, progress.Nop{})
	r.newSession = func(ctx context.Context) (browser.Session, error) { return sess, nil }
	r.newSource = func(cred browser.Credential) source.API { return src }
	r.newLedger = func() LedgerAPI { return led }
	r.now = func() time.Time { return time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC) }
	r.authCfg = auth.Config{
		LoginURL:            cfg.LoginURL,
		PageLoadTimeout:     time.Second,
		SubmitGrace:         time.Millisecond,
		PollInterval:        time.Millisecond,
		SecondFactorTimeout: 20 * time.Millisecond,
	}
	return r
}

func TestRun_HappyPath(t *testing.T) {
	sess := &fakeSession{}
	src := &fakeSource{
		accounts: []domain.AccountDescriptor{{AccountID: "card-1", DisplayName: "Gold"}},
		perRange: []domain.RawTransaction{rawTx("2026-01-15"), rawTx("2026-01-16")},
	}
	led := &fakeLedger{}

	result := testRunner(sess, src, led).Run(context.Background())

	assert.True(t, result.Success, result.Message)
	assert.Equal(t, "card-1", result.AccountID)
	assert.Equal(t, 2, result.TransactionsFound)
	assert.Equal(t, 2, result.Submitted)
	assert.Equal(t, 2, result.Inserted)
	assert.Equal(t, time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC), result.From)
	assert.Equal(t, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), result.Until)
	assert.True(t, sess.closed, "browser must be released")
	require.Len(t, led.tagNames, 1)
	assert.Equal(t, "imported-2026-02-01T12:00:00Z", led.tagNames[0])
}

func TestRun_ZeroTransactionsShortCircuits(t *testing.T) {
	sess := &fakeSession{}
	src := &fakeSource{
		accounts: []domain.AccountDescriptor{{AccountID: "card-1"}},
	}
	led := &fakeLedger{}

	result := testRunner(sess, src, led).Run(context.Background())

	assert.True(t, result.Success)
	assert.Zero(t, result.TransactionsFound)
	assert.Zero(t, led.insertCalls, "uploader must not run on empty fetch")
	assert.Empty(t, led.tagNames)
	assert.True(t, sess.closed)
}

func TestRun_SecondFactorTimeoutReleasesBrowser(t *testing.T) {
	sess := &fakeSession{stuckOnLogin: true}
	led := &fakeLedger{}

	result := testRunner(sess, &fakeSource{}, led).Run(context.Background())

	assert.False(t, result.Success)
	assert.Equal(t, string(syncerr.KindSecondFactorTimeout), result.ErrorKind,
		"must not be reported as a generic authentication failure")
	assert.True(t, sess.closed, "browser must be released on the failure path too")
	assert.Zero(t, led.insertCalls)
}

func TestRun_AmbiguousAccounts(t *testing.T) {
	sess := &fakeSession{}
	src := &fakeSource{
		accounts: []domain.AccountDescriptor{
			{AccountID: "card-1"},
			{AccountID: "card-2"},
		},
	}

	result := testRunner(sess, src, &fakeLedger{}).Run(context.Background())

	assert.False(t, result.Success)
	assert.Equal(t, string(syncerr.KindAccountAmbiguous), result.ErrorKind)
	assert.Equal(t, "account_resolve", result.FailedStep)
	assert.True(t, sess.closed)
}

func TestRun_UploadFailureReportsPriorInserts(t *testing.T) {
	sess := &fakeSession{}
	src := &fakeSource{
		accounts: []domain.AccountDescriptor{{AccountID: "card-1"}},
		perRange: []domain.RawTransaction{rawTx("2026-01-15")},
	}
	led := &fakeLedger{insertErr: syncerr.New(syncerr.KindLedgerWrite, "upload", assert.AnError)}

	result := testRunner(sess, src, led).Run(context.Background())

	assert.False(t, result.Success)
	assert.Equal(t, string(syncerr.KindLedgerWrite), result.ErrorKind)
	assert.Contains(t, result.Message, "inserted before failure")
	assert.True(t, sess.closed)
}

func TestRun_DryRunSkipsUpload(t *testing.T) {
	sess := &fakeSession{}
	src := &fakeSource{
		accounts: []domain.AccountDescriptor{{AccountID: "card-1"}},
		perRange: []domain.RawTransaction{rawTx("2026-01-15")},
	}
	led := &fakeLedger{}

	r := testRunner(sess, src, led)
	r.DryRun = true
	result := r.Run(context.Background())

	assert.True(t, result.Success)
	assert.Contains(t, result.Message, "dry run")
	assert.Zero(t, led.insertCalls)
	assert.Empty(t, led.tagNames)
}

func TestRun_PanicBecomesUnhandledResult(t *testing.T) {
	sess := &fakeSession{}
	src := &fakeSource{
		accounts: []domain.AccountDescriptor{{AccountID: "card-1"}},
		perRange: []domain.RawTransaction{rawTx("2026-01-15")},
	}

	r := testRunner(sess, src, &fakeLedger{})
	r.newLedger = func() LedgerAPI { panic("boom") }
	result := r.Run(context.Background())

	assert.False(t, result.Success)
	assert.Equal(t, string(syncerr.KindUnhandled), result.ErrorKind)
	assert.True(t, sess.closed, "browser must be released even on a programming fault")
}
