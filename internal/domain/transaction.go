package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Debit/credit indicator values reported by the card portal. The portal
// always reports a positive magnitude; the indicator carries the direction.
const (
	IndicatorDebit  = "DEBIT"
	IndicatorCredit = "CREDIT"
)

// RawTransaction is one record as returned by the portal's transaction
// search endpoint. No single field identifies it uniquely; batch number and
// sequence recur across distinct days, so identity requires the tuple
// (transaction date, processing time, batch number, batch sequence, billed
// amount).
type RawTransaction struct {
	TransactionDate  string          `json:"transactionDate"` // YYYY-MM-DD
	ProcessingTime   string          `json:"processingTime"`  // HH:MM:SS, may be absent
	BatchNumber      string          `json:"batchNumber"`
	BatchSequence    int             `json:"batchSequence"`
	BilledAmount     decimal.Decimal `json:"billedAmount"`
	BilledCurrency   string          `json:"billedCurrency"`
	OriginalAmount   decimal.Decimal `json:"originalAmount"`
	OriginalCurrency string          `json:"originalCurrency"`
	DebitCredit      string          `json:"debitCreditIndicator"`
	MerchantName     string          `json:"merchantName"`
}

// LedgerTransaction is the shape the downstream ledger's batch insert
// endpoint accepts. Amount carries the ledger's sign convention: expenses
// negative, income positive. ExternalID is the stable dedup key; the ledger
// deduplicates on it across runs.
type LedgerTransaction struct {
	Date       string   `json:"date"` // YYYY-MM-DD
	Payee      string   `json:"payee"`
	Amount     string   `json:"amount"`
	AccountID  string   `json:"account_id"`
	ExternalID string   `json:"external_id"`
	Notes      string   `json:"notes,omitempty"`
	Tags       []string `json:"tags,omitempty"`
	Status     string   `json:"status"`
}

// StatusUnreviewed is the review status every synced transaction starts in.
const StatusUnreviewed = "uncleared"

// AccountDescriptor is a read-only snapshot of one card account as reported
// by the portal's account listing endpoint. Used only for resolution and
// disambiguation; not retained beyond a run.
type AccountDescriptor struct {
	AccountID   string          `json:"accountId"`
	DisplayName string          `json:"displayName"`
	Balance     decimal.Decimal `json:"balance"`
}

// RunResult is the single terminal outcome of one sync run.
type RunResult struct {
	Success           bool      `json:"success"`
	Message           string    `json:"message"`
	TransactionsFound int       `json:"transactions_found"`
	Submitted         int       `json:"submitted"`
	Inserted          int       `json:"inserted"`
	SkippedDuplicates int       `json:"skipped_duplicates"`
	From              time.Time `json:"from,omitempty"`
	Until             time.Time `json:"until,omitempty"`
	AccountID         string    `json:"account_id,omitempty"`
	ErrorKind         string    `json:"error_kind,omitempty"`
	FailedStep        string    `json:"failed_step,omitempty"`
}
