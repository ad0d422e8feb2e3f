// Package transform maps raw portal records into the ledger's transaction
// shape. Pure: same input, same output, no I/O.
package transform

import (
	"fmt"
	"time"

	"github.com/dvloznov/cardsync/internal/domain"
	"github.com/dvloznov/cardsync/internal/syncerr"
)

// missingProcessingTime stands in for records the portal reports without a
// processing time, keeping the dedup key shape stable.
const missingProcessingTime = "00:00:00"

// RunTag builds the run-scoped import marker every transaction of one run
// shares. It records which run introduced which records without entering
// the dedup key, so re-running does not duplicate.
func RunTag(now time.Time) string {
	return "imported-" + now.UTC().Format("2006-01-02T15:04:05Z")
}

// DedupKey derives the stable external id for a raw transaction. Batch
// number plus sequence recur across distinct days and a date alone cannot
// split same-day identical-amount transactions, so the key concatenates
// the full identifying tuple.
func DedupKey(raw domain.RawTransaction) string {
	processingTime := raw.ProcessingTime
	if processingTime == "" {
		processingTime = missingProcessingTime
	}
	return fmt.Sprintf("%s|%s|%s|%d|%s",
		raw.TransactionDate,
		processingTime,
		raw.BatchNumber,
		raw.BatchSequence,
		raw.BilledAmount.StringFixed(2),
	)
}

// Transaction converts one raw record. The sign comes from the portal's
// debit/credit indicator, never from the raw amount's own sign: the portal
// always reports a positive magnitude. Ledger convention is
// expense-negative, income-positive.
func Transaction(raw domain.RawTransaction, accountID, runTag string) (domain.LedgerTransaction, error) {
	amount := raw.BilledAmount.Abs()
	switch raw.DebitCredit {
	case domain.IndicatorDebit:
		amount = amount.Neg()
	case domain.IndicatorCredit:
		// Positive as-is.
	default:
		return domain.LedgerTransaction{}, syncerr.New(syncerr.KindUpstreamFetch, "transform",
			fmt.Errorf("unknown debit/credit indicator %q on %s %s", raw.DebitCredit, raw.TransactionDate, raw.MerchantName))
	}

	tx := domain.LedgerTransaction{
		Date:       raw.TransactionDate,
		Payee:      raw.MerchantName,
		Amount:     amount.StringFixed(2),
		AccountID:  accountID,
		ExternalID: DedupKey(raw),
		Tags:       []string{runTag},
		Status:     domain.StatusUnreviewed,
	}

	// Annotate foreign-currency purchases with the amount actually charged
	// at the merchant.
	if raw.OriginalCurrency != "" && raw.OriginalCurrency != raw.BilledCurrency {
		tx.Notes = fmt.Sprintf("Original amount: %s %s", raw.OriginalAmount.StringFixed(2), raw.OriginalCurrency)
	}

	return tx, nil
}

// All transforms a full fetch result under one run tag.
func All(raw []domain.RawTransaction, accountID, runTag string) ([]domain.LedgerTransaction, error) {
	out := make([]domain.LedgerTransaction, 0, len(raw))
	for _, r := range raw {
		tx, err := Transaction(r, accountID, runTag)
		if err != nil {
			return nil, err
		}
		out = append(out, tx)
	}
	return out, nil
}
