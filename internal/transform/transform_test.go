package transform

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvloznov/cardsync/internal/domain"
)

func rawTx() domain.RawTransaction {
	return domain.RawTransaction{
		TransactionDate:  "2026-01-15",
		ProcessingTime:   "09:30:00",
		BatchNumber:      "771",
		BatchSequence:    3,
		BilledAmount:     decimal.RequireFromString("120.50"),
		BilledCurrency:   "ILS",
		OriginalAmount:   decimal.RequireFromString("120.50"),
		OriginalCurrency: "ILS",
		DebitCredit:      domain.IndicatorDebit,
		MerchantName:     "Grocery",
	}
}

func TestTransaction_DebitIsNegative(t *testing.T) {
	tx, err := Transaction(rawTx(), "card-1", "imported-x")
	require.NoError(t, err)
	assert.Equal(t, "-120.50", tx.Amount, "expenses carry the negative sign")
	assert.Equal(t, "2026-01-15", tx.Date)
	assert.Equal(t, "Grocery", tx.Payee)
	assert.Equal(t, "card-1", tx.AccountID)
	assert.Equal(t, domain.StatusUnreviewed, tx.Status)
	assert.Equal(t, []string{"imported-x"}, tx.Tags)
}

func TestTransaction_CreditIsPositive(t *testing.T) {
	raw := rawTx()
	raw.DebitCredit = domain.IndicatorCredit
	tx, err := Transaction(raw, "card-1", "imported-x")
	require.NoError(t, err)
	assert.Equal(t, "120.50", tx.Amount, "income carries the positive sign, magnitude preserved")
}

func TestTransaction_SignIgnoresRawAmountSign(t *testing.T) {
	// Some portal revisions report refunds with a negative magnitude; the
	// indicator still decides the sign.
	raw := rawTx()
	raw.BilledAmount = decimal.RequireFromString("-45.00")
	raw.DebitCredit = domain.IndicatorCredit
	tx, err := Transaction(raw, "card-1", "imported-x")
	require.NoError(t, err)
	assert.Equal(t, "45.00", tx.Amount)
}

func TestTransaction_UnknownIndicator(t *testing.T) {
	raw := rawTx()
	raw.DebitCredit = "SIDEWAYS"
	_, err := Transaction(raw, "card-1", "imported-x")
	assert.Error(t, err)
}

func TestTransaction_ForeignCurrencyNote(t *testing.T) {
	raw := rawTx()
	raw.OriginalAmount = decimal.RequireFromString("31.99")
	raw.OriginalCurrency = "USD"
	tx, err := Transaction(raw, "card-1", "imported-x")
	require.NoError(t, err)
	assert.Equal(t, "Original amount: 31.99 USD", tx.Notes)
}

func TestTransaction_SameCurrencyHasNoNote(t *testing.T) {
	tx, err := Transaction(rawTx(), "card-1", "imported-x")
	require.NoError(t, err)
	assert.Empty(t, tx.Notes)
}

func TestDedupKey_Stable(t *testing.T) {
	assert.Equal(t, DedupKey(rawTx()), DedupKey(rawTx()),
		"transforming the same record twice must yield an identical key")
	assert.Equal(t, "2026-01-15|09:30:00|771|3|120.50", DedupKey(rawTx()))
}

func TestDedupKey_MissingProcessingTimePlaceholder(t *testing.T) {
	raw := rawTx()
	raw.ProcessingTime = ""
	assert.Equal(t, "2026-01-15|00:00:00|771|3|120.50", DedupKey(raw))
}

func TestDedupKey_DateAloneDistinguishes(t *testing.T) {
	// Batch number and sequence collide across days; the date must split
	// the keys.
	a := rawTx()
	b := rawTx()
	b.TransactionDate = "2026-01-16"
	assert.NotEqual(t, DedupKey(a), DedupKey(b))
}

func TestDedupKey_SameDayDifferentAmounts(t *testing.T) {
	a := rawTx()
	b := rawTx()
	b.BilledAmount = decimal.RequireFromString("120.51")
	assert.NotEqual(t, DedupKey(a), DedupKey(b))
}

func TestRunTag(t *testing.T) {
	now := time.Date(2026, 8, 28, 10, 30, 0, 0, time.UTC)
	assert.Equal(t, "imported-2026-08-28T10:30:00Z", RunTag(now))
	assert.Equal(t, RunTag(now), RunTag(now))
}

func TestAll(t *testing.T) {
	raw := []domain.RawTransaction{rawTx(), rawTx()}
	raw[1].TransactionDate = "2026-01-16"

	txs, err := All(raw, "card-1", "imported-x")
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.NotEqual(t, txs[0].ExternalID, txs[1].ExternalID)
}

func TestAll_PropagatesBadRecord(t *testing.T) {
	raw := []domain.RawTransaction{rawTx()}
	raw[0].DebitCredit = "???"
	_, err := All(raw, "card-1", "imported-x")
	assert.Error(t, err)
}
