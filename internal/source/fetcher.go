package source

import (
	"context"

	"github.com/dvloznov/cardsync/internal/domain"
	"github.com/dvloznov/cardsync/internal/progress"
)

// API is the portal surface the fetcher and resolver consume. *Client
// implements it; tests substitute a fake.
type API interface {
	ListAccounts(ctx context.Context) ([]domain.AccountDescriptor, error)
	SearchTransactions(ctx context.Context, accountID string, r domain.DateRange) ([]domain.RawTransaction, error)
}

// Fetcher walks the chunker's date ranges and accumulates raw transactions.
type Fetcher struct {
	api      API
	reporter progress.Reporter
}

// NewFetcher creates a Fetcher over an authenticated portal API.
func NewFetcher(api API, reporter progress.Reporter) *Fetcher {
	return &Fetcher{api: api, reporter: reporter}
}

// FetchAll issues one search per range, in the order given (newest-first),
// and concatenates results. Any failed or malformed range aborts the whole
// fetch: partial data with unreported gaps is worse than failing loudly.
func (f *Fetcher) FetchAll(ctx context.Context, accountID string, ranges []domain.DateRange) ([]domain.RawTransaction, error) {
	var all []domain.RawTransaction
	for i, r := range ranges {
		f.reporter.Event(progress.StepFetchChunk, "fetching transactions", map[string]any{
			"range":       r.String(),
			"chunk":       i + 1,
			"chunk_total": len(ranges),
		})

		raw, err := f.api.SearchTransactions(ctx, accountID, r)
		if err != nil {
			return nil, err
		}
		all = append(all, raw...)

		f.reporter.Event(progress.StepFetchChunk, "fetched chunk", map[string]any{
			"range":       r.String(),
			"chunk":       i + 1,
			"chunk_total": len(ranges),
			"count":       len(raw),
			"total":       len(all),
		})
	}
	return all, nil
}
