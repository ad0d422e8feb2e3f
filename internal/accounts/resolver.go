// Package accounts determines which card account a run pulls from:
// explicit configuration, single-account auto-detection, or a structured
// disambiguation report when several accounts exist.
package accounts

import (
	"context"
	"fmt"
	"time"

	"github.com/dvloznov/cardsync/internal/domain"
	"github.com/dvloznov/cardsync/internal/logger"
	"github.com/dvloznov/cardsync/internal/progress"
	"github.com/dvloznov/cardsync/internal/source"
	"github.com/dvloznov/cardsync/internal/syncerr"
)

// previewDays is the lookback for the per-account activity preview shown in
// the disambiguation report.
const previewDays = 30

// Resolver picks the account a run syncs.
type Resolver struct {
	api      source.API
	reporter progress.Reporter
	now      func() time.Time
}

// NewResolver creates a Resolver over an authenticated portal API.
func NewResolver(api source.API, reporter progress.Reporter) *Resolver {
	return &Resolver{api: api, reporter: reporter, now: time.Now}
}

// Resolve returns the account id to sync. With no configured id it
// auto-detects a single account, and refuses to guess between several:
// the returned AmbiguousAccountsError carries descriptors plus best-effort
// activity previews so a human can configure the id explicitly.
func (r *Resolver) Resolve(ctx context.Context, configuredID string) (string, error) {
	descriptors, err := r.api.ListAccounts(ctx)
	if err != nil {
		return "", err
	}

	if len(descriptors) == 0 {
		return "", syncerr.New(syncerr.KindConfiguration, "account_resolve",
			fmt.Errorf("no accounts found for this login"))
	}

	if configuredID != "" {
		for _, d := range descriptors {
			if d.AccountID == configuredID {
				r.reporter.Event(progress.StepAccountResolve, "using configured account",
					map[string]any{"account_id": configuredID})
				return configuredID, nil
			}
		}
		return "", syncerr.New(syncerr.KindConfiguration, "account_resolve",
			fmt.Errorf("configured account %q not found among %d accounts", configuredID, len(descriptors)))
	}

	if len(descriptors) == 1 {
		id := descriptors[0].AccountID
		r.reporter.Event(progress.StepAccountResolve, "auto-detected single account",
			map[string]any{"account_id": id, "display_name": descriptors[0].DisplayName})
		return id, nil
	}

	// Several accounts and nothing configured: build the disambiguation
	// report instead of guessing.
	candidates := r.buildCandidates(ctx, descriptors)
	r.reporter.Event(progress.StepAccountResolve, "multiple accounts found, configuration required",
		map[string]any{"count": len(candidates), "candidates": candidates})
	return "", &syncerr.AmbiguousAccountsError{Candidates: candidates}
}

func (r *Resolver) buildCandidates(ctx context.Context, descriptors []domain.AccountDescriptor) []syncerr.AccountCandidate {
	log := logger.FromContext(ctx)
	today := r.now()
	window := domain.DateRange{From: today.AddDate(0, 0, -previewDays), Until: today}

	candidates := make([]syncerr.AccountCandidate, 0, len(descriptors))
	for _, d := range descriptors {
		candidate := syncerr.AccountCandidate{Descriptor: d}
		preview, err := r.api.SearchTransactions(ctx, d.AccountID, window)
		switch {
		case err != nil:
			// A failed preview degrades that entry, it does not abort
			// resolution.
			log.Warn().Err(err).Str("account_id", d.AccountID).Msg("account preview fetch failed")
			candidate.Note = "no recent transactions"
		case len(preview) == 0:
			candidate.Note = "no recent transactions"
		default:
			candidate.Preview = preview
		}
		candidates = append(candidates, candidate)
	}
	return candidates
}
