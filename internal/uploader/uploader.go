// Package uploader partitions transformed transactions into size-bounded
// batches and submits them to the ledger, aggregating inserted and
// skipped-duplicate counts.
package uploader

import (
	"context"

	"github.com/dvloznov/cardsync/internal/domain"
	"github.com/dvloznov/cardsync/internal/ledger"
	"github.com/dvloznov/cardsync/internal/logger"
	"github.com/dvloznov/cardsync/internal/progress"
)

// API is the ledger surface the uploader writes through.
type API interface {
	InsertTransactions(ctx context.Context, txs []domain.LedgerTransaction) (ledger.InsertResult, error)
}

// Result aggregates counts across all batches. On a batch failure the
// counts reflect what was inserted before the failure.
type Result struct {
	Submitted int
	Inserted  int
	Skipped   int

	// ReconcileMismatch flags inserted+skipped != submitted after an
	// otherwise successful upload: a possible silent rejection by the
	// ledger. Not fatal.
	ReconcileMismatch bool
}

// Uploader submits transactions batch by batch.
type Uploader struct {
	api       API
	batchSize int
	reporter  progress.Reporter
}

// New creates an Uploader using the ledger's maximum batch size.
func New(api API, reporter progress.Reporter) *Uploader {
	return &Uploader{api: api, batchSize: ledger.MaxBatchSize, reporter: reporter}
}

// Upload submits txs in order. A failed batch aborts the run immediately;
// continuing past it would make the inserted counts meaningless.
func (u *Uploader) Upload(ctx context.Context, txs []domain.LedgerTransaction) (Result, error) {
	log := logger.FromContext(ctx)
	result := Result{Submitted: len(txs)}

	batches := (len(txs) + u.batchSize - 1) / u.batchSize
	for i := 0; i < len(txs); i += u.batchSize {
		end := i + u.batchSize
		if end > len(txs) {
			end = len(txs)
		}
		batch := txs[i:end]
		batchNum := i/u.batchSize + 1

		u.reporter.Event(progress.StepUploadBatch, "uploading batch", map[string]any{
			"batch":       batchNum,
			"batch_total": batches,
			"size":        len(batch),
		})

		res, err := u.api.InsertTransactions(ctx, batch)
		if err != nil {
			// Counts reflect what the ledger accepted before the failure.
			return result, err
		}
		result.Inserted += res.Inserted
		result.Skipped += res.Skipped

		u.reporter.Event(progress.StepUploadBatch, "uploaded batch", map[string]any{
			"batch":       batchNum,
			"batch_total": batches,
			"inserted":    res.Inserted,
			"skipped":     res.Skipped,
		})
	}

	if result.Inserted+result.Skipped != result.Submitted {
		result.ReconcileMismatch = true
		log.Warn().
			Int("submitted", result.Submitted).
			Int("inserted", result.Inserted).
			Int("skipped", result.Skipped).
			Msg("upload counts do not reconcile, the ledger may have silently rejected records")
	}

	return result, nil
}
