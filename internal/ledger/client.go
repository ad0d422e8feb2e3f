// Package ledger is the write-side client for the personal-finance ledger
// API: idempotent tag creation and batched transaction inserts with
// remote-side deduplication.
package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dvloznov/cardsync/internal/domain"
)

// MaxBatchSize is the ledger API's documented maximum transactions per
// insert request.
const MaxBatchSize = 50

const requestTimeout = 30 * time.Second

// Client issues authenticated requests against the ledger API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates a ledger API client.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: requestTimeout},
	}
}

// InsertResult aggregates one insert call's outcome.
type InsertResult struct {
	Inserted int
	Skipped  int
}

type insertRequest struct {
	Transactions []domain.LedgerTransaction `json:"transactions"`
	// The ledger applies its existing categorization rules and skips
	// soft-duplicates matched by date/payee/amount; hard deduplication by
	// external id happens remotely regardless.
	ApplyRules     bool `json:"apply_rules"`
	SkipDuplicates bool `json:"skip_duplicates"`
}

type insertResponse struct {
	Transactions      []json.RawMessage `json:"transactions"`
	SkippedDuplicates []json.RawMessage `json:"skipped_duplicates"`
}

// InsertTransactions submits one batch. The caller is responsible for
// keeping len(txs) within MaxBatchSize.
func (c *Client) InsertTransactions(ctx context.Context, txs []domain.LedgerTransaction) (InsertResult, error) {
	payload := insertRequest{
		Transactions:   txs,
		ApplyRules:     true,
		SkipDuplicates: true,
	}

	status, body, err := c.post(ctx, "/transactions", payload)
	if err != nil {
		return InsertResult{}, err
	}
	if status != http.StatusOK && status != http.StatusCreated {
		return InsertResult{}, classifyStatus(status, body)
	}

	var resp insertResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return InsertResult{}, fmt.Errorf("decoding insert response: %w", err)
	}
	return InsertResult{
		Inserted: len(resp.Transactions),
		Skipped:  len(resp.SkippedDuplicates),
	}, nil
}

type tagResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// EnsureTag creates a tag or returns the existing one: the ledger's tag
// endpoint is idempotent by name.
func (c *Client) EnsureTag(ctx context.Context, name string) (int64, error) {
	status, body, err := c.post(ctx, "/tags", map[string]string{"name": name})
	if err != nil {
		return 0, err
	}
	if status != http.StatusOK && status != http.StatusCreated {
		return 0, classifyStatus(status, body)
	}

	var resp tagResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return 0, fmt.Errorf("decoding tag response: %w", err)
	}
	return resp.ID, nil
}

func (c *Client) post(ctx context.Context, path string, payload any) (int, []byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return 0, nil, fmt.Errorf("encoding %s request: %w", path, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return 0, nil, fmt.Errorf("building %s request: %w", path, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("posting to %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("reading %s response: %w", path, err)
	}
	return resp.StatusCode, body, nil
}
