// Package source talks to the banking portal's undocumented internal API
// using the credential the browser login produced. Read-only: account
// listing and transaction search.
package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dvloznov/cardsync/internal/browser"
	"github.com/dvloznov/cardsync/internal/domain"
	"github.com/dvloznov/cardsync/internal/syncerr"
)

// The portal's transaction-class filter. Fixed to both directions; the
// transformer derives the sign from the per-record indicator.
const filterDebitsAndCredits = "DEBIT_AND_CREDIT"

const requestTimeout = 30 * time.Second

// Client issues authenticated requests against the portal API.
type Client struct {
	baseURL    string
	cred       browser.Credential
	httpClient *http.Client
}

// NewClient creates a portal API client for one authenticated session.
func NewClient(baseURL string, cred browser.Credential) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		cred:       cred,
		httpClient: &http.Client{Timeout: requestTimeout},
	}
}

func (c *Client) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Cookie", c.cred.CookieHeader())
	req.Header.Set("X-XSRF-TOKEN", c.cred.XSRFToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("requesting %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading %s response: %w", path, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s returned status %d", path, resp.StatusCode)
	}
	return body, nil
}

// ListAccounts returns every card account reachable from the session.
func (c *Client) ListAccounts(ctx context.Context) ([]domain.AccountDescriptor, error) {
	body, err := c.get(ctx, "/api/cards", nil)
	if err != nil {
		return nil, syncerr.New(syncerr.KindUpstreamFetch, "account_resolve", err)
	}
	var accounts []domain.AccountDescriptor
	if err := json.Unmarshal(body, &accounts); err != nil {
		return nil, syncerr.New(syncerr.KindUpstreamFetch, "account_resolve",
			fmt.Errorf("account listing is not a list: %w", err))
	}
	return accounts, nil
}

// SearchTransactions returns the raw transactions for one account over one
// inclusive date range. A non-list payload is an error: silently treating
// it as empty would leave an unreported gap in the sync.
func (c *Client) SearchTransactions(ctx context.Context, accountID string, r domain.DateRange) ([]domain.RawTransaction, error) {
	query := url.Values{
		"accountId": {accountID},
		"filter":    {filterDebitsAndCredits},
		"from":      {r.From.Format("2006-01-02")},
		"until":     {r.Until.Format("2006-01-02")},
	}
	body, err := c.get(ctx, "/api/cards/transactions", query)
	if err != nil {
		return nil, syncerr.New(syncerr.KindUpstreamFetch, "fetch", err)
	}

	var raw []domain.RawTransaction
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, syncerr.New(syncerr.KindUpstreamFetch, "fetch",
			fmt.Errorf("transaction search for %s returned a non-list payload: %w", r, err))
	}
	return raw, nil
}
