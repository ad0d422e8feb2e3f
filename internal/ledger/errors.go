package ledger

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/dvloznov/cardsync/internal/syncerr"
)

// errorBody is the ledger's structured error shape. The API may also
// return a non-success status with no body at all; both are handled.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func detailFrom(body []byte) string {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil {
		if eb.Error != "" {
			return eb.Error
		}
		if eb.Message != "" {
			return eb.Message
		}
	}
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return "no error detail in response"
	}
	const maxDetail = 300
	if len(trimmed) > maxDetail {
		trimmed = trimmed[:maxDetail]
	}
	return trimmed
}

// classifyStatus maps a non-success ledger response onto the error
// taxonomy. Retryable means rerunning later may succeed without changing
// anything; the pipeline surfaces the condition rather than auto-retrying.
func classifyStatus(status int, body []byte) *syncerr.Error {
	detail := detailFrom(body)

	var reason string
	retryable := false
	switch {
	case status == http.StatusUnauthorized:
		reason = "ledger rejected the API token"
	case status == http.StatusTooManyRequests:
		reason = "ledger rate limit hit"
		retryable = true
	case status == http.StatusBadRequest:
		reason = "ledger rejected the request shape"
	case status == http.StatusNotFound:
		reason = "ledger target not found, check the account id"
	case status >= 500:
		reason = "ledger service unavailable"
		retryable = true
	default:
		reason = "unexpected ledger response"
	}

	return &syncerr.Error{
		Kind:      syncerr.KindLedgerWrite,
		Step:      "upload",
		Retryable: retryable,
		Err:       fmt.Errorf("%s (status %d): %s", reason, status, detail),
	}
}
