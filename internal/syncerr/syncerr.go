// Package syncerr defines the error-kind taxonomy every stage of the sync
// pipeline translates its failures into before they reach the run boundary.
package syncerr

import (
	"errors"
	"fmt"

	"github.com/dvloznov/cardsync/internal/domain"
)

// Kind classifies a run failure. Kinds decide what the caller tells the
// user: fix configuration, rerun, approve the push faster, or pick an
// account.
type Kind string

const (
	KindConfiguration       Kind = "configuration"
	KindAuthentication      Kind = "authentication"
	KindSecondFactorTimeout Kind = "second_factor_timeout"
	KindAccountAmbiguous    Kind = "account_ambiguous"
	KindUpstreamFetch       Kind = "upstream_fetch"
	KindLedgerWrite         Kind = "ledger_write"
	KindUnhandled           Kind = "unhandled"
)

// Error is a classified pipeline failure. Step names the pipeline step that
// failed; Retryable means a fresh run may succeed without operator
// intervention.
type Error struct {
	Kind      Kind
	Step      string
	Retryable bool
	Err       error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Step, e.Kind)
	}
	return fmt.Sprintf("%s: %v", e.Step, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// New wraps err with a kind and step.
func New(kind Kind, step string, err error) *Error {
	return &Error{Kind: kind, Step: step, Err: err, Retryable: retryableByDefault(kind)}
}

func retryableByDefault(kind Kind) bool {
	switch kind {
	case KindAuthentication, KindSecondFactorTimeout:
		return true
	default:
		return false
	}
}

// KindOf extracts the kind from err, or KindUnhandled if err carries none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	var a *AmbiguousAccountsError
	if errors.As(err, &a) {
		return KindAccountAmbiguous
	}
	return KindUnhandled
}

// StepOf extracts the failing step name from err, empty if unknown.
func StepOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Step
	}
	return ""
}

// AccountCandidate pairs an account descriptor with a best-effort preview of
// its recent activity, so a human can tell accounts apart and set the
// account id explicitly.
type AccountCandidate struct {
	Descriptor domain.AccountDescriptor `json:"descriptor"`
	Preview    []domain.RawTransaction  `json:"preview,omitempty"`
	Note       string                   `json:"note,omitempty"`
}

// AmbiguousAccountsError reports that more than one account exists and none
// was configured. It is a distinct type, not a message string, so callers
// can render the candidate list directly.
type AmbiguousAccountsError struct {
	Candidates []AccountCandidate
}

func (e *AmbiguousAccountsError) Error() string {
	return fmt.Sprintf("found %d accounts, set an explicit account id to choose one", len(e.Candidates))
}
