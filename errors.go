package treasury

import (
	"errors"
	"fmt"

	"github.com/xraph/treasury/funding"
)

// Sentinel errors for common failure scenarios.
var (
	// General errors
	ErrNotFound     = errors.New("treasury: not found")
	ErrInvalidInput = errors.New("treasury: invalid input")

	// Authorization errors
	ErrOnlyGovernor = errors.New("treasury: caller is not the governor")
	ErrOnlyKeeper   = errors.New("treasury: caller is not the keeper")
	ErrOnlyMaker    = errors.New("treasury: caller is not the maker")

	// Invoice errors
	ErrInvoiceNotFound       = errors.New("treasury: invoice not found")
	ErrInvoiceAlreadyClaimed = errors.New("treasury: invoice already claimed")

	// Claim errors
	ErrMinBuffer     = errors.New("treasury: streamed amount below minimum buffer")
	ErrClaimNotFound = errors.New("treasury: claim not found")
	ErrNoStreamBound = errors.New("treasury: no funding stream bound")
	ErrNotConfigured = errors.New("treasury: collaborator not configured")

	// Parameter errors
	ErrInvalidBuffer   = errors.New("treasury: min buffer exceeds max buffer")
	ErrIncorrectVestID = errors.New("treasury: stream beneficiary is not the treasury")

	// Store errors
	ErrStoreNotReady     = errors.New("treasury: store not ready")
	ErrStoreClosed       = errors.New("treasury: store is closed")
	ErrTransactionFailed = errors.New("treasury: transaction failed")
	ErrMigrationFailed   = errors.New("treasury: migration failed")
)

// Adapter policy errors, re-exported from the funding package so
// callers can match them alongside the engine's own sentinels.
var (
	ErrPendingTooSmall = funding.ErrPendingTooSmall
	ErrBufferFull      = funding.ErrBufferFull
)

// ValidationError represents a validation failure with details.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("treasury: validation failed for %s: %s", e.Field, e.Message)
}

// MultiError represents multiple errors that occurred.
type MultiError struct {
	Errors []error
}

func (e MultiError) Error() string {
	if len(e.Errors) == 0 {
		return "treasury: no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("treasury: %d errors occurred", len(e.Errors))
}

// Add adds an error to the multi-error.
func (e *MultiError) Add(err error) {
	if err != nil {
		e.Errors = append(e.Errors, err)
	}
}

// HasErrors returns true if there are any errors.
func (e MultiError) HasErrors() bool {
	return len(e.Errors) > 0
}

// First returns the first error or nil.
func (e MultiError) First() error {
	if len(e.Errors) > 0 {
		return e.Errors[0]
	}
	return nil
}

// IsNotFound returns true if the error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrInvoiceNotFound) ||
		errors.Is(err, ErrClaimNotFound) ||
		errors.Is(err, funding.ErrNoAward)
}

// IsAuthorization returns true if the error is a role check failure.
func IsAuthorization(err error) bool {
	return errors.Is(err, ErrOnlyGovernor) ||
		errors.Is(err, ErrOnlyKeeper) ||
		errors.Is(err, ErrOnlyMaker)
}

// IsPolicyViolation returns true if the error is a buffer policy
// rejection. These mean "nothing to do right now", not a fault: the
// same call can succeed later without any state change.
func IsPolicyViolation(err error) bool {
	return errors.Is(err, ErrMinBuffer) ||
		errors.Is(err, funding.ErrPendingTooSmall) ||
		errors.Is(err, funding.ErrBufferFull)
}

// IsStateViolation returns true if the error is a precondition failure
// on ledger or parameter state.
func IsStateViolation(err error) bool {
	return errors.Is(err, ErrInvoiceAlreadyClaimed) ||
		errors.Is(err, ErrInvalidBuffer) ||
		errors.Is(err, ErrIncorrectVestID) ||
		errors.Is(err, ErrNoStreamBound)
}

// IsRetryable returns true if the error is temporary and the operation can be retried.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrStoreNotReady) ||
		errors.Is(err, ErrTransactionFailed)
}
