// Package cerrors defines the error taxonomy shared across the council's
// subsystems (§7 of the design spec). Callers dispatch on these with
// errors.Is/errors.As; no component matches on error strings.
package cerrors

import (
	"errors"
	"fmt"
)

// Sentinel errors for conditions with no attached data.
var (
	// ErrSchemaValidation indicates an LLM response failed PredictionBundle
	// schema validation. The bundle is not stored and no bet is placed.
	ErrSchemaValidation = errors.New("cerrors: prediction bundle failed schema validation")

	// ErrEligibilityViolation indicates an expert fell below an SLO and is
	// excluded from council selection until it recovers.
	ErrEligibilityViolation = errors.New("cerrors: expert below eligibility SLO")

	// ErrBankrollUnderflow indicates a bet would drive a bankroll negative.
	ErrBankrollUnderflow = errors.New("cerrors: bet would underflow bankroll")

	// ErrInvariantBreach indicates an internal contract was broken. Fatal:
	// callers should stop processing and surface this for human audit.
	ErrInvariantBreach = errors.New("cerrors: invariant breach")
)

// TransientAdapterError wraps a failed external fetch that is safe to retry
// with exponential backoff (≤3 attempts per §7).
type TransientAdapterError struct {
	Adapter string
	Attempt int
	Err     error
}

func (e *TransientAdapterError) Error() string {
	return fmt.Sprintf("cerrors: %s adapter transient failure (attempt %d): %v", e.Adapter, e.Attempt, e.Err)
}

func (e *TransientAdapterError) Unwrap() error { return e.Err }

// StaleData indicates a UDV section is older than its staleness threshold.
// It is not an error in the failure sense — the section is still usable —
// but it is modeled as one so callers can propagate it as a soft warning
// via the same error-handling path as hard failures.
type StaleData struct {
	Section   string
	AgeString string
}

func (e *StaleData) Error() string {
	return fmt.Sprintf("cerrors: %s section is stale (age %s)", e.Section, e.AgeString)
}

// InvariantBreach carries context about which internal contract broke.
// Use when ErrInvariantBreach alone doesn't give the operator enough to act on.
type InvariantBreach struct {
	Component string
	Detail    string
}

func (e *InvariantBreach) Error() string {
	return fmt.Sprintf("cerrors: invariant breach in %s: %s", e.Component, e.Detail)
}

func (e *InvariantBreach) Unwrap() error { return ErrInvariantBreach }

// ExitCode maps an error to the CLI exit code contract (§6):
// 0 success, 2 validation failure, 3 adapter outage, 4 invariant violation.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var te *TransientAdapterError
	if errors.As(err, &te) {
		return 3
	}
	if errors.Is(err, ErrSchemaValidation) {
		return 2
	}
	if errors.Is(err, ErrInvariantBreach) {
		return 4
	}
	return 1
}
