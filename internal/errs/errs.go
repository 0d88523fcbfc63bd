// Package errs models the error kinds of §7: each is a distinct wrapper type so
// callers branch on kind with errors.As instead of string matching, the same
// fmt.Errorf("...: %w", err) wrapping idiom the rest of this module uses.
package errs

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// Transient wraps a provider error the caller should retry in-component.
type Transient struct{ Err error }

func (e *Transient) Error() string { return fmt.Sprintf("provider transient: %v", e.Err) }
func (e *Transient) Unwrap() error { return e.Err }

// AsTransient wraps err as a Transient provider error.
func AsTransient(err error) error {
	if err == nil {
		return nil
	}
	return &Transient{Err: err}
}

// Fatal wraps a 4xx/malformed-payload error. The per-wallet/per-token unit fails,
// is logged, and no state is mutated.
type Fatal struct{ Err error }

func (e *Fatal) Error() string { return fmt.Sprintf("provider fatal: %v", e.Err) }
func (e *Fatal) Unwrap() error { return e.Err }

func AsFatal(err error) error {
	if err == nil {
		return nil
	}
	return &Fatal{Err: err}
}

// PriceUnknown signals the price resolver could not find a price; analytics must
// continue with cost-held valuation rather than fail.
type PriceUnknown struct {
	Contract string
	Chain    string
}

func (e *PriceUnknown) Error() string {
	return fmt.Sprintf("price unknown for %s on %s", e.Contract, e.Chain)
}

// IntegrityConflict wraps a unique-constraint violation. It is treated as success
// (idempotent retry), never propagated as a failure to the caller's caller.
type IntegrityConflict struct{ Err error }

func (e *IntegrityConflict) Error() string { return fmt.Sprintf("integrity conflict: %v", e.Err) }
func (e *IntegrityConflict) Unwrap() error { return e.Err }

// ConfigError is fatal at startup only.
type ConfigError struct{ Err error }

func (e *ConfigError) Error() string { return fmt.Sprintf("config error: %v", e.Err) }
func (e *ConfigError) Unwrap() error { return e.Err }

func AsConfigError(err error) error {
	if err == nil {
		return nil
	}
	return &ConfigError{Err: err}
}

// DeadlineExceeded is equivalent to Fatal for the unit it occurred in.
type DeadlineExceeded struct{ Err error }

func (e *DeadlineExceeded) Error() string { return fmt.Sprintf("deadline exceeded: %v", e.Err) }
func (e *DeadlineExceeded) Unwrap() error { return e.Err }

// pgUniqueViolation is Postgres's unique_violation SQLSTATE code.
const pgUniqueViolation = "23505"

// ClassifyPgError maps a pgx error to IntegrityConflict when it is a unique
// violation, matching the upsert-on-conflict idiom already used by the
// persistence layer; any other error passes through unchanged.
func ClassifyPgError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return &IntegrityConflict{Err: err}
	}
	return err
}

// IsIntegrityConflict reports whether err is (or wraps) an IntegrityConflict.
func IsIntegrityConflict(err error) bool {
	var ic *IntegrityConflict
	return errors.As(err, &ic)
}

// IsTransient reports whether err is (or wraps) a Transient provider error.
func IsTransient(err error) bool {
	var t *Transient
	return errors.As(err, &t)
}
