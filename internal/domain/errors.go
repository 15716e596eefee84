package domain

import "errors"

// ─── Sentinel Errors ────────────────────────────────────────────────────────
// Callers classify with errors.Is; wrapped errors keep the sentinel.

var (
	// Ledger errors
	ErrInvalidAmount        = errors.New("amount must be greater than zero")
	ErrInvalidUser          = errors.New("user id must not be empty")
	ErrAccountExists        = errors.New("account already exists")
	ErrAccountNotFound      = errors.New("account not found")
	ErrUnregisteredReferrer = errors.New("referrer is not a registered account")
	ErrDuplicateReferral    = errors.New("referee already credited to this referrer")
	ErrBalanceOverflow      = errors.New("amount would overflow the balance")

	// Notification errors
	ErrNotificationNotFound = errors.New("notification not found")
)

// IsClientError reports whether err is caused by the caller's input or
// by state the caller can inspect, as opposed to an internal failure.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrInvalidUser) ||
		errors.Is(err, ErrUnregisteredReferrer) ||
		errors.Is(err, ErrDuplicateReferral) ||
		errors.Is(err, ErrBalanceOverflow)
}
