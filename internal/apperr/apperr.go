// Package apperr defines the sentinel errors for business-rule violations.
// Services return these wrapped with operation context; handlers match them
// with errors.Is to pick the HTTP status, so callers always assert on the
// kind, never on message text.
package apperr

import "errors"

var (
	// ErrNotFound — the requested user, report or payment request does not exist.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyPurchased — the user already owns the report.
	ErrAlreadyPurchased = errors.New("report already purchased")
	// ErrDuplicateRequest — a pending payment request for the same target already exists.
	ErrDuplicateRequest = errors.New("duplicate pending payment request")
	// ErrActiveSubscriptionExists — the user already has an active subscription.
	ErrActiveSubscriptionExists = errors.New("active subscription already exists")
	// ErrAlreadyProcessed — the payment request was already approved or rejected.
	ErrAlreadyProcessed = errors.New("payment request already processed")
	// ErrNoSubscription — the user has no subscription at all.
	ErrNoSubscription = errors.New("no subscription")
	// ErrSubscriptionExpired — the subscription exists but its expiry date has passed.
	ErrSubscriptionExpired = errors.New("subscription expired")
	// ErrQuotaExhausted — the matching quota bucket has no remaining balance.
	ErrQuotaExhausted = errors.New("quota exhausted")
	// ErrInvalidCredentials — login or password reset verification failed.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrValidation — the submission payload is malformed (e.g. payment type
	// does not match the populated target).
	ErrValidation = errors.New("validation failed")
)
