package engine

import "errors"

var (
	// ErrDataUnavailable signals missing history or odds. Recoverable:
	// callers fall back to league-average strengths or skip value evaluation.
	ErrDataUnavailable = errors.New("engine: required data unavailable")

	// ErrInsufficientSample signals too few calibration records to refit.
	// Recoverable: the prior calibration is kept.
	ErrInsufficientSample = errors.New("engine: insufficient sample for calibration")

	// ErrInvalidInput signals a malformed fixture, strength or odds value.
	// Rejected per item; never aborts a batch.
	ErrInvalidInput = errors.New("engine: invalid input")

	// ErrInvariantViolation signals a derived probability partition that does
	// not sum to ~1. Fatal for that prediction: logged, excluded from output.
	ErrInvariantViolation = errors.New("engine: probability partition invariant violated")

	// ErrNoValidCoupon signals that no candidate subset satisfies the risk
	// category's combined-odds range.
	ErrNoValidCoupon = errors.New("engine: no valid coupon for constraints")
)
