// Package service implements the booking lifecycle and
// capacity-reservation engine: reserving spots across session sets,
// spending discount codes, orchestrating checkout against the payment
// gateway and reclaiming capacity from abandoned attempts.  The backing
// store offers only single-row atomicity, so every multi-row effect is
// expressed as unconditional writes, a verification read and a full-set
// compensating rollback on any anomaly.
package service

import "errors"

// ErrValidation is returned for missing or malformed input.  It is
// rejected before any reservation is made.
var ErrValidation = errors.New("validation failed")

// ErrNotFound is returned when an offering, session, booking or code
// does not exist.  Rejected before any reservation is made.
var ErrNotFound = errors.New("not found")

// ErrCapacityConflict means a capacity race was detected and the whole
// reservation was rolled back.  It is retryable: under contention the
// protocol can reject a request that would have fit with a different
// interleaving, so callers should re-prompt rather than treat it as
// proof the session is full.
var ErrCapacityConflict = errors.New("capacity conflict")

// ErrDiscountInvalid is returned when a code is unknown, expired,
// exhausted or otherwise unusable for the booking.
var ErrDiscountInvalid = errors.New("discount code invalid")

// ErrDiscountConflict means two concurrent bookings raced on the same
// code's balance or use counter and this one lost.  Retryable.
var ErrDiscountConflict = errors.New("discount code conflict")

// ErrDiscountAlreadyApplied is returned when a (code, booking) pair has
// already been redeemed.  Callers handling redelivered payment events
// treat it as success.
var ErrDiscountAlreadyApplied = errors.New("discount code already applied")
