// Package repository defines error types that are reused across multiple
// repositories.  These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios.  For
// example, ErrForbidden indicates that the current user is not
// authorized to act on a resource owned by someone else, while
// ErrConflict signals that an operation cannot proceed because of the
// current state (e.g. reserving a product that already has an active
// transaction).
package repository

import "errors"

// ErrForbidden is returned when the caller attempts an operation on a
// resource they do not own.  Handlers translate this into HTTP 403.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when an update cannot be performed because of
// conflicting state, such as reserving a product that is no longer
// reservable.  Handlers translate this into HTTP 409.
var ErrConflict = errors.New("conflict")

// ErrProductNotFound is returned when a product lookup matches no row.
var ErrProductNotFound = errors.New("product not found")

// ErrTransactionNotFound is returned when a transaction lookup matches
// no row.
var ErrTransactionNotFound = errors.New("transaction not found")

// ErrConversationNotFound is returned when a conversation lookup matches
// no row or the caller is not a participant.
var ErrConversationNotFound = errors.New("conversation not found")

// ErrAlreadyReviewed is returned when a user tries to review the same
// transaction twice with a non-rejected review already on record.
var ErrAlreadyReviewed = errors.New("already reviewed")

// ErrReviewNotFound is returned when a review lookup matches no row.
var ErrReviewNotFound = errors.New("review not found")
