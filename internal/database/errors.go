package database

import "errors"

var (
	// ErrNotAvailable means the requested date range conflicts with an
	// existing confirmed or active booking.
	ErrNotAvailable = errors.New("dates are not available")

	// ErrConcurrentModification means a versioned update lost the race.
	ErrConcurrentModification = errors.New("booking was modified concurrently")

	// ErrNotFound means the requested row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateReview means the booking already has a review.
	ErrDuplicateReview = errors.New("booking already reviewed")

	// ErrResponseAlreadySet means the host already responded to the review.
	ErrResponseAlreadySet = errors.New("host response already set")
)
