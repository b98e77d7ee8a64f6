package service

import (
	"errors"
	"fmt"
)

// ValidationError reports a bad input shape: date ordering, guest count,
// rating range, inactive listing.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// StayLengthError reports a stay outside the listing's min/max nights.
type StayLengthError struct {
	Nights int64
	Min    int64
	Max    int64
}

func (e *StayLengthError) Error() string {
	return fmt.Sprintf("stay of %d nights violates listing bounds [%d, %d]", e.Nights, e.Min, e.Max)
}

// TransitionError reports an illegal booking status change. Re-requesting an
// already-applied transition yields this error too; the booking is left
// unchanged either way.
type TransitionError struct {
	From string
	To   string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("illegal booking transition %s -> %s", e.From, e.To)
}

var (
	// ErrNotHost means the requester is not the listing's host.
	ErrNotHost = errors.New("requester is not the listing host")

	// ErrNotGuest means the requester is not the booking's guest.
	ErrNotGuest = errors.New("requester is not the booking guest")

	// ErrBookingLive means today falls inside the stay; a live booking
	// progresses through active/completed instead of being cancelled.
	ErrBookingLive = errors.New("booking is currently live and cannot be cancelled")

	// ErrRateLimited means the guest exceeded the request budget.
	ErrRateLimited = errors.New("rate limit exceeded")
)
