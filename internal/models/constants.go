package models

// Booking lifecycle statuses. Completed and cancelled are terminal.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusActive    = "active"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

// Listing statuses.
const (
	ListingActive    = "active"
	ListingInactive  = "inactive"
	ListingSuspended = "suspended"
)

// Payment statuses. Recorded only; no gateway is wired here.
const (
	PaymentPending  = "pending"
	PaymentPaid     = "paid"
	PaymentRefunded = "refunded"
)

const (
	// RatingMin and RatingMax bound a review rating.
	RatingMin = 1
	RatingMax = 5

	// DefaultMaxAdvanceDays is how far ahead a stay may start.
	DefaultMaxAdvanceDays = 365

	// DefaultMaximumStay caps a stay when the host sets no bound.
	DefaultMaximumStay = 30

	// RateLimitRequests is the default per-guest request budget per window.
	RateLimitRequests = 20

	// RateLimitWindow is the default rate-limit window in seconds.
	RateLimitWindow = 60
)

// ValidPaymentStatus reports whether s is a known payment status.
func ValidPaymentStatus(s string) bool {
	return s == PaymentPending || s == PaymentPaid || s == PaymentRefunded
}

// validTransitions is the static transition table for Booking.Status.
// Any pair not present here is rejected.
var validTransitions = map[string][]string{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusActive, StatusCancelled},
	StatusActive:    {StatusCompleted},
	StatusCompleted: {},
	StatusCancelled: {},
}

// CanTransition reports whether from -> to is a legal booking status change.
func CanTransition(from, to string) bool {
	for _, next := range validTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminalStatus reports whether a booking status admits no further change.
func IsTerminalStatus(status string) bool {
	return len(validTransitions[status]) == 0 && (status == StatusCompleted || status == StatusCancelled)
}

// BlocksAvailability reports whether a booking in this status occupies its
// date range for availability purposes.
func BlocksAvailability(status string) bool {
	return status == StatusConfirmed || status == StatusActive
}
