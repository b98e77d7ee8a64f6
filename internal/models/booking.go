package models

import "time"

// Booking reserves a listing over the half-open range [CheckIn, CheckOut).
// Dates are date-only values (midnight UTC).
type Booking struct {
	ID        int64 `json:"id"`
	ListingID int64 `json:"listing_id"`
	GuestID   int64 `json:"guest_id"`

	CheckIn  time.Time `json:"check_in"`
	CheckOut time.Time `json:"check_out"`

	NumberOfGuests  int64  `json:"number_of_guests"`
	SpecialRequests string `json:"special_requests,omitempty"`

	TotalPriceCents      int64 `json:"total_price_cents"`
	SecurityDepositCents int64 `json:"security_deposit_cents"`

	Status        string `json:"status"`
	PaymentStatus string `json:"payment_status"`
	PaymentRef    string `json:"payment_ref,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	ConfirmedAt *time.Time `json:"confirmed_at,omitempty"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`
	Version     int64      `json:"version"`
}

// Nights returns the stay length in whole nights.
func (b *Booking) Nights() int64 {
	return int64(b.CheckOut.Sub(b.CheckIn).Hours() / 24)
}

// Overlaps reports whether two half-open ranges conflict. Touching endpoints
// (one stay's checkout equal to another's check-in) do not conflict.
func (b *Booking) Overlaps(checkIn, checkOut time.Time) bool {
	return b.CheckIn.Before(checkOut) && checkIn.Before(b.CheckOut)
}

// IsLive reports whether today falls within [CheckIn, CheckOut]. A live
// booking must complete through the normal progression, not be cancelled.
func (b *Booking) IsLive(today time.Time) bool {
	day := today.Truncate(24 * time.Hour)
	return !day.Before(b.CheckIn) && !day.After(b.CheckOut)
}

// CanBeCancelled reports whether cancellation is allowed as of today.
func (b *Booking) CanBeCancelled(today time.Time) bool {
	if b.Status != StatusPending && b.Status != StatusConfirmed {
		return false
	}
	return !b.IsLive(today)
}
