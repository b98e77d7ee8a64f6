package service

import (
	"time"

	"homestay/internal/models"
)

// nightsBetween returns the whole-day span of [checkIn, checkOut).
func nightsBetween(checkIn, checkOut time.Time) int64 {
	return int64(checkOut.Sub(checkIn).Hours() / 24)
}

// PriceStay computes the quote for a candidate stay:
// nights × base price + cleaning fee, in minor units. The security deposit is
// reported alongside; it is snapshotted onto the booking at creation and
// later listing changes do not affect existing bookings.
func PriceStay(listing *models.Listing, checkIn, checkOut time.Time) models.Quote {
	nights := nightsBetween(checkIn, checkOut)
	return models.Quote{
		ListingID:            listing.ID,
		CheckIn:              checkIn,
		CheckOut:             checkOut,
		Nights:               nights,
		BasePriceCents:       listing.BasePriceCents,
		CleaningFeeCents:     listing.CleaningFeeCents,
		TotalPriceCents:      nights*listing.BasePriceCents + listing.CleaningFeeCents,
		SecurityDepositCents: listing.SecurityDepositCents,
	}
}
