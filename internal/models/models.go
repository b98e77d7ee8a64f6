package models

import "time"

// Quote is the computed price for a candidate stay.
type Quote struct {
	ListingID            int64     `json:"listing_id"`
	CheckIn              time.Time `json:"check_in"`
	CheckOut             time.Time `json:"check_out"`
	Nights               int64     `json:"nights"`
	BasePriceCents       int64     `json:"base_price_cents"`
	CleaningFeeCents     int64     `json:"cleaning_fee_cents"`
	TotalPriceCents      int64     `json:"total_price_cents"`
	SecurityDepositCents int64     `json:"security_deposit_cents"`
}

// DayAvailability describes one calendar day of a listing.
type DayAvailability struct {
	Date      time.Time `json:"date"`
	ListingID int64     `json:"listing_id"`
	Available bool      `json:"available"`
}
