package models

import "time"

// Listing is a rentable unit. Prices are minor units (cents).
type Listing struct {
	ID           int64  `json:"id" yaml:"id"`
	HostID       int64  `json:"host_id" yaml:"host_id"`
	Title        string `json:"title" yaml:"title"`
	Description  string `json:"description" yaml:"description"`
	PropertyType string `json:"property_type" yaml:"property_type"`

	Address   string  `json:"address" yaml:"address"`
	City      string  `json:"city" yaml:"city"`
	State     string  `json:"state" yaml:"state"`
	Country   string  `json:"country" yaml:"country"`
	ZipCode   string  `json:"zip_code" yaml:"zip_code"`
	Latitude  float64 `json:"latitude,omitempty" yaml:"latitude"`
	Longitude float64 `json:"longitude,omitempty" yaml:"longitude"`

	MaxGuests int64 `json:"max_guests" yaml:"max_guests"`
	Bedrooms  int64 `json:"bedrooms" yaml:"bedrooms"`
	Beds      int64 `json:"beds" yaml:"beds"`
	Bathrooms int64 `json:"bathrooms" yaml:"bathrooms"`

	Amenities Amenities `json:"amenities" yaml:"amenities"`

	BasePriceCents       int64 `json:"base_price_cents" yaml:"base_price_cents"`
	CleaningFeeCents     int64 `json:"cleaning_fee_cents" yaml:"cleaning_fee_cents"`
	SecurityDepositCents int64 `json:"security_deposit_cents" yaml:"security_deposit_cents"`

	CheckInTime  string `json:"check_in_time" yaml:"check_in_time"`   // "15:00"
	CheckOutTime string `json:"check_out_time" yaml:"check_out_time"` // "11:00"
	MinimumStay  int64  `json:"minimum_stay" yaml:"minimum_stay"`
	MaximumStay  int64  `json:"maximum_stay" yaml:"maximum_stay"`

	Status    string    `json:"status" yaml:"status"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`
}

type Amenities struct {
	Wifi            bool `json:"wifi" yaml:"wifi"`
	Kitchen         bool `json:"kitchen" yaml:"kitchen"`
	Parking         bool `json:"parking" yaml:"parking"`
	Pool            bool `json:"pool" yaml:"pool"`
	AirConditioning bool `json:"air_conditioning" yaml:"air_conditioning"`
	Heating         bool `json:"heating" yaml:"heating"`
	TV              bool `json:"tv" yaml:"tv"`
}

// IsBookable reports whether new bookings may target this listing.
func (l *Listing) IsBookable() bool {
	return l.Status == ListingActive
}

// ListingSearch carries search filters for the listing read path.
type ListingSearch struct {
	City          string
	Country       string
	Guests        int64
	PropertyType  string
	MinPriceCents int64
	MaxPriceCents int64
	CheckIn       time.Time
	CheckOut      time.Time
}

// RatingSummary aggregates review stats for a listing. Average is 0 when the
// listing has no reviews; callers rely on that convention.
type RatingSummary struct {
	ListingID     int64   `json:"listing_id"`
	AverageRating float64 `json:"average_rating"`
	ReviewCount   int64   `json:"review_count"`
}
