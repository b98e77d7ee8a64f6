package models

import "time"

// Review is post-stay feedback bound one-to-one to a completed booking.
// ListingID and AuthorID are always derived from the booking at construction
// time, never supplied by the caller.
type Review struct {
	ID        int64 `json:"id"`
	ListingID int64 `json:"listing_id"`
	BookingID int64 `json:"booking_id"`
	AuthorID  int64 `json:"author_id"`

	Rating  int64  `json:"rating"`
	Title   string `json:"title"`
	Comment string `json:"comment"`

	HostResponse   string     `json:"host_response,omitempty"`
	HostResponseAt *time.Time `json:"host_response_at,omitempty"`

	IsVerified bool `json:"is_verified"`
	IsPublic   bool `json:"is_public"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HasHostResponse reports whether the host already replied. Responses attach
// at most once.
func (r *Review) HasHostResponse() bool {
	return r.HostResponseAt != nil
}

// ValidRating reports whether a rating is within bounds.
func ValidRating(rating int64) bool {
	return rating >= RatingMin && rating <= RatingMax
}
