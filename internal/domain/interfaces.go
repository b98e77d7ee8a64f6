package domain

import (
	"context"
	"time"

	"homestay/internal/models"
)

// Repository is the transactional store the core consumes. The sqlite
// implementation lives in internal/database.
type Repository interface {
	CreateListing(ctx context.Context, listing *models.Listing) error
	UpdateListing(ctx context.Context, listing *models.Listing) error
	GetListing(ctx context.Context, id int64) (*models.Listing, error)
	SetListingStatus(ctx context.Context, id int64, status string) error
	GetHostListings(ctx context.Context, hostID int64) ([]*models.Listing, error)
	SearchListings(ctx context.Context, search models.ListingSearch) ([]*models.Listing, error)

	CheckAvailability(ctx context.Context, listingID int64, checkIn, checkOut time.Time) (bool, error)
	CreateBookingWithLock(ctx context.Context, booking *models.Booking) error
	GetBooking(ctx context.Context, id int64) (*models.Booking, error)
	ApplyTransitionWithVersion(ctx context.Context, id, fromVersion int64, status string, at time.Time) error
	UpdateBookingPayment(ctx context.Context, id int64, paymentStatus, paymentRef string) error
	GetListingBookings(ctx context.Context, listingID int64) ([]*models.Booking, error)
	GetGuestBookings(ctx context.Context, guestID int64) ([]*models.Booking, error)
	GetAvailabilityForPeriod(ctx context.Context, listingID int64, startDate time.Time, days int) ([]*models.DayAvailability, error)

	CreateReview(ctx context.Context, review *models.Review) error
	GetReview(ctx context.Context, id int64) (*models.Review, error)
	GetReviewByBooking(ctx context.Context, bookingID int64) (*models.Review, error)
	SetHostResponse(ctx context.Context, reviewID int64, text string, at time.Time) error
	GetPublicReviews(ctx context.Context, listingID int64) ([]*models.Review, error)
	GetRatingSummary(ctx context.Context, listingID int64) (*models.RatingSummary, error)
}

// Clock supplies current time so transition timestamps are testable.
type Clock interface {
	Now() time.Time
}

// RealClock is the production Clock.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

// SyncWorker accepts export tasks for the background Sheets sync.
type SyncWorker interface {
	EnqueueBooking(ctx context.Context, taskType string, booking *models.Booking) error
}

// SheetsWriter pushes rows to the host-facing spreadsheet.
type SheetsWriter interface {
	UpsertBooking(booking *models.Booking) error
	UpdateBookingStatus(bookingID int64, status string) error
}

// ListingCache holds hot listing snapshots and per-guest rate counters.
type ListingCache interface {
	GetListing(ctx context.Context, id int64) (*models.Listing, error)
	SetListing(ctx context.Context, listing *models.Listing) error
	InvalidateListing(ctx context.Context, id int64) error
	CheckRateLimit(ctx context.Context, guestID int64, limit int, window time.Duration) (bool, error)
}
