// Package fixtures builds deterministic demo data for local development and
// occupancy-export smoke runs. The same seed always yields the same dataset.
package fixtures

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"homestay/internal/database"
	"homestay/internal/models"

	"github.com/rs/zerolog"
)

const DefaultSeed = 42

var cities = []struct {
	city, country string
}{
	{"Porto", "PT"},
	{"Lisbon", "PT"},
	{"Bergen", "NO"},
	{"Gdansk", "PL"},
	{"Sevilla", "ES"},
}

var propertyTypes = []string{"apartment", "house", "cabin", "studio"}

var comments = []string{
	"Spotless and exactly as described.",
	"Great location, would book again.",
	"Host was quick to answer every question.",
	"A bit noisy at night but otherwise fine.",
	"Perfect for a short family stay.",
}

// Options controls dataset size. Zero values fall back to a small default set.
type Options struct {
	Seed     int64
	Hosts    int
	Listings int
	Guests   int
}

func (o *Options) applyDefaults() {
	if o.Seed == 0 {
		o.Seed = DefaultSeed
	}
	if o.Hosts <= 0 {
		o.Hosts = 3
	}
	if o.Listings <= 0 {
		o.Listings = 8
	}
	if o.Guests <= 0 {
		o.Guests = 10
	}
}

// Summary reports what a seeding run created.
type Summary struct {
	Listings  int
	Bookings  int
	Completed int
	Reviews   int
}

type Seeder struct {
	db  *database.DB
	log zerolog.Logger
}

func NewSeeder(db *database.DB, logger *zerolog.Logger) *Seeder {
	var log zerolog.Logger
	if logger != nil {
		log = logger.With().Str("component", "fixtures").Logger()
	}
	return &Seeder{db: db, log: log}
}

// Seed populates the database with hosts' listings, a booking history in
// mixed states and reviews on the completed stays.
func (s *Seeder) Seed(ctx context.Context, opts Options) (*Summary, error) {
	opts.applyDefaults()
	rng := rand.New(rand.NewSource(opts.Seed))
	now := time.Now().Truncate(24 * time.Hour)

	summary := &Summary{}

	for i := 0; i < opts.Listings; i++ {
		listing, err := s.seedListing(ctx, rng, i, opts.Hosts)
		if err != nil {
			return nil, err
		}
		summary.Listings++

		if err := s.seedBookings(ctx, rng, listing, now, opts.Guests, summary); err != nil {
			return nil, err
		}
	}

	s.log.Info().
		Int("listings", summary.Listings).
		Int("bookings", summary.Bookings).
		Int("reviews", summary.Reviews).
		Msg("fixtures seeded")
	return summary, nil
}

func (s *Seeder) seedListing(ctx context.Context, rng *rand.Rand, index, hosts int) (*models.Listing, error) {
	place := cities[rng.Intn(len(cities))]
	listing := &models.Listing{
		HostID:               int64(100 + index%hosts),
		Title:                fmt.Sprintf("%s %s #%d", place.city, propertyTypes[rng.Intn(len(propertyTypes))], index+1),
		Description:          "Seeded demo listing.",
		PropertyType:         propertyTypes[rng.Intn(len(propertyTypes))],
		City:                 place.city,
		Country:              place.country,
		MaxGuests:            int64(2 + rng.Intn(5)),
		Bedrooms:             int64(1 + rng.Intn(3)),
		Beds:                 int64(1 + rng.Intn(4)),
		Bathrooms:            int64(1 + rng.Intn(2)),
		BasePriceCents:       int64(5000 + rng.Intn(20)*1000),
		CleaningFeeCents:     int64(rng.Intn(5)) * 1000,
		SecurityDepositCents: int64(rng.Intn(4)) * 25000,
		MinimumStay:          1,
		MaximumStay:          models.DefaultMaximumStay,
		CheckInTime:          "15:00",
		CheckOutTime:         "11:00",
		Amenities: models.Amenities{
			Wifi:    true,
			Kitchen: rng.Intn(2) == 0,
			Parking: rng.Intn(3) == 0,
			Heating: true,
		},
		Status: models.ListingActive,
	}
	if err := s.db.CreateListing(ctx, listing); err != nil {
		return nil, fmt.Errorf("seed listing: %w", err)
	}
	return listing, nil
}

// seedBookings walks backwards and forwards from today, laying down
// non-overlapping stays so confirmed bookings never trip the overlap guard.
func (s *Seeder) seedBookings(ctx context.Context, rng *rand.Rand, listing *models.Listing, now time.Time, guests int, summary *Summary) error {
	// Past stays, always completed or cancelled.
	cursor := now.AddDate(0, 0, -60)
	for cursor.Before(now.AddDate(0, 0, -7)) {
		nights := 2 + rng.Intn(5)
		gap := 1 + rng.Intn(6)

		status := models.StatusCompleted
		if rng.Intn(5) == 0 {
			status = models.StatusCancelled
		}
		booking, err := s.seedBooking(ctx, rng, listing, cursor, nights, guests, status)
		if err != nil {
			return err
		}
		summary.Bookings++

		if status == models.StatusCompleted {
			summary.Completed++
			if rng.Intn(3) != 0 {
				if err := s.seedReview(ctx, rng, booking); err != nil {
					return err
				}
				summary.Reviews++
			}
		}
		cursor = cursor.AddDate(0, 0, nights+gap)
	}

	// Upcoming stays, pending or confirmed.
	cursor = now.AddDate(0, 0, 3+rng.Intn(5))
	for i := 0; i < 2; i++ {
		nights := 2 + rng.Intn(5)
		status := models.StatusPending
		if rng.Intn(2) == 0 {
			status = models.StatusConfirmed
		}
		if _, err := s.seedBooking(ctx, rng, listing, cursor, nights, guests, status); err != nil {
			return err
		}
		summary.Bookings++
		cursor = cursor.AddDate(0, 0, nights+2+rng.Intn(5))
	}

	return nil
}

func (s *Seeder) seedBooking(ctx context.Context, rng *rand.Rand, listing *models.Listing, checkIn time.Time, nights, guests int, status string) (*models.Booking, error) {
	checkOut := checkIn.AddDate(0, 0, nights)
	paymentStatus := models.PaymentPending
	if status == models.StatusCompleted || status == models.StatusConfirmed {
		paymentStatus = models.PaymentPaid
	}

	booking := &models.Booking{
		ListingID:            listing.ID,
		GuestID:              int64(1 + rng.Intn(guests)),
		CheckIn:              checkIn,
		CheckOut:             checkOut,
		NumberOfGuests:       1 + int64(rng.Intn(int(listing.MaxGuests))),
		TotalPriceCents:      listing.BasePriceCents*int64(nights) + listing.CleaningFeeCents,
		SecurityDepositCents: listing.SecurityDepositCents,
		Status:               status,
		PaymentStatus:        paymentStatus,
	}
	if err := s.db.CreateBookingWithLock(ctx, booking); err != nil {
		return nil, fmt.Errorf("seed booking: %w", err)
	}
	return booking, nil
}

func (s *Seeder) seedReview(ctx context.Context, rng *rand.Rand, booking *models.Booking) error {
	review := &models.Review{
		ListingID:  booking.ListingID,
		BookingID:  booking.ID,
		AuthorID:   booking.GuestID,
		Rating:     int64(3 + rng.Intn(3)),
		Title:      "Stay feedback",
		Comment:    comments[rng.Intn(len(comments))],
		IsVerified: true,
		IsPublic:   true,
	}
	if err := s.db.CreateReview(ctx, review); err != nil {
		return fmt.Errorf("seed review: %w", err)
	}
	return nil
}
