package database

import (
	"context"
	"errors"
	"testing"

	"homestay/internal/models"
)

func TestListingCRUD(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	listing := &models.Listing{
		HostID:               100,
		Title:                "Harbour flat",
		Description:          "Two rooms over the water",
		PropertyType:         "apartment",
		City:                 "Aveiro",
		Country:              "PT",
		MaxGuests:            3,
		Bedrooms:             2,
		Beds:                 2,
		Bathrooms:            1,
		BasePriceCents:       12000,
		CleaningFeeCents:     3000,
		SecurityDepositCents: 40000,
		MinimumStay:          2,
		MaximumStay:          21,
		CheckInTime:          "15:00",
		CheckOutTime:         "11:00",
		Status:               models.ListingActive,
	}

	if err := db.CreateListing(ctx, listing); err != nil {
		t.Fatalf("create: %v", err)
	}
	if listing.ID == 0 {
		t.Fatal("id not assigned")
	}

	got, err := db.GetListing(ctx, listing.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Title != "Harbour flat" || got.City != "Aveiro" || got.BasePriceCents != 12000 {
		t.Errorf("unexpected listing: %+v", got)
	}

	got.Title = "Harbour flat, renovated"
	got.BasePriceCents = 13500
	if err := db.UpdateListing(ctx, got); err != nil {
		t.Fatalf("update: %v", err)
	}

	updated, err := db.GetListing(ctx, listing.ID)
	if err != nil {
		t.Fatalf("get after update: %v", err)
	}
	if updated.Title != "Harbour flat, renovated" || updated.BasePriceCents != 13500 {
		t.Errorf("update not persisted: %+v", updated)
	}

	if err := db.SetListingStatus(ctx, listing.ID, models.ListingInactive); err != nil {
		t.Fatalf("set status: %v", err)
	}
	inactive, _ := db.GetListing(ctx, listing.ID)
	if inactive.Status != models.ListingInactive {
		t.Errorf("status = %s, want inactive", inactive.Status)
	}
}

func TestGetListingNotFound(t *testing.T) {
	db := newTestDB(t)
	_, err := db.GetListing(context.Background(), 404404)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestGetHostListings(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		insertListing(t, db)
	}
	other := &models.Listing{
		HostID:         200,
		Title:          "Other host's flat",
		MaxGuests:      2,
		BasePriceCents: 7000,
		MinimumStay:    1,
		MaximumStay:    30,
		Status:         models.ListingActive,
	}
	if err := db.CreateListing(ctx, other); err != nil {
		t.Fatalf("create: %v", err)
	}

	mine, err := db.GetHostListings(ctx, 100)
	if err != nil {
		t.Fatalf("host listings: %v", err)
	}
	if len(mine) != 3 {
		t.Errorf("host 100 listings = %d, want 3", len(mine))
	}
}

func TestSearchListings(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	mk := func(city, country, propertyType string, guests, price int64, status string) *models.Listing {
		l := &models.Listing{
			HostID:         100,
			Title:          city + " place",
			PropertyType:   propertyType,
			City:           city,
			Country:        country,
			MaxGuests:      guests,
			BasePriceCents: price,
			MinimumStay:    1,
			MaximumStay:    30,
			Status:         status,
		}
		if err := db.CreateListing(ctx, l); err != nil {
			t.Fatalf("create: %v", err)
		}
		return l
	}

	mk("Porto", "PT", "apartment", 2, 8000, models.ListingActive)
	mk("Porto", "PT", "house", 6, 20000, models.ListingActive)
	mk("Lisbon", "PT", "apartment", 4, 15000, models.ListingActive)
	mk("Lisbon", "PT", "apartment", 4, 9000, models.ListingInactive)
	booked := mk("Faro", "PT", "house", 4, 11000, models.ListingActive)

	insertBooking(t, db, booked.ID, date(2026, 7, 10), date(2026, 7, 20), models.StatusConfirmed)

	t.Run("ByCity", func(t *testing.T) {
		got, err := db.SearchListings(ctx, models.ListingSearch{City: "Porto"})
		if err != nil {
			t.Fatalf("search: %v", err)
		}
		if len(got) != 2 {
			t.Errorf("results = %d, want 2", len(got))
		}
	})

	t.Run("InactiveExcluded", func(t *testing.T) {
		got, err := db.SearchListings(ctx, models.ListingSearch{City: "Lisbon"})
		if err != nil {
			t.Fatalf("search: %v", err)
		}
		if len(got) != 1 {
			t.Errorf("results = %d, want 1 (inactive must be hidden)", len(got))
		}
	})

	t.Run("ByGuestsAndType", func(t *testing.T) {
		got, err := db.SearchListings(ctx, models.ListingSearch{Guests: 5, PropertyType: "house"})
		if err != nil {
			t.Fatalf("search: %v", err)
		}
		if len(got) != 1 || got[0].City != "Porto" {
			t.Errorf("unexpected results: %d", len(got))
		}
	})

	t.Run("ByPriceRange", func(t *testing.T) {
		got, err := db.SearchListings(ctx, models.ListingSearch{MinPriceCents: 10000, MaxPriceCents: 16000})
		if err != nil {
			t.Fatalf("search: %v", err)
		}
		if len(got) != 2 {
			t.Errorf("results = %d, want 2", len(got))
		}
	})

	t.Run("DateWindowExcludesBooked", func(t *testing.T) {
		got, err := db.SearchListings(ctx, models.ListingSearch{
			Country:  "PT",
			CheckIn:  date(2026, 7, 12),
			CheckOut: date(2026, 7, 14),
		})
		if err != nil {
			t.Fatalf("search: %v", err)
		}
		for _, l := range got {
			if l.ID == booked.ID {
				t.Error("booked listing should be excluded from the window")
			}
		}
		if len(got) != 3 {
			t.Errorf("results = %d, want 3", len(got))
		}
	})

	t.Run("DateWindowAfterCheckout", func(t *testing.T) {
		got, err := db.SearchListings(ctx, models.ListingSearch{
			City:     "Faro",
			CheckIn:  date(2026, 7, 20),
			CheckOut: date(2026, 7, 23),
		})
		if err != nil {
			t.Fatalf("search: %v", err)
		}
		if len(got) != 1 {
			t.Errorf("results = %d, want 1 (stay starts on checkout day)", len(got))
		}
	})
}
