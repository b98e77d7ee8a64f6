package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"homestay/internal/config"
	"homestay/internal/database"
	"homestay/internal/models"
	"homestay/internal/service"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *database.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "api.db")
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	db, err := database.NewDB(path, &logger)
	if err != nil {
		t.Fatalf("new db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func newTestServer(t *testing.T, db *database.DB) *httptest.Server {
	t.Helper()
	logger := zerolog.Nop()
	cfg := config.APIConfig{} // auth disabled

	listings := service.NewListingService(db, nil, 0, 0, &logger)
	bookings := service.NewBookingService(db, nil, nil, nil, 365, &logger)
	reviews := service.NewReviewService(db, nil, nil, &logger)

	server := NewHTTPServer(cfg, listings, bookings, reviews, &logger)
	ts := httptest.NewServer(server.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func createTestListing(t *testing.T, db *database.DB, hostID int64) *models.Listing {
	t.Helper()
	listing := &models.Listing{
		HostID:               hostID,
		Title:                "Sea cottage",
		City:                 "Porto",
		Country:              "PT",
		MaxGuests:            4,
		BasePriceCents:       10000,
		CleaningFeeCents:     2500,
		SecurityDepositCents: 50000,
		MinimumStay:          1,
		MaximumStay:          14,
		Status:               models.ListingActive,
	}
	require.NoError(t, db.CreateListing(context.Background(), listing))
	return listing
}

func doJSON(t *testing.T, ts *httptest.Server, method, path string, actor int64, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, ts.URL+path, &buf)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if actor != 0 {
		req.Header.Set("X-Actor-ID", fmt.Sprintf("%d", actor))
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func futureDate(days int) string {
	return time.Now().AddDate(0, 0, days).Format("2006-01-02")
}

func TestBookingFlow(t *testing.T) {
	db := newTestDB(t)
	ts := newTestServer(t, db)
	listing := createTestListing(t, db, 100)

	// Guest books a future stay.
	resp := doJSON(t, ts, http.MethodPost, "/api/v1/bookings", 7, map[string]any{
		"listing_id":       listing.ID,
		"check_in":         futureDate(10),
		"check_out":        futureDate(13),
		"number_of_guests": 2,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	booking := decode[models.Booking](t, resp)
	assert.Equal(t, models.StatusPending, booking.Status)
	assert.Equal(t, int64(32500), booking.TotalPriceCents)

	// A pending booking does not block the dates.
	resp = doJSON(t, ts, http.MethodGet,
		fmt.Sprintf("/api/v1/listings/%d/availability?check_in=%s&check_out=%s",
			listing.ID, futureDate(10), futureDate(13)), 0, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	avail := decode[map[string]any](t, resp)
	assert.Equal(t, true, avail["available"])

	// Host confirms.
	resp = doJSON(t, ts, http.MethodPost,
		fmt.Sprintf("/api/v1/bookings/%d/transition", booking.ID), 100,
		map[string]string{"target": models.StatusConfirmed})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	confirmed := decode[models.Booking](t, resp)
	assert.Equal(t, models.StatusConfirmed, confirmed.Status)
	require.NotNil(t, confirmed.ConfirmedAt)

	// Now the dates are taken.
	resp = doJSON(t, ts, http.MethodGet,
		fmt.Sprintf("/api/v1/listings/%d/availability?check_in=%s&check_out=%s",
			listing.ID, futureDate(11), futureDate(14)), 0, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	avail = decode[map[string]any](t, resp)
	assert.Equal(t, false, avail["available"])

	// An overlapping booking attempt is rejected.
	resp = doJSON(t, ts, http.MethodPost, "/api/v1/bookings", 8, map[string]any{
		"listing_id":       listing.ID,
		"check_in":         futureDate(12),
		"check_out":        futureDate(15),
		"number_of_guests": 1,
	})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// Back-to-back is fine: next stay starts on the checkout day.
	resp = doJSON(t, ts, http.MethodPost, "/api/v1/bookings", 8, map[string]any{
		"listing_id":       listing.ID,
		"check_in":         futureDate(13),
		"check_out":        futureDate(15),
		"number_of_guests": 1,
	})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
}

func TestPaymentEndpoint(t *testing.T) {
	db := newTestDB(t)
	ts := newTestServer(t, db)
	listing := createTestListing(t, db, 100)

	resp := doJSON(t, ts, http.MethodPost, "/api/v1/bookings", 7, map[string]any{
		"listing_id":       listing.ID,
		"check_in":         futureDate(10),
		"check_out":        futureDate(13),
		"number_of_guests": 2,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	booking := decode[models.Booking](t, resp)
	assert.Equal(t, models.PaymentPending, booking.PaymentStatus)

	// Only the host may record payments.
	resp = doJSON(t, ts, http.MethodPost,
		fmt.Sprintf("/api/v1/bookings/%d/payment", booking.ID), 7,
		map[string]string{"payment_status": models.PaymentPaid})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// Unknown statuses are rejected.
	resp = doJSON(t, ts, http.MethodPost,
		fmt.Sprintf("/api/v1/bookings/%d/payment", booking.ID), 100,
		map[string]string{"payment_status": "comped"})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = doJSON(t, ts, http.MethodPost,
		fmt.Sprintf("/api/v1/bookings/%d/payment", booking.ID), 100,
		map[string]string{"payment_status": models.PaymentPaid})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	paid := decode[models.Booking](t, resp)
	assert.Equal(t, models.PaymentPaid, paid.PaymentStatus)

	resp = doJSON(t, ts, http.MethodGet,
		fmt.Sprintf("/api/v1/bookings/%d", booking.ID), 0, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decode[models.Booking](t, resp)
	assert.Equal(t, models.PaymentPaid, got.PaymentStatus)
}

func TestTransitionRules(t *testing.T) {
	db := newTestDB(t)
	ts := newTestServer(t, db)
	listing := createTestListing(t, db, 100)

	resp := doJSON(t, ts, http.MethodPost, "/api/v1/bookings", 7, map[string]any{
		"listing_id":       listing.ID,
		"check_in":         futureDate(10),
		"check_out":        futureDate(12),
		"number_of_guests": 2,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	booking := decode[models.Booking](t, resp)

	t.Run("StrangerCannotConfirm", func(t *testing.T) {
		resp := doJSON(t, ts, http.MethodPost,
			fmt.Sprintf("/api/v1/bookings/%d/transition", booking.ID), 999,
			map[string]string{"target": models.StatusConfirmed})
		defer resp.Body.Close()
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("IllegalJump", func(t *testing.T) {
		resp := doJSON(t, ts, http.MethodPost,
			fmt.Sprintf("/api/v1/bookings/%d/transition", booking.ID), 100,
			map[string]string{"target": models.StatusCompleted})
		defer resp.Body.Close()
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
	})

	t.Run("RepeatedConfirmConflicts", func(t *testing.T) {
		resp := doJSON(t, ts, http.MethodPost,
			fmt.Sprintf("/api/v1/bookings/%d/transition", booking.ID), 100,
			map[string]string{"target": models.StatusConfirmed})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		resp.Body.Close()

		resp = doJSON(t, ts, http.MethodPost,
			fmt.Sprintf("/api/v1/bookings/%d/transition", booking.ID), 100,
			map[string]string{"target": models.StatusConfirmed})
		defer resp.Body.Close()
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
	})

	t.Run("GuestCancels", func(t *testing.T) {
		resp := doJSON(t, ts, http.MethodPost,
			fmt.Sprintf("/api/v1/bookings/%d/cancel", booking.ID), 7, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		cancelled := decode[models.Booking](t, resp)
		assert.Equal(t, models.StatusCancelled, cancelled.Status)
		require.NotNil(t, cancelled.CancelledAt)
	})

	t.Run("CancelledIsTerminal", func(t *testing.T) {
		resp := doJSON(t, ts, http.MethodPost,
			fmt.Sprintf("/api/v1/bookings/%d/transition", booking.ID), 100,
			map[string]string{"target": models.StatusActive})
		defer resp.Body.Close()
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
	})
}

func TestBookingValidationErrors(t *testing.T) {
	db := newTestDB(t)
	ts := newTestServer(t, db)
	listing := createTestListing(t, db, 100)

	cases := []struct {
		name string
		body map[string]any
		want int
	}{
		{
			name: "CheckOutBeforeCheckIn",
			body: map[string]any{"listing_id": listing.ID, "check_in": futureDate(13), "check_out": futureDate(10), "number_of_guests": 2},
			want: http.StatusBadRequest,
		},
		{
			name: "PastCheckIn",
			body: map[string]any{"listing_id": listing.ID, "check_in": futureDate(-5), "check_out": futureDate(2), "number_of_guests": 2},
			want: http.StatusBadRequest,
		},
		{
			name: "TooManyGuests",
			body: map[string]any{"listing_id": listing.ID, "check_in": futureDate(10), "check_out": futureDate(12), "number_of_guests": 9},
			want: http.StatusBadRequest,
		},
		{
			name: "StayTooLong",
			body: map[string]any{"listing_id": listing.ID, "check_in": futureDate(10), "check_out": futureDate(40), "number_of_guests": 2},
			want: http.StatusBadRequest,
		},
		{
			name: "UnknownListing",
			body: map[string]any{"listing_id": 9999, "check_in": futureDate(10), "check_out": futureDate(12), "number_of_guests": 2},
			want: http.StatusNotFound,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := doJSON(t, ts, http.MethodPost, "/api/v1/bookings", 7, tc.body)
			defer resp.Body.Close()
			assert.Equal(t, tc.want, resp.StatusCode)
		})
	}

	t.Run("MissingActor", func(t *testing.T) {
		resp := doJSON(t, ts, http.MethodPost, "/api/v1/bookings", 0, map[string]any{
			"listing_id": listing.ID, "check_in": futureDate(10), "check_out": futureDate(12), "number_of_guests": 2,
		})
		defer resp.Body.Close()
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})
}

func TestQuoteEndpoint(t *testing.T) {
	db := newTestDB(t)
	ts := newTestServer(t, db)
	listing := createTestListing(t, db, 100)

	resp := doJSON(t, ts, http.MethodGet,
		fmt.Sprintf("/api/v1/listings/%d/quote?check_in=%s&check_out=%s",
			listing.ID, futureDate(10), futureDate(15)), 0, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	quote := decode[models.Quote](t, resp)
	assert.Equal(t, int64(5), quote.Nights)
	assert.Equal(t, int64(52500), quote.TotalPriceCents)
	assert.Equal(t, int64(50000), quote.SecurityDepositCents)
}

func TestListingEndpoints(t *testing.T) {
	db := newTestDB(t)
	ts := newTestServer(t, db)

	t.Run("CreateAndSearch", func(t *testing.T) {
		resp := doJSON(t, ts, http.MethodPost, "/api/v1/listings", 100, map[string]any{
			"title":            "City loft",
			"city":             "Lisbon",
			"country":          "PT",
			"max_guests":       2,
			"base_price_cents": 8000,
			"minimum_stay":     1,
			"maximum_stay":     7,
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		created := decode[models.Listing](t, resp)
		assert.Equal(t, int64(100), created.HostID)

		resp = doJSON(t, ts, http.MethodGet, "/api/v1/listings?city=Lisbon", 0, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		body := decode[struct {
			Listings []models.Listing `json:"listings"`
		}](t, resp)
		require.Len(t, body.Listings, 1)
		assert.Equal(t, "City loft", body.Listings[0].Title)

		resp = doJSON(t, ts, http.MethodGet, "/api/v1/listings?city=Madrid", 0, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		empty := decode[struct {
			Listings []models.Listing `json:"listings"`
		}](t, resp)
		assert.Len(t, empty.Listings, 0)
	})

	t.Run("UpdateByNonHost", func(t *testing.T) {
		listing := createTestListing(t, db, 100)
		resp := doJSON(t, ts, http.MethodPut,
			fmt.Sprintf("/api/v1/listings/%d", listing.ID), 999, map[string]any{
				"title":            "Hijacked",
				"max_guests":       2,
				"base_price_cents": 1,
			})
		defer resp.Body.Close()
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("DeactivateStopsBookings", func(t *testing.T) {
		listing := createTestListing(t, db, 100)
		resp := doJSON(t, ts, http.MethodPost,
			fmt.Sprintf("/api/v1/listings/%d/status", listing.ID), 100,
			map[string]string{"status": models.ListingInactive})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		resp.Body.Close()

		resp = doJSON(t, ts, http.MethodPost, "/api/v1/bookings", 7, map[string]any{
			"listing_id": listing.ID, "check_in": futureDate(10), "check_out": futureDate(12), "number_of_guests": 2,
		})
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestReviewFlow(t *testing.T) {
	db := newTestDB(t)
	ts := newTestServer(t, db)
	listing := createTestListing(t, db, 100)

	// Insert a completed stay directly; the HTTP surface cannot fabricate one.
	booking := &models.Booking{
		ListingID:      listing.ID,
		GuestID:        7,
		CheckIn:        time.Now().AddDate(0, 0, -10),
		CheckOut:       time.Now().AddDate(0, 0, -7),
		NumberOfGuests: 2,
		Status:         models.StatusCompleted,
		PaymentStatus:  models.PaymentPaid,
	}
	require.NoError(t, db.CreateBookingWithLock(context.Background(), booking))

	t.Run("NonGuestRejected", func(t *testing.T) {
		resp := doJSON(t, ts, http.MethodPost, "/api/v1/reviews", 999, map[string]any{
			"booking_id": booking.ID, "rating": 5, "comment": "not mine",
		})
		defer resp.Body.Close()
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	var reviewID int64
	t.Run("GuestReviews", func(t *testing.T) {
		resp := doJSON(t, ts, http.MethodPost, "/api/v1/reviews", 7, map[string]any{
			"booking_id": booking.ID, "rating": 4, "title": "Nice", "comment": "Great spot.",
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		review := decode[models.Review](t, resp)
		assert.Equal(t, listing.ID, review.ListingID)
		assert.Equal(t, int64(7), review.AuthorID)
		assert.True(t, review.IsVerified)
		reviewID = review.ID
	})

	t.Run("SecondReviewConflicts", func(t *testing.T) {
		resp := doJSON(t, ts, http.MethodPost, "/api/v1/reviews", 7, map[string]any{
			"booking_id": booking.ID, "rating": 1, "comment": "changed my mind",
		})
		defer resp.Body.Close()
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
	})

	t.Run("PublicReviewsAndAverage", func(t *testing.T) {
		resp := doJSON(t, ts, http.MethodGet,
			fmt.Sprintf("/api/v1/listings/%d/reviews", listing.ID), 0, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		body := decode[struct {
			Reviews       []models.Review `json:"reviews"`
			AverageRating float64         `json:"average_rating"`
			ReviewCount   int64           `json:"review_count"`
		}](t, resp)
		require.Len(t, body.Reviews, 1)
		assert.Equal(t, 4.0, body.AverageRating)
		assert.Equal(t, int64(1), body.ReviewCount)
	})

	t.Run("HostResponds", func(t *testing.T) {
		resp := doJSON(t, ts, http.MethodPost,
			fmt.Sprintf("/api/v1/reviews/%d/response", reviewID), 100,
			map[string]string{"response": "Thanks for staying!"})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		review := decode[models.Review](t, resp)
		assert.True(t, review.HasHostResponse())
	})

	t.Run("SecondResponseConflicts", func(t *testing.T) {
		resp := doJSON(t, ts, http.MethodPost,
			fmt.Sprintf("/api/v1/reviews/%d/response", reviewID), 100,
			map[string]string{"response": "again"})
		defer resp.Body.Close()
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
	})

	t.Run("ReviewOnPendingRejected", func(t *testing.T) {
		pending := &models.Booking{
			ListingID:      listing.ID,
			GuestID:        7,
			CheckIn:        time.Now().AddDate(0, 0, 20),
			CheckOut:       time.Now().AddDate(0, 0, 22),
			NumberOfGuests: 1,
			Status:         models.StatusPending,
			PaymentStatus:  models.PaymentPending,
		}
		require.NoError(t, db.CreateBookingWithLock(context.Background(), pending))

		resp := doJSON(t, ts, http.MethodPost, "/api/v1/reviews", 7, map[string]any{
			"booking_id": pending.ID, "rating": 5, "comment": "too early",
		})
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestAvailabilityValidation(t *testing.T) {
	db := newTestDB(t)
	ts := newTestServer(t, db)
	listing := createTestListing(t, db, 100)

	t.Run("MissingDates", func(t *testing.T) {
		resp := doJSON(t, ts, http.MethodGet,
			fmt.Sprintf("/api/v1/listings/%d/availability", listing.ID), 0, nil)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("BadDateFormat", func(t *testing.T) {
		resp := doJSON(t, ts, http.MethodGet,
			fmt.Sprintf("/api/v1/listings/%d/availability?check_in=garbage&check_out=%s",
				listing.ID, futureDate(12)), 0, nil)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("UnknownID", func(t *testing.T) {
		resp := doJSON(t, ts, http.MethodGet, "/api/v1/listings/abc/availability", 0, nil)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}
