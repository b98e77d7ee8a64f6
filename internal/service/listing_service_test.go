package service

import (
	"context"
	"testing"
	"time"

	"homestay/internal/database"
	"homestay/internal/domain"
	"homestay/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestListingService(repo *mockRepo, cache *mockCache) *ListingService {
	logger := zerolog.Nop()
	var c domain.ListingCache
	if cache != nil {
		c = cache
	}
	return NewListingService(repo, c, 20, time.Minute, &logger)
}

func TestCreateListing(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		repo := new(mockRepo)
		svc := newTestListingService(repo, nil)

		repo.On("CreateListing", ctx, mock.Anything).Return(nil).Once()

		listing, err := svc.CreateListing(ctx, 100, &models.Listing{
			Title:          "Downtown loft",
			MaxGuests:      2,
			BasePriceCents: 8000,
			MinimumStay:    1,
			MaximumStay:    7,
		})
		require.NoError(t, err)
		assert.Equal(t, int64(100), listing.HostID)
		assert.Equal(t, models.ListingActive, listing.Status)
		assert.Equal(t, "15:00", listing.CheckInTime)
		assert.Equal(t, "11:00", listing.CheckOutTime)
		repo.AssertExpectations(t)
	})

	t.Run("EmptyTitle", func(t *testing.T) {
		repo := new(mockRepo)
		svc := newTestListingService(repo, nil)

		_, err := svc.CreateListing(ctx, 100, &models.Listing{Title: "  ", MaxGuests: 2})
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "title", verr.Field)
	})

	t.Run("NegativePrice", func(t *testing.T) {
		repo := new(mockRepo)
		svc := newTestListingService(repo, nil)

		_, err := svc.CreateListing(ctx, 100, &models.Listing{
			Title: "Cheap", MaxGuests: 2, BasePriceCents: -1,
		})
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
	})

	t.Run("MinStayAboveMaxStay", func(t *testing.T) {
		repo := new(mockRepo)
		svc := newTestListingService(repo, nil)

		_, err := svc.CreateListing(ctx, 100, &models.Listing{
			Title: "Backwards", MaxGuests: 2, MinimumStay: 10, MaximumStay: 3,
		})
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "stay_bounds", verr.Field)
	})
}

func TestUpdateListing(t *testing.T) {
	ctx := context.Background()

	t.Run("OnlyHostMayUpdate", func(t *testing.T) {
		repo := new(mockRepo)
		svc := newTestListingService(repo, nil)

		repo.On("GetListing", ctx, int64(1)).Return(testListing(), nil).Once()

		_, err := svc.UpdateListing(ctx, 999, &models.Listing{ID: 1, Title: "Hijacked", MaxGuests: 2})
		assert.ErrorIs(t, err, ErrNotHost)
		repo.AssertNotCalled(t, "UpdateListing")
	})

	t.Run("InvalidatesCache", func(t *testing.T) {
		repo := new(mockRepo)
		cache := new(mockCache)
		svc := newTestListingService(repo, cache)

		repo.On("GetListing", ctx, int64(1)).Return(testListing(), nil).Once()
		repo.On("UpdateListing", ctx, mock.Anything).Return(nil).Once()
		cache.On("InvalidateListing", ctx, int64(1)).Return(nil).Once()

		_, err := svc.UpdateListing(ctx, 100, &models.Listing{
			ID: 1, Title: "Sea cottage v2", MaxGuests: 4, MinimumStay: 2, MaximumStay: 14,
		})
		require.NoError(t, err)
		cache.AssertExpectations(t)
	})
}

func TestSetListingStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("Deactivate", func(t *testing.T) {
		repo := new(mockRepo)
		cache := new(mockCache)
		svc := newTestListingService(repo, cache)

		repo.On("GetListing", ctx, int64(1)).Return(testListing(), nil).Once()
		repo.On("SetListingStatus", ctx, int64(1), models.ListingInactive).Return(nil).Once()
		cache.On("InvalidateListing", ctx, int64(1)).Return(nil).Once()

		err := svc.SetListingStatus(ctx, 100, 1, models.ListingInactive)
		require.NoError(t, err)
		repo.AssertExpectations(t)
	})

	t.Run("UnknownStatus", func(t *testing.T) {
		repo := new(mockRepo)
		svc := newTestListingService(repo, nil)

		err := svc.SetListingStatus(ctx, 100, 1, "paused")
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
	})
}

func TestGetListingCache(t *testing.T) {
	ctx := context.Background()

	t.Run("CacheHitSkipsRepo", func(t *testing.T) {
		repo := new(mockRepo)
		cache := new(mockCache)
		svc := newTestListingService(repo, cache)

		cache.On("GetListing", ctx, int64(1)).Return(testListing(), nil).Once()

		listing, err := svc.GetListing(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, int64(1), listing.ID)
		repo.AssertNotCalled(t, "GetListing")
	})

	t.Run("CacheMissFillsCache", func(t *testing.T) {
		repo := new(mockRepo)
		cache := new(mockCache)
		svc := newTestListingService(repo, cache)

		cache.On("GetListing", ctx, int64(1)).Return(nil, database.ErrNotFound).Once()
		repo.On("GetListing", ctx, int64(1)).Return(testListing(), nil).Once()
		cache.On("SetListing", ctx, mock.Anything).Return(nil).Once()

		_, err := svc.GetListing(ctx, 1)
		require.NoError(t, err)
		cache.AssertExpectations(t)
		repo.AssertExpectations(t)
	})
}

func TestSearchListings(t *testing.T) {
	ctx := context.Background()

	t.Run("PassesFilters", func(t *testing.T) {
		repo := new(mockRepo)
		svc := newTestListingService(repo, nil)

		search := models.ListingSearch{City: "Lisbon", Guests: 2}
		repo.On("SearchListings", ctx, search).Return([]*models.Listing{testListing()}, nil).Once()

		results, err := svc.SearchListings(ctx, 0, search)
		require.NoError(t, err)
		assert.Len(t, results, 1)
	})

	t.Run("RateLimited", func(t *testing.T) {
		repo := new(mockRepo)
		cache := new(mockCache)
		svc := newTestListingService(repo, cache)

		cache.On("CheckRateLimit", ctx, int64(7), 20, time.Minute).Return(false, nil).Once()

		_, err := svc.SearchListings(ctx, 7, models.ListingSearch{City: "Lisbon"})
		assert.ErrorIs(t, err, ErrRateLimited)
		repo.AssertNotCalled(t, "SearchListings")
	})

	t.Run("BadDateWindow", func(t *testing.T) {
		repo := new(mockRepo)
		svc := newTestListingService(repo, nil)

		_, err := svc.SearchListings(ctx, 0, models.ListingSearch{
			CheckIn:  time.Date(2025, 6, 13, 0, 0, 0, 0, time.UTC),
			CheckOut: time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC),
		})
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
	})

	t.Run("MinPriceAboveMax", func(t *testing.T) {
		repo := new(mockRepo)
		svc := newTestListingService(repo, nil)

		_, err := svc.SearchListings(ctx, 0, models.ListingSearch{
			MinPriceCents: 10000, MaxPriceCents: 100,
		})
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
	})
}
