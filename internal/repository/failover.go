package repository

import (
	"context"
	"sync/atomic"
	"time"

	"homestay/internal/domain"
	"homestay/internal/models"

	"github.com/rs/zerolog"
)

// FailoverListingCache serves from Redis and degrades to the in-memory cache
// when Redis errors, retrying the primary after a minute.
type FailoverListingCache struct {
	primary   domain.ListingCache
	fallback  domain.ListingCache
	logger    *zerolog.Logger
	isDown    atomic.Bool
	lastCheck time.Time
}

func NewFailoverListingCache(primary, fallback domain.ListingCache, logger *zerolog.Logger) *FailoverListingCache {
	return &FailoverListingCache{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

func (r *FailoverListingCache) markDown(err error) {
	r.logger.Error().Err(err).Msg("Primary listing cache failed, falling back to memory")
	r.isDown.Store(true)
	r.lastCheck = time.Now()
}

func (r *FailoverListingCache) GetListing(ctx context.Context, id int64) (*models.Listing, error) {
	if !r.isDown.Load() {
		listing, err := r.primary.GetListing(ctx, id)
		if err == nil {
			return listing, nil
		}
		r.markDown(err)
	}

	// Try to recover after 1 minute
	if r.isDown.Load() && time.Since(r.lastCheck) > time.Minute {
		listing, err := r.primary.GetListing(ctx, id)
		if err == nil {
			r.isDown.Store(false)
			return listing, nil
		}
		r.lastCheck = time.Now()
	}

	return r.fallback.GetListing(ctx, id)
}

func (r *FailoverListingCache) SetListing(ctx context.Context, listing *models.Listing) error {
	if !r.isDown.Load() {
		err := r.primary.SetListing(ctx, listing)
		if err == nil {
			return nil
		}
		r.markDown(err)
	}

	return r.fallback.SetListing(ctx, listing)
}

func (r *FailoverListingCache) InvalidateListing(ctx context.Context, id int64) error {
	if !r.isDown.Load() {
		err := r.primary.InvalidateListing(ctx, id)
		if err == nil {
			return nil
		}
		r.markDown(err)
	}

	return r.fallback.InvalidateListing(ctx, id)
}

func (r *FailoverListingCache) CheckRateLimit(ctx context.Context, guestID int64, limit int, window time.Duration) (bool, error) {
	if !r.isDown.Load() {
		allowed, err := r.primary.CheckRateLimit(ctx, guestID, limit, window)
		if err == nil {
			return allowed, nil
		}
		r.markDown(err)
	}

	return r.fallback.CheckRateLimit(ctx, guestID, limit, window)
}
