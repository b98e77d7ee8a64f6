package repository

import (
	"context"
	"sync"
	"time"

	"homestay/internal/models"
)

// MemoryListingCache is the in-process fallback used when Redis is down.
// Entries expire lazily on read.
type MemoryListingCache struct {
	listings   sync.Map
	rateLimits sync.Map
	ttl        time.Duration
}

func NewMemoryListingCache(ttl time.Duration) *MemoryListingCache {
	return &MemoryListingCache{
		ttl: ttl,
	}
}

type listingEntry struct {
	listing   *models.Listing
	expiresAt time.Time
}

func (r *MemoryListingCache) GetListing(ctx context.Context, id int64) (*models.Listing, error) {
	val, ok := r.listings.Load(id)
	if !ok {
		return nil, nil
	}
	entry := val.(*listingEntry)
	if time.Now().After(entry.expiresAt) {
		r.listings.Delete(id)
		return nil, nil
	}
	return entry.listing, nil
}

func (r *MemoryListingCache) SetListing(ctx context.Context, listing *models.Listing) error {
	r.listings.Store(listing.ID, &listingEntry{
		listing:   listing,
		expiresAt: time.Now().Add(r.ttl),
	})
	return nil
}

func (r *MemoryListingCache) InvalidateListing(ctx context.Context, id int64) error {
	r.listings.Delete(id)
	return nil
}

type rateLimitEntry struct {
	count     int
	expiresAt time.Time
}

func (r *MemoryListingCache) CheckRateLimit(ctx context.Context, guestID int64, limit int, window time.Duration) (bool, error) {
	now := time.Now()
	val, ok := r.rateLimits.Load(guestID)

	var entry *rateLimitEntry
	if !ok {
		entry = &rateLimitEntry{
			count:     1,
			expiresAt: now.Add(window),
		}
	} else {
		entry = val.(*rateLimitEntry)
		if now.After(entry.expiresAt) {
			entry.count = 1
			entry.expiresAt = now.Add(window)
		} else {
			entry.count++
		}
	}

	r.rateLimits.Store(guestID, entry)
	return entry.count <= limit, nil
}
