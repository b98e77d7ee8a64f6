package service

import (
	"context"
	"strings"
	"time"

	"homestay/internal/domain"
	"homestay/internal/models"

	"github.com/rs/zerolog"
)

// ListingService owns the listing registry: host CRUD, search, and the hot
// cache in front of sqlite reads.
type ListingService struct {
	repo      domain.Repository
	cache     domain.ListingCache
	rateLimit int
	rateWin   time.Duration
	logger    *zerolog.Logger
}

func NewListingService(repo domain.Repository, cache domain.ListingCache, rateLimit int, rateWindow time.Duration, logger *zerolog.Logger) *ListingService {
	if rateLimit <= 0 {
		rateLimit = models.RateLimitRequests
	}
	if rateWindow <= 0 {
		rateWindow = models.RateLimitWindow * time.Second
	}
	return &ListingService{
		repo:      repo,
		cache:     cache,
		rateLimit: rateLimit,
		rateWin:   rateWindow,
		logger:    logger,
	}
}

// CreateListing validates field invariants and persists a new listing owned
// by hostID. Missing stay bounds and check-in/out times get defaults.
func (s *ListingService) CreateListing(ctx context.Context, hostID int64, listing *models.Listing) (*models.Listing, error) {
	listing.HostID = hostID
	applyListingDefaults(listing)
	if err := validateListing(listing); err != nil {
		return nil, err
	}
	if listing.Status == "" {
		listing.Status = models.ListingActive
	}

	if err := s.repo.CreateListing(ctx, listing); err != nil {
		return nil, err
	}
	return listing, nil
}

// UpdateListing applies host edits. Only the owning host may update.
func (s *ListingService) UpdateListing(ctx context.Context, hostID int64, listing *models.Listing) (*models.Listing, error) {
	existing, err := s.repo.GetListing(ctx, listing.ID)
	if err != nil {
		return nil, err
	}
	if existing.HostID != hostID {
		return nil, ErrNotHost
	}

	listing.HostID = existing.HostID
	applyListingDefaults(listing)
	if err := validateListing(listing); err != nil {
		return nil, err
	}
	if listing.Status == "" {
		listing.Status = existing.Status
	}

	if err := s.repo.UpdateListing(ctx, listing); err != nil {
		return nil, err
	}
	s.invalidate(ctx, listing.ID)
	return listing, nil
}

// SetListingStatus activates or deactivates a listing. Deactivation stops new
// bookings; existing bookings on the listing are untouched.
func (s *ListingService) SetListingStatus(ctx context.Context, hostID, listingID int64, status string) error {
	if status != models.ListingActive && status != models.ListingInactive {
		return &ValidationError{Field: "status", Reason: "must be active or inactive"}
	}

	existing, err := s.repo.GetListing(ctx, listingID)
	if err != nil {
		return err
	}
	if existing.HostID != hostID {
		return ErrNotHost
	}

	if err := s.repo.SetListingStatus(ctx, listingID, status); err != nil {
		return err
	}
	s.invalidate(ctx, listingID)
	return nil
}

// GetListing reads through the cache when one is wired.
func (s *ListingService) GetListing(ctx context.Context, id int64) (*models.Listing, error) {
	if s.cache != nil {
		if cached, err := s.cache.GetListing(ctx, id); err == nil && cached != nil {
			return cached, nil
		}
	}

	listing, err := s.repo.GetListing(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetListing(ctx, listing); err != nil {
			s.logger.Warn().Err(err).Int64("listing_id", id).Msg("listing cache set error")
		}
	}
	return listing, nil
}

func (s *ListingService) GetHostListings(ctx context.Context, hostID int64) ([]*models.Listing, error) {
	return s.repo.GetHostListings(ctx, hostID)
}

// SearchListings runs the public search. Search traffic is rate limited per
// caller when a cache backend is available.
func (s *ListingService) SearchListings(ctx context.Context, callerID int64, search models.ListingSearch) ([]*models.Listing, error) {
	if s.cache != nil && callerID != 0 {
		allowed, err := s.cache.CheckRateLimit(ctx, callerID, s.rateLimit, s.rateWin)
		if err != nil {
			s.logger.Warn().Err(err).Int64("caller_id", callerID).Msg("rate limit check error")
		} else if !allowed {
			return nil, ErrRateLimited
		}
	}

	if !search.CheckIn.IsZero() || !search.CheckOut.IsZero() {
		if err := validateDateOrder(search.CheckIn, search.CheckOut); err != nil {
			return nil, err
		}
	}
	if search.MinPriceCents < 0 || search.MaxPriceCents < 0 {
		return nil, &ValidationError{Field: "price", Reason: "price bounds must be non-negative"}
	}
	if search.MaxPriceCents > 0 && search.MinPriceCents > search.MaxPriceCents {
		return nil, &ValidationError{Field: "price", Reason: "min price exceeds max price"}
	}

	return s.repo.SearchListings(ctx, search)
}

func (s *ListingService) GetRatingSummary(ctx context.Context, listingID int64) (*models.RatingSummary, error) {
	return s.repo.GetRatingSummary(ctx, listingID)
}

func (s *ListingService) invalidate(ctx context.Context, id int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateListing(ctx, id); err != nil {
		s.logger.Warn().Err(err).Int64("listing_id", id).Msg("listing cache invalidate error")
	}
}

func applyListingDefaults(l *models.Listing) {
	if l.MinimumStay == 0 {
		l.MinimumStay = 1
	}
	if l.MaximumStay == 0 {
		l.MaximumStay = models.DefaultMaximumStay
	}
	if l.CheckInTime == "" {
		l.CheckInTime = "15:00"
	}
	if l.CheckOutTime == "" {
		l.CheckOutTime = "11:00"
	}
	if l.MaxGuests == 0 {
		l.MaxGuests = 1
	}
}

func validateListing(l *models.Listing) error {
	if strings.TrimSpace(l.Title) == "" {
		return &ValidationError{Field: "title", Reason: "required"}
	}
	if l.MaxGuests < 1 {
		return &ValidationError{Field: "max_guests", Reason: "must be at least 1"}
	}
	if l.BasePriceCents < 0 || l.CleaningFeeCents < 0 || l.SecurityDepositCents < 0 {
		return &ValidationError{Field: "price", Reason: "prices must be non-negative"}
	}
	if l.MinimumStay < 1 {
		return &ValidationError{Field: "minimum_stay", Reason: "must be at least 1"}
	}
	if l.MinimumStay > l.MaximumStay {
		return &ValidationError{Field: "stay_bounds", Reason: "minimum_stay exceeds maximum_stay"}
	}
	return nil
}
