package service

import (
	"context"
	"errors"
	"strings"

	"homestay/internal/database"
	"homestay/internal/domain"
	"homestay/internal/events"
	"homestay/internal/metrics"
	"homestay/internal/models"

	"github.com/rs/zerolog"
)

// ReviewService gates review creation on completed stays and owns host
// responses.
type ReviewService struct {
	repo     domain.Repository
	eventBus domain.EventPublisher
	clock    domain.Clock
	logger   *zerolog.Logger
}

func NewReviewService(repo domain.Repository, eventBus domain.EventPublisher, clock domain.Clock, logger *zerolog.Logger) *ReviewService {
	if clock == nil {
		clock = domain.RealClock{}
	}
	return &ReviewService{
		repo:     repo,
		eventBus: eventBus,
		clock:    clock,
		logger:   logger,
	}
}

// CreateReviewRequest carries guest input for a new review. Listing and
// author are derived from the booking, never accepted from the caller.
type CreateReviewRequest struct {
	BookingID int64
	AuthorID  int64
	Rating    int64
	Title     string
	Comment   string
}

// CreateReview creates a verified review for a completed stay. The booking
// must be completed, belong to the requester, and have no review yet.
func (s *ReviewService) CreateReview(ctx context.Context, req CreateReviewRequest) (*models.Review, error) {
	if !models.ValidRating(req.Rating) {
		return nil, &ValidationError{Field: "rating", Reason: "must be between 1 and 5"}
	}
	if strings.TrimSpace(req.Comment) == "" {
		return nil, &ValidationError{Field: "comment", Reason: "required"}
	}

	booking, err := s.repo.GetBooking(ctx, req.BookingID)
	if err != nil {
		return nil, err
	}
	if booking.GuestID != req.AuthorID {
		return nil, ErrNotGuest
	}
	if booking.Status != models.StatusCompleted {
		return nil, &ValidationError{Field: "booking", Reason: "only completed stays can be reviewed"}
	}

	if _, err := s.repo.GetReviewByBooking(ctx, req.BookingID); err == nil {
		return nil, database.ErrDuplicateReview
	} else if !errors.Is(err, database.ErrNotFound) {
		return nil, err
	}

	review := &models.Review{
		ListingID:  booking.ListingID,
		BookingID:  booking.ID,
		AuthorID:   booking.GuestID,
		Rating:     req.Rating,
		Title:      strings.TrimSpace(req.Title),
		Comment:    strings.TrimSpace(req.Comment),
		IsVerified: true,
		IsPublic:   true,
	}

	// The one-review-per-booking unique index remains the backstop for the
	// race between two concurrent submissions.
	if err := s.repo.CreateReview(ctx, review); err != nil {
		return nil, err
	}

	metrics.IncReviewCreated()
	s.publishReviewEvent(events.EventReviewCreated, review)

	return review, nil
}

// AttachHostResponse adds the host's one-time reply to a review.
func (s *ReviewService) AttachHostResponse(ctx context.Context, reviewID, hostID int64, text string) (*models.Review, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, &ValidationError{Field: "response", Reason: "required"}
	}

	review, err := s.repo.GetReview(ctx, reviewID)
	if err != nil {
		return nil, err
	}

	listing, err := s.repo.GetListing(ctx, review.ListingID)
	if err != nil {
		return nil, err
	}
	if listing.HostID != hostID {
		return nil, ErrNotHost
	}

	if err := s.repo.SetHostResponse(ctx, reviewID, text, s.clock.Now()); err != nil {
		return nil, err
	}

	updated, err := s.repo.GetReview(ctx, reviewID)
	if err != nil {
		return nil, err
	}

	s.publishReviewEvent(events.EventHostResponded, updated)

	return updated, nil
}

func (s *ReviewService) GetReview(ctx context.Context, id int64) (*models.Review, error) {
	return s.repo.GetReview(ctx, id)
}

func (s *ReviewService) GetPublicReviews(ctx context.Context, listingID int64) ([]*models.Review, error) {
	return s.repo.GetPublicReviews(ctx, listingID)
}

func (s *ReviewService) GetRatingSummary(ctx context.Context, listingID int64) (*models.RatingSummary, error) {
	return s.repo.GetRatingSummary(ctx, listingID)
}

func (s *ReviewService) publishReviewEvent(eventType string, review *models.Review) {
	if s.eventBus == nil {
		return
	}

	payload := events.ReviewEventPayload{
		ReviewID:  review.ID,
		BookingID: review.BookingID,
		ListingID: review.ListingID,
		AuthorID:  review.AuthorID,
		Rating:    review.Rating,
	}

	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Int64("review_id", review.ID).Msg("publish event error")
	}
}
