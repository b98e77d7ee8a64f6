package service

import (
	"context"
	"errors"
	"time"

	"homestay/internal/database"
	"homestay/internal/domain"
	"homestay/internal/events"
	"homestay/internal/metrics"
	"homestay/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// BookingService owns the booking lifecycle: availability checks, creation,
// and the status state machine.
type BookingService struct {
	repo           domain.Repository
	eventBus       domain.EventPublisher
	syncWorker     domain.SyncWorker
	clock          domain.Clock
	maxAdvanceDays int
	logger         *zerolog.Logger
}

func NewBookingService(repo domain.Repository, eventBus domain.EventPublisher, syncWorker domain.SyncWorker, clock domain.Clock, maxAdvanceDays int, logger *zerolog.Logger) *BookingService {
	if maxAdvanceDays <= 0 {
		maxAdvanceDays = models.DefaultMaxAdvanceDays
	}
	if clock == nil {
		clock = domain.RealClock{}
	}
	return &BookingService{
		repo:           repo,
		eventBus:       eventBus,
		syncWorker:     syncWorker,
		clock:          clock,
		maxAdvanceDays: maxAdvanceDays,
		logger:         logger,
	}
}

// CreateBookingRequest carries caller input for a new booking.
type CreateBookingRequest struct {
	ListingID       int64
	GuestID         int64
	CheckIn         time.Time
	CheckOut        time.Time
	NumberOfGuests  int64
	SpecialRequests string
}

// CheckAvailability reports whether [checkIn, checkOut) is bookable on the
// listing. Pure read.
func (s *BookingService) CheckAvailability(ctx context.Context, listingID int64, checkIn, checkOut time.Time) (bool, error) {
	if err := validateDateOrder(checkIn, checkOut); err != nil {
		return false, err
	}
	return s.repo.CheckAvailability(ctx, listingID, checkIn, checkOut)
}

// Quote prices a candidate stay without creating anything.
func (s *BookingService) Quote(ctx context.Context, listingID int64, checkIn, checkOut time.Time) (*models.Quote, error) {
	if err := validateDateOrder(checkIn, checkOut); err != nil {
		return nil, err
	}
	listing, err := s.repo.GetListing(ctx, listingID)
	if err != nil {
		return nil, err
	}
	quote := PriceStay(listing, checkIn, checkOut)
	return &quote, nil
}

// CreateBooking validates, checks availability, and persists a new pending
// booking. Validation order: date ordering, guest-count ceiling, stay-length
// bounds, then availability. On failure the first violated rule is returned
// and nothing is persisted.
func (s *BookingService) CreateBooking(ctx context.Context, req CreateBookingRequest) (*models.Booking, error) {
	if err := validateDateOrder(req.CheckIn, req.CheckOut); err != nil {
		return nil, err
	}
	if err := s.validateBookingWindow(req.CheckIn); err != nil {
		return nil, err
	}

	listing, err := s.repo.GetListing(ctx, req.ListingID)
	if err != nil {
		return nil, err
	}
	if !listing.IsBookable() {
		return nil, &ValidationError{Field: "listing", Reason: "listing is not active"}
	}

	if req.NumberOfGuests < 1 {
		return nil, &ValidationError{Field: "number_of_guests", Reason: "must be at least 1"}
	}
	if req.NumberOfGuests > listing.MaxGuests {
		return nil, &ValidationError{Field: "number_of_guests", Reason: "exceeds listing capacity"}
	}

	nights := nightsBetween(req.CheckIn, req.CheckOut)
	if nights < listing.MinimumStay || nights > listing.MaximumStay {
		return nil, &StayLengthError{Nights: nights, Min: listing.MinimumStay, Max: listing.MaximumStay}
	}

	quote := PriceStay(listing, req.CheckIn, req.CheckOut)

	booking := &models.Booking{
		ListingID:            req.ListingID,
		GuestID:              req.GuestID,
		CheckIn:              req.CheckIn,
		CheckOut:             req.CheckOut,
		NumberOfGuests:       req.NumberOfGuests,
		SpecialRequests:      req.SpecialRequests,
		TotalPriceCents:      quote.TotalPriceCents,
		SecurityDepositCents: listing.SecurityDepositCents,
		Status:               models.StatusPending,
		PaymentStatus:        models.PaymentPending,
		PaymentRef:           uuid.NewString(),
	}

	// Availability is re-checked inside the insert transaction; a race that
	// slips past still fails there and surfaces as ErrNotAvailable.
	if err := s.repo.CreateBookingWithLock(ctx, booking); err != nil {
		if errors.Is(err, database.ErrNotAvailable) {
			metrics.IncBookingConflict()
		}
		return nil, err
	}

	metrics.IncBookingCreated()
	s.publishBookingEvent(events.EventBookingCreated, booking, req.GuestID)
	s.enqueueSync(ctx, "upsert", booking)

	return booking, nil
}

// TransitionBooking moves a booking to targetStatus if the state machine
// allows it. Confirm/activate/complete are host actions; cancellation goes
// through CancelBooking. Re-requesting an applied transition is reported as a
// TransitionError and leaves the booking unchanged.
func (s *BookingService) TransitionBooking(ctx context.Context, bookingID int64, targetStatus string, requesterID int64) (*models.Booking, error) {
	booking, err := s.repo.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if targetStatus == models.StatusCancelled {
		return s.cancelLoaded(ctx, booking, requesterID)
	}

	listing, err := s.repo.GetListing(ctx, booking.ListingID)
	if err != nil {
		return nil, err
	}
	if listing.HostID != requesterID {
		return nil, ErrNotHost
	}

	if !models.CanTransition(booking.Status, targetStatus) {
		return nil, &TransitionError{From: booking.Status, To: targetStatus}
	}

	if err := s.repo.ApplyTransitionWithVersion(ctx, booking.ID, booking.Version, targetStatus, s.clock.Now()); err != nil {
		if errors.Is(err, database.ErrNotAvailable) {
			metrics.IncBookingConflict()
		}
		return nil, err
	}
	metrics.IncTransition(targetStatus)

	updated, err := s.repo.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	s.publishBookingEvent(transitionEventType(targetStatus), updated, requesterID)
	s.enqueueSync(ctx, "update_status", updated)

	return updated, nil
}

// CancelBooking cancels a pending or confirmed booking that is not live.
func (s *BookingService) CancelBooking(ctx context.Context, bookingID int64, requesterID int64) (*models.Booking, error) {
	booking, err := s.repo.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	return s.cancelLoaded(ctx, booking, requesterID)
}

func (s *BookingService) cancelLoaded(ctx context.Context, booking *models.Booking, requesterID int64) (*models.Booking, error) {
	listing, err := s.repo.GetListing(ctx, booking.ListingID)
	if err != nil {
		return nil, err
	}
	if requesterID != booking.GuestID && requesterID != listing.HostID {
		return nil, ErrNotGuest
	}

	if !models.CanTransition(booking.Status, models.StatusCancelled) {
		return nil, &TransitionError{From: booking.Status, To: models.StatusCancelled}
	}
	if booking.IsLive(s.clock.Now()) {
		return nil, ErrBookingLive
	}

	if err := s.repo.ApplyTransitionWithVersion(ctx, booking.ID, booking.Version, models.StatusCancelled, s.clock.Now()); err != nil {
		return nil, err
	}
	metrics.IncTransition(models.StatusCancelled)

	updated, err := s.repo.GetBooking(ctx, booking.ID)
	if err != nil {
		return nil, err
	}

	s.publishBookingEvent(events.EventBookingCancelled, updated, requesterID)
	s.enqueueSync(ctx, "update_status", updated)

	return updated, nil
}

// RecordPayment updates the recorded payment status of a booking. Only the
// listing's host may record payments; no gateway is involved.
func (s *BookingService) RecordPayment(ctx context.Context, bookingID, requesterID int64, paymentStatus string) (*models.Booking, error) {
	if !models.ValidPaymentStatus(paymentStatus) {
		return nil, &ValidationError{Field: "payment_status", Reason: "must be pending, paid or refunded"}
	}

	booking, err := s.repo.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	listing, err := s.repo.GetListing(ctx, booking.ListingID)
	if err != nil {
		return nil, err
	}
	if listing.HostID != requesterID {
		return nil, ErrNotHost
	}

	if err := s.repo.UpdateBookingPayment(ctx, bookingID, paymentStatus, booking.PaymentRef); err != nil {
		return nil, err
	}

	updated, err := s.repo.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Int64("booking_id", bookingID).
		Str("payment_status", paymentStatus).
		Msg("payment status recorded")
	s.enqueueSync(ctx, "update_status", updated)

	return updated, nil
}

func (s *BookingService) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	return s.repo.GetBooking(ctx, id)
}

func (s *BookingService) GetGuestBookings(ctx context.Context, guestID int64) ([]*models.Booking, error) {
	return s.repo.GetGuestBookings(ctx, guestID)
}

func (s *BookingService) GetAvailabilityForPeriod(ctx context.Context, listingID int64, startDate time.Time, days int) ([]*models.DayAvailability, error) {
	return s.repo.GetAvailabilityForPeriod(ctx, listingID, startDate, days)
}

func validateDateOrder(checkIn, checkOut time.Time) error {
	if checkIn.IsZero() || checkOut.IsZero() {
		return &ValidationError{Field: "dates", Reason: "check_in and check_out are required"}
	}
	if !checkOut.After(checkIn) {
		return &ValidationError{Field: "dates", Reason: "check_out must be after check_in"}
	}
	return nil
}

func (s *BookingService) validateBookingWindow(checkIn time.Time) error {
	today := s.clock.Now().Truncate(24 * time.Hour)
	if checkIn.Before(today) {
		return &ValidationError{Field: "check_in", Reason: "check_in is in the past"}
	}
	if checkIn.After(today.AddDate(0, 0, s.maxAdvanceDays)) {
		return &ValidationError{Field: "check_in", Reason: "check_in is too far in the future"}
	}
	return nil
}

func transitionEventType(status string) string {
	switch status {
	case models.StatusConfirmed:
		return events.EventBookingConfirmed
	case models.StatusActive:
		return events.EventBookingActivated
	case models.StatusCompleted:
		return events.EventBookingCompleted
	case models.StatusCancelled:
		return events.EventBookingCancelled
	default:
		return "booking_" + status
	}
}

func (s *BookingService) publishBookingEvent(eventType string, booking *models.Booking, changedBy int64) {
	if s.eventBus == nil {
		return
	}

	payload := events.BookingEventPayload{
		BookingID:       booking.ID,
		ListingID:       booking.ListingID,
		GuestID:         booking.GuestID,
		Status:          booking.Status,
		CheckIn:         booking.CheckIn,
		CheckOut:        booking.CheckOut,
		TotalPriceCents: booking.TotalPriceCents,
		ChangedBy:       changedBy,
	}

	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Int64("booking_id", booking.ID).Msg("publish event error")
	}
}

func (s *BookingService) enqueueSync(ctx context.Context, taskType string, booking *models.Booking) {
	if s.syncWorker == nil {
		return
	}

	if err := s.syncWorker.EnqueueBooking(ctx, taskType, booking); err != nil {
		s.logger.Error().Err(err).Int64("booking_id", booking.ID).Str("task", taskType).Msg("sync enqueue error")
	}
}
