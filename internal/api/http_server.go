package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"homestay/internal/config"
	"homestay/internal/database"
	"homestay/internal/metrics"
	"homestay/internal/models"
	"homestay/internal/service"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const dateLayout = "2006-01-02"

// HTTPServer exposes the marketplace API.
type HTTPServer struct {
	cfg      config.APIConfig
	listings *service.ListingService
	bookings *service.BookingService
	reviews  *service.ReviewService
	server   *http.Server
	auth     *HTTPAuth
	logger   *zerolog.Logger
}

func NewHTTPServer(cfg config.APIConfig, listings *service.ListingService, bookings *service.BookingService, reviews *service.ReviewService, logger *zerolog.Logger) *HTTPServer {
	mux := http.NewServeMux()
	srv := &HTTPServer{
		cfg:      cfg,
		listings: listings,
		bookings: bookings,
		reviews:  reviews,
		logger:   logger,
	}
	srv.auth = NewHTTPAuth(cfg)

	mux.HandleFunc("/api/v1/listings", srv.handleListings)
	mux.HandleFunc("/api/v1/listings/", srv.handleListingSubpath)
	mux.HandleFunc("/api/v1/bookings", srv.handleBookings)
	mux.HandleFunc("/api/v1/bookings/", srv.handleBookingSubpath)
	mux.HandleFunc("/api/v1/reviews", srv.handleReviews)
	mux.HandleFunc("/api/v1/reviews/", srv.handleReviewSubpath)

	handler := srv.loggingMiddleware(srv.auth.Wrap(mux))

	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
	}

	return srv
}

func (s *HTTPServer) Start() error {
	if s.server == nil {
		return fmt.Errorf("http server is not initialized")
	}
	s.logger.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Handler returns the configured handler chain, for tests.
func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

// ---- listings ----

func (s *HTTPServer) handleListings(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.searchListings(w, r)
	case http.MethodPost:
		s.createListing(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *HTTPServer) searchListings(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	search := models.ListingSearch{
		City:         strings.TrimSpace(q.Get("city")),
		Country:      strings.TrimSpace(q.Get("country")),
		PropertyType: strings.TrimSpace(q.Get("property_type")),
	}
	if raw := q.Get("guests"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid guests")
			return
		}
		search.Guests = n
	}
	if raw := q.Get("min_price_cents"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid min_price_cents")
			return
		}
		search.MinPriceCents = n
	}
	if raw := q.Get("max_price_cents"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid max_price_cents")
			return
		}
		search.MaxPriceCents = n
	}
	if raw := q.Get("check_in"); raw != "" {
		d, err := time.Parse(dateLayout, raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid check_in; expected YYYY-MM-DD")
			return
		}
		search.CheckIn = d
	}
	if raw := q.Get("check_out"); raw != "" {
		d, err := time.Parse(dateLayout, raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid check_out; expected YYYY-MM-DD")
			return
		}
		search.CheckOut = d
	}

	actor, _ := actorID(r, s.cfg) // search is open to anonymous callers
	results, err := s.listings.SearchListings(r.Context(), actor, search)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	metrics.IncHTTP("search_listings")
	writeJSON(w, http.StatusOK, map[string]any{"listings": results})
}

func (s *HTTPServer) createListing(w http.ResponseWriter, r *http.Request) {
	actor, err := actorID(r, s.cfg)
	if err != nil {
		writeError(w, http.StatusForbidden, err.Error())
		return
	}

	var listing models.Listing
	if err := decodeBody(r, &listing); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	created, err := s.listings.CreateListing(r.Context(), actor, &listing)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	metrics.IncHTTP("create_listing")
	writeJSON(w, http.StatusCreated, created)
}

func (s *HTTPServer) handleListingSubpath(w http.ResponseWriter, r *http.Request) {
	id, action, ok := splitSubpath(r.URL.Path, "/api/v1/listings/")
	if !ok {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	switch {
	case action == "" && r.Method == http.MethodGet:
		s.getListing(w, r, id)
	case action == "" && r.Method == http.MethodPut:
		s.updateListing(w, r, id)
	case action == "status" && r.Method == http.MethodPost:
		s.setListingStatus(w, r, id)
	case action == "availability" && r.Method == http.MethodGet:
		s.getAvailability(w, r, id)
	case action == "quote" && r.Method == http.MethodGet:
		s.getQuote(w, r, id)
	case action == "reviews" && r.Method == http.MethodGet:
		s.getListingReviews(w, r, id)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *HTTPServer) getListing(w http.ResponseWriter, r *http.Request, id int64) {
	listing, err := s.listings.GetListing(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	metrics.IncHTTP("get_listing")
	writeJSON(w, http.StatusOK, listing)
}

func (s *HTTPServer) updateListing(w http.ResponseWriter, r *http.Request, id int64) {
	actor, err := actorID(r, s.cfg)
	if err != nil {
		writeError(w, http.StatusForbidden, err.Error())
		return
	}

	var listing models.Listing
	if err := decodeBody(r, &listing); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	listing.ID = id

	updated, err := s.listings.UpdateListing(r.Context(), actor, &listing)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	metrics.IncHTTP("update_listing")
	writeJSON(w, http.StatusOK, updated)
}

func (s *HTTPServer) setListingStatus(w http.ResponseWriter, r *http.Request, id int64) {
	actor, err := actorID(r, s.cfg)
	if err != nil {
		writeError(w, http.StatusForbidden, err.Error())
		return
	}

	var body struct {
		Status string `json:"status"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if err := s.listings.SetListingStatus(r.Context(), actor, id, body.Status); err != nil {
		s.writeServiceError(w, err)
		return
	}

	metrics.IncHTTP("set_listing_status")
	writeJSON(w, http.StatusOK, map[string]string{"status": body.Status})
}

func (s *HTTPServer) getAvailability(w http.ResponseWriter, r *http.Request, id int64) {
	checkIn, checkOut, err := dateWindow(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	available, err := s.bookings.CheckAvailability(r.Context(), id, checkIn, checkOut)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	metrics.IncHTTP("check_availability")
	writeJSON(w, http.StatusOK, map[string]any{
		"listing_id": id,
		"check_in":   checkIn.Format(dateLayout),
		"check_out":  checkOut.Format(dateLayout),
		"available":  available,
	})
}

func (s *HTTPServer) getQuote(w http.ResponseWriter, r *http.Request, id int64) {
	checkIn, checkOut, err := dateWindow(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	quote, err := s.bookings.Quote(r.Context(), id, checkIn, checkOut)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	metrics.IncHTTP("quote")
	writeJSON(w, http.StatusOK, quote)
}

func (s *HTTPServer) getListingReviews(w http.ResponseWriter, r *http.Request, id int64) {
	reviews, err := s.reviews.GetPublicReviews(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	summary, err := s.reviews.GetRatingSummary(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	metrics.IncHTTP("listing_reviews")
	writeJSON(w, http.StatusOK, map[string]any{
		"reviews":        reviews,
		"average_rating": summary.AverageRating,
		"review_count":   summary.ReviewCount,
	})
}

// ---- bookings ----

func (s *HTTPServer) handleBookings(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	actor, err := actorID(r, s.cfg)
	if err != nil {
		writeError(w, http.StatusForbidden, err.Error())
		return
	}

	var body struct {
		ListingID       int64  `json:"listing_id"`
		CheckIn         string `json:"check_in"`
		CheckOut        string `json:"check_out"`
		NumberOfGuests  int64  `json:"number_of_guests"`
		SpecialRequests string `json:"special_requests"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	checkIn, err := time.Parse(dateLayout, body.CheckIn)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid check_in; expected YYYY-MM-DD")
		return
	}
	checkOut, err := time.Parse(dateLayout, body.CheckOut)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid check_out; expected YYYY-MM-DD")
		return
	}

	booking, err := s.bookings.CreateBooking(r.Context(), service.CreateBookingRequest{
		ListingID:       body.ListingID,
		GuestID:         actor,
		CheckIn:         checkIn,
		CheckOut:        checkOut,
		NumberOfGuests:  body.NumberOfGuests,
		SpecialRequests: body.SpecialRequests,
	})
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	metrics.IncHTTP("create_booking")
	writeJSON(w, http.StatusCreated, booking)
}

func (s *HTTPServer) handleBookingSubpath(w http.ResponseWriter, r *http.Request) {
	id, action, ok := splitSubpath(r.URL.Path, "/api/v1/bookings/")
	if !ok {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	switch {
	case action == "" && r.Method == http.MethodGet:
		s.getBooking(w, r, id)
	case action == "transition" && r.Method == http.MethodPost:
		s.transitionBooking(w, r, id)
	case action == "cancel" && r.Method == http.MethodPost:
		s.cancelBooking(w, r, id)
	case action == "payment" && r.Method == http.MethodPost:
		s.recordPayment(w, r, id)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *HTTPServer) getBooking(w http.ResponseWriter, r *http.Request, id int64) {
	booking, err := s.bookings.GetBooking(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	metrics.IncHTTP("get_booking")
	writeJSON(w, http.StatusOK, booking)
}

func (s *HTTPServer) transitionBooking(w http.ResponseWriter, r *http.Request, id int64) {
	actor, err := actorID(r, s.cfg)
	if err != nil {
		writeError(w, http.StatusForbidden, err.Error())
		return
	}

	var body struct {
		Target string `json:"target"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(body.Target) == "" {
		writeError(w, http.StatusBadRequest, "target is required")
		return
	}

	booking, err := s.bookings.TransitionBooking(r.Context(), id, body.Target, actor)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	metrics.IncHTTP("transition_booking")
	writeJSON(w, http.StatusOK, booking)
}

func (s *HTTPServer) cancelBooking(w http.ResponseWriter, r *http.Request, id int64) {
	actor, err := actorID(r, s.cfg)
	if err != nil {
		writeError(w, http.StatusForbidden, err.Error())
		return
	}

	booking, err := s.bookings.CancelBooking(r.Context(), id, actor)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	metrics.IncHTTP("cancel_booking")
	writeJSON(w, http.StatusOK, booking)
}

func (s *HTTPServer) recordPayment(w http.ResponseWriter, r *http.Request, id int64) {
	actor, err := actorID(r, s.cfg)
	if err != nil {
		writeError(w, http.StatusForbidden, err.Error())
		return
	}

	var body struct {
		PaymentStatus string `json:"payment_status"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(body.PaymentStatus) == "" {
		writeError(w, http.StatusBadRequest, "payment_status is required")
		return
	}

	booking, err := s.bookings.RecordPayment(r.Context(), id, actor, body.PaymentStatus)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	metrics.IncHTTP("record_payment")
	writeJSON(w, http.StatusOK, booking)
}

// ---- reviews ----

func (s *HTTPServer) handleReviews(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	actor, err := actorID(r, s.cfg)
	if err != nil {
		writeError(w, http.StatusForbidden, err.Error())
		return
	}

	var body struct {
		BookingID int64  `json:"booking_id"`
		Rating    int64  `json:"rating"`
		Title     string `json:"title"`
		Comment   string `json:"comment"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	review, err := s.reviews.CreateReview(r.Context(), service.CreateReviewRequest{
		BookingID: body.BookingID,
		AuthorID:  actor,
		Rating:    body.Rating,
		Title:     body.Title,
		Comment:   body.Comment,
	})
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	metrics.IncHTTP("create_review")
	writeJSON(w, http.StatusCreated, review)
}

func (s *HTTPServer) handleReviewSubpath(w http.ResponseWriter, r *http.Request) {
	id, action, ok := splitSubpath(r.URL.Path, "/api/v1/reviews/")
	if !ok {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	if action != "response" || r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	actor, err := actorID(r, s.cfg)
	if err != nil {
		writeError(w, http.StatusForbidden, err.Error())
		return
	}

	var body struct {
		Response string `json:"response"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	review, err := s.reviews.AttachHostResponse(r.Context(), id, actor, body.Response)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	metrics.IncHTTP("host_response")
	writeJSON(w, http.StatusOK, review)
}

// ---- helpers ----

// writeServiceError maps domain errors to HTTP statuses.
func (s *HTTPServer) writeServiceError(w http.ResponseWriter, err error) {
	var verr *service.ValidationError
	var serr *service.StayLengthError
	var terr *service.TransitionError

	switch {
	case errors.As(err, &verr), errors.As(err, &serr):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &terr),
		errors.Is(err, database.ErrNotAvailable),
		errors.Is(err, database.ErrDuplicateReview),
		errors.Is(err, database.ErrResponseAlreadySet),
		errors.Is(err, database.ErrConcurrentModification):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, database.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, service.ErrNotHost),
		errors.Is(err, service.ErrNotGuest),
		errors.Is(err, service.ErrBookingLive):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrRateLimited):
		writeError(w, http.StatusTooManyRequests, err.Error())
	default:
		s.logger.Error().Err(err).Msg("internal error")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// actorID extracts the caller identity from the actor header. Identity is
// opaque to this service; collaborators authenticate upstream.
func actorID(r *http.Request, cfg config.APIConfig) (int64, error) {
	header := strings.TrimSpace(cfg.Auth.HeaderActor)
	if header == "" {
		header = "x-actor-id"
	}
	raw := strings.TrimSpace(r.Header.Get(header))
	if raw == "" {
		return 0, fmt.Errorf("missing %s header", header)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s header", header)
	}
	return id, nil
}

func splitSubpath(path, prefix string) (int64, string, bool) {
	if !strings.HasPrefix(path, prefix) {
		return 0, "", false
	}
	rest := strings.TrimPrefix(path, prefix)
	parts := strings.SplitN(rest, "/", 2)
	id, err := strconv.ParseInt(strings.TrimSpace(parts[0]), 10, 64)
	if err != nil || id <= 0 {
		return 0, "", false
	}
	action := ""
	if len(parts) == 2 {
		action = strings.Trim(parts[1], "/")
	}
	return id, action, true
}

func dateWindow(r *http.Request) (time.Time, time.Time, error) {
	q := r.URL.Query()
	rawIn := strings.TrimSpace(q.Get("check_in"))
	rawOut := strings.TrimSpace(q.Get("check_out"))
	if rawIn == "" || rawOut == "" {
		return time.Time{}, time.Time{}, fmt.Errorf("check_in and check_out are required")
	}
	checkIn, err := time.Parse(dateLayout, rawIn)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid check_in; expected YYYY-MM-DD")
	}
	checkOut, err := time.Parse(dateLayout, rawOut)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid check_out; expected YYYY-MM-DD")
	}
	return checkIn, checkOut, nil
}

func decodeBody(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dst)
}

func (s *HTTPServer) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", requestID)

		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)
		s.logger.Info().
			Str("request_id", requestID).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", recorder.status).
			Dur("duration", time.Since(start)).
			Msg("http request")
	})
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
