package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"homestay/internal/models"
)

const dateLayout = "2006-01-02"

const bookingColumns = `id, listing_id, guest_id, date(check_in), date(check_out), number_of_guests,
                 special_requests, total_price_cents, security_deposit_cents, status,
                 payment_status, payment_ref, created_at, updated_at, confirmed_at, cancelled_at, version`

// CheckAvailability reports whether [checkIn, checkOut) is free of conflicting
// confirmed/active bookings on the listing. Pure read.
func (db *DB) CheckAvailability(ctx context.Context, listingID int64, checkIn, checkOut time.Time) (bool, error) {
	count, err := db.countConflicts(ctx, db.DB, listingID, checkIn, checkOut)
	if err != nil {
		return false, fmt.Errorf("failed to check availability: %w", err)
	}
	return count == 0, nil
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (db *DB) countConflicts(ctx context.Context, q querier, listingID int64, checkIn, checkOut time.Time) (int, error) {
	// Half-open overlap: [a,b) conflicts with [c,d) iff a < d AND c < b.
	query := `SELECT COUNT(*) FROM bookings
              WHERE listing_id = ? AND status IN (?, ?)
              AND date(check_in) < date(?) AND date(check_out) > date(?)`
	var count int
	err := q.QueryRowContext(ctx, query, listingID,
		models.StatusConfirmed, models.StatusActive,
		checkOut.Format(dateLayout), checkIn.Format(dateLayout)).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

// CreateBookingWithLock re-checks availability and inserts inside a single
// transaction, so two concurrent requests cannot both pass the check.
func (db *DB) CreateBookingWithLock(ctx context.Context, booking *models.Booking) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	count, err := db.countConflicts(ctx, tx, booking.ListingID, booking.CheckIn, booking.CheckOut)
	if err != nil {
		return fmt.Errorf("failed to check availability in tx: %w", err)
	}
	if count > 0 {
		return ErrNotAvailable
	}

	query := `INSERT INTO bookings (
                listing_id, guest_id, check_in, check_out, number_of_guests,
                special_requests, total_price_cents, security_deposit_cents,
                status, payment_status, payment_ref, created_at, updated_at, version
            ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	now := time.Now()
	result, err := tx.ExecContext(ctx, query,
		booking.ListingID,
		booking.GuestID,
		booking.CheckIn.Format(dateLayout),
		booking.CheckOut.Format(dateLayout),
		booking.NumberOfGuests,
		booking.SpecialRequests,
		booking.TotalPriceCents,
		booking.SecurityDepositCents,
		booking.Status,
		booking.PaymentStatus,
		booking.PaymentRef,
		now,
		now,
		1,
	)
	if err != nil {
		return translateConflict(err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id in tx: %w", err)
	}
	booking.ID = id
	booking.CreatedAt = now
	booking.UpdatedAt = now
	booking.Version = 1

	return tx.Commit()
}

// translateConflict maps the overlap trigger abort to ErrNotAvailable so a
// storage-layer race surfaces as an availability error, not a generic one.
func translateConflict(err error) error {
	if err == nil {
		return nil
	}
	if strings.Contains(err.Error(), "booking overlap") {
		return ErrNotAvailable
	}
	return fmt.Errorf("failed to insert booking: %w", err)
}

func (db *DB) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = ?`
	booking, err := scanBooking(db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return booking, nil
}

// ApplyTransitionWithVersion moves a booking to a new status under optimistic
// locking. Entering confirmed sets confirmed_at once; entering cancelled sets
// cancelled_at. Legality of the transition is the caller's concern.
func (db *DB) ApplyTransitionWithVersion(ctx context.Context, id, fromVersion int64, status string, at time.Time) error {
	var query string
	var args []any
	switch status {
	case models.StatusConfirmed:
		query = `UPDATE bookings SET status = ?, confirmed_at = COALESCE(confirmed_at, ?),
                 version = version + 1, updated_at = ? WHERE id = ? AND version = ?`
		args = []any{status, at, at, id, fromVersion}
	case models.StatusCancelled:
		query = `UPDATE bookings SET status = ?, cancelled_at = ?,
                 version = version + 1, updated_at = ? WHERE id = ? AND version = ?`
		args = []any{status, at, at, id, fromVersion}
	default:
		query = `UPDATE bookings SET status = ?, version = version + 1, updated_at = ?
                 WHERE id = ? AND version = ?`
		args = []any{status, at, id, fromVersion}
	}

	result, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		if strings.Contains(err.Error(), "booking overlap") {
			return ErrNotAvailable
		}
		return fmt.Errorf("failed to update booking status: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrConcurrentModification
	}
	return nil
}

func (db *DB) UpdateBookingPayment(ctx context.Context, id int64, paymentStatus, paymentRef string) error {
	query := `UPDATE bookings SET payment_status = ?, payment_ref = ?, updated_at = ? WHERE id = ?`
	_, err := db.ExecContext(ctx, query, paymentStatus, paymentRef, time.Now(), id)
	return err
}

func (db *DB) GetListingBookings(ctx context.Context, listingID int64) ([]*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings
              WHERE listing_id = ? ORDER BY check_in ASC`
	return db.queryBookings(ctx, query, listingID)
}

func (db *DB) GetGuestBookings(ctx context.Context, guestID int64) ([]*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings
              WHERE guest_id = ? ORDER BY created_at DESC`
	return db.queryBookings(ctx, query, guestID)
}

func (db *DB) GetBookingsByDateRange(ctx context.Context, startDate, endDate time.Time) ([]*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings
              WHERE date(check_in) <= date(?) AND date(check_out) >= date(?)
              ORDER BY check_in ASC`
	return db.queryBookings(ctx, query, endDate.Format(dateLayout), startDate.Format(dateLayout))
}

// GetAvailabilityForPeriod returns per-day availability for a listing. A day
// is taken iff some confirmed/active booking covers it.
func (db *DB) GetAvailabilityForPeriod(ctx context.Context, listingID int64, startDate time.Time, days int) ([]*models.DayAvailability, error) {
	endDate := startDate.AddDate(0, 0, days)

	query := `SELECT date(check_in), date(check_out) FROM bookings
              WHERE listing_id = ? AND status IN (?, ?)
              AND date(check_in) < date(?) AND date(check_out) > date(?)`
	rows, err := db.QueryContext(ctx, query, listingID,
		models.StatusConfirmed, models.StatusActive,
		endDate.Format(dateLayout), startDate.Format(dateLayout))
	if err != nil {
		return nil, fmt.Errorf("failed to get availability: %w", err)
	}
	defer rows.Close()

	type span struct{ in, out time.Time }
	var spans []span
	for rows.Next() {
		var inStr, outStr string
		if err := rows.Scan(&inStr, &outStr); err != nil {
			return nil, err
		}
		in, _ := time.Parse(dateLayout, inStr)
		out, _ := time.Parse(dateLayout, outStr)
		spans = append(spans, span{in, out})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	availability := make([]*models.DayAvailability, 0, days)
	for i := 0; i < days; i++ {
		day := startDate.AddDate(0, 0, i)
		free := true
		for _, s := range spans {
			if !day.Before(s.in) && day.Before(s.out) {
				free = false
				break
			}
		}
		availability = append(availability, &models.DayAvailability{
			Date:      day,
			ListingID: listingID,
			Available: free,
		})
	}
	return availability, nil
}

func (db *DB) queryBookings(ctx context.Context, query string, args ...any) ([]*models.Booking, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query bookings: %w", err)
	}
	defer rows.Close()

	var bookings []*models.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBooking(row rowScanner) (*models.Booking, error) {
	var b models.Booking
	var checkInStr, checkOutStr string
	var specialRequests, paymentRef sql.NullString
	err := row.Scan(
		&b.ID, &b.ListingID, &b.GuestID, &checkInStr, &checkOutStr, &b.NumberOfGuests,
		&specialRequests, &b.TotalPriceCents, &b.SecurityDepositCents, &b.Status,
		&b.PaymentStatus, &paymentRef, &b.CreatedAt, &b.UpdatedAt, &b.ConfirmedAt, &b.CancelledAt, &b.Version,
	)
	if err != nil {
		return nil, err
	}

	b.SpecialRequests = specialRequests.String
	b.PaymentRef = paymentRef.String
	if b.CheckIn, err = time.Parse(dateLayout, checkInStr); err != nil {
		return nil, fmt.Errorf("failed to parse check_in %s: %w", checkInStr, err)
	}
	if b.CheckOut, err = time.Parse(dateLayout, checkOutStr); err != nil {
		return nil, fmt.Errorf("failed to parse check_out %s: %w", checkOutStr, err)
	}
	return &b, nil
}
