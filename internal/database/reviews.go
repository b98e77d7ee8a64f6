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

const reviewColumns = `id, listing_id, booking_id, author_id, rating, title, comment,
                 host_response, host_response_at, is_verified, is_public, created_at, updated_at`

func (db *DB) CreateReview(ctx context.Context, review *models.Review) error {
	query := `INSERT INTO reviews (
                listing_id, booking_id, author_id, rating, title, comment,
                is_verified, is_public, created_at, updated_at
            ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	now := time.Now()
	result, err := db.ExecContext(ctx, query,
		review.ListingID,
		review.BookingID,
		review.AuthorID,
		review.Rating,
		review.Title,
		review.Comment,
		review.IsVerified,
		review.IsPublic,
		now,
		now,
	)
	if err != nil {
		// UNIQUE(booking_id) enforces one review per booking.
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return ErrDuplicateReview
		}
		return fmt.Errorf("failed to create review: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	review.ID = id
	review.CreatedAt = now
	review.UpdatedAt = now

	return nil
}

func (db *DB) GetReview(ctx context.Context, id int64) (*models.Review, error) {
	query := `SELECT ` + reviewColumns + ` FROM reviews WHERE id = ?`
	review, err := scanReview(db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get review: %w", err)
	}
	return review, nil
}

func (db *DB) GetReviewByBooking(ctx context.Context, bookingID int64) (*models.Review, error) {
	query := `SELECT ` + reviewColumns + ` FROM reviews WHERE booking_id = ?`
	review, err := scanReview(db.QueryRowContext(ctx, query, bookingID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get review by booking: %w", err)
	}
	return review, nil
}

// SetHostResponse attaches the host reply at most once. The guard lives in the
// UPDATE itself so a concurrent second attach loses cleanly.
func (db *DB) SetHostResponse(ctx context.Context, reviewID int64, text string, at time.Time) error {
	query := `UPDATE reviews SET host_response = ?, host_response_at = ?, updated_at = ?
              WHERE id = ? AND host_response_at IS NULL`
	result, err := db.ExecContext(ctx, query, text, at, at, reviewID)
	if err != nil {
		return fmt.Errorf("failed to set host response: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		if _, err := db.GetReview(ctx, reviewID); err != nil {
			return err
		}
		return ErrResponseAlreadySet
	}
	return nil
}

func (db *DB) GetPublicReviews(ctx context.Context, listingID int64) ([]*models.Review, error) {
	query := `SELECT ` + reviewColumns + ` FROM reviews
              WHERE listing_id = ? AND is_public = 1 ORDER BY created_at DESC`
	rows, err := db.QueryContext(ctx, query, listingID)
	if err != nil {
		return nil, fmt.Errorf("failed to query reviews: %w", err)
	}
	defer rows.Close()

	var reviews []*models.Review
	for rows.Next() {
		r, err := scanReview(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan review: %w", err)
		}
		reviews = append(reviews, r)
	}
	return reviews, rows.Err()
}

// GetRatingSummary averages public review ratings. A listing with zero
// reviews reports average 0, by convention, not NULL.
func (db *DB) GetRatingSummary(ctx context.Context, listingID int64) (*models.RatingSummary, error) {
	query := `SELECT COALESCE(AVG(rating), 0), COUNT(*) FROM reviews
              WHERE listing_id = ? AND is_public = 1`
	summary := models.RatingSummary{ListingID: listingID}
	err := db.QueryRowContext(ctx, query, listingID).Scan(&summary.AverageRating, &summary.ReviewCount)
	if err != nil {
		return nil, fmt.Errorf("failed to get rating summary: %w", err)
	}
	return &summary, nil
}

func scanReview(row rowScanner) (*models.Review, error) {
	var r models.Review
	var comment, hostResponse sql.NullString
	err := row.Scan(
		&r.ID, &r.ListingID, &r.BookingID, &r.AuthorID, &r.Rating, &r.Title, &comment,
		&hostResponse, &r.HostResponseAt, &r.IsVerified, &r.IsPublic, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	r.Comment = comment.String
	r.HostResponse = hostResponse.String
	return &r, nil
}
