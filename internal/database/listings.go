package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"homestay/internal/models"
)

const listingColumns = `id, host_id, title, description, property_type,
                 address, city, state, country, zip_code, latitude, longitude,
                 max_guests, bedrooms, beds, bathrooms,
                 wifi, kitchen, parking, pool, air_conditioning, heating, tv,
                 base_price_cents, cleaning_fee_cents, security_deposit_cents,
                 check_in_time, check_out_time, minimum_stay, maximum_stay,
                 status, created_at, updated_at`

func (db *DB) CreateListing(ctx context.Context, listing *models.Listing) error {
	query := `INSERT INTO listings (
                host_id, title, description, property_type,
                address, city, state, country, zip_code, latitude, longitude,
                max_guests, bedrooms, beds, bathrooms,
                wifi, kitchen, parking, pool, air_conditioning, heating, tv,
                base_price_cents, cleaning_fee_cents, security_deposit_cents,
                check_in_time, check_out_time, minimum_stay, maximum_stay,
                status, created_at, updated_at
            ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	now := time.Now()
	result, err := db.ExecContext(ctx, query,
		listing.HostID, listing.Title, listing.Description, listing.PropertyType,
		listing.Address, listing.City, listing.State, listing.Country, listing.ZipCode,
		listing.Latitude, listing.Longitude,
		listing.MaxGuests, listing.Bedrooms, listing.Beds, listing.Bathrooms,
		listing.Amenities.Wifi, listing.Amenities.Kitchen, listing.Amenities.Parking,
		listing.Amenities.Pool, listing.Amenities.AirConditioning, listing.Amenities.Heating,
		listing.Amenities.TV,
		listing.BasePriceCents, listing.CleaningFeeCents, listing.SecurityDepositCents,
		listing.CheckInTime, listing.CheckOutTime, listing.MinimumStay, listing.MaximumStay,
		listing.Status, now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to create listing: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	listing.ID = id
	listing.CreatedAt = now
	listing.UpdatedAt = now

	return nil
}

func (db *DB) UpdateListing(ctx context.Context, listing *models.Listing) error {
	query := `UPDATE listings SET
                title = ?, description = ?, property_type = ?,
                address = ?, city = ?, state = ?, country = ?, zip_code = ?,
                latitude = ?, longitude = ?,
                max_guests = ?, bedrooms = ?, beds = ?, bathrooms = ?,
                wifi = ?, kitchen = ?, parking = ?, pool = ?, air_conditioning = ?, heating = ?, tv = ?,
                base_price_cents = ?, cleaning_fee_cents = ?, security_deposit_cents = ?,
                check_in_time = ?, check_out_time = ?, minimum_stay = ?, maximum_stay = ?,
                status = ?, updated_at = ?
              WHERE id = ?`
	now := time.Now()
	result, err := db.ExecContext(ctx, query,
		listing.Title, listing.Description, listing.PropertyType,
		listing.Address, listing.City, listing.State, listing.Country, listing.ZipCode,
		listing.Latitude, listing.Longitude,
		listing.MaxGuests, listing.Bedrooms, listing.Beds, listing.Bathrooms,
		listing.Amenities.Wifi, listing.Amenities.Kitchen, listing.Amenities.Parking,
		listing.Amenities.Pool, listing.Amenities.AirConditioning, listing.Amenities.Heating,
		listing.Amenities.TV,
		listing.BasePriceCents, listing.CleaningFeeCents, listing.SecurityDepositCents,
		listing.CheckInTime, listing.CheckOutTime, listing.MinimumStay, listing.MaximumStay,
		listing.Status, now,
		listing.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update listing: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}
	listing.UpdatedAt = now
	return nil
}

func (db *DB) GetListing(ctx context.Context, id int64) (*models.Listing, error) {
	query := `SELECT ` + listingColumns + ` FROM listings WHERE id = ?`
	listing, err := scanListing(db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get listing: %w", err)
	}
	return listing, nil
}

// SetListingStatus deactivates or suspends a listing. Listings are never
// deleted while bookings reference them.
func (db *DB) SetListingStatus(ctx context.Context, id int64, status string) error {
	query := `UPDATE listings SET status = ?, updated_at = ? WHERE id = ?`
	result, err := db.ExecContext(ctx, query, status, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to set listing status: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

func (db *DB) GetHostListings(ctx context.Context, hostID int64) ([]*models.Listing, error) {
	query := `SELECT ` + listingColumns + ` FROM listings WHERE host_id = ? ORDER BY created_at DESC`
	return db.queryListings(ctx, query, hostID)
}

// SearchListings returns active listings matching the filters. When a date
// window is set, listings with a conflicting confirmed/active booking are
// excluded.
func (db *DB) SearchListings(ctx context.Context, search models.ListingSearch) ([]*models.Listing, error) {
	query := `SELECT ` + listingColumns + ` FROM listings WHERE status = ?`
	args := []any{models.ListingActive}

	if search.City != "" {
		query += ` AND city LIKE ?`
		args = append(args, "%"+search.City+"%")
	}
	if search.Country != "" {
		query += ` AND country LIKE ?`
		args = append(args, "%"+search.Country+"%")
	}
	if search.PropertyType != "" {
		query += ` AND property_type = ?`
		args = append(args, search.PropertyType)
	}
	if search.Guests > 0 {
		query += ` AND max_guests >= ?`
		args = append(args, search.Guests)
	}
	if search.MinPriceCents > 0 {
		query += ` AND base_price_cents >= ?`
		args = append(args, search.MinPriceCents)
	}
	if search.MaxPriceCents > 0 {
		query += ` AND base_price_cents <= ?`
		args = append(args, search.MaxPriceCents)
	}
	if !search.CheckIn.IsZero() && !search.CheckOut.IsZero() {
		query += ` AND NOT EXISTS (
            SELECT 1 FROM bookings
            WHERE bookings.listing_id = listings.id
              AND bookings.status IN (?, ?)
              AND date(bookings.check_in) < date(?)
              AND date(bookings.check_out) > date(?)
        )`
		args = append(args,
			models.StatusConfirmed, models.StatusActive,
			search.CheckOut.Format(dateLayout), search.CheckIn.Format(dateLayout))
	}

	query += ` ORDER BY created_at DESC`
	return db.queryListings(ctx, query, args...)
}

func (db *DB) queryListings(ctx context.Context, query string, args ...any) ([]*models.Listing, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query listings: %w", err)
	}
	defer rows.Close()

	var listings []*models.Listing
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan listing: %w", err)
		}
		listings = append(listings, l)
	}
	return listings, rows.Err()
}

func scanListing(row rowScanner) (*models.Listing, error) {
	var l models.Listing
	var description, address, city, state, country, zip sql.NullString
	var lat, lng sql.NullFloat64
	err := row.Scan(
		&l.ID, &l.HostID, &l.Title, &description, &l.PropertyType,
		&address, &city, &state, &country, &zip, &lat, &lng,
		&l.MaxGuests, &l.Bedrooms, &l.Beds, &l.Bathrooms,
		&l.Amenities.Wifi, &l.Amenities.Kitchen, &l.Amenities.Parking,
		&l.Amenities.Pool, &l.Amenities.AirConditioning, &l.Amenities.Heating,
		&l.Amenities.TV,
		&l.BasePriceCents, &l.CleaningFeeCents, &l.SecurityDepositCents,
		&l.CheckInTime, &l.CheckOutTime, &l.MinimumStay, &l.MaximumStay,
		&l.Status, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	l.Description = description.String
	l.Address = address.String
	l.City = city.String
	l.State = state.String
	l.Country = country.String
	l.ZipCode = zip.String
	l.Latitude = lat.Float64
	l.Longitude = lng.Float64
	return &l, nil
}
