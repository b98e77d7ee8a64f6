package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"homestay/internal/models"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

// BookingSource is the slice of the store the exporter reads. The whole
// period is fetched in one query and grouped per listing.
type BookingSource interface {
	GetHostListings(ctx context.Context, hostID int64) ([]*models.Listing, error)
	GetBookingsByDateRange(ctx context.Context, startDate, endDate time.Time) ([]*models.Booking, error)
}

// Exporter writes occupancy grids to xlsx files: one row per listing, one
// column per day of the requested period.
type Exporter struct {
	repo   BookingSource
	path   string
	logger *zerolog.Logger
}

func NewExporter(repo BookingSource, path string, logger *zerolog.Logger) *Exporter {
	return &Exporter{
		repo:   repo,
		path:   path,
		logger: logger,
	}
}

// ExportOccupancy builds the occupancy report for a host's listings over
// [startDate, endDate] and returns the saved file path.
func (e *Exporter) ExportOccupancy(ctx context.Context, hostID int64, startDate, endDate time.Time) (string, error) {
	if err := os.MkdirAll(e.path, 0o755); err != nil {
		return "", fmt.Errorf("error creating export directory: %v", err)
	}

	listings, err := e.repo.GetHostListings(ctx, hostID)
	if err != nil {
		return "", fmt.Errorf("error getting listings: %v", err)
	}

	periodBookings, err := e.repo.GetBookingsByDateRange(ctx, startDate, endDate)
	if err != nil {
		return "", fmt.Errorf("error getting bookings: %v", err)
	}
	byListing := make(map[int64][]*models.Booking)
	for _, b := range periodBookings {
		byListing[b.ListingID] = append(byListing[b.ListingID], b)
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Occupancy"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return "", fmt.Errorf("error creating sheet: %v", err)
	}
	f.SetActiveSheet(index)

	_ = f.SetCellValue(sheetName, "A1", fmt.Sprintf("Period: %s - %s",
		startDate.Format("02.01.2006"), endDate.Format("02.01.2006")))

	dateHeaders := e.writeDateHeaders(f, sheetName, startDate, endDate)
	e.writeListingHeaders(f, sheetName, listings)

	for i, listing := range listings {
		e.writeListingRow(f, sheetName, 3+i, byListing[listing.ID], dateHeaders)
	}

	_ = f.SetColWidth(sheetName, "A", "A", 25)
	for i := 'B'; i <= 'Z'; i++ {
		_ = f.SetColWidth(sheetName, string(i), string(i), 16)
	}

	lastCol := getLastColumn(len(dateHeaders) + 1)
	_ = f.MergeCell(sheetName, "A1", lastCol+"1")

	style, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	_ = f.SetCellStyle(sheetName, "A1", "A1", style)

	_ = f.DeleteSheet("Sheet1")

	fileName := fmt.Sprintf("occupancy_%s_to_%s.xlsx",
		startDate.Format("2006-01-02"),
		endDate.Format("2006-01-02"))
	filePath := filepath.Join(e.path, fileName)

	if err := f.SaveAs(filePath); err != nil {
		return "", fmt.Errorf("error saving file: %v", err)
	}

	e.logger.Info().Str("file_path", filePath).Msg("Excel file created")
	return filePath, nil
}

func (e *Exporter) writeDateHeaders(f *excelize.File, sheetName string, startDate, endDate time.Time) map[string]int {
	col := 2
	currentDate := startDate
	dateHeaders := make(map[string]int)

	for !currentDate.After(endDate) {
		cell, _ := excelize.CoordinatesToCellName(col, 2)
		_ = f.SetCellValue(sheetName, cell, currentDate.Format("02.01"))
		dateHeaders[currentDate.Format("2006-01-02")] = col

		style, _ := f.NewStyle(&excelize.Style{
			Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
			Font:      &excelize.Font{Bold: true},
			Alignment: &excelize.Alignment{Horizontal: "center"},
		})
		_ = f.SetCellStyle(sheetName, cell, cell, style)

		col++
		currentDate = currentDate.AddDate(0, 0, 1)
	}
	return dateHeaders
}

func (e *Exporter) writeListingHeaders(f *excelize.File, sheetName string, listings []*models.Listing) {
	row := 3
	for _, listing := range listings {
		cell, _ := excelize.CoordinatesToCellName(1, row)
		_ = f.SetCellValue(sheetName, cell, fmt.Sprintf("%s (%s)", listing.Title, listing.City))

		style, _ := f.NewStyle(&excelize.Style{
			Fill: excelize.Fill{Type: "pattern", Color: []string{"#E2EFDA"}, Pattern: 1},
			Font: &excelize.Font{Bold: true},
		})
		_ = f.SetCellStyle(sheetName, cell, cell, style)

		row++
	}
}

func (e *Exporter) writeListingRow(f *excelize.File, sheetName string, row int, bookings []*models.Booking, dateHeaders map[string]int) {
	for dateKey, col := range dateHeaders {
		day := parseDate(dateKey)
		booking := bookingOnDay(bookings, day)

		cell, _ := excelize.CoordinatesToCellName(col, row)
		var cellValue string
		if booking != nil {
			cellValue = fmt.Sprintf("guest %d\n%s", booking.GuestID, booking.Status)
		} else {
			cellValue = "free"
		}
		_ = f.SetCellValue(sheetName, cell, cellValue)

		styleID, err := e.dayStyle(f, booking)
		if err == nil {
			_ = f.SetCellStyle(sheetName, cell, cell, styleID)
		}
	}
}

// bookingOnDay returns the booking occupying the day, preferring blocking
// statuses over pending ones.
func bookingOnDay(bookings []*models.Booking, day time.Time) *models.Booking {
	var pending *models.Booking
	dayEnd := day.AddDate(0, 0, 1)
	for _, b := range bookings {
		if b.Status == models.StatusCancelled || b.Status == models.StatusCompleted {
			continue
		}
		if !b.Overlaps(day, dayEnd) {
			continue
		}
		if models.BlocksAvailability(b.Status) {
			return b
		}
		if pending == nil {
			pending = b
		}
	}
	return pending
}

func (e *Exporter) dayStyle(f *excelize.File, booking *models.Booking) (int, error) {
	alignment := &excelize.Alignment{
		Horizontal: "left",
		Vertical:   "top",
		WrapText:   true,
	}

	// Free day - no fill
	if booking == nil {
		return f.NewStyle(&excelize.Style{
			Fill:      excelize.Fill{Type: "pattern", Color: []string{"#FFFFFF"}, Pattern: 1},
			Alignment: alignment,
		})
	}

	// Occupied by a confirmed or active stay - red
	if models.BlocksAvailability(booking.Status) {
		return f.NewStyle(&excelize.Style{
			Fill:      excelize.Fill{Type: "pattern", Color: []string{"#FFC7CE"}, Pattern: 1},
			Alignment: alignment,
		})
	}

	// Pending request - yellow
	return f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#FFEB9C"}, Pattern: 1},
		Alignment: alignment,
	})
}

func parseDate(dateStr string) time.Time {
	date, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		return time.Time{}
	}
	return date
}

// getLastColumn returns the final column letter for merged header cells.
func getLastColumn(colCount int) string {
	if colCount <= 26 {
		return string(rune('A' + colCount - 1))
	}

	firstChar := string(rune('A' + (colCount-1)/26 - 1))
	secondChar := string(rune('A' + (colCount-1)%26))
	return firstChar + secondChar
}
