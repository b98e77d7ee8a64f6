// Command report writes a host's occupancy grid for a date range to an
// xlsx file under the configured export directory.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"homestay/internal/config"
	"homestay/internal/database"
	"homestay/internal/export"
	"homestay/internal/logging"
)

const dateLayout = "2006-01-02"

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	var (
		hostID = flag.Int64("host", 0, "host whose listings go into the report")
		start  = flag.String("start", "", "period start, YYYY-MM-DD (default: today)")
		days   = flag.Int("days", 30, "period length in days")
	)
	flag.Parse()

	if *hostID <= 0 {
		return fmt.Errorf("-host is required")
	}

	startDate := time.Now().Truncate(24 * time.Hour)
	if *start != "" {
		parsed, err := time.Parse(dateLayout, *start)
		if err != nil {
			return fmt.Errorf("invalid -start %q: %w", *start, err)
		}
		startDate = parsed
	}
	if *days <= 0 {
		return fmt.Errorf("-days must be positive")
	}
	endDate := startDate.AddDate(0, 0, *days-1)

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	if closer != nil {
		defer (func() { _ = closer.Close() })()
	}

	db, err := database.NewDB(cfg.Database.Path, logger)
	if err != nil {
		return fmt.Errorf("init database: %w", err)
	}
	defer db.Close()

	exporter := export.NewExporter(db, cfg.Exports.Path, logger)
	path, err := exporter.ExportOccupancy(context.Background(), *hostID, startDate, endDate)
	if err != nil {
		return err
	}

	fmt.Printf("occupancy report written to %s\n", path)
	return nil
}
