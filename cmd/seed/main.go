// Command seed fills a homestay database with deterministic demo data.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"homestay/internal/config"
	"homestay/internal/database"
	"homestay/internal/fixtures"
	"homestay/internal/logging"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	var (
		seed     = flag.Int64("seed", fixtures.DefaultSeed, "random seed for the generated dataset")
		listings = flag.Int("listings", 8, "number of listings to create")
		hosts    = flag.Int("hosts", 3, "number of distinct hosts")
		guests   = flag.Int("guests", 10, "number of distinct guests")
	)
	flag.Parse()

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

	seeder := fixtures.NewSeeder(db, logger)
	summary, err := seeder.Seed(context.Background(), fixtures.Options{
		Seed:     *seed,
		Hosts:    *hosts,
		Listings: *listings,
		Guests:   *guests,
	})
	if err != nil {
		return err
	}

	fmt.Printf("seeded %d listings, %d bookings (%d completed), %d reviews\n",
		summary.Listings, summary.Bookings, summary.Completed, summary.Reviews)
	return nil
}
