package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"wedbook/internal/availability"
	"wedbook/internal/shared/config"
	"wedbook/internal/shared/database"
	"wedbook/internal/venues"
	"wedbook/pkg/logger"

	"github.com/google/uuid"
)

type Seeder struct {
	db           *database.DB
	listings     venues.Repository
	availability availability.Repository
	escrowCfg    config.EscrowConfig
}

func main() {
	fmt.Println("🌱 Starting WedBook Database Seeder...")

	cfg := config.Load()

	db, err := database.InitDB(cfg, logger.GetDefault())
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	seeder := &Seeder{
		db:           db,
		listings:     venues.NewRepository(db.PostgreSQL),
		availability: availability.NewRepository(db.PostgreSQL),
		escrowCfg:    cfg.Escrow,
	}

	fmt.Println("\n🧹 Cleaning database...")
	if err := seeder.CleanDatabase(); err != nil {
		log.Fatalf("Failed to clean database: %v", err)
	}
	fmt.Println("✅ Database cleaned successfully")

	fmt.Println("\n🌱 Seeding database...")
	if err := seeder.SeedAll(context.Background()); err != nil {
		log.Fatalf("Failed to seed database: %v", err)
	}
	fmt.Println("✅ Database seeded successfully")
}

// CleanDatabase truncates every table, dependents first
func (s *Seeder) CleanDatabase() error {
	tables := []string{
		"escrow_pending_fundings",
		"bookings",
		"escrow_accounts",
		"payment_orders",
		"availability_slots",
		"listings",
	}

	tx := s.db.PostgreSQL.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	for _, table := range tables {
		fmt.Printf("  Truncating table: %s\n", table)
		if err := tx.Exec(fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY CASCADE", table)).Error; err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to truncate table %s: %w", table, err)
		}
	}

	return tx.Commit().Error
}

func (s *Seeder) SeedAll(ctx context.Context) error {
	listings, err := s.SeedListings(ctx)
	if err != nil {
		return fmt.Errorf("failed to seed listings: %w", err)
	}

	if err := s.SeedAvailability(ctx, listings); err != nil {
		return fmt.Errorf("failed to seed availability: %w", err)
	}

	// cached listings and calendars would shadow the fresh rows
	if err := s.db.Redis.FlushDB(ctx).Err(); err != nil {
		log.Printf("Warning: Failed to clear Redis cache: %v", err)
	}
	return nil
}

func (s *Seeder) SeedListings(ctx context.Context) ([]venues.Listing, error) {
	fmt.Println("  🏛️  Seeding listings...")

	data := []struct {
		kind     venues.Kind
		name     string
		city     string
		price    int64
		capacity int
		escrow   bool
	}{
		{venues.KindVenue, "The Grand Lawns", "Mumbai", 150000, 500, false},
		{venues.KindVenue, "Lakeview Banquet Hall", "Udaipur", 220000, 300, true},
		{venues.KindVenue, "Heritage Courtyard", "Jaipur", 180000, 250, true},
		{venues.KindVendor, "Marigold Decorators", "Mumbai", 60000, 1000, true},
		{venues.KindVendor, "Saffron Caterers", "Pune", 90000, 800, false},
	}

	listings := make([]venues.Listing, 0, len(data))
	for _, d := range data {
		listing := venues.Listing{
			ID:                   uuid.New(),
			Kind:                 d.kind,
			Name:                 d.name,
			City:                 d.city,
			Description:          fmt.Sprintf("%s in %s", d.name, d.city),
			BasePrice:            d.price,
			Capacity:             d.capacity,
			PayeeID:              uuid.New(),
			EscrowEnabled:        d.escrow,
			CommissionPercentage: s.escrowCfg.CommissionPercentage,
			AutoReleaseDays:      s.escrowCfg.AutoReleaseDays,
			IsActive:             true,
		}
		if err := s.listings.Create(ctx, &listing); err != nil {
			return nil, fmt.Errorf("failed to create listing %s: %w", d.name, err)
		}
		listings = append(listings, listing)
		fmt.Printf("    ✅ Created %s: %s (escrow=%t)\n", listing.Kind, listing.Name, listing.EscrowEnabled)
	}
	return listings, nil
}

// SeedAvailability writes 60 days of calendar per listing. Every seventh day
// is booked, every fifth is limited, and venues get split time slots on weekends.
func (s *Seeder) SeedAvailability(ctx context.Context, listings []venues.Listing) error {
	fmt.Println("  📅 Seeding availability...")

	start := time.Now().UTC().Truncate(24*time.Hour).AddDate(0, 0, 30)
	for _, listing := range listings {
		for day := 0; day < 60; day++ {
			date := start.AddDate(0, 0, day)
			slot := availability.Slot{
				EntityID: listing.ID.String(),
				Date:     date,
				Status:   availability.StatusAvailable,
			}

			switch {
			case day%7 == 0:
				slot.Status = availability.StatusBooked
			case day%5 == 0:
				slot.Status = availability.StatusLimited
				maxGuests := listing.Capacity / 2
				slot.MaxGuests = &maxGuests
			}

			weekend := date.Weekday() == time.Saturday || date.Weekday() == time.Sunday
			if weekend && slot.Status == availability.StatusAvailable {
				premium := listing.BasePrice * 12 / 10
				slot.PriceOverride = &premium
				if listing.Kind == venues.KindVenue {
					evening := premium + listing.BasePrice/5
					slot.TimeSlots = []availability.TimeSlot{
						{ID: "morning", Time: "09:00-15:00", Status: availability.StatusAvailable},
						{ID: "evening", Time: "18:00-23:30", Status: availability.StatusAvailable, Price: &evening},
					}
				}
			}

			if err := s.availability.Upsert(ctx, &slot); err != nil {
				return fmt.Errorf("failed to upsert %s on %s: %w", listing.Name, slot.DateKey(), err)
			}
		}
		fmt.Printf("    ✅ %s: 60 days\n", listing.Name)
	}
	return nil
}
