package database

import (
	"wedbook/internal/availability"
	"wedbook/internal/bookings"
	"wedbook/internal/escrow"
	"wedbook/internal/payments"
	"wedbook/internal/venues"

	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`).Error; err != nil {
		return err
	}
	return db.AutoMigrate(
		&venues.Listing{},
		&availability.Slot{},
		&payments.Order{},
		&escrow.Account{},
		&escrow.PendingFunding{},
		&bookings.Booking{},
	)
}
