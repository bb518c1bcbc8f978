package database

import (
	"gorm.io/gorm"
)

// MigrateConstraints adds the constraints AutoMigrate cannot express
func MigrateConstraints(db *gorm.DB) error {
	statements := []string{
		// one escrow account per draft may be live at a time
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_escrow_accounts_live_draft
			ON escrow_accounts (draft_id)
			WHERE status IN ('CREATED', 'FUNDED')`,

		// the auto-release job scans funded accounts by age
		`CREATE INDEX IF NOT EXISTS idx_escrow_accounts_funded
			ON escrow_accounts (funded_at)
			WHERE status = 'FUNDED'`,

		`CREATE INDEX IF NOT EXISTS idx_bookings_user_created
			ON bookings (user_id, created_at DESC)`,
	}

	for _, stmt := range statements {
		if err := db.Exec(stmt).Error; err != nil {
			return err
		}
	}
	return nil
}
