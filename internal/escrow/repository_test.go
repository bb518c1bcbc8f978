package escrow

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	return db, mock
}

func TestRepository_ListDueForReleaseOnlyBookedAccounts(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRepository(db)
	id := uuid.New()
	bookingID := uuid.New()
	fundedAt := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows([]string{"id", "status", "booking_id", "funded_amount", "funded_at", "auto_release_days"}).
		AddRow(id.String(), "FUNDED", bookingID.String(), 67500, fundedAt, 7)
	mock.ExpectQuery(`SELECT \* FROM "escrow_accounts" WHERE status = \$1 AND booking_id IS NOT NULL AND funded_at \+ make_interval`).
		WillReturnRows(rows)

	due, err := repo.ListDueForRelease(context.Background(), fundedAt.AddDate(0, 0, 7), 50)

	require.NoError(t, err)
	require.Len(t, due, 1)
	require.NotNil(t, due[0].BookingID)
	assert.Equal(t, bookingID, *due[0].BookingID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
