package escrow

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository interface {
	Create(ctx context.Context, account *Account) error
	GetByID(ctx context.Context, id uuid.UUID) (*Account, error)
	// Mutate loads the account under a row lock and applies fn. The account is
	// saved only when fn reports a change and returns no error.
	Mutate(ctx context.Context, id uuid.UUID, fn func(*Account) (bool, error)) (*Account, error)
	ListDueForRelease(ctx context.Context, now time.Time, limit int) ([]Account, error)

	SavePendingFunding(ctx context.Context, pf *PendingFunding) error
	ListPendingFundings(ctx context.Context, limit int) ([]PendingFunding, error)
	UpdatePendingFunding(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, account *Account) error {
	return r.db.WithContext(ctx).Create(account).Error
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Account, error) {
	var account Account
	if err := r.db.WithContext(ctx).First(&account, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &account, nil
}

func (r *repository) Mutate(ctx context.Context, id uuid.UUID, fn func(*Account) (bool, error)) (*Account, error) {
	var account Account
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&account, "id = ?", id).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		changed, err := fn(&account)
		if err != nil || !changed {
			return err
		}
		return tx.Save(&account).Error
	})
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// ListDueForRelease returns funded accounts linked to a booking whose
// auto-release deadline has passed
func (r *repository) ListDueForRelease(ctx context.Context, now time.Time, limit int) ([]Account, error) {
	var accounts []Account
	err := r.db.WithContext(ctx).
		Where("status = ?", StatusFunded).
		Where("booking_id IS NOT NULL").
		Where("funded_at + make_interval(days => auto_release_days) <= ?", now).
		Order("funded_at ASC").
		Limit(limit).
		Find(&accounts).Error
	return accounts, err
}

// SavePendingFunding inserts the row or, for an escrow already recorded, refreshes it
func (r *repository) SavePendingFunding(ctx context.Context, pf *PendingFunding) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "escrow_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"payment_reference", "receipt", "last_error", "status", "updated_at"}),
	}).Create(pf).Error
}

func (r *repository) ListPendingFundings(ctx context.Context, limit int) ([]PendingFunding, error) {
	var rows []PendingFunding
	err := r.db.WithContext(ctx).
		Where("status = ?", FundingPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

func (r *repository) UpdatePendingFunding(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&PendingFunding{}).Where("id = ?", id).Updates(updates).Error
}
