package availability

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Source is where availability is read from
type Source interface {
	ListAvailability(ctx context.Context, entityID string) ([]Slot, error)
}

// Repository is the table-backed Source; Upsert is used by seeding and admin tooling
type Repository interface {
	Source
	Upsert(ctx context.Context, slot *Slot) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) ListAvailability(ctx context.Context, entityID string) ([]Slot, error) {
	var slots []Slot
	err := r.db.WithContext(ctx).
		Where("entity_id = ?", entityID).
		Order("date ASC").
		Find(&slots).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list availability: %w", err)
	}
	return slots, nil
}

func (r *repository) Upsert(ctx context.Context, slot *Slot) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "entity_id"}, {Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{"status", "price_override", "max_guests", "time_slots", "updated_at"}),
	}).Create(slot).Error
}
