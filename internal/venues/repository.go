package venues

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository interface for listing persistence
type Repository interface {
	Create(ctx context.Context, listing *Listing) error
	GetByID(ctx context.Context, id uuid.UUID) (*Listing, error)
	List(ctx context.Context, filters ListingFilters) (*PaginatedListings, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository creates a new listing repository
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, listing *Listing) error {
	return r.db.WithContext(ctx).Create(listing).Error
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Listing, error) {
	var listing Listing
	err := r.db.WithContext(ctx).First(&listing, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &listing, nil
}

func (r *repository) List(ctx context.Context, filters ListingFilters) (*PaginatedListings, error) {
	var listings []Listing
	var total int64

	query := r.db.WithContext(ctx).Model(&Listing{}).Where("is_active = ?", true)

	if filters.Kind != "" {
		query = query.Where("kind = ?", filters.Kind)
	}
	if filters.City != "" {
		query = query.Where("city ILIKE ?", filters.City)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	offset := (filters.Page - 1) * filters.Limit
	if err := query.Order("name ASC").Offset(offset).Limit(filters.Limit).Find(&listings).Error; err != nil {
		return nil, err
	}

	totalPages := int((total + int64(filters.Limit) - 1) / int64(filters.Limit))

	return &PaginatedListings{
		Listings:   listings,
		TotalCount: total,
		Page:       filters.Page,
		Limit:      filters.Limit,
		TotalPages: totalPages,
	}, nil
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error {
	result := r.db.WithContext(ctx).Model(&Listing{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
