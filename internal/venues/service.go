package venues

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"wedbook/internal/shared/config"
	"wedbook/internal/shared/constants"
	"wedbook/pkg/cache"
	"wedbook/pkg/logger"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrListingNotFound = errors.New("listing not found")
	ErrInvalidListing  = errors.New("invalid listing ID")
)

type Service interface {
	GetListing(ctx context.Context, id string) (*Listing, error)
	ListListings(ctx context.Context, filters ListingFilters) (*PaginatedListings, error)
	CreateListing(ctx context.Context, req CreateListingRequest) (*Listing, error)
	UpdateListing(ctx context.Context, id string, req UpdateListingRequest) (*Listing, error)
}

type service struct {
	repo   Repository
	cache  cache.Service
	escrow config.EscrowConfig
	log    *logger.Logger
}

// NewService wires the listing service. cacheSvc may be nil.
func NewService(repo Repository, cacheSvc cache.Service, escrowCfg config.EscrowConfig, log *logger.Logger) Service {
	return &service{
		repo:   repo,
		cache:  cacheSvc,
		escrow: escrowCfg,
		log:    log.WithComponent("venues"),
	}
}

func (s *service) GetListing(ctx context.Context, id string) (*Listing, error) {
	listingID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidListing, err)
	}

	fetch := func() (interface{}, error) {
		listing, err := s.repo.GetByID(ctx, listingID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrListingNotFound
			}
			return nil, fmt.Errorf("failed to get listing: %w", err)
		}
		return listing, nil
	}

	if s.cache == nil {
		v, err := fetch()
		if err != nil {
			return nil, err
		}
		return v.(*Listing), nil
	}

	var listing Listing
	if err := s.cache.GetOrSet(ctx, constants.BuildListingDetailKey(id), constants.TTL_LISTING_DETAIL, fetch, &listing); err != nil {
		if errors.Is(err, ErrListingNotFound) {
			return nil, ErrListingNotFound
		}
		return nil, err
	}
	return &listing, nil
}

func (s *service) ListListings(ctx context.Context, filters ListingFilters) (*PaginatedListings, error) {
	if filters.Page < 1 {
		filters.Page = 1
	}
	if filters.Limit < 1 {
		filters.Limit = 20
	}
	result, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list listings: %w", err)
	}
	return result, nil
}

func (s *service) CreateListing(ctx context.Context, req CreateListingRequest) (*Listing, error) {
	payeeID, err := uuid.Parse(req.PayeeID)
	if err != nil {
		return nil, fmt.Errorf("invalid payee ID: %w", err)
	}

	listing := &Listing{
		ID:                   uuid.New(),
		Kind:                 req.Kind,
		Name:                 req.Name,
		City:                 req.City,
		Description:          req.Description,
		BasePrice:            req.BasePrice,
		Capacity:             req.Capacity,
		PayeeID:              payeeID,
		EscrowEnabled:        req.EscrowEnabled,
		CommissionPercentage: s.escrow.CommissionPercentage,
		AutoReleaseDays:      s.escrow.AutoReleaseDays,
		IsActive:             true,
	}
	if req.CommissionPercentage != nil {
		listing.CommissionPercentage = *req.CommissionPercentage
	}
	if req.AutoReleaseDays != nil {
		listing.AutoReleaseDays = *req.AutoReleaseDays
	}

	if err := s.repo.Create(ctx, listing); err != nil {
		return nil, fmt.Errorf("failed to create listing: %w", err)
	}

	s.log.InfoContext(ctx, "listing created",
		slog.String("listing_id", listing.ID.String()),
		slog.String("kind", string(listing.Kind)))
	return listing, nil
}

func (s *service) UpdateListing(ctx context.Context, id string, req UpdateListingRequest) (*Listing, error) {
	listingID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidListing, err)
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.BasePrice != nil {
		updates["base_price"] = *req.BasePrice
	}
	if req.Capacity != nil {
		updates["capacity"] = *req.Capacity
	}
	if req.EscrowEnabled != nil {
		updates["escrow_enabled"] = *req.EscrowEnabled
	}
	if req.CommissionPercentage != nil {
		updates["commission_percentage"] = *req.CommissionPercentage
	}
	if req.AutoReleaseDays != nil {
		updates["auto_release_days"] = *req.AutoReleaseDays
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}

	if len(updates) > 0 {
		if err := s.repo.Update(ctx, listingID, updates); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrListingNotFound
			}
			return nil, fmt.Errorf("failed to update listing: %w", err)
		}
	}

	if s.cache != nil {
		if err := s.cache.Delete(ctx, constants.BuildListingDetailKey(id)); err != nil {
			s.log.WarnContext(ctx, "failed to invalidate listing cache", slog.String("error", err.Error()))
		}
	}

	listing, err := s.repo.GetByID(ctx, listingID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload listing: %w", err)
	}
	return listing, nil
}
