package availability

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"wedbook/internal/shared/constants"
	"wedbook/pkg/cache"
	"wedbook/pkg/logger"
)

// Service is the read-only availability view used by the booking flow
type Service interface {
	List(ctx context.Context, entityID string) ([]Slot, error)
	// Lookup returns ErrUnavailable when the date is not in the availability set
	Lookup(ctx context.Context, entityID string, date time.Time) (*Slot, error)
	// LookupFresh is Lookup without the cache
	LookupFresh(ctx context.Context, entityID string, date time.Time) (*Slot, error)
	Invalidate(ctx context.Context, entityID string) error
}

type service struct {
	source   Source
	cache    cache.Service
	cacheTTL time.Duration
	log      *logger.Logger
}

// NewService fronts source with a cache-aside layer. cacheSvc may be nil.
func NewService(source Source, cacheSvc cache.Service, cacheTTL time.Duration, log *logger.Logger) Service {
	if cacheTTL <= 0 {
		cacheTTL = constants.TTL_AVAILABILITY
	}
	return &service{
		source:   source,
		cache:    cacheSvc,
		cacheTTL: cacheTTL,
		log:      log.WithComponent("availability"),
	}
}

func (s *service) List(ctx context.Context, entityID string) ([]Slot, error) {
	if s.cache == nil {
		return s.source.ListAvailability(ctx, entityID)
	}

	var slots []Slot
	err := s.cache.GetOrSet(ctx, constants.BuildAvailabilityKey(entityID), s.cacheTTL, func() (interface{}, error) {
		return s.source.ListAvailability(ctx, entityID)
	}, &slots)
	if err != nil {
		return nil, fmt.Errorf("failed to load availability for %s: %w", entityID, err)
	}
	return slots, nil
}

func (s *service) Lookup(ctx context.Context, entityID string, date time.Time) (*Slot, error) {
	slots, err := s.List(ctx, entityID)
	if err != nil {
		return nil, err
	}
	return findDate(slots, date)
}

func (s *service) LookupFresh(ctx context.Context, entityID string, date time.Time) (*Slot, error) {
	slots, err := s.source.ListAvailability(ctx, entityID)
	if err != nil {
		return nil, fmt.Errorf("failed to load availability for %s: %w", entityID, err)
	}
	return findDate(slots, date)
}

func (s *service) Invalidate(ctx context.Context, entityID string) error {
	if s.cache == nil {
		return nil
	}
	if err := s.cache.Delete(ctx, constants.BuildAvailabilityKey(entityID)); err != nil {
		s.log.WarnContext(ctx, "failed to invalidate availability cache",
			slog.String("entity_id", entityID), slog.String("error", err.Error()))
		return err
	}
	return nil
}

func findDate(slots []Slot, date time.Time) (*Slot, error) {
	key := date.Format(DateLayout)
	for i := range slots {
		if slots[i].DateKey() == key {
			return &slots[i], nil
		}
	}
	return nil, ErrUnavailable
}
