package constants

import (
	"time"
)

// Redis key layout for the booking pipeline
// Pattern: wedbook:{module}:{operation}:{identifier}

// ================== CACHE TTL DURATIONS ==================

const (
	TTL_STATIC_SHORT     = 6 * time.Hour    // listing details
	TTL_SEMI_STATIC      = 1 * time.Hour    // booking detail
	TTL_DYNAMIC_SHORT    = 5 * time.Minute  // user booking lists
	TTL_REALTIME_SHORT   = 30 * time.Second // availability
	TTL_DRAFT_DEFAULT    = 2 * time.Hour
	TTL_PAY_LOCK_DEFAULT = 15 * time.Minute
)

// ================== REDIS KEY PREFIXES ==================

const (
	CACHE_PREFIX = "wedbook"
)

// ================== LISTINGS ==================

const (
	CACHE_KEY_LISTING_DETAIL = CACHE_PREFIX + ":listings:detail:uuid:" // + listing-id
	TTL_LISTING_DETAIL       = TTL_STATIC_SHORT
)

// ================== AVAILABILITY ==================

const (
	CACHE_KEY_AVAILABILITY = CACHE_PREFIX + ":availability:entity:" // + entity-id
	TTL_AVAILABILITY       = TTL_REALTIME_SHORT
)

// ================== BOOKINGS ==================

const (
	CACHE_KEY_DRAFT          = CACHE_PREFIX + ":bookings:draft:"      // + draft-id
	CACHE_KEY_DRAFT_LOCK     = CACHE_PREFIX + ":bookings:draft:lock:" // + draft-id
	CACHE_KEY_BOOKING_DETAIL = CACHE_PREFIX + ":bookings:detail:uuid:"
	CACHE_KEY_USER_BOOKINGS  = CACHE_PREFIX + ":bookings:user:uuid:" // + user-id

	TTL_BOOKING_DETAIL = TTL_SEMI_STATIC
	TTL_USER_BOOKINGS  = TTL_DYNAMIC_SHORT
)

// ================== RATE LIMITING ==================

const (
	CACHE_KEY_RATE_LIMIT = CACHE_PREFIX + ":ratelimit:" // + type:ip
)

// ================== HELPER FUNCTIONS ==================

func BuildListingDetailKey(listingID string) string {
	return CACHE_KEY_LISTING_DETAIL + listingID
}

func BuildAvailabilityKey(entityID string) string {
	return CACHE_KEY_AVAILABILITY + entityID
}

func BuildDraftKey(draftID string) string {
	return CACHE_KEY_DRAFT + draftID
}

func BuildDraftLockKey(draftID string) string {
	return CACHE_KEY_DRAFT_LOCK + draftID
}

func BuildBookingDetailKey(bookingID string) string {
	return CACHE_KEY_BOOKING_DETAIL + bookingID
}

func BuildUserBookingsKey(userID string) string {
	return CACHE_KEY_USER_BOOKINGS + userID
}

func BuildRateLimitKey(limitType, identifier string) string {
	return CACHE_KEY_RATE_LIMIT + limitType + ":" + identifier
}
