package venues

import (
	"time"

	"github.com/google/uuid"
)

type Kind string

const (
	KindVenue  Kind = "VENUE"
	KindVendor Kind = "VENDOR"
)

// Listing is a bookable venue or vendor
type Listing struct {
	ID          uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Kind        Kind      `gorm:"type:varchar(20);not null;index" json:"kind"`
	Name        string    `gorm:"not null" json:"name"`
	City        string    `gorm:"index" json:"city"`
	Description string    `json:"description"`

	// major units; the quoted price covers a 100-guest party
	BasePrice int64 `gorm:"not null" json:"basePrice"`
	Capacity  int   `gorm:"not null" json:"capacity"`

	PayeeID              uuid.UUID `gorm:"type:uuid;not null" json:"payeeId"`
	EscrowEnabled        bool      `gorm:"default:false" json:"escrowEnabled"`
	CommissionPercentage int       `gorm:"default:10" json:"commissionPercentage"`
	AutoReleaseDays      int       `gorm:"default:7" json:"autoReleaseDays"`

	IsActive  bool      `gorm:"default:true;index" json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Listing) TableName() string {
	return "listings"
}

// ListingFilters for paginated listing queries
type ListingFilters struct {
	Kind  string `form:"kind" binding:"omitempty,oneof=VENUE VENDOR"`
	City  string `form:"city"`
	Page  int    `form:"page,default=1" binding:"min=1"`
	Limit int    `form:"limit,default=20" binding:"min=1,max=100"`
}

type PaginatedListings struct {
	Listings   []Listing `json:"listings"`
	TotalCount int64     `json:"totalCount"`
	Page       int       `json:"page"`
	Limit      int       `json:"limit"`
	TotalPages int       `json:"totalPages"`
}
