package venues

type CreateListingRequest struct {
	Kind                 Kind   `json:"kind" binding:"required,oneof=VENUE VENDOR"`
	Name                 string `json:"name" binding:"required,min=3,max=255"`
	City                 string `json:"city" binding:"max=100"`
	Description          string `json:"description" binding:"max=2000"`
	BasePrice            int64  `json:"basePrice" binding:"required,min=1"`
	Capacity             int    `json:"capacity" binding:"required,min=1"`
	PayeeID              string `json:"payeeId" binding:"required,uuid"`
	EscrowEnabled        bool   `json:"escrowEnabled"`
	CommissionPercentage *int   `json:"commissionPercentage" binding:"omitempty,min=0,max=100"`
	AutoReleaseDays      *int   `json:"autoReleaseDays" binding:"omitempty,min=0,max=365"`
}

type UpdateListingRequest struct {
	Name                 *string `json:"name" binding:"omitempty,min=3,max=255"`
	Description          *string `json:"description" binding:"omitempty,max=2000"`
	BasePrice            *int64  `json:"basePrice" binding:"omitempty,min=1"`
	Capacity             *int    `json:"capacity" binding:"omitempty,min=1"`
	EscrowEnabled        *bool   `json:"escrowEnabled"`
	CommissionPercentage *int    `json:"commissionPercentage" binding:"omitempty,min=0,max=100"`
	AutoReleaseDays      *int    `json:"autoReleaseDays" binding:"omitempty,min=0,max=365"`
	IsActive             *bool   `json:"isActive"`
}
