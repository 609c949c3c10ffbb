// internal/models/vendor_profile.go
package models

import (
	"time"

	"github.com/google/uuid"
)

type VendorStatus string

const (
	VendorPublished VendorStatus = "publish"
	VendorDraft     VendorStatus = "draft"
)

// VendorProfile links a worker to the orders placed against their bids.
type VendorProfile struct {
	ID     uuid.UUID    `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID uuid.UUID    `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`
	Title  string       `gorm:"type:varchar(120)" json:"title"`
	Status VendorStatus `gorm:"type:varchar(20);not null;default:'publish'" json:"status"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
