package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// UserAttribute is a free-form key/value pair attached to a user. The value is
// stored as JSON so 1, "1" and true stay distinguishable when read back.
type UserAttribute struct {
	ID     uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_user_attr_key" json:"user_id"`
	Key    string         `gorm:"type:varchar(120);not null;uniqueIndex:idx_user_attr_key" json:"key"`
	Value  datatypes.JSON `gorm:"type:jsonb" json:"value"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
