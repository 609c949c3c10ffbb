package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Role string

const (
	RoleRequester  Role = "requestor"
	RoleWorker     Role = "bee"
	RoleAdmin      Role = "admin"
	RoleSubscriber Role = "subscriber" // granted by registration until a marketplace role is chosen
)

// internal/models/user.go
type User struct {
	ID    uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name  string    `gorm:"type:varchar(120)" json:"name"`
	Login string    `gorm:"type:varchar(60);uniqueIndex;not null" json:"login"`
	Email string    `gorm:"uniqueIndex;not null" json:"email"`

	Password string `gorm:"not null" json:"-"`
	Role     Role   `gorm:"type:varchar(20);not null;index" json:"role"`
	IsActive bool   `gorm:"default:true" json:"is_active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	VendorProfile *VendorProfile `gorm:"foreignKey:UserID;references:ID" json:"vendor_profile,omitempty"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

func (u *User) IsAdmin() bool  { return u != nil && u.Role == RoleAdmin }
func (u *User) IsWorker() bool { return u != nil && u.Role == RoleWorker }

func (u *User) IsRequester() bool { return u != nil && u.Role == RoleRequester }

// DisplayName falls back to the login name when no display name was given.
func (u *User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return u.Login
}
