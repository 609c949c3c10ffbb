// internal/models/message.go
package models

import (
	"time"

	"github.com/google/uuid"
)

type MessageType string

const (
	MessageText   MessageType = "text"
	MessageSystem MessageType = "system"
)

const MessageTextMax = 2056

type Message struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	SenderID    uuid.UUID  `gorm:"type:uuid;index" json:"sender_id"`
	RecipientID uuid.UUID  `gorm:"type:uuid;index" json:"recipient_id"`
	TaskID      *uuid.UUID `gorm:"type:uuid;index" json:"task_id,omitempty"`
	// set only on the welcome message; unique so a bid is welcomed once
	BidID  *uuid.UUID  `gorm:"type:uuid;uniqueIndex" json:"bid_id,omitempty"`
	Type   MessageType `gorm:"type:varchar(20);default:'text'" json:"type"`
	Text   string      `gorm:"type:text" json:"text"`
	IsRead bool        `gorm:"default:false" json:"is_read"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Sender *User `gorm:"foreignKey:SenderID" json:"sender,omitempty"`
}
