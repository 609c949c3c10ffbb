// internal/models/bid.go
package models

import (
	"time"

	"github.com/google/uuid"
)

type Bid struct {
	ID       uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	TaskID   uuid.UUID `gorm:"type:uuid;index;not null" json:"task_id"`
	WorkerID uuid.UUID `gorm:"type:uuid;index;not null" json:"worker_id"`

	Price   int64  `json:"price"` // euro cents
	Message string `gorm:"type:text" json:"message"`

	Approved        bool `gorm:"not null" json:"approved"`
	Accepted        bool `gorm:"default:false;index" json:"accepted"`
	SeenByTaskOwner bool `gorm:"default:false;index" json:"seen_by_task_owner"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Task   *Task `gorm:"foreignKey:TaskID" json:"task,omitempty"`
	Worker *User `gorm:"foreignKey:WorkerID" json:"worker,omitempty"`
}
