// internal/models/task.go
package models

import (
	"time"

	"github.com/google/uuid"
)

type TaskStatus string

const (
	TaskDraft     TaskStatus = "draft"
	TaskPublished TaskStatus = "publish"
	TaskPrivate   TaskStatus = "private" // settled: a bid on it was paid for
)

const (
	TaskTitleMax       = 60
	TaskDescriptionMax = 800
)

type Task struct {
	ID          uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OwnerID     uuid.UUID  `gorm:"type:uuid;index;not null" json:"owner_id"`
	Title       string     `gorm:"type:varchar(60);not null" json:"title"`
	Description string     `gorm:"type:text" json:"description"`
	Category    string     `gorm:"type:varchar(80);index" json:"category"`
	City        string     `gorm:"type:varchar(80);index" json:"city"`
	Budget      int64      `json:"budget"` // euro cents
	TaskDate    *time.Time `json:"task_date,omitempty"`
	Status      TaskStatus `gorm:"type:varchar(20);not null;default:'publish';index" json:"status"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Owner *User `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	Bids  []Bid `gorm:"foreignKey:TaskID" json:"bids,omitempty"`
}

// Expired reports whether the scheduled date has passed.
func (t *Task) Expired(now time.Time) bool {
	return t.TaskDate != nil && t.TaskDate.Before(now)
}
