package models

import "time"

type Action string

const (
	ActionCreate Action = "create"
	ActionRename Action = "rename"
	ActionDelete Action = "delete"
)

// Activity is one journaled mutation attempt against the backend.
type Activity struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Action    Action    `gorm:"not null;index" json:"action"`
	SafeName  string    `gorm:"index" json:"safe_name"`
	Detail    string    `json:"detail"` // e.g. "Acme -> Acme Two"
	Success   bool      `json:"success"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}
