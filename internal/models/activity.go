package models

import "time"

// Activity records an action taken by a user, e.g. "task.created".
type Activity struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	TaskID    *string   `json:"task_id,omitempty"` // Nullable; the task may since be deleted
	CreatedAt time.Time `json:"created_at"`
	UserID    string    `json:"-"`
}
