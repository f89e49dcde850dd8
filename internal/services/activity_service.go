package services

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/lmarban/tasklane-be/internal/models"
	"github.com/lmarban/tasklane-be/internal/websocket"
)

// ActivityServiceProvider defines the interface for activity services.
type ActivityServiceProvider interface {
	Record(userID, activityType, message string, taskID *string) error
	RecentForUser(userID string, limit int) ([]models.Activity, error)
}

// ActivityService keeps a per-user log of task mutations and pushes each
// entry to the owner's live websocket connections.
type ActivityService struct {
	db  *sql.DB
	hub *websocket.Hub
}

// NewActivityService creates a new ActivityService. hub may be nil when no
// live push is wanted (tests).
func NewActivityService(db *sql.DB, hub *websocket.Hub) *ActivityService {
	return &ActivityService{db: db, hub: hub}
}

// Record stores a new activity entry for userID and broadcasts it to that
// user's connections only.
func (s *ActivityService) Record(userID, activityType, message string, taskID *string) error {
	activity := models.Activity{
		ID:        uuid.New().String(),
		UserID:    userID,
		Type:      activityType,
		Message:   message,
		TaskID:    taskID,
		CreatedAt: time.Now().UTC(),
	}

	stmt, err := s.db.Prepare("INSERT INTO activities (id, user_id, type, message, task_id, created_at) VALUES (?, ?, ?, ?, ?, ?)")
	if err != nil {
		return err
	}
	defer stmt.Close()

	_, err = stmt.Exec(activity.ID, activity.UserID, activity.Type, activity.Message, activity.TaskID, activity.CreatedAt)
	if err != nil {
		return err
	}

	if s.hub != nil {
		s.hub.BroadcastTo(userID, websocket.Message{Action: "activity", Payload: activity}.Encode())
	}
	return nil
}

// RecentForUser retrieves the user's most recent activity entries.
func (s *ActivityService) RecentForUser(userID string, limit int) ([]models.Activity, error) {
	rows, err := s.db.Query(
		`SELECT id, user_id, type, message, task_id, created_at
		 FROM activities WHERE user_id = ?
		 ORDER BY created_at DESC, id DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	activities := []models.Activity{}
	for rows.Next() {
		var activity models.Activity
		if err := rows.Scan(&activity.ID, &activity.UserID, &activity.Type, &activity.Message,
			&activity.TaskID, &activity.CreatedAt); err != nil {
			return nil, err
		}
		activities = append(activities, activity)
	}
	return activities, rows.Err()
}
