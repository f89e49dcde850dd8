package services

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/lmarban/tasklane-be/internal/models"
	"github.com/lmarban/tasklane-be/internal/validation"
	"github.com/rs/zerolog/log"
)

// MaxTitleLength is the longest accepted task title.
const MaxTitleLength = 255

// TaskInput is the payload accepted by Create. Only these fields are
// client-assignable; id, owner and timestamps are always server-set.
type TaskInput struct {
	Title       string
	Description string
	Completed   bool
}

// TaskPatch is the payload accepted by Update. Nil fields keep their current
// value, so the same type serves PATCH and PUT.
type TaskPatch struct {
	Title       *string
	Description *string
	Completed   *bool
}

// TaskServiceProvider defines the interface for task services. Every method
// takes the owner's user ID as a mandatory scope: there is no way to reach a
// task without naming the owner it must belong to.
type TaskServiceProvider interface {
	ListForOwner(ownerID string) ([]models.Task, error)
	Create(ownerID string, input TaskInput) (models.Task, error)
	Get(ownerID, taskID string) (models.Task, error)
	Update(ownerID, taskID string, patch TaskPatch) (models.Task, error)
	Delete(ownerID, taskID string) error
}

// TaskService provides business logic for task management.
type TaskService struct {
	db       *sql.DB
	activity ActivityServiceProvider
}

// NewTaskService creates a new TaskService.
func NewTaskService(db *sql.DB, activity ActivityServiceProvider) *TaskService {
	return &TaskService{db: db, activity: activity}
}

// ListForOwner returns all of the owner's tasks, newest-created first.
func (s *TaskService) ListForOwner(ownerID string) ([]models.Task, error) {
	rows, err := s.db.Query(
		`SELECT id, title, description, completed, owner_id, created_at, updated_at
		 FROM tasks WHERE owner_id = ?
		 ORDER BY created_at DESC, id DESC`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := []models.Task{}
	for rows.Next() {
		var task models.Task
		if err := rows.Scan(&task.ID, &task.Title, &task.Description, &task.Completed,
			&task.OwnerID, &task.CreatedAt, &task.UpdatedAt); err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

// Create stores a new task owned by ownerID. Whatever owner the client may
// have claimed was discarded before this point; the scope argument is the
// only source of ownership.
func (s *TaskService) Create(ownerID string, input TaskInput) (models.Task, error) {
	title := strings.TrimSpace(input.Title)
	if errs := validateTitle(title); len(errs) > 0 {
		return models.Task{}, errs
	}

	now := time.Now().UTC()
	task := models.Task{
		ID:          uuid.New().String(),
		Title:       title,
		Description: input.Description,
		Completed:   input.Completed,
		OwnerID:     ownerID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	stmt, err := s.db.Prepare(
		"INSERT INTO tasks(id, title, description, completed, owner_id, created_at, updated_at) VALUES(?, ?, ?, ?, ?, ?, ?)")
	if err != nil {
		return models.Task{}, err
	}
	defer stmt.Close()

	_, err = stmt.Exec(task.ID, task.Title, task.Description, task.Completed,
		task.OwnerID, task.CreatedAt, task.UpdatedAt)
	if err != nil {
		return models.Task{}, err
	}

	s.recordActivity(ownerID, "task.created", fmt.Sprintf("Created task %q", task.Title), task.ID)
	return task, nil
}

// Get retrieves one task from the owner's set. A task owned by someone else
// is reported as missing, never as forbidden.
func (s *TaskService) Get(ownerID, taskID string) (models.Task, error) {
	var task models.Task
	row := s.db.QueryRow(
		`SELECT id, title, description, completed, owner_id, created_at, updated_at
		 FROM tasks WHERE id = ? AND owner_id = ?`, taskID, ownerID)
	err := row.Scan(&task.ID, &task.Title, &task.Description, &task.Completed,
		&task.OwnerID, &task.CreatedAt, &task.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Task{}, ErrNotFound
		}
		return models.Task{}, err
	}
	return task, nil
}

// Update applies a partial update to one of the owner's tasks and refreshes
// updated_at. Absent fields keep their stored value.
func (s *TaskService) Update(ownerID, taskID string, patch TaskPatch) (models.Task, error) {
	task, err := s.Get(ownerID, taskID)
	if err != nil {
		return models.Task{}, err
	}

	wasCompleted := task.Completed
	if patch.Title != nil {
		task.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Description != nil {
		task.Description = *patch.Description
	}
	if patch.Completed != nil {
		task.Completed = *patch.Completed
	}

	if errs := validateTitle(task.Title); len(errs) > 0 {
		return models.Task{}, errs
	}

	task.UpdatedAt = time.Now().UTC()
	_, err = s.db.Exec(
		"UPDATE tasks SET title = ?, description = ?, completed = ?, updated_at = ? WHERE id = ? AND owner_id = ?",
		task.Title, task.Description, task.Completed, task.UpdatedAt, task.ID, ownerID)
	if err != nil {
		return models.Task{}, err
	}

	activityType := "task.updated"
	if !wasCompleted && task.Completed {
		activityType = "task.completed"
	}
	s.recordActivity(ownerID, activityType, fmt.Sprintf("Updated task %q", task.Title), task.ID)
	return task, nil
}

// Delete permanently removes one of the owner's tasks.
func (s *TaskService) Delete(ownerID, taskID string) error {
	task, err := s.Get(ownerID, taskID)
	if err != nil {
		return err
	}

	res, err := s.db.Exec("DELETE FROM tasks WHERE id = ? AND owner_id = ?", taskID, ownerID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}

	s.recordActivity(ownerID, "task.deleted", fmt.Sprintf("Deleted task %q", task.Title), task.ID)
	return nil
}

// recordActivity logs the mutation to the activity feed. Failures must not
// fail the task operation itself.
func (s *TaskService) recordActivity(ownerID, activityType, message, taskID string) {
	if s.activity == nil {
		return
	}
	if err := s.activity.Record(ownerID, activityType, message, &taskID); err != nil {
		log.Error().Err(err).Str("user_id", ownerID).Str("type", activityType).Msg("Failed to record activity")
	}
}

func validateTitle(title string) validation.Errors {
	errs := validation.Errors{}
	if title == "" {
		errs.Add("title", "this field is required")
	} else if utf8.RuneCountInString(title) > MaxTitleLength {
		// The limit counts characters, not bytes.
		errs.Add("title", fmt.Sprintf("title must be at most %d characters", MaxTitleLength))
	}
	return errs
}
