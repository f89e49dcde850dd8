package services

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lmarban/tasklane-be/internal/models"
	"github.com/lmarban/tasklane-be/internal/validation"
	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength is the minimum accepted password length for registration.
const MinPasswordLength = 8

// RegisterInput is the payload accepted by Register. PasswordConfirm is
// compared and discarded; it is never persisted.
type RegisterInput struct {
	Username        string
	Email           string
	Password        string
	PasswordConfirm string
}

// UserServiceProvider defines the interface for user services.
type UserServiceProvider interface {
	Register(input RegisterInput) (models.User, error)
	Authenticate(username, password string) (models.User, error)
	GetUserByID(id string) (models.User, error)
}

// UserService provides business logic for account management.
type UserService struct {
	db *sql.DB
}

// NewUserService creates a new UserService.
func NewUserService(db *sql.DB) *UserService {
	return &UserService{db: db}
}

// Register validates the input and creates a new user with the password
// stored only as a bcrypt hash. Validation failures are returned as
// validation.Errors keyed by field.
func (s *UserService) Register(input RegisterInput) (models.User, error) {
	if errs, err := s.validateRegistration(input); err != nil {
		return models.User{}, err
	} else if len(errs) > 0 {
		return models.User{}, errs
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.User{
		ID:           uuid.New().String(),
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: string(hashedPassword),
		CreatedAt:    time.Now().UTC(),
	}

	stmt, err := s.db.Prepare("INSERT INTO users(id, username, email, password_hash, created_at) VALUES(?, ?, ?, ?, ?)")
	if err != nil {
		return models.User{}, err
	}
	defer stmt.Close()

	_, err = stmt.Exec(user.ID, user.Username, user.Email, user.PasswordHash, user.CreatedAt)
	if err != nil {
		return models.User{}, err
	}

	// Return user without password hash
	user.PasswordHash = ""
	return user, nil
}

// validateRegistration checks every field and collects all failures so that a
// single response can report them together.
func (s *UserService) validateRegistration(input RegisterInput) (validation.Errors, error) {
	errs := validation.Errors{}

	if strings.TrimSpace(input.Username) == "" {
		errs.Add("username", "this field is required")
	} else {
		taken, err := s.exists("SELECT COUNT(1) FROM users WHERE username = ?", input.Username)
		if err != nil {
			return nil, err
		}
		if taken {
			errs.Add("username", "a user with that username already exists")
		}
	}

	if input.Email == "" {
		errs.Add("email", "this field is required")
	} else if !validation.ValidEmail(input.Email) {
		errs.Add("email", "enter a valid email address")
	} else {
		taken, err := s.exists("SELECT COUNT(1) FROM users WHERE email = ?", input.Email)
		if err != nil {
			return nil, err
		}
		if taken {
			errs.Add("email", "a user with that email already exists")
		}
	}

	if input.Password == "" {
		errs.Add("password", "this field is required")
	} else if len(input.Password) < MinPasswordLength {
		errs.Add("password", fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
	}
	if input.Password != input.PasswordConfirm {
		errs.Add("password", "passwords do not match")
	}

	return errs, nil
}

func (s *UserService) exists(query string, args ...interface{}) (bool, error) {
	var count int
	if err := s.db.QueryRow(query, args...).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

// GetUserByID retrieves a single user by their ID.
func (s *UserService) GetUserByID(id string) (models.User, error) {
	var user models.User
	row := s.db.QueryRow("SELECT id, username, email, created_at FROM users WHERE id = ?", id)
	err := row.Scan(&user.ID, &user.Username, &user.Email, &user.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.User{}, ErrNotFound
		}
		return models.User{}, err
	}
	return user, nil
}

// Authenticate verifies a username/password pair. The caller cannot tell an
// unknown username apart from a wrong password.
func (s *UserService) Authenticate(username, password string) (models.User, error) {
	var user models.User
	row := s.db.QueryRow("SELECT id, username, email, password_hash, created_at FROM users WHERE username = ?", username)
	err := row.Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.User{}, ErrInvalidCredentials
		}
		return models.User{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return models.User{}, ErrInvalidCredentials
	}

	// Don't send the password hash to the client
	user.PasswordHash = ""
	return user, nil
}
