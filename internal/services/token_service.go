package services

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lmarban/tasklane-be/internal/auth"
	"github.com/lmarban/tasklane-be/internal/models"
)

// TokenPair is the response body of a successful credential exchange.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// TokenServiceProvider defines the interface for token services.
type TokenServiceProvider interface {
	IssuePair(user models.User) (TokenPair, error)
	Refresh(refreshToken string) (string, error)
	PurgeExpired() (int64, error)
}

// TokenService issues access/refresh token pairs. Refresh tokens are JWTs
// whose ID is also recorded server-side, so deleting the row revokes the
// token before its expiry.
type TokenService struct {
	db    *sql.DB
	jwt   *auth.Manager
	users UserServiceProvider
}

// NewTokenService creates a new TokenService.
func NewTokenService(db *sql.DB, jwtManager *auth.Manager, users UserServiceProvider) *TokenService {
	return &TokenService{db: db, jwt: jwtManager, users: users}
}

// IssuePair creates an access token and a persisted refresh token for user.
func (s *TokenService) IssuePair(user models.User) (TokenPair, error) {
	access, err := s.jwt.GenerateAccessToken(user)
	if err != nil {
		return TokenPair{}, err
	}

	tokenID := uuid.New().String()
	refresh, err := s.jwt.GenerateRefreshToken(user.ID, tokenID)
	if err != nil {
		return TokenPair{}, err
	}

	now := time.Now().UTC()
	_, err = s.db.Exec(
		"INSERT INTO refresh_tokens(id, user_id, expires_at, created_at) VALUES(?, ?, ?, ?)",
		tokenID, user.ID, now.Add(s.jwt.RefreshTTL()), now,
	)
	if err != nil {
		return TokenPair{}, err
	}

	return TokenPair{Access: access, Refresh: refresh}, nil
}

// Refresh exchanges a valid refresh token for a new access token. The token
// must carry a valid signature, be unexpired, be of refresh type, and still
// be present server-side.
func (s *TokenService) Refresh(refreshToken string) (string, error) {
	claims, err := s.jwt.ValidateToken(refreshToken)
	if err != nil {
		return "", ErrInvalidCredentials
	}
	if claims.TokenType != auth.TokenTypeRefresh || claims.ID == "" {
		return "", ErrInvalidCredentials
	}

	var stored models.RefreshToken
	row := s.db.QueryRow("SELECT id, user_id, expires_at FROM refresh_tokens WHERE id = ?", claims.ID)
	if err := row.Scan(&stored.ID, &stored.UserID, &stored.ExpiresAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrInvalidCredentials
		}
		return "", err
	}
	if time.Now().After(stored.ExpiresAt) {
		return "", ErrInvalidCredentials
	}

	user, err := s.users.GetUserByID(stored.UserID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", err
	}

	return s.jwt.GenerateAccessToken(user)
}

// Revoke deletes a stored refresh token by its ID, invalidating it ahead of
// expiry.
func (s *TokenService) Revoke(tokenID string) error {
	_, err := s.db.Exec("DELETE FROM refresh_tokens WHERE id = ?", tokenID)
	return err
}

// PurgeExpired removes refresh tokens whose expiry has passed and returns how
// many rows were deleted.
func (s *TokenService) PurgeExpired() (int64, error) {
	res, err := s.db.Exec("DELETE FROM refresh_tokens WHERE expires_at < ?", time.Now().UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
