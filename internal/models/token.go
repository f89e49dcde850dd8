package models

import "time"

// RefreshToken is the server-side record of an issued refresh token. The JWT
// itself carries the ID; deleting the row revokes the token.
type RefreshToken struct {
	ID        string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}
