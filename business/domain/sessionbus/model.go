package sessionbus

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
)

// Session is one issued refresh token. Only the SHA-256 digest of the token
// is kept.
type Session struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	TenantID  uuid.UUID
	TokenHash string
	IPAddress string
	UserAgent string
	Revoked   bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Matches reports whether the refresh token is the one this session was
// recorded for.
func (s Session) Matches(refreshToken string) bool {
	return subtle.ConstantTimeCompare([]byte(s.TokenHash), []byte(hashToken(refreshToken))) == 1
}

// NewSession contains information needed to record a session.
type NewSession struct {
	UserID       uuid.UUID
	TenantID     uuid.UUID
	RefreshToken string
	IPAddress    string
	UserAgent    string
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
