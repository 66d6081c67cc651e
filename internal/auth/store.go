package auth

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/text/unicode/norm"
	"gorm.io/gorm"
)

// dummyHash is compared against when the username is unknown so that lookup
// misses cost roughly the same as a real password check.
var dummyHash = []byte("$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy")

// Store owns users and sessions. It wraps an explicitly passed database
// handle and the configured session lifetime.
type Store struct {
	DB  *gorm.DB
	TTL time.Duration
}

func NewStore(db *gorm.DB, ttl time.Duration) *Store {
	return &Store{DB: db, TTL: ttl}
}

// CanonicalUsername trims, lowercases and NFKC-normalizes a username so
// visually identical names map to one account.
func CanonicalUsername(name string) string {
	return norm.NFKC.String(strings.ToLower(strings.TrimSpace(name)))
}

// Register creates a new user and returns its id. The username unique index
// is the only duplicate check, so concurrent registrations race safely and
// at most one wins.
func (s *Store) Register(username, password string) (string, error) {
	username = CanonicalUsername(username)
	if username == "" || password == "" {
		return "", errors.New("username and password are required")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}

	user := User{
		UserID:         uuid.NewString(),
		Username:       username,
		HashedPassword: string(hashed),
	}
	if err := s.DB.Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return "", ErrDuplicateUsername
		}
		return "", fmt.Errorf("create user: %w", err)
	}
	return user.UserID, nil
}

// Verify checks a username/password pair and returns the user id. Unknown
// usernames and wrong passwords are indistinguishable to the caller.
func (s *Store) Verify(username, password string) (string, error) {
	username = CanonicalUsername(username)

	var user User
	err := s.DB.First(&user, "username = ?", username).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
			return "", ErrInvalidCredentials
		}
		return "", fmt.Errorf("lookup user: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(password)) != nil {
		return "", ErrInvalidCredentials
	}
	return user.UserID, nil
}

// CreateSession issues a fresh token for the user with the configured TTL.
func (s *Store) CreateSession(userID string) (string, error) {
	token, err := newToken()
	if err != nil {
		return "", err
	}
	session := Session{
		Token:     token,
		UserID:    userID,
		ExpiresAt: time.Now().Add(s.TTL),
	}
	if err := s.DB.Create(&session).Error; err != nil {
		return "", fmt.Errorf("create session: %w", err)
	}
	return token, nil
}

// ValidateSession resolves a token to its user id. Existence, revocation and
// expiry are checked in that order; all three failures collapse into
// ErrSessionInvalid. Expiry is decided purely by timestamp comparison, so a
// token the sweep has not reclaimed yet still fails here.
func (s *Store) ValidateSession(token string) (string, error) {
	var session Session
	err := s.DB.First(&session, "token = ?", token).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrSessionInvalid
		}
		return "", fmt.Errorf("lookup session: %w", err)
	}
	if session.Revoked {
		return "", ErrSessionInvalid
	}
	if session.ExpiresAt.Before(time.Now()) {
		return "", ErrSessionInvalid
	}
	return session.UserID, nil
}

// RevokeSession marks a token revoked. Revoking a token twice, or a token
// that never existed, is a no-op.
func (s *Store) RevokeSession(token string) error {
	return s.DB.Model(&Session{}).Where("token = ?", token).Update("revoked", true).Error
}

// SweepExpired deletes expired and revoked session rows. Validation never
// depends on the sweep; this exists purely to reclaim storage.
func (s *Store) SweepExpired() (int64, error) {
	res := s.DB.Where("expires_at < ? OR revoked = ?", time.Now(), true).Delete(&Session{})
	return res.RowsAffected, res.Error
}

// newToken returns 32 bytes from crypto/rand, base64url-encoded.
func newToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
