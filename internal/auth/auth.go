// Package auth manages complaint desk accounts stored in users.csv.
//
// File layout:
//   - Header: username,password
//   - password holds a hex PBKDF2-HMAC-SHA256 digest (200,000 iterations,
//     application-wide salt)
//   - Older files may hold "salt$hash" with a per-user hex salt; those still
//     verify
//
// Accounts are only ever appended, using the same ledger as complaints.
package auth

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"log/slog"
	"strings"

	"golang.org/x/crypto/pbkdf2"

	cderrors "complaintdesk/internal/errors"
	"complaintdesk/internal/storage"
)

const (
	iterations = 200_000
	keyLength  = sha256.Size
)

// globalSalt is mixed into every new password hash.
var globalSalt = []byte("spandana_global_salt_v1")

// Header is the users file column set.
var Header = []string{"username", "password"}

// Session identifies the logged-in user for the lifetime of one dialogue.
type Session struct {
	Username     string
	PasswordHash string
}

// Anonymous reports whether no user is attached.
func (s Session) Anonymous() bool {
	return s.Username == ""
}

// HashPassword returns the hex digest stored for new accounts.
func HashPassword(password string) string {
	key := pbkdf2.Key([]byte(password), globalSalt, iterations, keyLength, sha256.New)
	return hex.EncodeToString(key)
}

// VerifyPassword checks password against a stored value in either format.
func VerifyPassword(password, stored string) bool {
	if stored == "" {
		return false
	}
	if saltHex, hashHex, legacy := strings.Cut(stored, "$"); legacy {
		salt, err := hex.DecodeString(saltHex)
		if err != nil {
			return false
		}
		key := pbkdf2.Key([]byte(password), salt, iterations, keyLength, sha256.New)
		return subtle.ConstantTimeCompare([]byte(hex.EncodeToString(key)), []byte(hashHex)) == 1
	}
	return subtle.ConstantTimeCompare([]byte(HashPassword(password)), []byte(stored)) == 1
}

// Store reads and appends accounts.
type Store struct {
	ledger *storage.Ledger
	log    *slog.Logger
}

// NewStore creates an account store at path.
func NewStore(path string, log *slog.Logger) *Store {
	if log == nil {
		log = slog.Default()
	}
	return &Store{
		ledger: storage.New(path, Header, log),
		log:    log,
	}
}

func (s *Store) lookup(ctx context.Context, username string) (string, bool, error) {
	rows, err := s.ledger.ReadAll(ctx)
	if err != nil {
		return "", false, err
	}
	for _, row := range rows {
		if len(row) == 0 || strings.TrimSpace(row[0]) != username {
			continue
		}
		stored := ""
		if len(row) > 1 {
			stored = strings.TrimSpace(row[1])
		}
		return stored, true, nil
	}
	return "", false, nil
}

// Exists reports whether username is registered.
func (s *Store) Exists(ctx context.Context, username string) (bool, error) {
	_, ok, err := s.lookup(ctx, username)
	return ok, err
}

// Create registers a new account.
//
// Returns:
//   - AuthError when the username is empty, taken, or the password is empty
//   - FileIOError when users.csv cannot be written
func (s *Store) Create(ctx context.Context, username, password string) (Session, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return Session{}, cderrors.NewAuthError(username, "username is required")
	}
	if password == "" {
		return Session{}, cderrors.NewAuthError(username, "password is required")
	}

	exists, err := s.Exists(ctx, username)
	if err != nil {
		return Session{}, err
	}
	if exists {
		return Session{}, cderrors.NewAuthError(username, "username already exists")
	}

	hash := HashPassword(password)
	if err := s.ledger.Append(ctx, []string{username, hash}); err != nil {
		return Session{}, err
	}
	s.log.Info("✓ Account created", "username", username)
	return Session{Username: username, PasswordHash: hash}, nil
}

// Login verifies credentials and returns a session.
func (s *Store) Login(ctx context.Context, username, password string) (Session, error) {
	username = strings.TrimSpace(username)
	stored, ok, err := s.lookup(ctx, username)
	if err != nil {
		return Session{}, err
	}
	if !ok || !VerifyPassword(password, stored) {
		return Session{}, cderrors.NewAuthError(username, "invalid username or password")
	}
	s.log.Info("🔐 Login successful", "username", username)
	return Session{Username: username, PasswordHash: stored}, nil
}
