package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/crypto/pbkdf2"

	cderrors "complaintdesk/internal/errors"
	"complaintdesk/internal/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "users.csv")
	return NewStore(path, logger.Discard()), path
}

func TestHashPasswordIsDeterministic(t *testing.T) {
	h := HashPassword("secret")
	assert.Len(t, h, 64)
	assert.Equal(t, h, HashPassword("secret"))
	assert.NotEqual(t, h, HashPassword("Secret"))
}

func TestVerifyPassword(t *testing.T) {
	assert.True(t, VerifyPassword("secret", HashPassword("secret")))
	assert.False(t, VerifyPassword("wrong", HashPassword("secret")))
	assert.False(t, VerifyPassword("secret", ""))

	salt := []byte{0x01, 0x02, 0x03, 0x04}
	key := pbkdf2.Key([]byte("legacy"), salt, iterations, keyLength, sha256.New)
	legacy := hex.EncodeToString(salt) + "$" + hex.EncodeToString(key)
	assert.True(t, VerifyPassword("legacy", legacy))
	assert.False(t, VerifyPassword("other", legacy))
	assert.False(t, VerifyPassword("legacy", "zz$"+hex.EncodeToString(key)))
}

func TestCreateAndLogin(t *testing.T) {
	ctx := context.Background()
	store, path := newTestStore(t)

	session, err := store.Create(ctx, "ravi", "secret")
	require.NoError(t, err)
	assert.Equal(t, "ravi", session.Username)
	assert.Equal(t, HashPassword("secret"), session.PasswordHash)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "username,password\nravi,"+HashPassword("secret")+"\n", string(data))
	assert.NotContains(t, string(data), ",secret")

	loggedIn, err := store.Login(ctx, "ravi", "secret")
	require.NoError(t, err)
	assert.Equal(t, session, loggedIn)
	assert.False(t, loggedIn.Anonymous())
}

func TestCreateRejectsDuplicatesAndBlanks(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	_, err := store.Create(ctx, "ravi", "secret")
	require.NoError(t, err)

	_, err = store.Create(ctx, "ravi", "another")
	assert.True(t, cderrors.IsAuth(err))

	_, err = store.Create(ctx, "  ", "pw")
	assert.True(t, cderrors.IsAuth(err))

	_, err = store.Create(ctx, "sita", "")
	assert.True(t, cderrors.IsAuth(err))
}

func TestLoginFailures(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)
	_, err := store.Create(ctx, "ravi", "secret")
	require.NoError(t, err)

	_, err = store.Login(ctx, "ravi", "wrong")
	assert.True(t, cderrors.IsAuth(err))

	_, err = store.Login(ctx, "nobody", "secret")
	assert.True(t, cderrors.IsAuth(err))
}

func TestLoginAgainstLegacyFile(t *testing.T) {
	ctx := context.Background()
	store, path := newTestStore(t)

	salt := []byte("0123456789abcdef")
	key := pbkdf2.Key([]byte("old-pass"), salt, iterations, keyLength, sha256.New)
	content := "username,password\nsita," + hex.EncodeToString(salt) + "$" + hex.EncodeToString(key) + "\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	session, err := store.Login(ctx, "sita", "old-pass")
	require.NoError(t, err)
	assert.Equal(t, "sita", session.Username)
}

func TestAnonymousSession(t *testing.T) {
	assert.True(t, Session{}.Anonymous())
}
