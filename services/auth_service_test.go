package services

import (
	"strings"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"

	"whisperline/auth"
	"whisperline/errors"
	"whisperline/repositories"
)

func newAuthService(t *testing.T) IAuthService {
	t.Helper()
	req := require.New(t)

	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	req.NoError(err)
	t.Cleanup(func() { _ = db.Close() })

	issuer := auth.NewTokenIssuer("test-secret", time.Hour)
	return NewAuthService(repositories.NewUserRepository(db), issuer)
}

func Test_Signup_Rejects_Invalid_Payload_Per_Field(t *testing.T) {
	svc := newAuthService(t)

	t.Run("malformed email", func(t *testing.T) {
		req := require.New(t)

		_, _, err := svc.Signup("not-an-email", "Alice", "LongEnough123!")

		// The rejection names the payload, not the password
		req.ErrorIs(err, errors.ErrInvalidPayload)
		req.NotContains(err.Error(), "invalid password")
		req.Contains(err.Error(), "Email")
	})

	t.Run("short full name", func(t *testing.T) {
		req := require.New(t)

		_, _, err := svc.Signup("alice@example.com", "A", "LongEnough123!")

		req.ErrorIs(err, errors.ErrInvalidPayload)
		req.Contains(err.Error(), "FullName")
	})

	t.Run("short password", func(t *testing.T) {
		req := require.New(t)

		_, _, err := svc.Signup("alice@example.com", "Alice", "short")

		req.ErrorIs(err, errors.ErrInvalidPayload)
		req.Contains(err.Error(), "Password")
	})
}

func Test_Signup_Hashes_Password_Before_Storing(t *testing.T) {
	req := require.New(t)
	svc := newAuthService(t)
	password := "LongEnough123!"

	token, user, err := svc.Signup("alice@example.com", "Alice", password)

	req.NoError(err)
	req.NotEmpty(token)
	req.NotEqual(password, user.PasswordHash)
	req.True(strings.HasPrefix(user.PasswordHash, "$argon2id$"))
}
