package auth

import (
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func Test_Token_Roundtrip(t *testing.T) {
	req := require.New(t)
	issuer := NewTokenIssuer("test-secret", 7*24*time.Hour)
	userID := uuid.NewString()

	// When a token is generated and validated
	token, err := issuer.Generate(userID)
	req.NoError(err)
	claims, err := issuer.Validate(token)
	req.NoError(err)

	// Then it carries the identity it was issued for
	req.Equal(userID, claims.UserID)
	req.Equal("whisperline", claims.Issuer)
}

func Test_Token_Wrong_Secret(t *testing.T) {
	req := require.New(t)
	issuer := NewTokenIssuer("test-secret", time.Hour)
	other := NewTokenIssuer("other-secret", time.Hour)

	token, err := issuer.Generate(uuid.NewString())
	req.NoError(err)

	_, err = other.Validate(token)
	req.Error(err)
}

func Test_Token_Expired(t *testing.T) {
	req := require.New(t)
	issuer := NewTokenIssuer("test-secret", -time.Minute)

	token, err := issuer.Generate(uuid.NewString())
	req.NoError(err)

	_, err = issuer.Validate(token)
	req.Error(err)
}

func Test_Session_Cookie_Attributes(t *testing.T) {
	req := require.New(t)
	issuer := NewTokenIssuer("test-secret", 7*24*time.Hour)

	cookie := issuer.SessionCookie("signed-token", false)

	// Then the cookie is scoped the way the browser must see it
	req.Equal(CookieName, cookie.Name)
	req.Equal("signed-token", cookie.Value)
	req.True(cookie.HttpOnly)
	req.Equal(http.SameSiteStrictMode, cookie.SameSite)
	req.Equal(int((7 * 24 * time.Hour).Seconds()), cookie.MaxAge)

	expired := ExpiredCookie()
	req.Equal(CookieName, expired.Name)
	req.Negative(expired.MaxAge)
}

func Test_Password_Hash_And_Compare(t *testing.T) {
	req := require.New(t)
	password := "correct horse battery staple"

	hash, err := HashPassword(password)
	req.NoError(err)
	req.NotContains(hash, password)

	match, err := ComparePassword(password, hash)
	req.NoError(err)
	req.True(match)

	match, err = ComparePassword("wrong password", hash)
	req.NoError(err)
	req.False(match)
}

func Test_Password_Hashes_Are_Salted(t *testing.T) {
	req := require.New(t)

	hash1, err := HashPassword("same password")
	req.NoError(err)
	hash2, err := HashPassword("same password")
	req.NoError(err)

	req.NotEqual(hash1, hash2)
}

func Test_Compare_Rejects_Malformed_Hash(t *testing.T) {
	req := require.New(t)

	_, err := ComparePassword("anything", "not-an-encoded-hash")
	req.Error(err)
}
