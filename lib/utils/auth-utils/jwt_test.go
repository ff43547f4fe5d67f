package authutils

import (
	"testing"

	"org-portal-backend/config"
	"org-portal-backend/models"

	"github.com/stretchr/testify/require"
)

func initTestConfig() {
	conf := new(config.Configuration)
	conf.Auth.JWTSecret = "test-secret"
	conf.Auth.JWTExpireInSec = 60
	conf.Auth.JWTRefreshExpireInSec = 120
	config.Conf = conf
}

func TestJwt(t *testing.T) {
	initTestConfig()

	t.Run(`token round trip`, func(t *testing.T) {
		token, err := GetToken("user-1", "a@b.sa", "sess-1", true, models.AdminRole)
		require.Nil(t, err)

		claims, err := ParseToken(token, "test-secret")
		require.Nil(t, err)
		require.Equal(t, "user-1", ClaimString(claims, "sub"))
		require.Equal(t, "sess-1", ClaimString(claims, "sid"))
		require.Equal(t, "admin", ClaimString(claims, "role"))
		require.Equal(t, true, claims["admin"])
		require.Equal(t, AccessTokenType, ClaimString(claims, TokenTypeClaim))

		refresh, err := GetRefreshToken("user-1", "sess-1")
		require.Nil(t, err)
		claims, err = ParseToken(refresh, "test-secret")
		require.Nil(t, err)
		require.Equal(t, RefreshTokenType, ClaimString(claims, TokenTypeClaim))
	})

	t.Run(`wrong secret`, func(t *testing.T) {
		token, err := GetRefreshToken("user-1", "sess-1")
		require.Nil(t, err)
		_, err = ParseToken(token, "other-secret")
		require.NotNil(t, err)
	})

	t.Run(`password hash`, func(t *testing.T) {
		hash, err := HashPassword("secret")
		require.Nil(t, err)
		require.True(t, CheckPassword(hash, "secret"))
		require.False(t, CheckPassword(hash, "Secret"))
	})
}
