package token_test

import (
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/skylens/go-api-client/token"
)

func TestJWTExpiryExtractsExpClaim(t *testing.T) {
	expiresAt := time.Date(2026, time.June, 1, 12, 0, 0, 0, time.UTC)
	accessToken := mintToken(t, expiresAt)

	got, err := token.NewJWTExpiry().ExpiresAt(accessToken)
	require.NoError(t, err)
	require.True(t, got.Equal(expiresAt))
}

func TestJWTExpiryRejectsMalformedToken(t *testing.T) {
	tests := []struct {
		name        string
		accessToken string
	}{
		{"empty", ""},
		{"not a jwt", "opaque-token-value"},
		{"garbage middle segment", "aGVhZGVy.!!!not-base64!!!.c2ln"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := token.NewJWTExpiry().ExpiresAt(tt.accessToken)
			require.Error(t, err)
		})
	}
}

func TestJWTExpiryRejectsTokenWithoutExp(t *testing.T) {
	signed, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, jwtlib.MapClaims{
		"sub": "user-1",
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = token.NewJWTExpiry().ExpiresAt(signed)
	require.Error(t, err)
}
