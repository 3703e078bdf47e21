package token

import (
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

// ExpiryExtractor reports when an access credential expires. The manager's
// scheduling logic is agnostic to the credential format; swap the extractor
// to support non-JWT tokens.
type ExpiryExtractor interface {
	ExpiresAt(token string) (time.Time, error)
}

// JWTExpiry extracts the exp claim from a JWT without verifying the
// signature. Verification is the server's job; the client only needs the
// expiry to schedule proactive refreshes.
type JWTExpiry struct {
	parser *jwtlib.Parser
}

// NewJWTExpiry creates a JWT-based expiry extractor.
func NewJWTExpiry() *JWTExpiry {
	return &JWTExpiry{parser: jwtlib.NewParser()}
}

// ExpiresAt returns the token's exp claim as a time.
func (j *JWTExpiry) ExpiresAt(token string) (time.Time, error) {
	claims := jwtlib.MapClaims{}
	if _, _, err := j.parser.ParseUnverified(token, claims); err != nil {
		return time.Time{}, errors.Wrap(err, "parse access token")
	}
	exp, err := claims.GetExpirationTime()
	if err != nil {
		return time.Time{}, errors.Wrap(err, "read exp claim")
	}
	if exp == nil {
		return time.Time{}, errors.New("access token has no exp claim")
	}
	return exp.Time, nil
}
