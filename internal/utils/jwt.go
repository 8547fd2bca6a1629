package utils // package utils provides helper functions for token creation and hashing

import (
	"time" // time utilities for generating expirations

	"github.com/golang-jwt/jwt/v5" // JWT library for creating signed tokens
	"github.com/google/uuid"       // uuid generates unique token identifiers
)

// AccessToken represents a signed JWT access token along with its
// identifier and expiry. The Token field contains the JWT string. ID
// is the jti claim, which the logout flow records in the revocation
// set; Exp stores the expiration as a time.Time so handlers can
// compute the remaining lifetime without re-parsing the token.
type AccessToken struct {
	Token string    // the serialized JWT string
	ID    string    // the jti claim (uuid)
	Exp   time.Time // the UTC expiration time
}

// NewAccessToken builds and signs an HS256 JWT for a user. It takes
// the signing secret, the user ID, the admin flag, and a TTL in
// minutes. The JWT carries the claims the middleware relies on:
// subject (sub), admin flag (adm), token id (jti), expiration (exp)
// and issued at (iat).
func NewAccessToken(secret string, userID uint64, isAdmin bool, ttlMin int) (AccessToken, error) {
	now := time.Now().UTC()
	exp := now.Add(time.Duration(ttlMin) * time.Minute)
	jti := uuid.NewString()
	claims := jwt.MapClaims{
		"sub": userID,
		"adm": isAdmin,
		"jti": jti,
		"exp": exp.Unix(),
		"iat": now.Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, ID: jti, Exp: exp}, nil
}
