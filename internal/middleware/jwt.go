package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
	"context"  // context carries request deadlines into the revocation lookup
	"net/http" // HTTP status codes for responses
	"strings"  // string utilities for prefix checking and trimming
	"time"     // expiry conversion for downstream handlers

	"github.com/golang-jwt/jwt/v5" // JWT library for parsing and validating tokens
	"github.com/labstack/echo/v4"  // Echo framework used for defining middleware and handlers
)

// RevocationChecker answers whether a token id has been revoked. The
// redis-backed blacklist in the repository package implements it; a
// nil checker disables revocation lookups entirely.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// JWTAuth returns an Echo middleware that validates a Bearer access
// token, rejects revoked tokens, and injects the resolved identity
// into the request context. Handlers read it via c.Get("user_id")
// (uint64), c.Get("is_admin") (bool), c.Get("jti") (string) and
// c.Get("token_exp") (time.Time). The provided secret must match the
// one used when issuing tokens.
func JWTAuth(secret string, revoked RevocationChecker) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			raw := strings.TrimPrefix(auth, "Bearer ")

			// Parse with HS256 and our secret; reject any other
			// signing method before touching the key.
			tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, echo.ErrUnauthorized
				}
				return []byte(secret), nil
			})
			if err != nil || !tok.Valid {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}
			claims, ok := tok.Claims.(jwt.MapClaims)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid claims"})
			}

			sub, ok := claims["sub"].(float64)
			if !ok || sub <= 0 {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid claims"})
			}
			jti, _ := claims["jti"].(string)
			isAdmin, _ := claims["adm"].(bool)

			// A logged-out token stays syntactically valid until it
			// expires; the revocation set is what actually ends the
			// session.
			if revoked != nil && jti != "" {
				hit, err := revoked.IsRevoked(c.Request().Context(), jti)
				if err != nil {
					return c.JSON(http.StatusInternalServerError, echo.Map{"error": "revocation check failed"})
				}
				if hit {
					return c.JSON(http.StatusUnauthorized, echo.Map{"error": "token revoked"})
				}
			}

			c.Set("user_id", uint64(sub))
			c.Set("is_admin", isAdmin)
			c.Set("jti", jti)
			if exp, ok := claims["exp"].(float64); ok {
				c.Set("token_exp", time.Unix(int64(exp), 0).UTC())
			}
			return next(c)
		}
	}
}
