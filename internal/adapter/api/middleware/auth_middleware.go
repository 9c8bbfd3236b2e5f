package middleware

import (
	"context"
	"strings"

	"github.com/labstack/echo/v4"

	"convochat/pkg/errors"
	"convochat/pkg/response"
)

// ContextKeyUID is the echo context key holding the authenticated uid.
const ContextKeyUID = "uid"

type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (string, error)
}

type AuthMiddleware struct {
	verifier TokenVerifier
}

func NewAuthMiddleware(verifier TokenVerifier) *AuthMiddleware {
	return &AuthMiddleware{
		verifier: verifier,
	}
}

// Authenticate requires a Bearer ID token in the Authorization header.
func (m *AuthMiddleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authHeader := c.Request().Header.Get("Authorization")
		if authHeader == "" {
			return response.Error(c, errors.Unauthorized("Authorization header is required", nil))
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			return response.Error(c, errors.Unauthorized("Invalid authorization format", nil))
		}

		return m.authenticate(c, parts[1], next)
	}
}

// AuthenticateQuery accepts the ID token from the token query parameter,
// falling back to the Authorization header. Browsers cannot set headers on a
// websocket handshake.
func (m *AuthMiddleware) AuthenticateQuery(next echo.HandlerFunc) echo.HandlerFunc {
	header := m.Authenticate(next)
	return func(c echo.Context) error {
		token := c.QueryParam("token")
		if token == "" {
			return header(c)
		}
		return m.authenticate(c, token, next)
	}
}

func (m *AuthMiddleware) authenticate(c echo.Context, token string, next echo.HandlerFunc) error {
	uid, err := m.verifier.VerifyToken(c.Request().Context(), token)
	if err != nil || uid == "" {
		return response.Error(c, errors.Unauthorized("Invalid or expired token", err))
	}

	c.Set(ContextKeyUID, uid)
	return next(c)
}
