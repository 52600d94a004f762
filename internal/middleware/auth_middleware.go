package middleware

import (
	"net/http"
	"strings"
	"time"

	"myLearnCore/pkg/logger"
	jsonres "myLearnCore/pkg/response"
	"myLearnCore/pkg/trace"
	"myLearnCore/pkg/utils"

	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"
)

const HeaderAdminKey = "X-Admin-Key"

// AuthMiddleware validates the bearer token and stores user_id, role and token
// on the echo context.
func AuthMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				return c.JSON(http.StatusUnauthorized, jsonres.Error(
					"UNAUTHORIZED", "Missing authorization header", nil,
				))
			}

			tokenParts := strings.Split(authHeader, " ")
			if len(tokenParts) != 2 || tokenParts[0] != "Bearer" {
				return c.JSON(http.StatusUnauthorized, jsonres.Error(
					"UNAUTHORIZED", "Invalid authorization format", nil,
				))
			}

			tokenString := tokenParts[1]

			claims, err := utils.ParseJWT(tokenString)
			if err != nil {
				logger.Debug("rejected bearer token",
					"trace_id", trace.TraceIDFromContext(c.Request().Context()),
					"error", err,
				)
				return c.JSON(http.StatusUnauthorized, jsonres.Error(
					"UNAUTHORIZED", "Invalid token", nil,
				))
			}

			expAt, err := claims.GetExpirationTime()
			if err != nil || expAt == nil {
				return c.JSON(http.StatusForbidden, jsonres.Error(
					"FORBIDDEN", "Status Forbidden", nil,
				))
			}

			if time.Now().After(expAt.Time) {
				return c.JSON(http.StatusForbidden, jsonres.Error(
					"FORBIDDEN", "Token expired", nil,
				))
			}

			c.Set("user_id", claims.UserID)
			c.Set("role", claims.Role)
			c.Set("token", tokenString)

			return next(c)
		}
	}
}

// AdminKeyMiddleware guards operator routes with a bcrypt-hashed shared key.
// An empty hash rejects every request.
func AdminKeyMiddleware(keyHash string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := c.Request().Header.Get(HeaderAdminKey)
			if key == "" {
				return c.JSON(http.StatusUnauthorized, jsonres.Error(
					"UNAUTHORIZED", "Missing admin key", nil,
				))
			}

			if keyHash == "" || bcrypt.CompareHashAndPassword([]byte(keyHash), []byte(key)) != nil {
				logger.Warn("invalid admin key",
					"trace_id", trace.TraceIDFromContext(c.Request().Context()),
					"path", c.Path(),
				)
				return c.JSON(http.StatusForbidden, jsonres.Error(
					"FORBIDDEN", "Admin access required", nil,
				))
			}

			c.Set("role", "ADMIN")
			return next(c)
		}
	}
}
