//go:build !integration

package middleware_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"myLearnCore/internal/middleware"
	"myLearnCore/pkg/trace"
	"myLearnCore/pkg/utils"

	"github.com/goccy/go-json"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func okHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"user_id": c.Get("user_id"),
		"role":    c.Get("role"),
	})
}

func serve(e *echo.Echo, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestAuthMiddleware(t *testing.T) {
	utils.SetJWTSecret("middleware-secret")
	valid, err := utils.GenerateJWT("learner-7", "USER", time.Hour)
	require.NoError(t, err)

	e := echo.New()
	e.GET("/me", okHandler, middleware.AuthMiddleware())

	tests := []struct {
		name   string
		header string
		status int
	}{
		{name: "missing header", header: "", status: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic abc", status: http.StatusUnauthorized},
		{name: "bad token", header: "Bearer nope", status: http.StatusUnauthorized},
		{name: "valid", header: "Bearer " + valid, status: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set(echo.HeaderAuthorization, tt.header)
			}
			rec := serve(e, req)
			assert.Equal(t, tt.status, rec.Code)
			if tt.status == http.StatusOK {
				var body map[string]any
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
				assert.Equal(t, "learner-7", body["user_id"])
			}
		})
	}
}

func TestAdminKeyMiddleware(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("operator-key"), bcrypt.MinCost)
	require.NoError(t, err)

	e := echo.New()
	e.DELETE("/admin", okHandler, middleware.AdminKeyMiddleware(string(hash)))
	e.DELETE("/locked", okHandler, middleware.AdminKeyMiddleware(""))

	tests := []struct {
		name   string
		path   string
		key    string
		status int
	}{
		{name: "missing key", path: "/admin", status: http.StatusUnauthorized},
		{name: "wrong key", path: "/admin", key: "guess", status: http.StatusForbidden},
		{name: "valid key", path: "/admin", key: "operator-key", status: http.StatusOK},
		{name: "no hash configured", path: "/locked", key: "operator-key", status: http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodDelete, tt.path, nil)
			if tt.key != "" {
				req.Header.Set(middleware.HeaderAdminKey, tt.key)
			}
			assert.Equal(t, tt.status, serve(e, req).Code)
		})
	}
}

func TestTraceMiddleware(t *testing.T) {
	e := echo.New()
	e.Use(middleware.TraceMiddleware())
	e.GET("/trace", func(c echo.Context) error {
		return c.String(http.StatusOK, trace.TraceIDFromContext(c.Request().Context()))
	})

	t.Run("propagates incoming id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/trace", nil)
		req.Header.Set(echo.HeaderXRequestID, "req-123")
		rec := serve(e, req)
		assert.Equal(t, "req-123", rec.Body.String())
		assert.Equal(t, "req-123", rec.Header().Get(echo.HeaderXRequestID))
	})

	t.Run("mints an id", func(t *testing.T) {
		rec := serve(e, httptest.NewRequest(http.MethodGet, "/trace", nil))
		assert.NotEmpty(t, rec.Body.String())
		assert.Equal(t, rec.Body.String(), rec.Header().Get(echo.HeaderXRequestID))
	})
}

func TestErrorHandler(t *testing.T) {
	e := echo.New()
	e.HTTPErrorHandler = middleware.ErrorHandler
	e.GET("/boom", func(c echo.Context) error { return errors.New("boom") })
	e.GET("/teapot", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusTeapot, "short and stout")
	})

	rec := serve(e, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"success":false,"error":{"code":"INTERNAL_SERVER_ERROR","message":"Internal Server Error"}}`, rec.Body.String())

	rec = serve(e, httptest.NewRequest(http.MethodGet, "/teapot", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.JSONEq(t, `{"success":false,"error":{"code":"I'M_A_TEAPOT","message":"short and stout"}}`, rec.Body.String())

	rec = serve(e, httptest.NewRequest(http.MethodGet, "/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), `"code":"NOT_FOUND"`)
}
