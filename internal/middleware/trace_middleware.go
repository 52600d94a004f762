package middleware

import (
	"myLearnCore/pkg/trace"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// TraceMiddleware reuses an incoming X-Request-ID or mints one, then carries it
// on the request context for the service loggers.
func TraceMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := c.Request().Header.Get(echo.HeaderXRequestID)
			if id == "" {
				id = uuid.NewString()
			}

			req := c.Request()
			c.SetRequest(req.WithContext(trace.WithTraceID(req.Context(), id)))
			c.Response().Header().Set(echo.HeaderXRequestID, id)

			return next(c)
		}
	}
}
