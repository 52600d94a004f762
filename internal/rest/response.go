package rest

import "github.com/labstack/echo/v4"

// ResponseError represent the response error struct
type ResponseError struct {
	Message string `json:"message"`
}

// userIDFrom reads the learner id AuthMiddleware stored on the context.
func userIDFrom(c echo.Context) (string, bool) {
	userID, ok := c.Get("user_id").(string)
	return userID, ok && userID != ""
}
