package middleware

import (
	"errors"
	"net/http"
	"strings"

	"myLearnCore/pkg/logger"
	jsonres "myLearnCore/pkg/response"
	"myLearnCore/pkg/trace"

	"github.com/labstack/echo/v4"
)

// ErrorHandler renders errors that escaped the handlers as response envelopes.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	message := http.StatusText(code)

	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		if msg, ok := he.Message.(string); ok {
			message = msg
		} else {
			message = http.StatusText(code)
		}
	}

	if code >= http.StatusInternalServerError {
		logger.Error("unhandled request error",
			"trace_id", trace.TraceIDFromContext(c.Request().Context()),
			"path", c.Path(),
			"error", err,
		)
	}

	errCode := strings.ToUpper(strings.ReplaceAll(http.StatusText(code), " ", "_"))
	if errCode == "" {
		errCode = "ERROR"
	}

	var sendErr error
	if c.Request().Method == http.MethodHead {
		sendErr = c.NoContent(code)
	} else {
		sendErr = c.JSON(code, jsonres.Error(errCode, message, nil))
	}
	if sendErr != nil {
		logger.Error("failed to write error response", "error", sendErr)
	}
}
