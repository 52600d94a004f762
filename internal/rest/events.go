package rest

import (
	"context"
	"net/http"
	"time"

	"myLearnCore/domain"
	"myLearnCore/pkg/logger"
	"myLearnCore/pkg/trace"

	"github.com/AMFarhan21/fres"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type (
	EventService interface {
		Append(ctx context.Context, eventType string, payload map[string]any) (domain.Event, error)
		List(ctx context.Context, limit int) ([]domain.Event, error)
		Streak(ctx context.Context) (int, error)
		Clear(ctx context.Context) error
	}

	EventHandler struct {
		eventService EventService
		validate     *validator.Validate
		timeout      time.Duration
	}

	AppendEventRequest struct {
		Type    string         `json:"type" validate:"required"`
		Payload map[string]any `json:"payload"`
	}

	ListEventsQuery struct {
		Limit int `query:"limit" validate:"gte=0"`
	}
)

func NewEventHandler(svc EventService) *EventHandler {
	return &EventHandler{
		eventService: svc,
		validate:     validator.New(),
		timeout:      10 * time.Second,
	}
}

// Append stamps the event with the caller's user id unless the payload
// already names one.
func (h *EventHandler) Append(c echo.Context) error {
	var req AppendEventRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if err := h.validate.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	if userID, ok := userIDFrom(c); ok {
		if req.Payload == nil {
			req.Payload = map[string]any{}
		}
		if _, set := req.Payload["userId"]; !set {
			req.Payload["userId"] = userID
		}
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	event, err := h.eventService.Append(ctx, req.Type, req.Payload)
	if err != nil {
		logger.Error("failed to append event", "trace_id", trace.TraceIDFromContext(ctx), "error", err)
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}
	return c.JSON(http.StatusCreated, fres.Response.StatusCreated(event))
}

func (h *EventHandler) List(c echo.Context) error {
	var q ListEventsQuery
	if err := c.Bind(&q); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if err := h.validate.Struct(&q); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	events, err := h.eventService.List(ctx, q.Limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}
	return c.JSON(http.StatusOK, fres.Response.StatusOK(events))
}

func (h *EventHandler) Streak(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	days, err := h.eventService.Streak(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}
	return c.JSON(http.StatusOK, fres.Response.StatusOK(map[string]int{"streakDays": days}))
}

func (h *EventHandler) Clear(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	if err := h.eventService.Clear(ctx); err != nil {
		logger.Error("failed to clear events", "trace_id", trace.TraceIDFromContext(ctx), "error", err)
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}
	return c.NoContent(http.StatusNoContent)
}
