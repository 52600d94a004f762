package rest

import (
	"context"
	"errors"
	"net/http"
	"time"

	"myLearnCore/business/experiment"
	"myLearnCore/domain"
	"myLearnCore/pkg/logger"
	"myLearnCore/pkg/trace"

	"github.com/AMFarhan21/fres"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type (
	ExperimentService interface {
		CreateTest(ctx context.Context, def domain.Experiment) (string, error)
		GetVariant(ctx context.Context, experimentID, userID string) (*domain.Variant, error)
		RecordResult(ctx context.Context, experimentID, variantID, userID string, metrics map[string]float64) error
		GetTestStats(ctx context.Context, experimentID string) ([]domain.VariantStats, error)
		UpdateTestStatus(ctx context.Context, experimentID string, status domain.ExperimentStatus) error
		GetActiveTests(ctx context.Context) ([]domain.Experiment, error)
		GetUserConfig(ctx context.Context, userID, key string) (any, bool, error)
		GetExperiment(ctx context.Context, experimentID string) (domain.Experiment, error)
		ClearAllData(ctx context.Context) error
	}

	ExperimentHandler struct {
		experimentService ExperimentService
		validate          *validator.Validate
		timeout           time.Duration
	}

	CreateExperimentRequest struct {
		Name              string                    `json:"name" validate:"required"`
		Description       string                    `json:"description"`
		Status            domain.ExperimentStatus   `json:"status" validate:"required,oneof=active paused completed"`
		StartDate         *time.Time                `json:"startDate"`
		EndDate           *time.Time                `json:"endDate"`
		Variants          []VariantRequest          `json:"variants" validate:"required,min=1,dive"`
		Metrics           []domain.ExperimentMetric `json:"metrics"`
		TargetAudience    domain.TargetAudience     `json:"targetAudience"`
		TrafficAllocation float64                   `json:"trafficAllocation" validate:"gte=0,lte=100"`
	}

	VariantRequest struct {
		ID                string         `json:"id" validate:"required"`
		Name              string         `json:"name"`
		Description       string         `json:"description"`
		Config            map[string]any `json:"config"`
		TrafficPercentage float64        `json:"trafficPercentage" validate:"gte=0,lte=100"`
	}

	UpdateExperimentStatusRequest struct {
		Status domain.ExperimentStatus `json:"status" validate:"required,oneof=active paused completed"`
	}

	RecordResultRequest struct {
		VariantID string             `json:"variantId" validate:"required"`
		Metrics   map[string]float64 `json:"metrics" validate:"required"`
	}
)

func NewExperimentHandler(svc ExperimentService) *ExperimentHandler {
	return &ExperimentHandler{
		experimentService: svc,
		validate:          validator.New(),
		timeout:           10 * time.Second,
	}
}

func (r CreateExperimentRequest) toDomain(now time.Time) domain.Experiment {
	start := now
	if r.StartDate != nil {
		start = *r.StartDate
	}

	variants := make([]domain.Variant, 0, len(r.Variants))
	for _, v := range r.Variants {
		cfg := v.Config
		if cfg == nil {
			cfg = map[string]any{}
		}
		variants = append(variants, domain.Variant{
			ID:                v.ID,
			Name:              v.Name,
			Description:       v.Description,
			Config:            cfg,
			TrafficPercentage: v.TrafficPercentage,
		})
	}

	metrics := r.Metrics
	if metrics == nil {
		metrics = []domain.ExperimentMetric{}
	}

	return domain.Experiment{
		Name:              r.Name,
		Description:       r.Description,
		Status:            r.Status,
		StartDate:         start,
		EndDate:           r.EndDate,
		Variants:          variants,
		Metrics:           metrics,
		TargetAudience:    r.TargetAudience,
		TrafficAllocation: r.TrafficAllocation,
	}
}

func (h *ExperimentHandler) CreateTest(c echo.Context) error {
	var req CreateExperimentRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if err := h.validate.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	id, err := h.experimentService.CreateTest(ctx, req.toDomain(time.Now()))
	if err != nil {
		logger.Error("failed to create experiment", "trace_id", trace.TraceIDFromContext(ctx), "error", err)
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusCreated, fres.Response.StatusCreated(map[string]string{"id": id}))
}

func (h *ExperimentHandler) UpdateStatus(c echo.Context) error {
	var req UpdateExperimentStatusRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if err := h.validate.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	id := c.Param("id")
	if _, err := h.experimentService.GetExperiment(ctx, id); err != nil {
		return h.lookupError(c, err)
	}

	if err := h.experimentService.UpdateTestStatus(ctx, id, req.Status); err != nil {
		logger.Error("failed to update experiment status", "trace_id", trace.TraceIDFromContext(ctx), "error", err)
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}

	exp, err := h.experimentService.GetExperiment(ctx, id)
	if err != nil {
		return h.lookupError(c, err)
	}
	return c.JSON(http.StatusOK, fres.Response.StatusOK(exp))
}

func (h *ExperimentHandler) GetStats(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	id := c.Param("id")
	if _, err := h.experimentService.GetExperiment(ctx, id); err != nil {
		return h.lookupError(c, err)
	}

	stats, err := h.experimentService.GetTestStats(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}
	return c.JSON(http.StatusOK, fres.Response.StatusOK(stats))
}

func (h *ExperimentHandler) ClearAll(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	if err := h.experimentService.ClearAllData(ctx); err != nil {
		logger.Error("failed to clear experiment data", "trace_id", trace.TraceIDFromContext(ctx), "error", err)
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *ExperimentHandler) ActiveTests(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	tests, err := h.experimentService.GetActiveTests(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}
	return c.JSON(http.StatusOK, fres.Response.StatusOK(tests))
}

// GetVariant answers 404 when the user is not in the experiment.
func (h *ExperimentHandler) GetVariant(c echo.Context) error {
	userID, ok := userIDFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ResponseError{Message: "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	variant, err := h.experimentService.GetVariant(ctx, c.Param("id"), userID)
	if err != nil {
		logger.Error("failed to assign variant", "trace_id", trace.TraceIDFromContext(ctx), "error", err)
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}
	if variant == nil {
		return c.JSON(http.StatusNotFound, ResponseError{Message: "no variant assigned"})
	}
	return c.JSON(http.StatusOK, fres.Response.StatusOK(variant))
}

func (h *ExperimentHandler) RecordResult(c echo.Context) error {
	userID, ok := userIDFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ResponseError{Message: "unauthorized"})
	}

	var req RecordResultRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if err := h.validate.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	if err := h.experimentService.RecordResult(ctx, c.Param("id"), req.VariantID, userID, req.Metrics); err != nil {
		logger.Error("failed to record experiment result", "trace_id", trace.TraceIDFromContext(ctx), "error", err)
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}
	return c.NoContent(http.StatusAccepted)
}

func (h *ExperimentHandler) GetUserConfig(c echo.Context) error {
	userID, ok := userIDFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ResponseError{Message: "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	key := c.Param("key")
	value, found, err := h.experimentService.GetUserConfig(ctx, userID, key)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}
	if !found {
		return c.JSON(http.StatusNotFound, ResponseError{Message: "config key not set"})
	}
	return c.JSON(http.StatusOK, fres.Response.StatusOK(map[string]any{"key": key, "value": value}))
}

func (h *ExperimentHandler) lookupError(c echo.Context, err error) error {
	if errors.Is(err, experiment.ErrExperimentNotFound) {
		return c.JSON(http.StatusNotFound, ResponseError{Message: err.Error()})
	}
	return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
}
