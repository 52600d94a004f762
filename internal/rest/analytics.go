package rest

import (
	"context"
	"errors"
	"net/http"
	"time"

	"myLearnCore/business/behavior"
	"myLearnCore/domain"
	"myLearnCore/pkg/logger"
	"myLearnCore/pkg/trace"

	"github.com/AMFarhan21/fres"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type (
	AnalyticsService interface {
		AnalyzeUserBehavior(ctx context.Context, userID string) (domain.UserBehaviorProfile, error)
		GeneratePredictiveInsights(ctx context.Context, userID string) (domain.PredictiveInsights, error)
		AnalyzeCohorts(ctx context.Context) ([]domain.CohortAnalysis, error)
		CreateCohort(ctx context.Context, c domain.CohortAnalysis) (domain.CohortAnalysis, error)
		Profile(ctx context.Context, userID string) (domain.UserBehaviorProfile, bool, error)
		Insights(ctx context.Context, userID string) (domain.PredictiveInsights, bool, error)
		Cohorts(ctx context.Context) ([]domain.CohortAnalysis, error)
		ClearAllData(ctx context.Context) error
	}

	AnalyticsHandler struct {
		analyticsService AnalyticsService
		validate         *validator.Validate
		timeout          time.Duration
	}

	CreateCohortRequest struct {
		CohortID    string `json:"cohortId" validate:"required"`
		CohortType  string `json:"cohortType" validate:"required,oneof=registration_date goal grade behavior"`
		CohortValue string `json:"cohortValue"`
	}
)

func NewAnalyticsHandler(svc AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{
		analyticsService: svc,
		validate:         validator.New(),
		timeout:          30 * time.Second,
	}
}

func (h *AnalyticsHandler) AnalyzeProfile(c echo.Context) error {
	userID, ok := userIDFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ResponseError{Message: "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	profile, err := h.analyticsService.AnalyzeUserBehavior(ctx, userID)
	if err != nil {
		logger.Error("failed to analyze behavior", "trace_id", trace.TraceIDFromContext(ctx), "error", err)
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}
	return c.JSON(http.StatusOK, fres.Response.StatusOK(profile))
}

// GetProfile serves the last computed profile without recomputing it.
func (h *AnalyticsHandler) GetProfile(c echo.Context) error {
	userID, ok := userIDFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ResponseError{Message: "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	profile, found, err := h.analyticsService.Profile(ctx, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}
	if !found {
		return c.JSON(http.StatusNotFound, ResponseError{Message: "profile not computed"})
	}
	return c.JSON(http.StatusOK, fres.Response.StatusOK(profile))
}

func (h *AnalyticsHandler) GenerateInsights(c echo.Context) error {
	userID, ok := userIDFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ResponseError{Message: "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	insights, err := h.analyticsService.GeneratePredictiveInsights(ctx, userID)
	if err != nil {
		logger.Error("failed to generate insights", "trace_id", trace.TraceIDFromContext(ctx), "error", err)
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}
	return c.JSON(http.StatusOK, fres.Response.StatusOK(insights))
}

func (h *AnalyticsHandler) GetInsights(c echo.Context) error {
	userID, ok := userIDFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ResponseError{Message: "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	insights, found, err := h.analyticsService.Insights(ctx, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}
	if !found {
		return c.JSON(http.StatusNotFound, ResponseError{Message: "insights not computed"})
	}
	return c.JSON(http.StatusOK, fres.Response.StatusOK(insights))
}

func (h *AnalyticsHandler) AnalyzeCohorts(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	cohorts, err := h.analyticsService.AnalyzeCohorts(ctx)
	if err != nil {
		logger.Error("failed to analyze cohorts", "trace_id", trace.TraceIDFromContext(ctx), "error", err)
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}
	return c.JSON(http.StatusOK, fres.Response.StatusOK(cohorts))
}

func (h *AnalyticsHandler) ListCohorts(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	cohorts, err := h.analyticsService.Cohorts(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}
	return c.JSON(http.StatusOK, fres.Response.StatusOK(cohorts))
}

func (h *AnalyticsHandler) CreateCohort(c echo.Context) error {
	var req CreateCohortRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if err := h.validate.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	cohort, err := h.analyticsService.CreateCohort(ctx, domain.CohortAnalysis{
		CohortID:    req.CohortID,
		CohortType:  domain.CohortType(req.CohortType),
		CohortValue: req.CohortValue,
	})
	if err != nil {
		if errors.Is(err, behavior.ErrInvalidCohort) {
			return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
		}
		logger.Error("failed to create cohort", "trace_id", trace.TraceIDFromContext(ctx), "error", err)
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}
	return c.JSON(http.StatusCreated, fres.Response.StatusCreated(cohort))
}

func (h *AnalyticsHandler) ClearAll(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	if err := h.analyticsService.ClearAllData(ctx); err != nil {
		logger.Error("failed to clear analytics data", "trace_id", trace.TraceIDFromContext(ctx), "error", err)
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}
	return c.NoContent(http.StatusNoContent)
}
