package rest

import (
	"context"
	"errors"
	"net/http"
	"time"

	"myLearnCore/business/recommendation"
	"myLearnCore/domain"
	"myLearnCore/pkg/logger"
	"myLearnCore/pkg/trace"

	"github.com/AMFarhan21/fres"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type (
	RecommendationService interface {
		GetRecommendations(ctx context.Context, userID string, limit int, rc *domain.RecommendationContext) ([]domain.RecommendationScore, error)
		UpdateUserFeatures(ctx context.Context, userID string, patch domain.UserFeaturesPatch) (domain.UserFeatureVector, error)
		UpdateTopicFeatures(ctx context.Context, topicID string, patch domain.TopicFeaturesPatch) (domain.TopicFeatureVector, error)
		TrainModel(ctx context.Context, modelID string, trainingData []map[string]any) error
		Models(ctx context.Context) ([]domain.MLModel, error)
		GetModel(ctx context.Context, modelID string) (domain.MLModel, error)
		ClearAllData(ctx context.Context) error
	}

	RecommendationHandler struct {
		recommendationService RecommendationService
		validate              *validator.Validate
		timeout               time.Duration
	}

	RecommendationQuery struct {
		Limit         int     `query:"limit" validate:"gte=0,lte=100"`
		AvailableTime float64 `query:"available_time" validate:"gte=0"`
		Difficulty    float64 `query:"difficulty" validate:"gte=0,lte=1"`
		Section       string  `query:"section"`
	}

	TrainModelRequest struct {
		TrainingData []map[string]any `json:"trainingData"`
	}
)

func NewRecommendationHandler(svc RecommendationService) *RecommendationHandler {
	return &RecommendationHandler{
		recommendationService: svc,
		validate:              validator.New(),
		timeout:               10 * time.Second,
	}
}

func (h *RecommendationHandler) Recommend(c echo.Context) error {
	userID, ok := userIDFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ResponseError{Message: "unauthorized"})
	}

	var q RecommendationQuery
	if err := c.Bind(&q); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if err := h.validate.Struct(&q); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	var rc *domain.RecommendationContext
	if q.AvailableTime > 0 || q.Difficulty > 0 || q.Section != "" {
		rc = &domain.RecommendationContext{
			AvailableTime:        q.AvailableTime,
			DifficultyPreference: q.Difficulty,
			Section:              q.Section,
		}
	}

	recs, err := h.recommendationService.GetRecommendations(ctx, userID, q.Limit, rc)
	if err != nil {
		logger.Error("failed to get recommendations", "trace_id", trace.TraceIDFromContext(ctx), "error", err)
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}
	return c.JSON(http.StatusOK, fres.Response.StatusOK(recs))
}

func (h *RecommendationHandler) UpdateUserFeatures(c echo.Context) error {
	userID, ok := userIDFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ResponseError{Message: "unauthorized"})
	}

	var patch domain.UserFeaturesPatch
	if err := c.Bind(&patch); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	vec, err := h.recommendationService.UpdateUserFeatures(ctx, userID, patch)
	if err != nil {
		logger.Error("failed to update user features", "trace_id", trace.TraceIDFromContext(ctx), "error", err)
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}
	return c.JSON(http.StatusOK, fres.Response.StatusOK(vec))
}

func (h *RecommendationHandler) UpdateTopicFeatures(c echo.Context) error {
	var patch domain.TopicFeaturesPatch
	if err := c.Bind(&patch); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	vec, err := h.recommendationService.UpdateTopicFeatures(ctx, c.Param("id"), patch)
	if err != nil {
		logger.Error("failed to update topic features", "trace_id", trace.TraceIDFromContext(ctx), "error", err)
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}
	return c.JSON(http.StatusOK, fres.Response.StatusOK(vec))
}

func (h *RecommendationHandler) TrainModel(c echo.Context) error {
	var req TrainModelRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	id := c.Param("id")
	if _, err := h.recommendationService.GetModel(ctx, id); err != nil {
		if errors.Is(err, recommendation.ErrModelNotFound) {
			return c.JSON(http.StatusNotFound, ResponseError{Message: err.Error()})
		}
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}

	if err := h.recommendationService.TrainModel(ctx, id, req.TrainingData); err != nil {
		logger.Error("failed to train model", "trace_id", trace.TraceIDFromContext(ctx), "error", err)
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}

	model, err := h.recommendationService.GetModel(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}
	return c.JSON(http.StatusOK, fres.Response.StatusOK(model))
}

func (h *RecommendationHandler) Models(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	models, err := h.recommendationService.Models(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}
	return c.JSON(http.StatusOK, fres.Response.StatusOK(models))
}

func (h *RecommendationHandler) ClearAll(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	if err := h.recommendationService.ClearAllData(ctx); err != nil {
		logger.Error("failed to clear recommendation data", "trace_id", trace.TraceIDFromContext(ctx), "error", err)
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}
	return c.NoContent(http.StatusNoContent)
}
