package rest

import (
	"context"
	"errors"
	"net/http"
	"time"

	"myLearnCore/business/studylog"
	"myLearnCore/domain"
	"myLearnCore/pkg/logger"
	"myLearnCore/pkg/trace"

	"github.com/AMFarhan21/fres"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type (
	StudyService interface {
		StartSession(ctx context.Context, userID, topicID string) (string, error)
		EndSession(ctx context.Context, sessionID string, blocksCompleted, totalBlocks int) (domain.StudySession, error)
		StartAttempt(ctx context.Context, userID, topicID string) (string, error)
		AddQuestionAttempt(ctx context.Context, attemptID, questionID, selected, correct string, timeSpent int64, hintsUsed int) (domain.QuestionAttempt, error)
		CompleteAttempt(ctx context.Context, attemptID string) (domain.TestAttempt, error)
		Mistakes(ctx context.Context, userID string) ([]domain.QuestionMistake, error)
		WeakTopics(ctx context.Context, userID string) ([]domain.TopicMistakes, error)
		StrongTopics(ctx context.Context, userID string) ([]domain.TopicScore, error)
		WeeklyStats(ctx context.Context, userID string) ([]domain.DailyStats, error)
	}

	StudyHandler struct {
		studyService StudyService
		validate     *validator.Validate
		timeout      time.Duration
	}

	StartStudyRequest struct {
		TopicID string `json:"topicId" validate:"required"`
	}

	EndSessionRequest struct {
		BlocksCompleted int `json:"blocksCompleted" validate:"gte=0"`
		TotalBlocks     int `json:"totalBlocks" validate:"gte=0"`
	}

	QuestionAttemptRequest struct {
		QuestionID     string `json:"questionId" validate:"required"`
		SelectedAnswer string `json:"selectedAnswer"`
		CorrectAnswer  string `json:"correctAnswer" validate:"required"`
		TimeSpent      int64  `json:"timeSpent" validate:"gte=0"`
		HintsUsed      int    `json:"hintsUsed" validate:"gte=0"`
	}
)

func NewStudyHandler(svc StudyService) *StudyHandler {
	return &StudyHandler{
		studyService: svc,
		validate:     validator.New(),
		timeout:      10 * time.Second,
	}
}

func (h *StudyHandler) StartSession(c echo.Context) error {
	userID, ok := userIDFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ResponseError{Message: "unauthorized"})
	}

	var req StartStudyRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if err := h.validate.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	id, err := h.studyService.StartSession(ctx, userID, req.TopicID)
	if err != nil {
		logger.Error("failed to start study session", "trace_id", trace.TraceIDFromContext(ctx), "error", err)
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}
	return c.JSON(http.StatusCreated, fres.Response.StatusCreated(map[string]string{"id": id}))
}

func (h *StudyHandler) EndSession(c echo.Context) error {
	var req EndSessionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if err := h.validate.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	session, err := h.studyService.EndSession(ctx, c.Param("id"), req.BlocksCompleted, req.TotalBlocks)
	if err != nil {
		return h.studyError(ctx, c, err)
	}
	return c.JSON(http.StatusOK, fres.Response.StatusOK(session))
}

func (h *StudyHandler) StartAttempt(c echo.Context) error {
	userID, ok := userIDFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ResponseError{Message: "unauthorized"})
	}

	var req StartStudyRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if err := h.validate.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	id, err := h.studyService.StartAttempt(ctx, userID, req.TopicID)
	if err != nil {
		logger.Error("failed to start test attempt", "trace_id", trace.TraceIDFromContext(ctx), "error", err)
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}
	return c.JSON(http.StatusCreated, fres.Response.StatusCreated(map[string]string{"id": id}))
}

func (h *StudyHandler) AddQuestion(c echo.Context) error {
	var req QuestionAttemptRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if err := h.validate.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	qa, err := h.studyService.AddQuestionAttempt(ctx, c.Param("id"), req.QuestionID, req.SelectedAnswer, req.CorrectAnswer, req.TimeSpent, req.HintsUsed)
	if err != nil {
		return h.studyError(ctx, c, err)
	}
	return c.JSON(http.StatusCreated, fres.Response.StatusCreated(qa))
}

func (h *StudyHandler) CompleteAttempt(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	attempt, err := h.studyService.CompleteAttempt(ctx, c.Param("id"))
	if err != nil {
		return h.studyError(ctx, c, err)
	}
	return c.JSON(http.StatusOK, fres.Response.StatusOK(attempt))
}

func (h *StudyHandler) WeeklyStats(c echo.Context) error {
	userID, ok := userIDFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ResponseError{Message: "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	stats, err := h.studyService.WeeklyStats(ctx, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}
	return c.JSON(http.StatusOK, fres.Response.StatusOK(stats))
}

// Topics reports the user's weakest and strongest topics together with the
// raw mistake log.
func (h *StudyHandler) Topics(c echo.Context) error {
	userID, ok := userIDFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ResponseError{Message: "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	weak, err := h.studyService.WeakTopics(ctx, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}
	strong, err := h.studyService.StrongTopics(ctx, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}
	mistakes, err := h.studyService.Mistakes(ctx, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(map[string]any{
		"weakTopics":   weak,
		"strongTopics": strong,
		"mistakes":     mistakes,
	}))
}

func (h *StudyHandler) studyError(ctx context.Context, c echo.Context, err error) error {
	if errors.Is(err, studylog.ErrSessionNotFound) || errors.Is(err, studylog.ErrAttemptNotFound) {
		return c.JSON(http.StatusNotFound, ResponseError{Message: err.Error()})
	}
	logger.Error("study log request failed", "trace_id", trace.TraceIDFromContext(ctx), "error", err)
	return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
}
