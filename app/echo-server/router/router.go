package router

import (
	"myLearnCore/internal/rest"

	"github.com/labstack/echo/v4"
)

func SetupExperimentRoutes(api *echo.Group, handler *rest.ExperimentHandler, authRequired echo.MiddlewareFunc, adminOnly echo.MiddlewareFunc) {
	experiments := api.Group("/experiments", authRequired)
	experiments.GET("/active", handler.ActiveTests)
	experiments.GET("/config/:key", handler.GetUserConfig)
	experiments.GET("/:id/variant", handler.GetVariant)
	experiments.POST("/:id/results", handler.RecordResult)

	admin := api.Group("/admin/experiments", adminOnly)
	admin.POST("", handler.CreateTest)
	admin.PUT("/:id/status", handler.UpdateStatus)
	admin.GET("/:id/stats", handler.GetStats)
	admin.DELETE("", handler.ClearAll)
}

func SetupRecommendationRoutes(api *echo.Group, handler *rest.RecommendationHandler, authRequired echo.MiddlewareFunc, adminOnly echo.MiddlewareFunc) {
	reco := api.Group("/recommendations", authRequired)
	reco.GET("", handler.Recommend)
	reco.PUT("/features/user", handler.UpdateUserFeatures)

	admin := api.Group("/admin/recommendations", adminOnly)
	admin.PUT("/features/topics/:id", handler.UpdateTopicFeatures)
	admin.POST("/models/:id/train", handler.TrainModel)
	admin.GET("/models", handler.Models)
	admin.DELETE("", handler.ClearAll)
}

func SetupAnalyticsRoutes(api *echo.Group, handler *rest.AnalyticsHandler, authRequired echo.MiddlewareFunc, adminOnly echo.MiddlewareFunc) {
	analytics := api.Group("/analytics", authRequired)
	analytics.POST("/profile", handler.AnalyzeProfile)
	analytics.GET("/profile", handler.GetProfile)
	analytics.POST("/insights", handler.GenerateInsights)
	analytics.GET("/insights", handler.GetInsights)

	admin := api.Group("/admin/analytics", adminOnly)
	admin.POST("/cohorts", handler.AnalyzeCohorts)
	admin.GET("/cohorts", handler.ListCohorts)
	admin.PUT("/cohorts", handler.CreateCohort)
	admin.DELETE("", handler.ClearAll)
}

func SetupStudyRoutes(api *echo.Group, handler *rest.StudyHandler, authRequired echo.MiddlewareFunc) {
	study := api.Group("/study", authRequired)
	study.POST("/sessions", handler.StartSession)
	study.PUT("/sessions/:id", handler.EndSession)
	study.POST("/attempts", handler.StartAttempt)
	study.POST("/attempts/:id/questions", handler.AddQuestion)
	study.PUT("/attempts/:id", handler.CompleteAttempt)
	study.GET("/stats/weekly", handler.WeeklyStats)
	study.GET("/topics", handler.Topics)
}

func SetupEventRoutes(api *echo.Group, handler *rest.EventHandler, authRequired echo.MiddlewareFunc) {
	events := api.Group("/events", authRequired)
	events.POST("", handler.Append)
	events.GET("", handler.List)
	events.GET("/streak", handler.Streak)
	events.DELETE("", handler.Clear)
}

func SetupHealthRoutes(e *echo.Echo, handler *rest.HealthHandler) {
	e.GET("/healthz", handler.Healthz)
}
