package server

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/studyden/studyden-backend/internal/http/handlers"
	"github.com/studyden/studyden-backend/internal/http/middleware"
	"github.com/studyden/studyden-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	AuthMiddleware *middleware.AuthMiddleware

	TopicHandler     *handlers.TopicHandler
	FileHandler      *handlers.FileHandler
	RAGHandler       *handlers.RAGHandler
	SummaryHandler   *handlers.SummaryHandler
	QuizHandler      *handlers.QuizHandler
	DashboardHandler *handlers.DashboardHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware("studyden-backend"))
	router.Use(middleware.CORS())
	router.Use(middleware.RequestLogger(cfg.Log))

	// Public
	router.GET("/healthcheck", handlers.HealthCheck)

	// Protected
	api := router.Group("/api")
	api.Use(cfg.AuthMiddleware.RequireAuth())

	// Topics and categories
	api.POST("/topics", cfg.TopicHandler.CreateTopic)
	api.GET("/topics", cfg.TopicHandler.ListTopics)
	api.GET("/topics/:id", cfg.TopicHandler.GetTopic)
	api.PATCH("/topics/:id", cfg.TopicHandler.UpdateTopic)
	api.DELETE("/topics/:id", cfg.TopicHandler.DeleteTopic)
	api.GET("/categories", cfg.TopicHandler.ListCategories)

	// Files
	api.POST("/topics/:id/files", cfg.FileHandler.RegisterFile)
	api.GET("/topics/:id/files", cfg.FileHandler.ListFiles)
	api.GET("/files/:id", cfg.FileHandler.GetFile)
	api.PATCH("/files/:id/include", cfg.FileHandler.SetIncluded)
	api.DELETE("/files/:id", cfg.FileHandler.DeleteFile)

	// Retrieval
	api.POST("/rag/search", cfg.RAGHandler.Search)
	api.POST("/rag/ingest", cfg.RAGHandler.Ingest)
	api.POST("/rag/chat", cfg.RAGHandler.Chat)

	// Summaries
	api.POST("/rag/summaries/generate", cfg.SummaryHandler.Generate)
	api.GET("/topics/:id/summaries", cfg.SummaryHandler.ListByTopic)
	api.GET("/topics/:id/summaries/:type", cfg.SummaryHandler.GetByType)

	// Quizzes
	api.POST("/topics/:id/quizzes", cfg.QuizHandler.RequestQuiz)
	api.GET("/topics/:id/quizzes", cfg.QuizHandler.ListByTopic)
	api.POST("/rag/quizzes/:id/generate", cfg.QuizHandler.Regenerate)
	api.GET("/quizzes/:id", cfg.QuizHandler.GetQuiz)
	api.GET("/quizzes/:id/questions", cfg.QuizHandler.GetQuestions)
	api.DELETE("/quizzes/:id", cfg.QuizHandler.DeleteQuiz)
	api.POST("/quizzes/:id/attempts", cfg.QuizHandler.SubmitAttempt)
	api.GET("/quizzes/:id/attempts", cfg.QuizHandler.ListAttempts)

	// Dashboard
	api.GET("/dashboard", cfg.DashboardHandler.Overview)

	return router
}
