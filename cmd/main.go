package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/studyden/studyden-backend/internal/data/db"
	"github.com/studyden/studyden-backend/internal/data/repos"
	"github.com/studyden/studyden-backend/internal/http/handlers"
	"github.com/studyden/studyden-backend/internal/http/middleware"
	"github.com/studyden/studyden-backend/internal/ingestion/pipeline"
	"github.com/studyden/studyden-backend/internal/jobs/worker"
	"github.com/studyden/studyden-backend/internal/observability"
	"github.com/studyden/studyden-backend/internal/platform/config"
	"github.com/studyden/studyden-backend/internal/platform/envutil"
	"github.com/studyden/studyden-backend/internal/platform/gcs"
	"github.com/studyden/studyden-backend/internal/platform/logger"
	"github.com/studyden/studyden-backend/internal/platform/openai"
	platformredis "github.com/studyden/studyden-backend/internal/platform/redis"
	"github.com/studyden/studyden-backend/internal/platform/vision"
	"github.com/studyden/studyden-backend/internal/retrieval"
	"github.com/studyden/studyden-backend/internal/server"
	"github.com/studyden/studyden-backend/internal/services"
)

func main() {
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.InitTracing(ctx, log, "studyden-backend")
	if err != nil {
		log.Warn("Tracing init failed", "error", err)
	}

	// Config
	log.Info("Loading pipeline config...")
	cfgPath := envutil.GetEnv("PIPELINE_CONFIG", "config.yaml", log)
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Error("Pipeline config load failed", "error", err)
		os.Exit(1)
	}
	jwtSecretKey := envutil.GetEnv("JWT_SECRET_KEY", "defaultsecret", log)

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Error("Postgres init failed", "error", err)
		os.Exit(1)
	}
	if err = postgresService.AutoMigrateAll(); err != nil {
		log.Error("Postgres migration failed", "error", err)
		os.Exit(1)
	}
	thePG := postgresService.DB()

	// Repos
	log.Info("Setting up repos...")
	topicRepo := repos.NewTopicRepo(thePG, log)
	categoryRepo := repos.NewCategoryRepo(thePG, log)
	topicFileRepo := repos.NewTopicFileRepo(thePG, log)
	documentRepo := repos.NewDocumentRepo(thePG, log)
	chunkRepo := repos.NewChunkRepo(thePG, log)
	summaryRepo := repos.NewSummaryRepo(thePG, log)
	quizRepo := repos.NewQuizRepo(thePG, log)
	quizQuestionRepo := repos.NewQuizQuestionRepo(thePG, log)
	quizOptionRepo := repos.NewQuizOptionRepo(thePG, log)
	quizAttemptRepo := repos.NewQuizAttemptRepo(thePG, log)
	attemptAnswerRepo := repos.NewAttemptAnswerRepo(thePG, log)

	// Platform clients
	log.Info("Setting up platform clients...")
	bucketService, err := gcs.NewBucketService(log)
	if err != nil {
		log.Error("Could not init BucketService", "error", err)
		os.Exit(1)
	}
	ocrService, err := vision.NewOCR(log)
	if err != nil {
		log.Warn("OCR unavailable, image uploads will fail ingestion", "error", err)
		ocrService = nil
	}
	openaiClient, err := openai.NewClient(log, openai.Options{
		EmbedModel:     cfg.Embeddings.Model,
		EmbedDimension: cfg.Embeddings.Dimension,
		ChatModel:      cfg.Generation.Model,
		Temperature:    cfg.Generation.Temperature,
	})
	if err != nil {
		log.Error("Could not init OpenAIClient", "error", err)
		os.Exit(1)
	}
	locker, err := platformredis.NewLocker(log)
	if err != nil {
		log.Warn("Redis locker unavailable, relying on DB claims only", "error", err)
		locker = nil
	}

	// Core components
	log.Info("Setting up services...")
	consistency := services.NewConsistencyService(log, topicRepo, categoryRepo, topicFileRepo, documentRepo, chunkRepo)
	pipe := pipeline.New(log, &cfg, thePG, bucketService, ocrService, openaiClient, locker, consistency,
		topicFileRepo, documentRepo, chunkRepo)
	engine := retrieval.NewEngine(log, &cfg, openaiClient, topicRepo, chunkRepo)

	topicService := services.NewTopicService(log, thePG, topicRepo, categoryRepo, topicFileRepo, consistency)
	fileService := services.NewFileService(log, thePG, bucketService, pipe, topicRepo, topicFileRepo,
		documentRepo, chunkRepo, consistency)
	summaryGenService := services.NewSummaryGenService(log, &cfg, thePG, openaiClient, engine,
		topicRepo, chunkRepo, summaryRepo, consistency)
	quizGenService := services.NewQuizGenService(log, &cfg, thePG, openaiClient, engine,
		topicRepo, chunkRepo, quizRepo, quizQuestionRepo, quizOptionRepo, consistency)
	quizService := services.NewQuizService(log, thePG, topicRepo, quizRepo, quizAttemptRepo, attemptAnswerRepo)
	chatService := services.NewChatService(log, openaiClient, engine)
	dashboardService := services.NewDashboardService(log, thePG)

	// Background generation worker
	genWorker := worker.NewWorker(log, &cfg, summaryRepo, quizRepo, summaryGenService, quizGenService)
	genWorker.Start(ctx)

	// HTTP
	log.Info("Setting up router...")
	router := server.NewRouter(server.RouterConfig{
		Log:              log,
		AuthMiddleware:   middleware.NewAuthMiddleware(log, jwtSecretKey),
		TopicHandler:     handlers.NewTopicHandler(log, topicService),
		FileHandler:      handlers.NewFileHandler(log, fileService),
		RAGHandler:       handlers.NewRAGHandler(log, engine, fileService, chatService),
		SummaryHandler:   handlers.NewSummaryHandler(log, summaryGenService),
		QuizHandler:      handlers.NewQuizHandler(log, quizService, quizGenService),
		DashboardHandler: handlers.NewDashboardHandler(log, dashboardService),
	})

	port := envutil.GetEnv("PORT", "8080", log)
	srv := &http.Server{Addr: ":" + port, Handler: router}

	go func() {
		log.Info("Server listening", "port", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("Server shutdown failed", "error", err)
	}
	if locker != nil {
		_ = locker.Close()
	}
	if ocrService != nil {
		_ = ocrService.Close()
	}
	if shutdownTracing != nil {
		if err := shutdownTracing(shutdownCtx); err != nil {
			log.Warn("Tracer shutdown failed", "error", err)
		}
	}
}
