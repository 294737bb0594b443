// Package worker polls for pending summaries and quizzes and drives their
// generation. Claims go through the database (SKIP LOCKED), so any number of
// worker goroutines and processes can share one queue.
package worker

import (
	"context"
	"time"

	"github.com/studyden/studyden-backend/internal/data/repos"
	"github.com/studyden/studyden-backend/internal/platform/config"
	"github.com/studyden/studyden-backend/internal/platform/envutil"
	"github.com/studyden/studyden-backend/internal/platform/logger"
	"github.com/studyden/studyden-backend/internal/services"
)

type Worker struct {
	log       *logger.Logger
	cfg       *config.Pipeline
	summaries repos.SummaryRepo
	quizzes   repos.QuizRepo
	sumGen    services.SummaryGenService
	quizGen   services.QuizGenService
}

func NewWorker(
	baseLog *logger.Logger,
	cfg *config.Pipeline,
	summaries repos.SummaryRepo,
	quizzes repos.QuizRepo,
	sumGen services.SummaryGenService,
	quizGen services.QuizGenService,
) *Worker {
	return &Worker{
		log:       baseLog.With("component", "GenerationWorker"),
		cfg:       cfg,
		summaries: summaries,
		quizzes:   quizzes,
		sumGen:    sumGen,
		quizGen:   quizGen,
	}
}

func (w *Worker) Start(ctx context.Context) {
	concurrency := envutil.GetEnvAsInt("WORKER_CONCURRENCY", 2, w.log)
	if concurrency < 1 {
		concurrency = 1
	}
	w.log.Info("Starting generation worker pool", "concurrency", concurrency)

	for i := 0; i < concurrency; i++ {
		workerID := i + 1
		go w.runLoop(ctx, workerID)
	}
}

func (w *Worker) runLoop(ctx context.Context, workerID int) {
	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info("Worker loop stopped", "worker_id", workerID)
			return
		case <-ticker.C:
			if w.claimSummary(ctx, workerID) {
				continue
			}
			w.claimQuiz(ctx, workerID)
		}
	}
}

func (w *Worker) claimSummary(ctx context.Context, workerID int) bool {
	summary, err := w.summaries.ClaimNextRunnable(ctx, w.cfg.Generation.MaxAttempts)
	if err != nil {
		w.log.Warn("summary claim failed", "worker_id", workerID, "error", err)
		return false
	}
	if summary == nil {
		return false
	}

	w.log.Info("summary claimed", "worker_id", workerID, "summary_id", summary.ID, "type", summary.Type)
	w.guarded(workerID, "summary", func() {
		if err := w.sumGen.Generate(ctx, summary); err != nil {
			w.log.Error("summary generation failed", "worker_id", workerID, "summary_id", summary.ID, "error", err)
		}
	})
	return true
}

func (w *Worker) claimQuiz(ctx context.Context, workerID int) bool {
	quiz, err := w.quizzes.ClaimNextRunnable(ctx, w.cfg.Generation.MaxAttempts)
	if err != nil {
		w.log.Warn("quiz claim failed", "worker_id", workerID, "error", err)
		return false
	}
	if quiz == nil {
		return false
	}

	w.log.Info("quiz claimed", "worker_id", workerID, "quiz_id", quiz.ID)
	w.guarded(workerID, "quiz", func() {
		if err := w.quizGen.Generate(ctx, quiz); err != nil {
			w.log.Error("quiz generation failed", "worker_id", workerID, "quiz_id", quiz.ID, "error", err)
		}
	})
	return true
}

// guarded runs fn with panic recovery; a panicking generation must not kill
// the worker loop. The claimed row stays in processing until its attempts
// are exhausted or a regeneration resets it.
func (w *Worker) guarded(workerID int, kind string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			w.log.Error("generation panic", "worker_id", workerID, "kind", kind, "panic", r)
		}
	}()
	fn()
}
