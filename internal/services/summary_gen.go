package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/studyden/studyden-backend/internal/data/repos"
	types "github.com/studyden/studyden-backend/internal/domain"
	"github.com/studyden/studyden-backend/internal/genjob"
	"github.com/studyden/studyden-backend/internal/platform/apierr"
	"github.com/studyden/studyden-backend/internal/platform/config"
	"github.com/studyden/studyden-backend/internal/platform/dbctx"
	"github.com/studyden/studyden-backend/internal/platform/logger"
	"github.com/studyden/studyden-backend/internal/platform/openai"
	"github.com/studyden/studyden-backend/internal/retrieval"
)

var summaryQueries = map[string]string{
	types.SummaryTypeShort:       "main ideas and overall summary of this topic",
	types.SummaryTypeLong:        "detailed explanation of all concepts covered in this topic",
	types.SummaryTypeKeyConcepts: "key terms, definitions and core concepts of this topic",
}

var summaryPrompts = map[string]string{
	types.SummaryTypeShort: "Write a concise summary (3-5 paragraphs) of the study material below. " +
		"Cover the main ideas only. Use plain prose.",
	types.SummaryTypeLong: "Write a thorough, structured summary of the study material below. " +
		"Use markdown headings per major theme and explain each concept fully.",
	types.SummaryTypeKeyConcepts: "Extract the key concepts from the study material below. " +
		"Return a markdown list where each item is '**term**: definition'. Order from fundamental to advanced.",
}

// SummaryGenService requests and produces topic summaries. Requests write
// pending rows; the worker claims and generates them.
type SummaryGenService interface {
	Request(ctx context.Context, userID, topicID uuid.UUID, summaryTypes []string) ([]*types.Summary, error)
	Get(ctx context.Context, userID, topicID uuid.UUID, summaryType string) (*types.Summary, error)
	List(ctx context.Context, userID, topicID uuid.UUID) ([]*types.Summary, error)

	// Generate produces the content for a claimed summary. Worker-only.
	Generate(ctx context.Context, summary *types.Summary) error
}

type summaryGenService struct {
	log       *logger.Logger
	cfg       *config.Pipeline
	db        *gorm.DB
	ai        openai.Client
	engine    *retrieval.Engine
	topics    repos.TopicRepo
	chunks    repos.ChunkRepo
	summaries repos.SummaryRepo
	sync      ConsistencyService
}

func NewSummaryGenService(
	log *logger.Logger,
	cfg *config.Pipeline,
	db *gorm.DB,
	ai openai.Client,
	engine *retrieval.Engine,
	topics repos.TopicRepo,
	chunks repos.ChunkRepo,
	summaries repos.SummaryRepo,
	sync ConsistencyService,
) SummaryGenService {
	return &summaryGenService{
		log:       log.With("service", "SummaryGenService"),
		cfg:       cfg,
		db:        db,
		ai:        ai,
		engine:    engine,
		topics:    topics,
		chunks:    chunks,
		summaries: summaries,
		sync:      sync,
	}
}

func (s *summaryGenService) Request(ctx context.Context, userID, topicID uuid.UUID, summaryTypes []string) ([]*types.Summary, error) {
	if len(summaryTypes) == 0 {
		summaryTypes = []string{types.SummaryTypeShort, types.SummaryTypeLong, types.SummaryTypeKeyConcepts}
	}
	for _, t := range summaryTypes {
		if _, ok := summaryQueries[t]; !ok {
			return nil, apierr.ErrInvalidArgument
		}
	}
	if _, err := s.topics.GetByID(ctx, nil, userID, topicID); err != nil {
		return nil, err
	}

	// No searchable content means nothing to summarize.
	n, err := s.chunks.CountActiveByTopic(ctx, nil, topicID)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, apierr.ErrConflict
	}

	out := make([]*types.Summary, 0, len(summaryTypes))
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, t := range summaryTypes {
			row, err := s.summaries.UpsertPending(ctx, tx, topicID, t)
			if err != nil {
				return err
			}
			out = append(out, row)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("summaries requested", "topic_id", topicID, "types", summaryTypes)
	return out, nil
}

func (s *summaryGenService) Get(ctx context.Context, userID, topicID uuid.UUID, summaryType string) (*types.Summary, error) {
	if _, err := s.topics.GetByID(ctx, nil, userID, topicID); err != nil {
		return nil, err
	}
	return s.summaries.GetByTopicAndType(ctx, nil, topicID, summaryType)
}

func (s *summaryGenService) List(ctx context.Context, userID, topicID uuid.UUID) ([]*types.Summary, error) {
	if _, err := s.topics.GetByID(ctx, nil, userID, topicID); err != nil {
		return nil, err
	}
	return s.summaries.ListByTopic(ctx, nil, topicID)
}

func (s *summaryGenService) Generate(ctx context.Context, summary *types.Summary) error {
	fail := func(cause error) error {
		// Attempts was bumped by the claim; settle back to pending while
		// retries remain so the worker picks the row up again.
		status := genjob.SettleFailure(summary.Attempts, s.cfg.Generation.MaxAttempts)
		if err := s.summaries.UpdateFields(ctx, nil, summary.ID, map[string]interface{}{
			"status": status,
			"error":  cause.Error(),
		}); err != nil {
			s.log.Error("failed to record summary failure", "summary_id", summary.ID, "error", err)
		}
		return cause
	}

	if _, err := genjob.Transition(summary.Status, genjob.StatusReady); err != nil {
		return fail(err)
	}

	topic, err := s.findTopicUnscoped(ctx, summary.TopicID)
	if err != nil {
		return fail(err)
	}

	material, _, err := s.gatherTopicContext(ctx, topic, summaryQueries[summary.Type])
	if err != nil {
		return fail(err)
	}

	system := "You are a study assistant. Summarize only from the provided material. " +
		"Never invent facts that are not in the sources."
	user := fmt.Sprintf("%s\n\nTopic: %s\n\nStudy material:\n%s",
		summaryPrompts[summary.Type], topic.Name, material)

	content, err := s.ai.GenerateText(ctx, system, user)
	if err != nil {
		return fail(fmt.Errorf("generate summary: %w", err))
	}
	if content == "" {
		return fail(fmt.Errorf("model returned empty summary"))
	}

	now := time.Now().UTC()
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		if err := s.summaries.UpdateFields(ctx, tx, summary.ID, map[string]interface{}{
			"status":       types.StatusReady,
			"content":      content,
			"error":        "",
			"generated_at": now,
		}); err != nil {
			return err
		}
		return s.sync.TouchTopic(dbc, summary.TopicID)
	})
}

// findTopicUnscoped loads a topic without the user scope; worker paths have
// no request user.
func (s *summaryGenService) findTopicUnscoped(ctx context.Context, topicID uuid.UUID) (*types.Topic, error) {
	var topic types.Topic
	if err := s.db.WithContext(ctx).Where("id = ?", topicID).First(&topic).Error; err != nil {
		return nil, err
	}
	return &topic, nil
}

func (s *summaryGenService) gatherTopicContext(ctx context.Context, topic *types.Topic, query string) (string, []retrieval.Match, error) {
	matches, err := s.engine.Search(ctx, topic.UserID, retrieval.Query{
		TopicID: &topic.ID,
		Text:    query,
		TopK:    s.cfg.Retrieval.FetchK,
	})
	if err != nil {
		return "", nil, err
	}
	if len(matches) == 0 {
		return "", nil, fmt.Errorf("no searchable content in topic %s", topic.ID)
	}
	return retrieval.BuildContext(matches, 0), matches, nil
}
