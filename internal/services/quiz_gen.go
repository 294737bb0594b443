package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/studyden/studyden-backend/internal/data/repos"
	types "github.com/studyden/studyden-backend/internal/domain"
	"github.com/studyden/studyden-backend/internal/domain/quizzes"
	"github.com/studyden/studyden-backend/internal/genjob"
	"github.com/studyden/studyden-backend/internal/platform/apierr"
	"github.com/studyden/studyden-backend/internal/platform/config"
	"github.com/studyden/studyden-backend/internal/platform/dbctx"
	"github.com/studyden/studyden-backend/internal/platform/logger"
	"github.com/studyden/studyden-backend/internal/platform/openai"
	"github.com/studyden/studyden-backend/internal/retrieval"
)

var optionLabels = []string{"A", "B", "C", "D"}

type RequestQuizInput struct {
	Title string
	// Scope is an optional free-text focus ("chapters 3-4", "only the
	// mitosis material") steering retrieval for this quiz.
	Scope         string
	Difficulty    string
	QuestionCount int
}

// generatedQuiz is the shape the model must return.
type generatedQuiz struct {
	Questions []generatedQuestion `json:"questions"`
}

type generatedQuestion struct {
	Prompt      string            `json:"prompt"`
	Explanation string            `json:"explanation"`
	Options     []generatedOption `json:"options"`
}

type generatedOption struct {
	Label   string `json:"label"`
	Text    string `json:"text"`
	Correct bool   `json:"correct"`
}

type QuizGenService interface {
	Request(ctx context.Context, userID, topicID uuid.UUID, in RequestQuizInput) (*types.Quiz, error)

	// Regenerate wipes a quiz's questions, options and attempts, then queues
	// it for fresh generation.
	Regenerate(ctx context.Context, userID, quizID uuid.UUID) (*types.Quiz, error)

	// Generate produces questions for a claimed quiz. Worker-only.
	Generate(ctx context.Context, quiz *types.Quiz) error
}

type quizGenService struct {
	log       *logger.Logger
	cfg       *config.Pipeline
	db        *gorm.DB
	ai        openai.Client
	engine    *retrieval.Engine
	topics    repos.TopicRepo
	chunks    repos.ChunkRepo
	quizzes   repos.QuizRepo
	questions repos.QuizQuestionRepo
	options   repos.QuizOptionRepo
	sync      ConsistencyService
}

func NewQuizGenService(
	log *logger.Logger,
	cfg *config.Pipeline,
	db *gorm.DB,
	ai openai.Client,
	engine *retrieval.Engine,
	topics repos.TopicRepo,
	chunks repos.ChunkRepo,
	quizRepo repos.QuizRepo,
	questions repos.QuizQuestionRepo,
	options repos.QuizOptionRepo,
	sync ConsistencyService,
) QuizGenService {
	return &quizGenService{
		log:       log.With("service", "QuizGenService"),
		cfg:       cfg,
		db:        db,
		ai:        ai,
		engine:    engine,
		topics:    topics,
		chunks:    chunks,
		quizzes:   quizRepo,
		questions: questions,
		options:   options,
		sync:      sync,
	}
}

func (s *quizGenService) Request(ctx context.Context, userID, topicID uuid.UUID, in RequestQuizInput) (*types.Quiz, error) {
	if !quizzes.AllowedQuestionCounts[in.QuestionCount] {
		return nil, apierr.ErrInvalidArgument
	}
	switch in.Difficulty {
	case types.DifficultyEasy, types.DifficultyMedium, types.DifficultyHard:
	default:
		return nil, apierr.ErrInvalidArgument
	}
	topic, err := s.topics.GetByID(ctx, nil, userID, topicID)
	if err != nil {
		return nil, err
	}

	n, err := s.chunks.CountActiveByTopic(ctx, nil, topicID)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, apierr.ErrConflict
	}

	title := strings.TrimSpace(in.Title)
	if title == "" {
		title = fmt.Sprintf("%s quiz (%s)", topic.Name, in.Difficulty)
	}

	quiz := &types.Quiz{
		ID:            uuid.New(),
		TopicID:       topicID,
		Title:         title,
		Scope:         strings.TrimSpace(in.Scope),
		Difficulty:    in.Difficulty,
		QuestionCount: in.QuestionCount,
		Status:        types.StatusPending,
	}
	if _, err := s.quizzes.Create(ctx, nil, quiz); err != nil {
		return nil, err
	}
	s.log.Info("quiz requested", "quiz_id", quiz.ID, "topic_id", topicID, "count", in.QuestionCount)
	return quiz, nil
}

func (s *quizGenService) Regenerate(ctx context.Context, userID, quizID uuid.UUID) (*types.Quiz, error) {
	quiz, err := s.quizzes.GetByID(ctx, nil, quizID)
	if err != nil {
		return nil, err
	}
	if _, err := s.topics.GetByID(ctx, nil, userID, quiz.TopicID); err != nil {
		return nil, err
	}
	// Only terminal quizzes may be reset; a pending or processing one is
	// already on its way through the machine.
	if !genjob.CanTransition(quiz.Status, genjob.StatusPending) {
		return nil, apierr.ErrConflict
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		if err := s.quizzes.DeleteGeneratedContent(ctx, tx, quiz.ID); err != nil {
			return err
		}
		if err := s.quizzes.ResetForRegeneration(ctx, tx, quiz.ID); err != nil {
			return err
		}
		return s.sync.TouchTopic(dbc, quiz.TopicID)
	})
	if err != nil {
		return nil, err
	}
	return s.quizzes.GetByID(ctx, nil, quizID)
}

func (s *quizGenService) Generate(ctx context.Context, quiz *types.Quiz) error {
	fail := func(cause error) error {
		// Attempts was bumped by the claim; settle back to pending while
		// retries remain so the worker picks the row up again.
		status := genjob.SettleFailure(quiz.Attempts, s.cfg.Generation.MaxAttempts)
		if err := s.quizzes.UpdateFields(ctx, nil, quiz.ID, map[string]interface{}{
			"status": status,
			"error":  cause.Error(),
		}); err != nil {
			s.log.Error("failed to record quiz failure", "quiz_id", quiz.ID, "error", err)
		}
		return cause
	}

	if _, err := genjob.Transition(quiz.Status, genjob.StatusReady); err != nil {
		return fail(err)
	}

	var topic types.Topic
	if err := s.db.WithContext(ctx).Where("id = ?", quiz.TopicID).First(&topic).Error; err != nil {
		return fail(err)
	}

	matches, err := s.gatherQuizContext(ctx, &topic, quiz)
	if err != nil {
		return fail(err)
	}
	material := retrieval.BuildContext(matches, 0)

	system := "You are a study assistant that writes multiple-choice quizzes. " +
		"Every question must be answerable from the provided material alone."
	user := fmt.Sprintf(
		"Write exactly %d %s multiple-choice questions about the material below. "+
			"Each question has exactly 4 options labelled A, B, C, D with exactly one correct. "+
			"Include a short explanation of the correct answer.\n\nTopic: %s\n\nMaterial:\n%s",
		quiz.QuestionCount, quiz.Difficulty, topic.Name, material,
	)

	raw, err := s.ai.GenerateJSON(ctx, system, user, "quiz", quizSchema(quiz.QuestionCount))
	if err != nil {
		return fail(fmt.Errorf("generate quiz: %w", err))
	}

	parsed, err := parseGeneratedQuiz(raw, quiz.QuestionCount)
	if err != nil {
		return fail(err)
	}

	now := time.Now().UTC()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}

		questionRows := make([]*types.QuizQuestion, 0, len(parsed.Questions))
		optionRows := make([]*types.QuizOption, 0, len(parsed.Questions)*4)
		for i, q := range parsed.Questions {
			question := &types.QuizQuestion{
				ID:          uuid.New(),
				QuizID:      quiz.ID,
				Index:       i,
				Prompt:      q.Prompt,
				Explanation: q.Explanation,
			}
			questionRows = append(questionRows, question)
			for _, o := range q.Options {
				optionRows = append(optionRows, &types.QuizOption{
					ID:         uuid.New(),
					QuestionID: question.ID,
					Label:      o.Label,
					Text:       o.Text,
					IsCorrect:  o.Correct,
				})
			}
		}
		if _, err := s.questions.Create(ctx, tx, questionRows); err != nil {
			return err
		}
		if _, err := s.options.Create(ctx, tx, optionRows); err != nil {
			return err
		}
		if err := s.quizzes.UpdateFields(ctx, tx, quiz.ID, map[string]interface{}{
			"status":   types.StatusReady,
			"error":    "",
			"ready_at": now,
		}); err != nil {
			return err
		}
		return s.sync.TouchTopic(dbc, quiz.TopicID)
	})
	if err != nil {
		return fail(err)
	}

	s.log.Info("quiz generated", "quiz_id", quiz.ID, "questions", len(parsed.Questions))
	return nil
}

// gatherQuizContext retrieves material through several query variants so the
// questions cover more than one angle of the topic. A quiz scope replaces the
// generic base query and seeds the expansion. Matches are unioned by chunk
// and kept in best-similarity order.
func (s *quizGenService) gatherQuizContext(ctx context.Context, topic *types.Topic, quiz *types.Quiz) ([]retrieval.Match, error) {
	focus := strings.TrimSpace(quiz.Scope)
	base := fmt.Sprintf("questions and testable facts about %s", topic.Name)
	if focus != "" {
		base = fmt.Sprintf("questions and testable facts about %s: %s", topic.Name, focus)
	}
	queries := append([]string{base}, s.expandQueries(ctx, topic.Name, focus, quiz.Difficulty)...)

	seen := map[uuid.UUID]bool{}
	var union []retrieval.Match
	for _, q := range queries {
		matches, err := s.engine.Search(ctx, topic.UserID, retrieval.Query{
			TopicID: &topic.ID,
			Text:    q,
			TopK:    s.cfg.Retrieval.FetchK,
		})
		if err != nil {
			return nil, err
		}
		for _, m := range matches {
			if seen[m.ChunkID] {
				continue
			}
			seen[m.ChunkID] = true
			union = append(union, m)
		}
	}
	if len(union) == 0 {
		return nil, fmt.Errorf("no searchable content in topic %s", topic.ID)
	}
	sort.SliceStable(union, func(i, j int) bool { return union[i].Similarity > union[j].Similarity })
	return union, nil
}

// expandQueries asks the model for retrieval query variants. Failures fall
// back to the single base query; expansion is a recall booster, not a
// prerequisite.
func (s *quizGenService) expandQueries(ctx context.Context, topicName, focus, difficulty string) []string {
	n := s.cfg.Generation.Expansions
	if n <= 0 {
		return nil
	}
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"queries": map[string]any{
				"type":     "array",
				"minItems": n,
				"maxItems": n,
				"items":    map[string]any{"type": "string"},
			},
		},
		"required":             []string{"queries"},
		"additionalProperties": false,
	}
	system := "You write search queries for a study-material retrieval system."
	user := fmt.Sprintf(
		"Write %d distinct search queries that together cover the aspects of %q worth testing in a %s quiz.",
		n, topicName, difficulty)
	if focus != "" {
		user += fmt.Sprintf(" Focus on: %s.", focus)
	}

	raw, err := s.ai.GenerateJSON(ctx, system, user, "query_expansion", schema)
	if err != nil {
		s.log.Warn("query expansion failed, using base query only", "topic", topicName, "error", err)
		return nil
	}
	items, _ := raw["queries"].([]any)
	out := make([]string, 0, len(items))
	for _, it := range items {
		if q, ok := it.(string); ok {
			if q = strings.TrimSpace(q); q != "" {
				out = append(out, q)
			}
		}
	}
	return out
}

// parseGeneratedQuiz validates the model payload: exact question count, four
// options labelled A-D, exactly one correct per question.
func parseGeneratedQuiz(raw map[string]any, wantCount int) (*generatedQuiz, error) {
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, err
	}
	var parsed generatedQuiz
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("quiz payload malformed: %w", err)
	}

	if len(parsed.Questions) != wantCount {
		return nil, fmt.Errorf("expected %d questions, got %d", wantCount, len(parsed.Questions))
	}
	for i := range parsed.Questions {
		q := &parsed.Questions[i]
		q.Prompt = strings.TrimSpace(q.Prompt)
		if q.Prompt == "" {
			return nil, fmt.Errorf("question %d has empty prompt", i+1)
		}
		if len(q.Options) != 4 {
			return nil, fmt.Errorf("question %d has %d options, want 4", i+1, len(q.Options))
		}
		correct := 0
		seen := map[string]bool{}
		for j := range q.Options {
			o := &q.Options[j]
			o.Label = strings.ToUpper(strings.TrimSpace(o.Label))
			o.Text = strings.TrimSpace(o.Text)
			if o.Text == "" {
				return nil, fmt.Errorf("question %d option %s has empty text", i+1, o.Label)
			}
			if seen[o.Label] {
				return nil, fmt.Errorf("question %d repeats label %s", i+1, o.Label)
			}
			seen[o.Label] = true
			if o.Correct {
				correct++
			}
		}
		for _, label := range optionLabels {
			if !seen[label] {
				return nil, fmt.Errorf("question %d missing label %s", i+1, label)
			}
		}
		if correct != 1 {
			return nil, fmt.Errorf("question %d has %d correct options, want exactly 1", i+1, correct)
		}
	}
	return &parsed, nil
}

func quizSchema(count int) map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"questions": map[string]any{
				"type":     "array",
				"minItems": count,
				"maxItems": count,
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"prompt":      map[string]any{"type": "string"},
						"explanation": map[string]any{"type": "string"},
						"options": map[string]any{
							"type":     "array",
							"minItems": 4,
							"maxItems": 4,
							"items": map[string]any{
								"type": "object",
								"properties": map[string]any{
									"label":   map[string]any{"type": "string", "enum": []string{"A", "B", "C", "D"}},
									"text":    map[string]any{"type": "string"},
									"correct": map[string]any{"type": "boolean"},
								},
								"required":             []string{"label", "text", "correct"},
								"additionalProperties": false,
							},
						},
					},
					"required":             []string{"prompt", "explanation", "options"},
					"additionalProperties": false,
				},
			},
		},
		"required":             []string{"questions"},
		"additionalProperties": false,
	}
}
