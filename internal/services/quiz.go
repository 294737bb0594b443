package services

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/studyden/studyden-backend/internal/data/repos"
	types "github.com/studyden/studyden-backend/internal/domain"
	"github.com/studyden/studyden-backend/internal/platform/apierr"
	"github.com/studyden/studyden-backend/internal/platform/logger"
)

// AnswerInput is one (question, chosen option) pair of a submission.
type AnswerInput struct {
	QuestionID uuid.UUID `json:"question_id"`
	OptionID   uuid.UUID `json:"option_id"`
}

type QuizService interface {
	Get(ctx context.Context, userID, quizID uuid.UUID) (*types.Quiz, error)
	List(ctx context.Context, userID, topicID uuid.UUID) ([]*types.Quiz, error)
	Delete(ctx context.Context, userID, quizID uuid.UUID) error

	// SubmitAttempt scores a full answer set against the quiz's current
	// questions. All questions must be answered exactly once.
	SubmitAttempt(ctx context.Context, userID, quizID uuid.UUID, answers []AnswerInput) (*types.QuizAttempt, error)
	ListAttempts(ctx context.Context, userID, quizID uuid.UUID) ([]*types.QuizAttempt, error)
}

type quizService struct {
	log      *logger.Logger
	db       *gorm.DB
	topics   repos.TopicRepo
	quizzes  repos.QuizRepo
	attempts repos.QuizAttemptRepo
	answers  repos.AttemptAnswerRepo
}

func NewQuizService(
	log *logger.Logger,
	db *gorm.DB,
	topics repos.TopicRepo,
	quizRepo repos.QuizRepo,
	attempts repos.QuizAttemptRepo,
	answers repos.AttemptAnswerRepo,
) QuizService {
	return &quizService{
		log:      log.With("service", "QuizService"),
		db:       db,
		topics:   topics,
		quizzes:  quizRepo,
		attempts: attempts,
		answers:  answers,
	}
}

// scorePercent rounds 100*correct/total to the nearest whole percent.
func scorePercent(correct, total int) int {
	if total <= 0 {
		return 0
	}
	return (correct*100 + total/2) / total
}

// ownedQuiz loads a quiz and verifies the topic belongs to the user.
func (s *quizService) ownedQuiz(ctx context.Context, userID, quizID uuid.UUID) (*types.Quiz, error) {
	quiz, err := s.quizzes.GetByID(ctx, nil, quizID)
	if err != nil {
		return nil, err
	}
	if _, err := s.topics.GetByID(ctx, nil, userID, quiz.TopicID); err != nil {
		return nil, err
	}
	return quiz, nil
}

func (s *quizService) Get(ctx context.Context, userID, quizID uuid.UUID) (*types.Quiz, error) {
	if _, err := s.ownedQuiz(ctx, userID, quizID); err != nil {
		return nil, err
	}
	return s.quizzes.GetWithQuestions(ctx, nil, quizID)
}

func (s *quizService) List(ctx context.Context, userID, topicID uuid.UUID) ([]*types.Quiz, error) {
	if _, err := s.topics.GetByID(ctx, nil, userID, topicID); err != nil {
		return nil, err
	}
	return s.quizzes.ListByTopic(ctx, nil, topicID)
}

func (s *quizService) Delete(ctx context.Context, userID, quizID uuid.UUID) error {
	quiz, err := s.ownedQuiz(ctx, userID, quizID)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.quizzes.DeleteGeneratedContent(ctx, tx, quiz.ID); err != nil {
			return err
		}
		return s.quizzes.SoftDelete(ctx, tx, quiz.ID)
	})
}

func (s *quizService) SubmitAttempt(ctx context.Context, userID, quizID uuid.UUID, answers []AnswerInput) (*types.QuizAttempt, error) {
	quiz, err := s.ownedQuiz(ctx, userID, quizID)
	if err != nil {
		return nil, err
	}
	if quiz.Status != types.StatusReady {
		return nil, apierr.ErrConflict
	}

	var attempt *types.QuizAttempt
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Re-read questions inside the transaction: a concurrent regeneration
		// may have replaced them since the client loaded the quiz.
		full, err := s.quizzes.GetWithQuestions(ctx, tx, quizID)
		if err != nil {
			return err
		}
		if full.Status != types.StatusReady {
			return apierr.ErrConflict
		}

		correctByQuestion := make(map[uuid.UUID]uuid.UUID, len(full.Questions))
		optionOwner := make(map[uuid.UUID]uuid.UUID)
		for _, q := range full.Questions {
			for _, o := range q.Options {
				optionOwner[o.ID] = q.ID
				if o.IsCorrect {
					correctByQuestion[q.ID] = o.ID
				}
			}
		}

		if len(answers) != len(full.Questions) {
			return apierr.ErrInvalidArgument
		}
		answered := make(map[uuid.UUID]bool, len(answers))
		score := 0
		rows := make([]*types.AttemptAnswer, 0, len(answers))
		attemptID := uuid.New()
		for _, a := range answers {
			owner, ok := optionOwner[a.OptionID]
			if !ok || owner != a.QuestionID {
				// Stale IDs from before a regeneration.
				return apierr.ErrConflict
			}
			if answered[a.QuestionID] {
				return apierr.ErrInvalidArgument
			}
			answered[a.QuestionID] = true
			isCorrect := correctByQuestion[a.QuestionID] == a.OptionID
			if isCorrect {
				score++
			}
			rows = append(rows, &types.AttemptAnswer{
				ID:         uuid.New(),
				AttemptID:  attemptID,
				QuestionID: a.QuestionID,
				OptionID:   a.OptionID,
				IsCorrect:  isCorrect,
			})
		}

		attempt = &types.QuizAttempt{
			ID:           attemptID,
			QuizID:       quiz.ID,
			UserID:       userID,
			Score:        score,
			Total:        len(full.Questions),
			ScorePercent: scorePercent(score, len(full.Questions)),
		}
		if _, err := s.attempts.Create(ctx, tx, attempt); err != nil {
			return err
		}
		if _, err := s.answers.Create(ctx, tx, rows); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("attempt scored", "quiz_id", quizID, "attempt_id", attempt.ID, "score", attempt.Score, "total", attempt.Total)
	return attempt, nil
}

func (s *quizService) ListAttempts(ctx context.Context, userID, quizID uuid.UUID) ([]*types.QuizAttempt, error) {
	if _, err := s.ownedQuiz(ctx, userID, quizID); err != nil {
		return nil, err
	}
	return s.attempts.ListByQuiz(ctx, nil, userID, quizID)
}
