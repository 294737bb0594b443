package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/studyden/studyden-backend/internal/platform/apierr"
	"github.com/studyden/studyden-backend/internal/platform/logger"
	"github.com/studyden/studyden-backend/internal/platform/openai"
	"github.com/studyden/studyden-backend/internal/retrieval"
)

// ChatAnswer is a grounded answer with the sources it drew on.
type ChatAnswer struct {
	Answer  string            `json:"answer"`
	Sources []retrieval.Match `json:"sources"`
}

type ChatService interface {
	// Ask answers a question strictly from the topic's ingested material.
	// A non-nil documentID narrows the sources to one document.
	Ask(ctx context.Context, userID, topicID uuid.UUID, documentID *uuid.UUID, question string) (*ChatAnswer, error)
}

type chatService struct {
	log    *logger.Logger
	ai     openai.Client
	engine *retrieval.Engine
}

func NewChatService(log *logger.Logger, ai openai.Client, engine *retrieval.Engine) ChatService {
	return &chatService{
		log:    log.With("service", "ChatService"),
		ai:     ai,
		engine: engine,
	}
}

func (s *chatService) Ask(ctx context.Context, userID, topicID uuid.UUID, documentID *uuid.UUID, question string) (*ChatAnswer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, apierr.ErrInvalidArgument
	}

	material, matches, err := s.engine.GatherContext(ctx, userID, retrieval.Query{
		TopicID:    &topicID,
		DocumentID: documentID,
		Text:       question,
	})
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return &ChatAnswer{
			Answer:  "I couldn't find anything about that in this topic's materials.",
			Sources: []retrieval.Match{},
		}, nil
	}

	system := "You are a study assistant. Answer only from the provided sources. " +
		"Cite sources as [Source N]. If the sources do not contain the answer, say so."
	user := fmt.Sprintf("Question: %s\n\nSources:\n%s", question, material)

	answer, err := s.ai.GenerateText(ctx, system, user)
	if err != nil {
		return nil, fmt.Errorf("generate answer: %w", err)
	}

	return &ChatAnswer{Answer: answer, Sources: matches}, nil
}
