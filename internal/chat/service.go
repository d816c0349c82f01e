// Package chat orchestrates one conversation turn: log the question,
// retrieve grounding context, generate the answer, log it, slide the
// session's TTL.
package chat

import (
	"context"
	"errors"
	"fmt"

	"github.com/newsquill/newsquill/internal/generate"
	"github.com/newsquill/newsquill/internal/log"
	"github.com/newsquill/newsquill/internal/session"
)

// ErrEmptyMessage indicates a turn with no question.
var ErrEmptyMessage = errors.New("empty message")

// ContextRetriever returns grounding chunks for a query.
type ContextRetriever interface {
	Retrieve(ctx context.Context, query string, topK int) ([]string, error)
}

// Service runs chat turns against a retriever, a generator and a session
// store.
type Service struct {
	retriever ContextRetriever
	generator generate.Generator
	sessions  session.Store
	topK      int
	logger    log.Logger
}

// New creates a chat Service. topK <= 0 falls back to the retriever
// default.
func New(retriever ContextRetriever, generator generate.Generator,
	sessions session.Store, topK int, logger log.Logger) (*Service, error) {
	if retriever == nil || generator == nil || sessions == nil {
		return nil, fmt.Errorf("retriever, generator and session store are required")
	}
	if logger == nil {
		logger = log.NewNop()
	}
	return &Service{
		retriever: retriever,
		generator: generator,
		sessions:  sessions,
		topK:      topK,
		logger:    logger,
	}, nil
}

// HandleTurn runs one full turn for sessionID and returns the answer.
//
// The user turn is logged before retrieval and generation, so a failed
// turn leaves the question in the history without an answer. That record
// is intentional: the history shows what the user asked even when the
// model never replied.
func (s *Service) HandleTurn(ctx context.Context, sessionID, message string) (string, error) {
	if message == "" {
		return "", ErrEmptyMessage
	}

	if err := s.sessions.Append(ctx, sessionID, session.Turn{
		Role:    session.RoleUser,
		Content: message,
	}); err != nil {
		return "", fmt.Errorf("logging user turn: %w", err)
	}

	chunks, err := s.retriever.Retrieve(ctx, message, s.topK)
	if err != nil {
		return "", fmt.Errorf("retrieving context: %w", err)
	}
	s.logger.Debug("retrieved context", "session_id", sessionID, "chunks", len(chunks))

	answer, err := s.generator.Generate(ctx, message, chunks)
	if err != nil {
		return "", fmt.Errorf("generating answer: %w", err)
	}

	if err := s.sessions.Append(ctx, sessionID, session.Turn{
		Role:    session.RoleAssistant,
		Content: answer,
	}); err != nil {
		return "", fmt.Errorf("logging assistant turn: %w", err)
	}

	// Appends already slid the TTL; this keeps the turn's final act
	// explicit and covers stores whose Append does not refresh.
	if err := s.sessions.Touch(ctx, sessionID); err != nil {
		s.logger.Warn("ttl refresh failed", "session_id", sessionID, "error", err)
	}

	s.logger.Info("turn completed", "session_id", sessionID, "context_chunks", len(chunks))
	return answer, nil
}

// History returns the session's turn log in append order.
func (s *Service) History(ctx context.Context, sessionID string) ([]session.Turn, error) {
	return s.sessions.History(ctx, sessionID)
}

// Reset deletes the session's turn log.
func (s *Service) Reset(ctx context.Context, sessionID string) error {
	return s.sessions.Reset(ctx, sessionID)
}
