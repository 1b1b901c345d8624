package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/studybuddy/internal/core/domain"
	"github.com/custodia-labs/studybuddy/internal/core/ports/driven"
	"github.com/custodia-labs/studybuddy/internal/core/ports/driving"
	"github.com/custodia-labs/studybuddy/internal/logger"
	"github.com/custodia-labs/studybuddy/internal/metrics"
)

// Ensure ChatService implements the interface.
var _ driving.ChatService = (*ChatService)(nil)

// ChatService runs conversation turns for one session.
// History is recorded for display only and never reaches the model.
type ChatService struct {
	ingestion driving.IngestionService
	query     driving.QueryService
	backend   driven.GenerationBackend
	history   driven.HistoryStore
	topK      int
	now       func() time.Time
	metrics   *metrics.Metrics
}

// NewChatService creates a chat service. backend may be nil, in which case
// Turn fails with domain.ErrLLMUnavailable after ingesting uploads.
func NewChatService(
	ingestion driving.IngestionService,
	query driving.QueryService,
	backend driven.GenerationBackend,
	history driven.HistoryStore,
	topK int,
) *ChatService {
	if topK <= 0 {
		topK = domain.DefaultTopK
	}
	return &ChatService{
		ingestion: ingestion,
		query:     query,
		backend:   backend,
		history:   history,
		topK:      topK,
		now:       time.Now,
	}
}

// SetMetrics enables answer metrics.
func (s *ChatService) SetMetrics(m *metrics.Metrics) {
	s.metrics = m
}

// Turn ingests docs, builds the grounded request for question and opens the
// answer stream. The user entry is recorded immediately; the assistant entry
// is recorded only once the stream completes without error. When the turn
// fails after uploads were ingested the error is a *domain.TurnError carrying
// the per-document outcomes.
func (s *ChatService) Turn(ctx context.Context, question string, docs []domain.UploadedDocument) (driving.Reply, error) {
	logger.Section("Chat Turn")

	var outcomes []domain.IngestOutcome
	if len(docs) > 0 {
		outcomes = s.ingestion.IngestAll(ctx, docs)
		for _, o := range outcomes {
			if o.Err != nil {
				logger.Warn("Upload %s rejected: %v", o.Source, o.Err)
			}
		}
	}

	if err := s.history.Append(ctx, domain.HistoryEntry{
		Role: domain.RoleUser,
		Text: question,
		At:   s.now(),
	}); err != nil {
		return nil, turnFailure(outcomes, fmt.Errorf("record question: %w", err))
	}

	req, err := s.query.Answer(ctx, question, s.topK)
	if err != nil {
		return nil, turnFailure(outcomes, err)
	}

	if s.backend == nil {
		return nil, turnFailure(outcomes, domain.ErrLLMUnavailable)
	}

	stream, err := s.backend.Stream(ctx, req)
	if err != nil {
		if !errors.Is(err, domain.ErrGenerationBackend) {
			err = fmt.Errorf("%w: %w", domain.ErrGenerationBackend, err)
		}
		return nil, turnFailure(outcomes, err)
	}
	logger.Debug("Streaming answer from %s", s.backend.ModelName())

	return &reply{
		ctx:      ctx,
		svc:      s,
		stream:   stream,
		request:  req,
		outcomes: outcomes,
		started:  s.now(),
	}, nil
}

func turnFailure(outcomes []domain.IngestOutcome, err error) error {
	if len(outcomes) == 0 {
		return err
	}
	return &domain.TurnError{Outcomes: outcomes, Err: err}
}

// History returns the conversation so far.
func (s *ChatService) History(ctx context.Context) ([]domain.HistoryEntry, error) {
	return s.history.List(ctx)
}

// ClearHistory forgets the conversation.
func (s *ChatService) ClearHistory(ctx context.Context) error {
	return s.history.Clear(ctx)
}

// reply adapts an AnswerStream into a driving.Reply and records the
// assistant entry when the stream ends cleanly.
type reply struct {
	ctx      context.Context
	svc      *ChatService
	stream   driven.AnswerStream
	request  *domain.GenerationRequest
	outcomes []domain.IngestOutcome
	started  time.Time

	mu       sync.Mutex
	answer   strings.Builder
	current  string
	finished bool
	closed   bool
	err      error
}

func (r *reply) Next() bool {
	r.mu.Lock()
	if r.finished || r.closed {
		r.mu.Unlock()
		return false
	}
	r.mu.Unlock()

	// The stream is read without holding the lock so Close can interrupt it.
	if r.stream.Next() {
		text := r.stream.Text()
		r.mu.Lock()
		r.current = text
		r.answer.WriteString(text)
		r.mu.Unlock()
		return true
	}

	r.finish(r.stream.Err())
	return false
}

func (r *reply) Text() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

func (r *reply) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

func (r *reply) Close() error {
	r.mu.Lock()
	finished := r.finished
	r.closed = true
	r.mu.Unlock()

	err := r.stream.Close()
	if !finished {
		r.finish(errors.New("stream closed before completion"))
	}
	return err
}

func (r *reply) Answer() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.answer.String()
}

func (r *reply) Request() *domain.GenerationRequest {
	return r.request
}

func (r *reply) Outcomes() []domain.IngestOutcome {
	return r.outcomes
}

// finish runs once, on the first of stream end or Close.
func (r *reply) finish(streamErr error) {
	r.mu.Lock()
	if r.finished {
		r.mu.Unlock()
		return
	}
	r.finished = true
	answer := r.answer.String()
	if r.closed && streamErr == nil {
		streamErr = errors.New("stream closed before completion")
	}
	if streamErr != nil {
		r.err = fmt.Errorf("%w: %w", domain.ErrIncompleteAnswer, streamErr)
	}
	complete := r.err == nil
	r.mu.Unlock()

	r.svc.metrics.ObserveAnswer(r.svc.now().Sub(r.started), complete)

	if !complete {
		logger.Warn("Answer incomplete after %d bytes: %v", len(answer), streamErr)
		return
	}

	logger.Debug("Answer complete: %d bytes", len(answer))
	if err := r.svc.history.Append(context.WithoutCancel(r.ctx), domain.HistoryEntry{
		Role: domain.RoleAssistant,
		Text: answer,
		At:   r.svc.now(),
	}); err != nil {
		r.mu.Lock()
		r.err = fmt.Errorf("record answer: %w", err)
		r.mu.Unlock()
	}
}
