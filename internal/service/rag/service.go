package rag

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/jwalitptl/medrecords-api/internal/model"
	"github.com/jwalitptl/medrecords-api/pkg/circuitbreaker"
	apperrors "github.com/jwalitptl/medrecords-api/pkg/errors"
	"github.com/jwalitptl/medrecords-api/pkg/metrics"
)

const DefaultTopK = 4

const promptTemplate = `Use the following pieces of context to answer the question at the end. If you don't know the answer, just say that you don't know, don't try to make up an answer.

%s

Question: %s
Helpful Answer:`

// Service answers questions from the current index. It never writes to it.
type Service struct {
	embedder  Embedder
	store     VectorStore
	generator Generator
	topK      int
	metrics   *metrics.Metrics
	logger    zerolog.Logger
}

func NewService(embedder Embedder, store VectorStore, generator Generator, topK int, m *metrics.Metrics, logger zerolog.Logger) *Service {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &Service{
		embedder:  embedder,
		store:     store,
		generator: generator,
		topK:      topK,
		metrics:   m,
		logger:    logger.With().Str("component", "rag").Logger(),
	}
}

func (s *Service) Ask(ctx context.Context, question string) (*model.Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, apperrors.BadRequest(ErrEmptyQuestion.Error(), ErrEmptyQuestion)
	}

	start := time.Now()
	answer, err := s.ask(ctx, question)
	if s.metrics != nil {
		s.metrics.RAGQueryLatency.Observe(time.Since(start).Seconds())
		status := "ok"
		if err != nil {
			status = "error"
		}
		s.metrics.RAGQueries.WithLabelValues(status).Inc()
	}
	if err != nil {
		s.logger.Error().Err(err).Msg("document QA failed")
		if errors.Is(err, circuitbreaker.ErrOpen) {
			return nil, apperrors.Unavailable("document QA is temporarily unavailable", err)
		}
		return nil, apperrors.Internal(err)
	}
	return answer, nil
}

func (s *Service) ask(ctx context.Context, question string) (*model.Answer, error) {
	embeddings, err := s.embedder.Embed(ctx, []string{question})
	if err != nil {
		return nil, fmt.Errorf("embed question: %w", err)
	}
	if len(embeddings) != 1 {
		return nil, fmt.Errorf("embed question: got %d embeddings", len(embeddings))
	}

	matches, err := s.store.Query(ctx, embeddings[0], s.topK)
	if err != nil {
		return nil, fmt.Errorf("query index: %w", err)
	}

	text, err := s.generator.Generate(ctx, BuildPrompt(question, matches))
	if err != nil {
		return nil, fmt.Errorf("generate answer: %w", err)
	}

	return &model.Answer{
		Question: question,
		Answer:   strings.TrimSpace(text),
		Sources:  sources(matches),
	}, nil
}

// BuildPrompt stuffs every retrieved document into a single context block.
func BuildPrompt(question string, matches []Match) string {
	parts := make([]string, 0, len(matches))
	for _, m := range matches {
		parts = append(parts, m.Document.Text)
	}
	return fmt.Sprintf(promptTemplate, strings.Join(parts, "\n\n"), question)
}

func sources(matches []Match) []string {
	seen := make(map[string]bool, len(matches))
	out := []string{}
	for _, m := range matches {
		if m.Document.Source == "" || seen[m.Document.Source] {
			continue
		}
		seen[m.Document.Source] = true
		out = append(out, m.Document.Source)
	}
	return out
}
