// Package rewrite turns raw journal entries into compassionate restatements
// suitable for semantic search. A journal entry is personal free-form text;
// sending it directly to the vector store matches poorly against scripture,
// so a generative model first restates it in the register of the corpus.
package rewrite

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// systemPrompt instructs the model to restate the entry rather than answer it.
const systemPrompt = "Here is a journal entry. Provide a compassionate and uplifting response to the user based on the Teachings of the Baha'i Faith. In your response, restate what the user is saying to you."

const (
	// charsPerToken is the conservative character-to-token ratio used for
	// entry length estimation. The service supports multiple backends with
	// different tokenizers, so an exact count is not available.
	charsPerToken = 4

	// defaultMaxEntryTokens caps the journal entry fed to the model. Entries
	// beyond this are truncated, not rejected — the restatement of the first
	// pages still retrieves well.
	defaultMaxEntryTokens = 2000
)

// Service rewrites journal entries through a chat model.
type Service struct {
	// model is the generative backend.
	model model.BaseChatModel
	// maxEntryTokens is the estimated-token cap applied to the entry.
	maxEntryTokens int
	// log receives truncation notices.
	log *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithMaxEntryTokens overrides the entry length cap.
func WithMaxEntryTokens(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxEntryTokens = n
		}
	}
}

// WithLogger sets the logger used for truncation notices.
func WithLogger(log *slog.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// NewService constructs a Service around the given chat model.
func NewService(m model.BaseChatModel, opts ...Option) (*Service, error) {
	if m == nil {
		return nil, fmt.Errorf("rewrite: model must not be nil")
	}
	s := &Service{
		model:          m,
		maxEntryTokens: defaultMaxEntryTokens,
		log:            slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// estimateTokens returns a rough token count using the character heuristic.
func estimateTokens(s string) int {
	n := len(s) / charsPerToken
	if n == 0 && len(s) > 0 {
		return 1
	}
	return n
}

// truncate cuts s to roughly maxTokens estimated tokens without splitting a
// UTF-8 sequence mid-rune.
func truncate(s string, maxTokens int) string {
	limit := maxTokens * charsPerToken
	if len(s) <= limit {
		return s
	}
	runes := []rune(s)
	out := make([]rune, 0, limit/2)
	size := 0
	for _, r := range runes {
		size += len(string(r))
		if size > limit {
			break
		}
		out = append(out, r)
	}
	return strings.TrimSpace(string(out))
}

// Rewrite restates the journal entry. Blank entries return empty output with
// no model call. Over-long entries are truncated to the configured cap before
// the call.
func (s *Service) Rewrite(ctx context.Context, entry string) (string, error) {
	entry = strings.TrimSpace(entry)
	if entry == "" {
		return "", nil
	}

	if estimateTokens(entry) > s.maxEntryTokens {
		s.log.Warn("journal entry exceeds length cap, truncating",
			slog.Int("estimated_tokens", estimateTokens(entry)),
			slog.Int("max_tokens", s.maxEntryTokens),
		)
		entry = truncate(entry, s.maxEntryTokens)
	}

	msgs := []*schema.Message{
		schema.SystemMessage(systemPrompt),
		schema.UserMessage(entry),
	}
	resp, err := s.model.Generate(ctx, msgs)
	if err != nil {
		return "", fmt.Errorf("rewrite: generate: %w", err)
	}
	return strings.TrimSpace(resp.Content), nil
}
