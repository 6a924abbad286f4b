package embedder

import (
	"log/slog"
	"testing"
)

func TestLooksLikeChatModel(t *testing.T) {
	t.Parallel()

	chat := []string{"gpt-4o-mini", "llama3:8b", "Mistral-7B", "claude-sonnet"}
	for _, m := range chat {
		if !looksLikeChatModel(m) {
			t.Errorf("%q should be flagged as a chat model", m)
		}
	}

	embedding := []string{"text-embedding-3-large", "nomic-embed-text", "all-minilm"}
	for _, m := range embedding {
		if looksLikeChatModel(m) {
			t.Errorf("%q should not be flagged as a chat model", m)
		}
	}
}

func TestValidate_OpenAIRequiresKey(t *testing.T) {
	t.Setenv("EMBEDDING_PROVIDER", "openai")
	t.Setenv("EMBEDDING_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")

	if err := Validate(slog.Default()); err == nil {
		t.Error("want error when no OpenAI key is set")
	}

	t.Setenv("OPENAI_API_KEY", "sk-test")
	if err := Validate(slog.Default()); err != nil {
		t.Errorf("unexpected error with key set: %v", err)
	}
}

func TestValidate_OllamaNeedsNoCredentials(t *testing.T) {
	t.Setenv("EMBEDDING_PROVIDER", "ollama")
	t.Setenv("EMBEDDING_API_KEY", "")

	if err := Validate(slog.Default()); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidate_UnknownBackend(t *testing.T) {
	t.Setenv("EMBEDDING_PROVIDER", "pinecone")

	if err := Validate(slog.Default()); err == nil {
		t.Error("want error for unknown backend")
	}
}

func TestDefaultDimensions(t *testing.T) {
	t.Setenv("EMBEDDING_DIMENSIONS", "")

	if got := DefaultDimensions("openai"); got != 3072 {
		t.Errorf("openai dimensions got %d, want 3072", got)
	}
	if got := DefaultDimensions("ollama"); got != 768 {
		t.Errorf("ollama dimensions got %d, want 768", got)
	}

	t.Setenv("EMBEDDING_DIMENSIONS", "1024")
	if got := DefaultDimensions("openai"); got != 1024 {
		t.Errorf("override dimensions got %d, want 1024", got)
	}
}
