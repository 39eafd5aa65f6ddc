package embedding

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/embeddings"
	ollamaLLM "github.com/tmc/langchaingo/llms/ollama"
)

// OllamaEmbeddingService implements domain.EmbeddingService against a local
// Ollama server. Local embeddings are cheap enough that no cache sits in
// front of them.
type OllamaEmbeddingService struct {
	embedder embeddings.Embedder
}

// NewOllamaEmbeddingService creates a new OllamaEmbeddingService.
func NewOllamaEmbeddingService(serverURL, modelName string) (*OllamaEmbeddingService, error) {
	if serverURL == "" {
		return nil, fmt.Errorf("ollama server URL cannot be empty")
	}
	if modelName == "" {
		return nil, fmt.Errorf("ollama model name cannot be empty")
	}

	llm, err := ollamaLLM.New(
		ollamaLLM.WithModel(modelName),
		ollamaLLM.WithServerURL(serverURL),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create Ollama LLM client for embedder: %w", err)
	}

	embedder, err := embeddings.NewEmbedder(llm)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder from Ollama LLM: %w", err)
	}

	return &OllamaEmbeddingService{embedder: embedder}, nil
}

// Generate creates an embedding for the given text using the Ollama embedder.
func (s *OllamaEmbeddingService) Generate(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, fmt.Errorf("input text cannot be empty for embedding")
	}

	embedding, err := s.embedder.EmbedQuery(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to generate embedding using Ollama: %w", err)
	}
	return embedding, nil
}
