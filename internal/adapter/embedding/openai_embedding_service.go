package embedding

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"fmt"
	"time"

	"quiz-class/internal/cache"
	"quiz-class/internal/domain"

	"github.com/tmc/langchaingo/embeddings"
	openaiLLM "github.com/tmc/langchaingo/llms/openai"
	"golang.org/x/sync/singleflight"
)

// OpenAIEmbeddingService implements domain.EmbeddingService using the OpenAI
// embeddings API. Results are cached by content hash, and concurrent requests
// for the same text share a single upstream call.
type OpenAIEmbeddingService struct {
	embedder          embeddings.Embedder
	cache             domain.Cache
	embeddingCacheTTL time.Duration
	sfGroup           singleflight.Group
}

// NewOpenAIEmbeddingService creates a new OpenAIEmbeddingService.
func NewOpenAIEmbeddingService(apiKey, modelName string, cache domain.Cache, embeddingCacheTTL time.Duration) (*OpenAIEmbeddingService, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai API key cannot be empty")
	}
	if modelName == "" {
		modelName = "text-embedding-ada-002"
	}
	if cache == nil {
		return nil, fmt.Errorf("cache instance cannot be nil for OpenAIEmbeddingService")
	}
	if embeddingCacheTTL <= 0 {
		return nil, fmt.Errorf("embeddingCacheTTL must be positive")
	}

	llm, err := openaiLLM.New(
		openaiLLM.WithToken(apiKey),
		openaiLLM.WithModel(modelName),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create OpenAI LLM client for embedder: %w", err)
	}

	embedder, err := embeddings.NewEmbedder(llm)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder from OpenAI LLM: %w", err)
	}

	return &OpenAIEmbeddingService{
		embedder:          embedder,
		cache:             cache,
		embeddingCacheTTL: embeddingCacheTTL,
	}, nil
}

// Generate creates an embedding for the given text using the OpenAI embedder.
// Cache failures are not fatal: a broken or unreadable cache entry falls
// through to a fresh upstream call.
func (s *OpenAIEmbeddingService) Generate(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, fmt.Errorf("input text cannot be empty for embedding")
	}

	textHash := hashString(text)
	cacheKey := cache.GenerateCacheKey("embedding", "openai", textHash)

	if cached, err := s.cache.Get(ctx, cacheKey); err == nil {
		var embedding []float32
		decoder := gob.NewDecoder(bytes.NewReader([]byte(cached)))
		if errDecode := decoder.Decode(&embedding); errDecode == nil {
			return embedding, nil
		}
		// Undecodable entry: regenerate and overwrite it below.
	}

	res, err, _ := s.sfGroup.Do(cacheKey, func() (interface{}, error) {
		embedding, fetchErr := s.embedder.EmbedQuery(ctx, text)
		if fetchErr != nil {
			return nil, fmt.Errorf("failed to generate embedding using OpenAI: %w", fetchErr)
		}
		if embedding == nil {
			return nil, fmt.Errorf("received nil embedding from OpenAI without error")
		}

		var buffer bytes.Buffer
		if errEncode := gob.NewEncoder(&buffer).Encode(embedding); errEncode != nil {
			return embedding, nil
		}
		// Caching is best effort; the embedding is still good without it.
		_ = s.cache.Set(ctx, cacheKey, buffer.String(), s.embeddingCacheTTL)
		return embedding, nil
	})
	if err != nil {
		return nil, err
	}

	embedding, ok := res.([]float32)
	if !ok {
		return nil, fmt.Errorf("unexpected type from singleflight for openai embedding: %T", res)
	}
	return embedding, nil
}

// hashString keys cache entries by content so the same text never embeds
// twice regardless of where it appears.
func hashString(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
