package embedding

import (
	"bytes"
	"context"
	"encoding/gob"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"quiz-class/internal/domain"
)

// MockCache is a testify mock of domain.Cache shared by the tests in this
// package.
type MockCache struct {
	mock.Mock
}

func (m *MockCache) Get(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *MockCache) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	args := m.Called(ctx, key, value, ttl)
	return args.Error(0)
}

func (m *MockCache) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockCache) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

var _ domain.Cache = (*MockCache)(nil)

func gobEncodeFloats(t *testing.T, embedding []float32) string {
	t.Helper()
	var buffer bytes.Buffer
	err := gob.NewEncoder(&buffer).Encode(embedding)
	assert.NoError(t, err)
	return buffer.String()
}

func TestNewOpenAIEmbeddingService(t *testing.T) {
	mockCache := new(MockCache)
	validTTL := 30 * time.Minute

	t.Run("success", func(t *testing.T) {
		_, err := NewOpenAIEmbeddingService("fake-api-key", "text-embedding-ada-002", mockCache, validTTL)
		assert.NoError(t, err)
	})

	t.Run("empty model name uses default", func(t *testing.T) {
		_, err := NewOpenAIEmbeddingService("fake-api-key", "", mockCache, validTTL)
		assert.NoError(t, err)
	})

	t.Run("empty api key", func(t *testing.T) {
		_, err := NewOpenAIEmbeddingService("", "text-embedding-ada-002", mockCache, validTTL)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "openai API key cannot be empty")
	})

	t.Run("nil cache", func(t *testing.T) {
		_, err := NewOpenAIEmbeddingService("fake-api-key", "text-embedding-ada-002", nil, validTTL)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "cache instance cannot be nil")
	})

	t.Run("zero TTL", func(t *testing.T) {
		_, err := NewOpenAIEmbeddingService("fake-api-key", "text-embedding-ada-002", mockCache, 0)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "embeddingCacheTTL must be positive")
	})
}

func TestOpenAIEmbeddingService_Generate(t *testing.T) {
	ctx := context.Background()
	validTTL := 30 * time.Minute

	textToEmbed := "mitosis vs meiosis"
	expectedEmbedding := []float32{0.4, 0.5, 0.6}
	cacheKey := "quizclass:embedding:openai:" + hashString(textToEmbed)

	t.Run("cache miss generates and caches", func(t *testing.T) {
		mockEmb := new(MockEmbedder)
		mockCache := new(MockCache)
		service := &OpenAIEmbeddingService{embedder: mockEmb, cache: mockCache, embeddingCacheTTL: validTTL}

		mockCache.On("Get", ctx, cacheKey).Return("", domain.ErrCacheMiss).Once()
		mockEmb.On("EmbedQuery", ctx, textToEmbed).Return(expectedEmbedding, nil).Once()
		mockCache.On("Set", ctx, cacheKey, gobEncodeFloats(t, expectedEmbedding), validTTL).Return(nil).Once()

		result, err := service.Generate(ctx, textToEmbed)
		assert.NoError(t, err)
		assert.Equal(t, expectedEmbedding, result)
		mockEmb.AssertExpectations(t)
		mockCache.AssertExpectations(t)
	})

	t.Run("cache hit skips embedder", func(t *testing.T) {
		mockEmb := new(MockEmbedder)
		mockCache := new(MockCache)
		service := &OpenAIEmbeddingService{embedder: mockEmb, cache: mockCache, embeddingCacheTTL: validTTL}

		mockCache.On("Get", ctx, cacheKey).Return(gobEncodeFloats(t, expectedEmbedding), nil).Once()

		result, err := service.Generate(ctx, textToEmbed)
		assert.NoError(t, err)
		assert.Equal(t, expectedEmbedding, result)
		mockCache.AssertExpectations(t)
		mockEmb.AssertNotCalled(t, "EmbedQuery", ctx, textToEmbed)
	})

	t.Run("corrupt cache entry falls through to embedder", func(t *testing.T) {
		mockEmb := new(MockEmbedder)
		mockCache := new(MockCache)
		service := &OpenAIEmbeddingService{embedder: mockEmb, cache: mockCache, embeddingCacheTTL: validTTL}

		mockCache.On("Get", ctx, cacheKey).Return("not gob data", nil).Once()
		mockEmb.On("EmbedQuery", ctx, textToEmbed).Return(expectedEmbedding, nil).Once()
		mockCache.On("Set", ctx, cacheKey, gobEncodeFloats(t, expectedEmbedding), validTTL).Return(nil).Once()

		result, err := service.Generate(ctx, textToEmbed)
		assert.NoError(t, err)
		assert.Equal(t, expectedEmbedding, result)
		mockEmb.AssertExpectations(t)
		mockCache.AssertExpectations(t)
	})

	t.Run("cache read error still generates", func(t *testing.T) {
		mockEmb := new(MockEmbedder)
		mockCache := new(MockCache)
		service := &OpenAIEmbeddingService{embedder: mockEmb, cache: mockCache, embeddingCacheTTL: validTTL}

		mockCache.On("Get", ctx, cacheKey).Return("", errors.New("redis down")).Once()
		mockEmb.On("EmbedQuery", ctx, textToEmbed).Return(expectedEmbedding, nil).Once()
		mockCache.On("Set", ctx, cacheKey, gobEncodeFloats(t, expectedEmbedding), validTTL).Return(nil).Once()

		result, err := service.Generate(ctx, textToEmbed)
		assert.NoError(t, err)
		assert.Equal(t, expectedEmbedding, result)
		mockEmb.AssertExpectations(t)
		mockCache.AssertExpectations(t)
	})

	t.Run("cache write error is not fatal", func(t *testing.T) {
		mockEmb := new(MockEmbedder)
		mockCache := new(MockCache)
		service := &OpenAIEmbeddingService{embedder: mockEmb, cache: mockCache, embeddingCacheTTL: validTTL}

		mockCache.On("Get", ctx, cacheKey).Return("", domain.ErrCacheMiss).Once()
		mockEmb.On("EmbedQuery", ctx, textToEmbed).Return(expectedEmbedding, nil).Once()
		mockCache.On("Set", ctx, cacheKey, gobEncodeFloats(t, expectedEmbedding), validTTL).Return(errors.New("redis down")).Once()

		result, err := service.Generate(ctx, textToEmbed)
		assert.NoError(t, err)
		assert.Equal(t, expectedEmbedding, result)
	})

	t.Run("embedder error", func(t *testing.T) {
		mockEmb := new(MockEmbedder)
		mockCache := new(MockCache)
		service := &OpenAIEmbeddingService{embedder: mockEmb, cache: mockCache, embeddingCacheTTL: validTTL}

		mockCache.On("Get", ctx, cacheKey).Return("", domain.ErrCacheMiss).Once()
		mockEmb.On("EmbedQuery", ctx, textToEmbed).Return(nil, errors.New("openai failed")).Once()

		_, err := service.Generate(ctx, textToEmbed)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to generate embedding using OpenAI")
		mockCache.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("empty text", func(t *testing.T) {
		service := &OpenAIEmbeddingService{embedder: new(MockEmbedder), cache: new(MockCache), embeddingCacheTTL: validTTL}
		_, err := service.Generate(ctx, "")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "input text cannot be empty")
	})
}

func TestHashString(t *testing.T) {
	h1 := hashString("What is 2 + 2?")
	h2 := hashString("What is 2 + 2?")
	h3 := hashString("What is 2 + 3?")

	assert.Equal(t, h1, h2)
	assert.NotEqual(t, h1, h3)
	assert.Len(t, h1, 64)
}

var _ domain.EmbeddingService = (*OpenAIEmbeddingService)(nil)
