package rag

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/sashabaranov/go-openai"

	"github.com/jwalitptl/medrecords-api/pkg/circuitbreaker"
)

const (
	DefaultEmbeddingModel = string(openai.AdaEmbeddingV2)
	DefaultChatModel      = openai.GPT3Dot5Turbo
)

type OpenAIConfig struct {
	APIKey         string
	BaseURL        string
	EmbeddingModel string
	ChatModel      string
	MaxTokens      int
}

// OpenAIClient implements Embedder and Generator. Every call goes through
// the breaker.
type OpenAIClient struct {
	client         *openai.Client
	embeddingModel openai.EmbeddingModel
	chatModel      string
	maxTokens      int
	breaker        *circuitbreaker.CircuitBreaker
}

func NewOpenAIClient(cfg OpenAIConfig, breaker *circuitbreaker.CircuitBreaker) *OpenAIClient {
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	if cfg.EmbeddingModel == "" {
		cfg.EmbeddingModel = DefaultEmbeddingModel
	}
	if cfg.ChatModel == "" {
		cfg.ChatModel = DefaultChatModel
	}
	return &OpenAIClient{
		client:         openai.NewClientWithConfig(oc),
		embeddingModel: openai.EmbeddingModel(cfg.EmbeddingModel),
		chatModel:      cfg.ChatModel,
		maxTokens:      cfg.MaxTokens,
		breaker:        breaker,
	}
}

func (c *OpenAIClient) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	resp, err := circuitbreaker.Do(c.breaker, func() (openai.EmbeddingResponse, error) {
		return c.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
			Input: texts,
			Model: c.embeddingModel,
		})
	})
	if err != nil {
		return nil, fmt.Errorf("create embeddings: %w", err)
	}

	out := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(out) {
			return nil, fmt.Errorf("create embeddings: index %d out of range", d.Index)
		}
		out[d.Index] = d.Embedding
	}
	for i, v := range out {
		if v == nil {
			return nil, fmt.Errorf("create embeddings: missing embedding %d", i)
		}
	}
	return out, nil
}

func (c *OpenAIClient) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := circuitbreaker.Do(c.breaker, func() (openai.ChatCompletionResponse, error) {
		return c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model: c.chatModel,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleUser, Content: prompt},
			},
			// A zero temperature would be dropped by omitempty.
			Temperature: math.SmallestNonzeroFloat32,
			MaxTokens:   c.maxTokens,
		})
	})
	if err != nil {
		return "", fmt.Errorf("create chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("create chat completion: no choices returned")
	}
	return resp.Choices[0].Message.Content, nil
}
