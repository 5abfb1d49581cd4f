package translation

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"
)

// OpenAISeeder produces key seeds through an OpenAI-compatible chat completion endpoint.
type OpenAISeeder struct {
	client  *openai.Client
	model   string
	prompts *PromptBuilder
}

// NewOpenAISeeder creates a seeder. An empty baseURL uses the public API.
func NewOpenAISeeder(apiKey, model, baseURL string, prompts *PromptBuilder) *OpenAISeeder {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAISeeder{
		client:  openai.NewClientWithConfig(cfg),
		model:   model,
		prompts: prompts,
	}
}

func (s *OpenAISeeder) Seeds(ctx context.Context, texts []string) ([]string, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	req := openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: s.prompts.SystemPrompt()},
			{Role: openai.ChatMessageRoleUser, Content: s.prompts.BuildBatchUserPrompt(texts, nil)},
		},
		Temperature: 0.2,
	}

	resp, err := s.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("openai seed request: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openai returned no choices")
	}

	log.Debug().
		Str("model", s.model).
		Int("texts", len(texts)).
		Str("finish_reason", string(resp.Choices[0].FinishReason)).
		Msg("Seed request complete")

	return ParseBatchResponse(resp.Choices[0].Message.Content, len(texts)), nil
}
