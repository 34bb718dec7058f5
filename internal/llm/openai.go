// ABOUTME: OpenAI chat-completions provider for the classification client
// ABOUTME: Works with api.openai.com or any OpenAI-compatible base URL
package llm

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/harper/shape-classifier/internal/models"
)

type openAIProvider struct {
	client      *openai.Client
	model       string
	format      string
	temperature float32
}

func newOpenAIProvider(config *ClientConfig) (*openAIProvider, error) {
	// Self-hosted compatible endpoints often run without a key
	if config.APIKey == "" && config.BaseURL == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}

	model := config.Model
	if model == "" {
		model = DefaultOpenAIModel
	}

	return &openAIProvider{
		client:      openai.NewClientWithConfig(clientConfig),
		model:       model,
		format:      config.ResponseFormat,
		temperature: config.Temperature,
	}, nil
}

func (p *openAIProvider) complete(ctx context.Context, system, user string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: system,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: user,
			},
		},
		Temperature: p.temperature,
	}

	switch p.format {
	case FormatJSONObject:
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	case FormatJSONSchema:
		schema := models.SchemaDefinition()
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   "classification_result",
				Schema: &schema,
				Strict: true,
			},
		}
	}

	resp, err := p.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errNoChoices
	}

	return resp.Choices[0].Message.Content, nil
}
