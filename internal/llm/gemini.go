// ABOUTME: Gemini provider for the classification client
// ABOUTME: Requests native structured output using the genai form of the reply schema
package llm

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/harper/shape-classifier/internal/models"
)

type geminiProvider struct {
	client      *genai.Client
	model       string
	format      string
	temperature float32
}

func newGeminiProvider(ctx context.Context, config *ClientConfig) (*geminiProvider, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("Gemini API key is required")
	}

	clientConfig := &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if config.BaseURL != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: config.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	model := config.Model
	if model == "" {
		model = DefaultGeminiModel
	}

	return &geminiProvider{
		client:      client,
		model:       model,
		format:      config.ResponseFormat,
		temperature: config.Temperature,
	}, nil
}

func (p *geminiProvider) complete(ctx context.Context, system, user string) (string, error) {
	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
		Temperature:       genai.Ptr(p.temperature),
	}
	switch p.format {
	case FormatJSONObject:
		config.ResponseMIMEType = "application/json"
	case FormatJSONSchema:
		config.ResponseMIMEType = "application/json"
		config.ResponseSchema = models.GeminiSchema()
	}

	resp, err := p.client.Models.GenerateContent(ctx, p.model, genai.Text(user), config)
	if err != nil {
		return "", err
	}
	if len(resp.Candidates) == 0 {
		return "", errNoChoices
	}

	return resp.Text(), nil
}
