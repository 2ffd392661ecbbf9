package advice

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/iamharada/stepwise-system/pkg/upstream"
)

// DefaultGeminiModel is used when no model is configured.
const DefaultGeminiModel = "gemini-2.5-flash"

// contentGenerator is the subset of *genai.Models used here.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiConfig configures the Gemini backend.
type GeminiConfig struct {
	APIKey string
	Model  string
}

// GeminiClient asks Gemini for a JSON answer.
type GeminiClient struct {
	models contentGenerator
	model  string
	prompt *Prompt
}

// NewGeminiClient creates a client backed by the Gemini API.
func NewGeminiClient(ctx context.Context, cfg GeminiConfig, prompt *Prompt) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}
	return newGeminiClient(client.Models, cfg.Model, prompt), nil
}

func newGeminiClient(models contentGenerator, model string, prompt *Prompt) *GeminiClient {
	if model == "" {
		model = DefaultGeminiModel
	}
	if prompt == nil {
		prompt = DefaultPrompt()
	}
	return &GeminiClient{models: models, model: model, prompt: prompt}
}

// Advise implements Client.
func (c *GeminiClient) Advise(ctx context.Context, req Request) (*Result, error) {
	prompt, err := c.prompt.Render(req)
	if err != nil {
		return nil, err
	}

	resp, err := c.models.GenerateContent(ctx, c.model, genai.Text(prompt), &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		return nil, upstream.Transport(serviceName, err)
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return nil, fmt.Errorf("%w: no candidates returned", ErrMalformedResponse)
	}

	return Parse(resp.Text())
}

// Verify interface compliance.
var _ Client = (*GeminiClient)(nil)
