package advice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	openai "github.com/sashabaranov/go-openai"

	"github.com/iamharada/stepwise-system/pkg/upstream"
)

const (
	// DefaultOpenAIBaseURL is the public OpenAI API root.
	DefaultOpenAIBaseURL = "https://api.openai.com/v1"

	// DefaultOpenAIModel is used when no model is configured.
	DefaultOpenAIModel = "gpt-5-mini"

	serviceName = "advice"
)

// OpenAIConfig configures the chat-completions backend.
type OpenAIConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

// chatCompleter is the subset of the OpenAI client used by OpenAIClient.
type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAIClient asks an OpenAI-compatible chat completions endpoint for a
// JSON object answer.
type OpenAIClient struct {
	model  string
	prompt *Prompt
	chat   chatCompleter
}

// NewOpenAIClient creates a client. httpClient may be nil.
func NewOpenAIClient(cfg OpenAIConfig, prompt *Prompt, httpClient *http.Client) (*OpenAIClient, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if cfg.Model == "" {
		cfg.Model = DefaultOpenAIModel
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultOpenAIBaseURL
	}
	if prompt == nil {
		prompt = DefaultPrompt()
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	clientCfg.BaseURL = cfg.BaseURL
	if httpClient != nil {
		clientCfg.HTTPClient = httpClient
	}
	return &OpenAIClient{
		model:  cfg.Model,
		prompt: prompt,
		chat:   openai.NewClientWithConfig(clientCfg),
	}, nil
}

// Advise implements Client.
func (c *OpenAIClient) Advise(ctx context.Context, req Request) (*Result, error) {
	prompt, err := c.prompt.Render(req)
	if err != nil {
		return nil, err
	}

	resp, err := c.chat.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return nil, openAIError(err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: no choices returned", ErrMalformedResponse)
	}

	return Parse(resp.Choices[0].Message.Content)
}

// openAIError maps client errors onto the upstream taxonomy. Status errors
// keep their code; an undecodable success body is a malformed answer;
// anything else failed in transport.
func openAIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &upstream.Error{
			Service:    serviceName,
			StatusCode: apiErr.HTTPStatusCode,
			Body:       apiErr.Message,
			Err:        err,
		}
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode != 0 {
		return &upstream.Error{
			Service:    serviceName,
			StatusCode: reqErr.HTTPStatusCode,
			Err:        err,
		}
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return fmt.Errorf("%w: decoding chat response: %v", ErrMalformedResponse, err)
	}

	return upstream.Transport(serviceName, err)
}

// Verify interface compliance.
var _ Client = (*OpenAIClient)(nil)
