// Package openai provides a model.Clarifier implementation backed by the
// OpenAI Chat Completions API. Pointing the client at an OpenAI-compatible
// base URL (an Ollama or vLLM endpoint) serves local models with the same
// adapter, which is how the on-premise survey deployments run it.
package openai

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/voxsurvey/voxsurvey/model"
)

// Options configure the OpenAI clarifier adapter.
type Options struct {
	Model               string
	Temperature         float64
	MaxCompletionTokens int64
	// BaseURL overrides the API endpoint, e.g. an Ollama-compatible server.
	BaseURL string
	APIKey  string
}

// Clarifier wraps the OpenAI Chat Completions API behind model.Clarifier.
type Clarifier struct {
	client *openai.Client
	opts   Options
}

// New creates a new OpenAI clarifier using the official client.
func New(optFns ...func(o *Options)) *Clarifier {
	opts := Options{
		Model:               openai.ChatModelGPT4oMini,
		Temperature:         0.7,
		MaxCompletionTokens: 512,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	var clientOpts []option.RequestOption
	if opts.BaseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(opts.BaseURL))
	}
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}

	client := openai.NewClient(clientOpts...)
	return NewFromClient(&client, func(o *Options) { *o = opts })
}

// NewFromClient creates a new OpenAI clarifier from an existing client.
func NewFromClient(client *openai.Client, optFns ...func(o *Options)) *Clarifier {
	opts := Options{
		Model:               openai.ChatModelGPT4oMini,
		Temperature:         0.7,
		MaxCompletionTokens: 512,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Clarifier{client: client, opts: opts}
}

// Clarify sends a single system+user exchange and returns the assistant text.
func (c *Clarifier) Clarify(ctx context.Context, req model.Request) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model:               c.opts.Model,
		Temperature:         openai.Float(c.opts.Temperature),
		MaxCompletionTokens: openai.Int(c.opts.MaxCompletionTokens),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(req.Instructions),
			openai.UserMessage(req.Input),
		},
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("openai api error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices returned")
	}
	return resp.Choices[0].Message.Content, nil
}

// Info returns clarifier metadata.
func (c *Clarifier) Info() model.Info {
	return model.Info{Name: c.opts.Model, Provider: "openai"}
}
