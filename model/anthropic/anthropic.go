// Package anthropic provides a model.Clarifier implementation backed by the
// Anthropic Claude Messages API.
package anthropic

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/voxsurvey/voxsurvey/model"
)

// Options configure the Anthropic clarifier adapter.
type Options struct {
	Model       string
	Temperature float64
	MaxTokens   int64
	APIKey      string
}

// Clarifier wraps the Anthropic Messages API behind model.Clarifier.
type Clarifier struct {
	client *anthropic.Client
	opts   Options
}

// New creates a new Anthropic clarifier using the official client.
func New(optFns ...func(o *Options)) *Clarifier {
	opts := Options{
		Model:       string(anthropic.ModelClaude3_5Sonnet20241022),
		Temperature: 0.7,
		MaxTokens:   512,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}

	client := anthropic.NewClient(clientOpts...)
	return &Clarifier{client: &client, opts: opts}
}

// NewFromClient creates a new Anthropic clarifier from an existing client.
func NewFromClient(client *anthropic.Client, optFns ...func(o *Options)) *Clarifier {
	opts := Options{
		Model:       string(anthropic.ModelClaude3_5Sonnet20241022),
		Temperature: 0.7,
		MaxTokens:   512,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Clarifier{client: client, opts: opts}
}

// Clarify sends a single system+user exchange and returns the assistant text.
func (c *Clarifier) Clarify(ctx context.Context, req model.Request) (string, error) {
	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(c.opts.Model),
		MaxTokens:   c.opts.MaxTokens,
		Temperature: anthropic.Float(c.opts.Temperature),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Input)),
		},
	}
	if req.Instructions != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.Instructions}}
	}

	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("anthropic api error: %w", err)
	}

	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.AsText().Text)
		}
	}
	return sb.String(), nil
}

// Info returns clarifier metadata.
func (c *Clarifier) Info() model.Info {
	return model.Info{Name: c.opts.Model, Provider: "anthropic"}
}
