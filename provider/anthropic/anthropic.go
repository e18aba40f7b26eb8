// Package anthropic adapts the official Anthropic SDK to the provider
// completion contract. It is selected via LLM_PROVIDER=anthropic; embeddings,
// speech and transcription stay on the OpenAI adapter.
package anthropic

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/voxhire/interviewd/provider"
)

// Options configure the Anthropic provider adapter.
type Options struct {
	Model       string
	Temperature float64
	MaxTokens   int64
}

// Provider wraps the Anthropic Messages API behind provider.Completer.
type Provider struct {
	client *anthropic.Client
	opts   Options
}

var _ provider.Completer = (*Provider)(nil)

// New creates a new Anthropic provider using the official client
func New(optFns ...func(o *Options)) *Provider {
	client := anthropic.NewClient()
	return NewFromClient(&client, optFns...)
}

// NewFromClient creates a new Anthropic provider from an existing client
func NewFromClient(client *anthropic.Client, optFns ...func(o *Options)) *Provider {
	opts := Options{
		Model:       string(anthropic.ModelClaude3_5HaikuLatest),
		Temperature: 0.7,
		MaxTokens:   4096,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Provider{client: client, opts: opts}
}

// Complete implements provider.Completer using the Messages API.
func (p *Provider) Complete(ctx context.Context, system, prompt string) (string, error) {
	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(p.opts.Model),
		MaxTokens:   p.opts.MaxTokens,
		Temperature: anthropic.Float(p.opts.Temperature),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	resp, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("anthropic api error: %w", err)
	}

	var sb strings.Builder
	for _, block := range resp.Content {
		if text := block.AsText(); text.Text != "" {
			sb.WriteString(text.Text)
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("no text content returned")
	}
	return sb.String(), nil
}
