// Package openai adapts the official OpenAI SDK to the provider contracts:
// chat completion, text embedding, speech synthesis and transcription. One
// Provider value satisfies all four interfaces so the composition root can
// hand the same client to every consumer.
package openai

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/openai/openai-go"

	"github.com/voxhire/interviewd/provider"
)

// Options configure the OpenAI provider adapter.
// Fields mirror a subset of the API parameters intentionally kept minimal;
// extend via functional options without breaking callers.
type Options struct {
	ChatModel           string
	EmbeddingModel      string
	SpeechModel         string
	SpeechVoice         string
	TranscribeModel     string
	Temperature         float64
	MaxCompletionTokens int64
	StreamChunkSize     int
}

// Provider wraps the OpenAI API behind the provider interfaces.
type Provider struct {
	client *openai.Client
	opts   Options
}

var (
	_ provider.Completer   = (*Provider)(nil)
	_ provider.Embedder    = (*Provider)(nil)
	_ provider.Speech      = (*Provider)(nil)
	_ provider.Transcriber = (*Provider)(nil)
)

// New creates a new OpenAI provider using the official client
func New(optFns ...func(o *Options)) *Provider {
	client := openai.NewClient()
	return NewFromClient(&client, optFns...)
}

// NewFromClient creates a new OpenAI provider from an existing client
func NewFromClient(client *openai.Client, optFns ...func(o *Options)) *Provider {
	opts := Options{
		ChatModel:           openai.ChatModelGPT4oMini,
		EmbeddingModel:      openai.EmbeddingModelTextEmbedding3Small,
		SpeechModel:         openai.SpeechModelTTS1,
		SpeechVoice:         "alloy",
		TranscribeModel:     openai.AudioModelWhisper1,
		Temperature:         0.7,
		MaxCompletionTokens: 4096,
		StreamChunkSize:     4096,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Provider{client: client, opts: opts}
}

// Complete implements provider.Completer using the Chat Completions API.
func (p *Provider) Complete(ctx context.Context, system, prompt string) (string, error) {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, 2)
	if system != "" {
		messages = append(messages, openai.SystemMessage(system))
	}
	messages = append(messages, openai.UserMessage(prompt))

	resp, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages:            messages,
		Model:               p.opts.ChatModel,
		Temperature:         openai.Float(p.opts.Temperature),
		MaxCompletionTokens: openai.Int(p.opts.MaxCompletionTokens),
	})
	if err != nil {
		return "", fmt.Errorf("openai api error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices returned")
	}
	return resp.Choices[0].Message.Content, nil
}

// Embed implements provider.Embedder using the Embeddings API.
func (p *Provider) Embed(ctx context.Context, text string) ([]float64, error) {
	resp, err := p.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{OfString: openai.String(text)},
		Model: p.opts.EmbeddingModel,
	})
	if err != nil {
		return nil, fmt.Errorf("openai embedding error: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("no embedding returned")
	}
	return resp.Data[0].Embedding, nil
}

// SynthesizeStream implements provider.Speech, emitting fixed-size chunks of
// the synthesized audio as they are read from the response body.
func (p *Provider) SynthesizeStream(ctx context.Context, text string) (<-chan []byte, <-chan error) {
	out := make(chan []byte, 32)
	errCh := make(chan error, 1)
	go func() {
		defer close(out)
		defer close(errCh)
		resp, err := p.client.Audio.Speech.New(ctx, openai.AudioSpeechNewParams{
			Model:          p.opts.SpeechModel,
			Input:          text,
			Voice:          openai.AudioSpeechNewParamsVoice(p.opts.SpeechVoice),
			ResponseFormat: openai.AudioSpeechNewParamsResponseFormatMP3,
		})
		if err != nil {
			errCh <- fmt.Errorf("openai speech error: %w", err)
			return
		}
		defer resp.Body.Close()

		size := p.opts.StreamChunkSize
		if size <= 0 {
			size = 4096
		}
		buf := make([]byte, size)
		for {
			n, readErr := resp.Body.Read(buf)
			if n > 0 {
				chunk := make([]byte, n)
				copy(chunk, buf[:n])
				select {
				case <-ctx.Done():
					errCh <- ctx.Err()
					return
				case out <- chunk:
				}
			}
			if readErr == io.EOF {
				return
			}
			if readErr != nil {
				errCh <- fmt.Errorf("openai speech stream error: %w", readErr)
				return
			}
		}
	}()
	return out, errCh
}

// Transcribe implements provider.Transcriber using the Audio Transcriptions API.
func (p *Provider) Transcribe(ctx context.Context, audio []byte) (string, error) {
	resp, err := p.client.Audio.Transcriptions.New(ctx, openai.AudioTranscriptionNewParams{
		Model: p.opts.TranscribeModel,
		File:  openai.File(bytes.NewReader(audio), "audio.webm", "audio/webm"),
	})
	if err != nil {
		return "", fmt.Errorf("openai transcription error: %w", err)
	}
	return resp.Text, nil
}
