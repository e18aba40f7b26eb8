package provider

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"
)

// MockCompleter is a lightweight in-memory Completer useful for tests. Canned
// responses are matched by prompt substring in registration order.
type MockCompleter struct {
	responses []mockResponse
	Err       error
	Calls     []string
}

type mockResponse struct {
	match    string
	response string
}

// NewMockCompleter constructs an empty MockCompleter.
func NewMockCompleter() *MockCompleter { return &MockCompleter{} }

// AddResponse registers a canned completion returned when the prompt contains match.
func (m *MockCompleter) AddResponse(match, response string) {
	m.responses = append(m.responses, mockResponse{match: match, response: response})
}

// Complete implements Completer.
func (m *MockCompleter) Complete(_ context.Context, _ string, prompt string) (string, error) {
	m.Calls = append(m.Calls, prompt)
	if m.Err != nil {
		return "", m.Err
	}
	for _, r := range m.responses {
		if r.match == "" || strings.Contains(prompt, r.match) {
			return r.response, nil
		}
	}
	return fmt.Sprintf("Mock response to: %s", prompt), nil
}

// MockEmbedder produces deterministic pseudo-embeddings derived from token
// hashes so that identical texts map to identical vectors and overlapping
// texts land near each other. Set Err to simulate an outage.
type MockEmbedder struct {
	Dim int
	Err error
}

// NewMockEmbedder constructs a MockEmbedder with a small default dimension.
func NewMockEmbedder() *MockEmbedder { return &MockEmbedder{Dim: 64} }

// Embed implements Embedder.
func (m *MockEmbedder) Embed(_ context.Context, text string) ([]float64, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	dim := m.Dim
	if dim <= 0 {
		dim = 64
	}
	vec := make([]float64, dim)
	for _, token := range splitTokens(text) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(token))
		vec[int(h.Sum32())%dim]++
	}
	return vec, nil
}

func splitTokens(text string) []string {
	var tokens []string
	var cur []rune
	for _, r := range text {
		if r == ' ' || r == '\n' || r == '\t' {
			if len(cur) > 0 {
				tokens = append(tokens, string(cur))
				cur = cur[:0]
			}
			continue
		}
		cur = append(cur, r)
	}
	if len(cur) > 0 {
		tokens = append(tokens, string(cur))
	}
	return tokens
}

// MockSpeech streams the input text bytes back as fake audio, split into
// fixed-size chunks.
type MockSpeech struct {
	ChunkSize int
	Err       error
}

// NewMockSpeech constructs a MockSpeech with a small chunk size so tests see
// multiple chunks for short texts.
func NewMockSpeech() *MockSpeech { return &MockSpeech{ChunkSize: 8} }

// SynthesizeStream implements Speech.
func (m *MockSpeech) SynthesizeStream(ctx context.Context, text string) (<-chan []byte, <-chan error) {
	out := make(chan []byte, 8)
	errCh := make(chan error, 1)
	go func() {
		defer close(out)
		defer close(errCh)
		if m.Err != nil {
			errCh <- m.Err
			return
		}
		data := []byte(text)
		size := m.ChunkSize
		if size <= 0 {
			size = 8
		}
		for start := 0; start < len(data); start += size {
			end := start + size
			if end > len(data) {
				end = len(data)
			}
			select {
			case <-ctx.Done():
				errCh <- ctx.Err()
				return
			case out <- data[start:end]:
			}
		}
	}()
	return out, errCh
}

// MockTranscriber returns a fixed transcription.
type MockTranscriber struct {
	Text string
	Err  error
}

// Transcribe implements Transcriber.
func (m *MockTranscriber) Transcribe(_ context.Context, _ []byte) (string, error) {
	if m.Err != nil {
		return "", m.Err
	}
	return m.Text, nil
}
