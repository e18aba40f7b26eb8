// Package provider defines the external model contracts the interview engine
// consumes: generative text completion, text embedding, speech synthesis and
// speech recognition. Implementations adapt vendor SDKs; callers must treat
// every call as fallible and substitute documented fallbacks on error.
package provider

import (
	"context"
	"strings"
)

// Completer produces a text completion for a system instruction plus prompt.
type Completer interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}

// Embedder converts text into a fixed-length numeric vector. A failed call
// (error or empty vector) triggers the caller's keyword fallback.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// Speech synthesizes audio from text as a stream of ordered byte chunks. The
// byte channel is closed when synthesis ends; the error channel then yields
// at most one error. A cancelled context surfaces as a stream error.
type Speech interface {
	SynthesizeStream(ctx context.Context, text string) (<-chan []byte, <-chan error)
}

// Transcriber converts audio bytes into text. An empty transcription is a
// valid result, not an error.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte) (string, error)
}

// ExtractJSONObject returns the substring spanning the first '{' through the
// last '}' of s. Model output frequently wraps JSON in prose or code fences;
// this best-effort bracket scan is the single retry applied before falling
// back to defaults.
func ExtractJSONObject(s string) (string, bool) {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return s[start : end+1], true
}

// ExtractJSONArray returns the substring spanning the first '[' through the
// last ']' of s.
func ExtractJSONArray(s string) (string, bool) {
	start := strings.Index(s, "[")
	end := strings.LastIndex(s, "]")
	if start < 0 || end <= start {
		return "", false
	}
	return s[start : end+1], true
}
