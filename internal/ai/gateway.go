// Package ai wraps the chat-completion providers behind a single Gateway
// interface. The rest of the system treats completions as an untrusted text
// source: no assumption of well-formed output is safe.
package ai

import (
	"context"
	"errors"
)

// Message is a single role-tagged chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Options are the per-call generation parameters.
type Options struct {
	MaxTokens   int
	Temperature float64
}

// Gateway is the text-generation capability consumed by the analyzer and the
// mind map builder.
type Gateway interface {
	Complete(ctx context.Context, messages []Message, opts Options) (string, error)
}

// ErrEmptyCompletion marks a transport-level success that carried no usable
// content. Callers treat it as retriable.
var ErrEmptyCompletion = errors.New("completion returned no content")
