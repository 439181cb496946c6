// Package llm is the text-completion capability used by the insights
// package.
//
// The rest of the service only sees the Completer interface. Providers
// (OpenAI over HTTP, Gemini through the genai SDK) live behind it, and so
// do the decorators: CachedCompleter memoizes responses and Disabled stands
// in when no provider is configured.
package llm

import (
	"context"
	"errors"
)

// ErrDisabled is returned by Disabled for every call.
var ErrDisabled = errors.New("llm: no completion provider configured")

// Options tune a single completion.
type Options struct {
	Temperature float64
	MaxTokens   int
	// JSONMode asks the provider to answer with a JSON document. Providers
	// treat it as a hint; callers still have to parse defensively.
	JSONMode bool
}

// Completer turns a system prompt and a user prompt into text.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string, opts Options) (string, error)
}

// CompleterFunc adapts a plain function to Completer.
type CompleterFunc func(ctx context.Context, systemPrompt, userPrompt string, opts Options) (string, error)

func (f CompleterFunc) Complete(ctx context.Context, systemPrompt, userPrompt string, opts Options) (string, error) {
	return f(ctx, systemPrompt, userPrompt, opts)
}

// Disabled always fails, so every AI feature serves its fallback.
type Disabled struct{}

func (Disabled) Complete(context.Context, string, string, Options) (string, error) {
	return "", ErrDisabled
}
