// Package llm abstracts the hosted text-generation model behind a small interface.
package llm

import "context"

// DefaultModelName is the default Gemini model used for parsing and forecasting.
const DefaultModelName = "gemini-2.5-flash"

// Prompt is one single-turn generation request.
type Prompt struct {
	System      string
	User        string
	Temperature float32
}

// TextGenerator provides an interface for single-turn text generation.
// This interface enables mocking of the hosted model in tests.
type TextGenerator interface {
	Generate(ctx context.Context, p Prompt) (string, error)
}

// GeneratorFunc adapts a function to the TextGenerator interface.
type GeneratorFunc func(ctx context.Context, p Prompt) (string, error)

// Generate calls f.
func (f GeneratorFunc) Generate(ctx context.Context, p Prompt) (string, error) {
	return f(ctx, p)
}
