package llm

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"
)

const vertexLocation = "us-central1"

// ErrEmptyReply is returned when the model answers with no text.
var ErrEmptyReply = errors.New("empty response from model")

// Gemini is the TextGenerator backed by the Gemini API.
type Gemini struct {
	client *genai.Client
	model  string
}

// NewGemini creates a Gemini client. An empty apiKey falls back to application default
// credentials through the Vertex AI backend.
// The Gemini API backend keeps the SDK default version, since v1 there rejects
// systemInstruction; Vertex AI accepts it on v1.
func NewGemini(ctx context.Context, apiKey, model, projectID string) (*Gemini, error) {
	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if apiKey == "" {
		cfg.Backend = genai.BackendVertexAI
		cfg.Project = projectID
		cfg.Location = vertexLocation
		cfg.HTTPOptions = genai.HTTPOptions{APIVersion: "v1"}
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("NewGemini: create genai client: %w", err)
	}
	if model == "" {
		model = DefaultModelName
	}
	return &Gemini{client: client, model: model}, nil
}

// Model returns the model name requests are sent to.
func (g *Gemini) Model() string { return g.model }

// Generate sends the prompt and returns the reply text.
func (g *Gemini) Generate(ctx context.Context, p Prompt) (string, error) {
	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(p.Temperature),
	}
	if p.System != "" {
		config.SystemInstruction = genai.NewContentFromText(p.System, genai.RoleUser)
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(p.User), config)
	if err != nil {
		return "", fmt.Errorf("Generate: generate content: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("Generate: %w", ErrEmptyReply)
	}
	return text, nil
}
