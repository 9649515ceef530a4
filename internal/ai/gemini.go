// Package ai holds the boundary to the generative text model. Callers
// submit a prompt string and get back the model's text reply; everything
// else (prompt building, JSON parsing, fallbacks) lives with the caller.
package ai

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// TextModel is the external generative model consumed by the extraction and
// query-interpretation steps. Implementations may fail; callers are expected
// to degrade to deterministic fallbacks.
type TextModel interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// Gemini implements TextModel against the Gemini API.
type Gemini struct {
	client *genai.Client
	model  string
}

var _ TextModel = (*Gemini)(nil)

// NewGemini creates a Gemini-backed text model.
func NewGemini(ctx context.Context, apiKey, model string) (*Gemini, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      apiKey,
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("ai: create genai client: %w", err)
	}
	return &Gemini{client: client, model: model}, nil
}

// GenerateText submits the prompt and returns the raw text reply.
func (g *Gemini) GenerateText(ctx context.Context, prompt string) (string, error) {
	contents := []*genai.Content{
		{
			Role:  "user",
			Parts: []*genai.Part{{Text: prompt}},
		},
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("ai: generate content: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("ai: empty response from model")
	}
	return text, nil
}

// CleanJSON strips Markdown code fences and surrounding prose from a model
// reply, keeping only the outermost JSON object or array.
func CleanJSON(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		// Drop the first line (``` or ```json).
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			return s
		}
		s = strings.TrimSpace(s)
	}

	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}

	s = strings.TrimSpace(s)

	// If there is still junk around the JSON, keep only the outermost
	// object or array.
	objStart := strings.Index(s, "{")
	arrStart := strings.Index(s, "[")
	switch {
	case objStart != -1 && (arrStart == -1 || objStart < arrStart):
		if end := strings.LastIndex(s, "}"); end > objStart {
			s = s[objStart : end+1]
		}
	case arrStart != -1:
		if end := strings.LastIndex(s, "]"); end > arrStart {
			s = s[arrStart : end+1]
		}
	}

	return strings.TrimSpace(s)
}
