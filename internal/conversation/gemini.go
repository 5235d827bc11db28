package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// LLMClient generates a completion for a single prompt.
type LLMClient interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GeminiClient implements LLMClient using Google's Gemini API.
type GeminiClient struct {
	client  *genai.Client
	modelID string
}

// NewGeminiClient creates a new Gemini client.
func NewGeminiClient(ctx context.Context, apiKey, modelID string) (*GeminiClient, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("conversation: gemini api key is required")
	}
	if strings.TrimSpace(modelID) == "" {
		modelID = "gemini-2.0-flash"
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("conversation: failed to create gemini client: %w", err)
	}

	return &GeminiClient{client: client, modelID: modelID}, nil
}

// Generate sends the prompt to Gemini and returns the response text.
func (c *GeminiClient) Generate(ctx context.Context, prompt string) (string, error) {
	model := c.client.GenerativeModel(c.modelID)

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("conversation: gemini completion failed: %w", err)
	}

	if len(resp.Candidates) == 0 {
		return "", errors.New("conversation: gemini returned no candidates")
	}
	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", errors.New("conversation: gemini returned empty content")
	}

	var text strings.Builder
	for _, part := range candidate.Content.Parts {
		if t, ok := part.(genai.Text); ok {
			text.WriteString(string(t))
		}
	}
	return strings.TrimSpace(text.String()), nil
}

// Close releases resources held by the Gemini client.
func (c *GeminiClient) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}
