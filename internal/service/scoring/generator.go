package scoring

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"google.golang.org/genai"
)

// ErrGeneratorUnavailable is returned when no generative model is configured.
var ErrGeneratorUnavailable = errors.New("scoring model not configured")

// Generator produces free text for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GeminiConfig selects the model used for scoring.
type GeminiConfig struct {
	APIKey      string
	Model       string
	Temperature float32
}

// Gemini implements Generator with the Gemini API.
type Gemini struct {
	client      *genai.Client
	model       string
	temperature float32
}

// NewGemini creates a Gemini client. An empty API key is ErrGeneratorUnavailable.
func NewGemini(ctx context.Context, cfg GeminiConfig) (*Gemini, error) {
	if cfg.APIKey == "" {
		return nil, ErrGeneratorUnavailable
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	log.Info().
		Str("component", "scoring").
		Str("model", cfg.Model).
		Msg("Gemini client initialized")

	return &Gemini{client: client, model: cfg.Model, temperature: cfg.Temperature}, nil
}

// Generate sends prompt as a single user turn and returns the reply text.
func (g *Gemini) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), &genai.GenerateContentConfig{
		Temperature: genai.Ptr(g.temperature),
	})
	if err != nil {
		return "", fmt.Errorf("gemini generate content: %w", err)
	}
	return resp.Text(), nil
}
