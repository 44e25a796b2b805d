package scorer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"
)

// GeminiConfig configures the Gemini-backed scorer.
type GeminiConfig struct {
	APIKey  string
	Model   string
	Timeout time.Duration
}

// GeminiScorer uses the Gemini API with a JSON response type.
type GeminiScorer struct {
	config GeminiConfig
	client *genai.Client
}

var _ Scorer = (*GeminiScorer)(nil)

// NewGeminiScorer creates a scorer backed by Gemini.
func NewGeminiScorer(ctx context.Context, cfg GeminiConfig) (*GeminiScorer, error) {
	if cfg.Model == "" {
		cfg.Model = "gemini-2.0-flash"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	return &GeminiScorer{config: cfg, client: client}, nil
}

func (s *GeminiScorer) Name() string {
	return s.config.Model
}

// Score sends the feature payload through a single-turn generation.
func (s *GeminiScorer) Score(ctx context.Context, payload Payload) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	resp, err := s.client.Models.GenerateContent(ctx, s.config.Model,
		genai.Text(buildUserPrompt(payload)),
		&genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
			ResponseMIMEType:  "application/json",
			Temperature:       genai.Ptr[float32](0.1),
			MaxOutputTokens:   300,
		},
	)
	if err != nil {
		return nil, err
	}

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("gemini api error: empty response")
	}

	return parseResult(text)
}
