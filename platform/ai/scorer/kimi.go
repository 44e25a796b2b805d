package scorer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// KimiConfig configures the Moonshot-backed scorer.
type KimiConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// KimiScorer talks to Moonshot's OpenAI-compatible chat completions API.
type KimiScorer struct {
	config KimiConfig
	client *http.Client
}

var _ Scorer = (*KimiScorer)(nil)

// NewKimiScorer creates a scorer backed by Moonshot Kimi.
func NewKimiScorer(cfg KimiConfig) *KimiScorer {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.moonshot.ai/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "kimi-k2-turbo-preview"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &KimiScorer{
		config: cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

func (s *KimiScorer) Name() string {
	return s.config.Model
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error interface{} `json:"error"`
}

// Score sends the feature payload through a chat completion in JSON mode.
func (s *KimiScorer) Score(ctx context.Context, payload Payload) (*Result, error) {
	body := map[string]interface{}{
		"model": s.config.Model,
		"messages": []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: buildUserPrompt(payload)},
		},
		"temperature":     0.1,
		"max_tokens":      300,
		"response_format": map[string]string{"type": "json_object"},
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.BaseURL+"/chat/completions", bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+s.config.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("kimi api error: status %d", resp.StatusCode)
	}

	var result chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode kimi response: %v", err)
	}
	if result.Error != nil {
		return nil, fmt.Errorf("kimi api error: %v", result.Error)
	}
	if len(result.Choices) == 0 {
		return nil, fmt.Errorf("kimi api error: empty choices")
	}

	return parseResult(result.Choices[0].Message.Content)
}
