package provider

import (
	"context"
	"encoding/json"

	"github.com/loglens/loglens/internal/model"
)

const defaultAnthropicModel = "claude-3-5-haiku-latest"

type anthropicProvider struct {
	apiKey string
	model  string
}

func newAnthropicProvider(cfg Config) *anthropicProvider {
	m := cfg.ModelOverride
	if m == "" {
		m = defaultAnthropicModel
	}
	return &anthropicProvider{apiKey: cfg.APIKey, model: m}
}

func (p *anthropicProvider) Name() string { return "anthropic" }

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicRequest struct {
	Model     string             `json:"model"`
	System    string             `json:"system"`
	Messages  []anthropicMessage `json:"messages"`
	MaxTokens int                `json:"max_tokens"`
}

type anthropicResponse struct {
	Content []struct {
		Text string `json:"text"`
	} `json:"content"`
}

func (p *anthropicProvider) Analyze(ctx context.Context, req model.AnalysisRequest) (*model.AnalysisResponse, error) {
	systemPrompt := GenerateSystemPrompt(req.Entries, req.UserContext, req.Focus)
	userPrompt := CreateAnalysisPrompt(req.Entries)

	body := anthropicRequest{
		Model:     p.model,
		System:    systemPrompt,
		Messages:  []anthropicMessage{{Role: "user", Content: userPrompt}},
		MaxTokens: 2000,
	}

	headers := map[string]string{
		"x-api-key":         p.apiKey,
		"anthropic-version": "2023-06-01",
	}

	var raw anthropicResponse
	if err := postJSON(ctx, p.Name(), "https://api.anthropic.com/v1/messages", headers, body, &raw); err != nil {
		return nil, err
	}
	if len(raw.Content) == 0 {
		return nil, ErrInvalidResponse(p.Name(), "no content blocks returned")
	}

	content := raw.Content[0].Text
	var resp model.AnalysisResponse
	if err := json.Unmarshal([]byte(content), &resp); err != nil {
		return ParseFallback(content), nil
	}
	return &resp, nil
}

func (p *anthropicProvider) ListModels(ctx context.Context) ([]model.ModelInfo, error) {
	// Anthropic does not expose a public models-list endpoint; return the
	// small fixed set this provider supports.
	return []model.ModelInfo{
		{ID: "claude-3-5-haiku-latest", DisplayName: "Claude 3.5 Haiku"},
		{ID: "claude-3-5-sonnet-latest", DisplayName: "Claude 3.5 Sonnet"},
	}, nil
}
