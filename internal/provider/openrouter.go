package provider

import (
	"context"
	"encoding/json"

	"github.com/loglens/loglens/internal/model"
)

const defaultOpenRouterModel = "x-ai/grok-4-fast:free"

type openRouterProvider struct {
	apiKey string
	model  string
}

func newOpenRouterProvider(cfg Config) *openRouterProvider {
	model := cfg.ModelOverride
	if model == "" {
		model = defaultOpenRouterModel
	}
	return &openRouterProvider{apiKey: cfg.APIKey, model: model}
}

func (p *openRouterProvider) Name() string { return "openrouter" }

type openRouterMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openRouterRequest struct {
	Model          string              `json:"model"`
	Messages       []openRouterMessage `json:"messages"`
	Temperature    float64             `json:"temperature"`
	MaxTokens      int                 `json:"max_tokens"`
	ResponseFormat *responseFormat     `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type openRouterResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (p *openRouterProvider) Analyze(ctx context.Context, req model.AnalysisRequest) (*model.AnalysisResponse, error) {
	systemPrompt := GenerateSystemPrompt(req.Entries, req.UserContext, req.Focus)
	userPrompt := CreateAnalysisPrompt(req.Entries)

	body := openRouterRequest{
		Model: p.model,
		Messages: []openRouterMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature:    0.1,
		MaxTokens:      2000,
		ResponseFormat: &responseFormat{Type: "json_object"},
	}

	headers := map[string]string{
		"Authorization": "Bearer " + p.apiKey,
		"HTTP-Referer":  "https://github.com/loglens/loglens",
		"X-Title":       "LogLens",
	}

	var raw openRouterResponse
	if err := postJSON(ctx, p.Name(), "https://openrouter.ai/api/v1/chat/completions", headers, body, &raw); err != nil {
		return nil, err
	}
	if len(raw.Choices) == 0 {
		return nil, ErrInvalidResponse(p.Name(), "no choices returned")
	}

	content := raw.Choices[0].Message.Content
	var resp model.AnalysisResponse
	if err := json.Unmarshal([]byte(content), &resp); err != nil {
		return ParseFallback(content), nil
	}
	return &resp, nil
}

type openRouterModelsResponse struct {
	Data []struct {
		ID            string `json:"id"`
		Name          string `json:"name"`
		ContextLength int    `json:"context_length"`
	} `json:"data"`
}

func (p *openRouterProvider) ListModels(ctx context.Context) ([]model.ModelInfo, error) {
	headers := map[string]string{"Authorization": "Bearer " + p.apiKey}
	var raw openRouterModelsResponse
	if err := getJSON(ctx, p.Name(), "https://openrouter.ai/api/v1/models", headers, &raw); err != nil {
		return nil, err
	}
	out := make([]model.ModelInfo, 0, len(raw.Data))
	for _, m := range raw.Data {
		out = append(out, model.ModelInfo{ID: m.ID, DisplayName: m.Name, ContextSize: m.ContextLength})
	}
	return out, nil
}
