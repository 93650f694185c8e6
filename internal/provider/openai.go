package provider

import (
	"context"
	"encoding/json"

	"github.com/loglens/loglens/internal/model"
)

const defaultOpenAIModel = "gpt-4o-mini"

type openAIProvider struct {
	apiKey string
	model  string
}

func newOpenAIProvider(cfg Config) *openAIProvider {
	m := cfg.ModelOverride
	if m == "" {
		m = defaultOpenAIModel
	}
	return &openAIProvider{apiKey: cfg.APIKey, model: m}
}

func (p *openAIProvider) Name() string { return "openai" }

func (p *openAIProvider) Analyze(ctx context.Context, req model.AnalysisRequest) (*model.AnalysisResponse, error) {
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

	headers := map[string]string{"Authorization": "Bearer " + p.apiKey}

	var raw openRouterResponse
	if err := postJSON(ctx, p.Name(), "https://api.openai.com/v1/chat/completions", headers, body, &raw); err != nil {
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

type openAIModelsResponse struct {
	Data []struct {
		ID string `json:"id"`
	} `json:"data"`
}

func (p *openAIProvider) ListModels(ctx context.Context) ([]model.ModelInfo, error) {
	headers := map[string]string{"Authorization": "Bearer " + p.apiKey}
	var raw openAIModelsResponse
	if err := getJSON(ctx, p.Name(), "https://api.openai.com/v1/models", headers, &raw); err != nil {
		return nil, err
	}
	out := make([]model.ModelInfo, 0, len(raw.Data))
	for _, m := range raw.Data {
		out = append(out, model.ModelInfo{ID: m.ID, DisplayName: m.ID})
	}
	return out, nil
}
