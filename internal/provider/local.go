package provider

import (
	"context"
	"encoding/json"

	"github.com/loglens/loglens/internal/model"
)

const (
	defaultLocalBaseURL = "http://localhost:11434/v1"
	defaultLocalModel   = "llama3"
)

// localProvider talks to an OpenAI-compatible local inference server
// (e.g. Ollama, LM Studio) over the chat-completions shape.
type localProvider struct {
	baseURL string
	model   string
}

func newLocalProvider(cfg Config) *localProvider {
	base := cfg.BaseURL
	if base == "" {
		base = defaultLocalBaseURL
	}
	m := cfg.ModelOverride
	if m == "" {
		m = defaultLocalModel
	}
	return &localProvider{baseURL: base, model: m}
}

func (p *localProvider) Name() string { return "local" }

func (p *localProvider) Analyze(ctx context.Context, req model.AnalysisRequest) (*model.AnalysisResponse, error) {
	systemPrompt := GenerateSystemPrompt(req.Entries, req.UserContext, req.Focus)
	userPrompt := CreateAnalysisPrompt(req.Entries)

	body := openRouterRequest{
		Model: p.model,
		Messages: []openRouterMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature: 0.1,
		MaxTokens:   2000,
	}

	var raw openRouterResponse
	if err := postJSON(ctx, p.Name(), p.baseURL+"/chat/completions", nil, body, &raw); err != nil {
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

func (p *localProvider) ListModels(ctx context.Context) ([]model.ModelInfo, error) {
	var raw openAIModelsResponse
	if err := getJSON(ctx, p.Name(), p.baseURL+"/models", nil, &raw); err != nil {
		return nil, err
	}
	out := make([]model.ModelInfo, 0, len(raw.Data))
	for _, m := range raw.Data {
		out = append(out, model.ModelInfo{ID: m.ID, DisplayName: m.ID})
	}
	return out, nil
}
