package provider

import (
	"context"
	"encoding/json"

	"github.com/loglens/loglens/internal/model"
)

const defaultGeminiModel = "gemini-1.5-flash"

type geminiProvider struct {
	apiKey string
	model  string
}

func newGeminiProvider(cfg Config) *geminiProvider {
	m := cfg.ModelOverride
	if m == "" {
		m = defaultGeminiModel
	}
	return &geminiProvider{apiKey: cfg.APIKey, model: m}
}

func (p *geminiProvider) Name() string { return "gemini" }

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	SystemInstruction *geminiContent  `json:"systemInstruction,omitempty"`
	Contents          []geminiContent `json:"contents"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

func (p *geminiProvider) Analyze(ctx context.Context, req model.AnalysisRequest) (*model.AnalysisResponse, error) {
	systemPrompt := GenerateSystemPrompt(req.Entries, req.UserContext, req.Focus)
	userPrompt := CreateAnalysisPrompt(req.Entries)

	body := geminiRequest{
		SystemInstruction: &geminiContent{Parts: []geminiPart{{Text: systemPrompt}}},
		Contents:          []geminiContent{{Role: "user", Parts: []geminiPart{{Text: userPrompt}}}},
	}

	url := "https://generativelanguage.googleapis.com/v1beta/models/" + p.model + ":generateContent?key=" + p.apiKey

	var raw geminiResponse
	if err := postJSON(ctx, p.Name(), url, nil, body, &raw); err != nil {
		return nil, err
	}
	if len(raw.Candidates) == 0 || len(raw.Candidates[0].Content.Parts) == 0 {
		return nil, ErrInvalidResponse(p.Name(), "no candidates returned")
	}

	content := raw.Candidates[0].Content.Parts[0].Text
	var resp model.AnalysisResponse
	if err := json.Unmarshal([]byte(content), &resp); err != nil {
		return ParseFallback(content), nil
	}
	return &resp, nil
}

func (p *geminiProvider) ListModels(ctx context.Context) ([]model.ModelInfo, error) {
	return []model.ModelInfo{
		{ID: "gemini-1.5-flash", DisplayName: "Gemini 1.5 Flash"},
		{ID: "gemini-1.5-pro", DisplayName: "Gemini 1.5 Pro"},
	}, nil
}
