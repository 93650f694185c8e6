// Package provider implements LogLens's LLM provider interface (C5), per
// spec.md §4.5: a uniform Provider contract, a factory selecting concrete
// vendor implementations by name, deterministic prompt construction, and
// fallback parsing when a vendor ignores the structured-JSON request.
package provider

import (
	"context"

	"github.com/loglens/loglens/internal/model"
)

// Provider is one LLM analysis backend.
type Provider interface {
	Name() string
	Analyze(ctx context.Context, req model.AnalysisRequest) (*model.AnalysisResponse, error)
	ListModels(ctx context.Context) ([]model.ModelInfo, error)
}

// Config carries the resolved credentials and model override New uses to
// construct a Provider.
type Config struct {
	APIKey         string
	ModelOverride  string
	BaseURL        string // Local provider only.
}
