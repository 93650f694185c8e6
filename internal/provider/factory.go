package provider

import (
	"fmt"

	"github.com/loglens/loglens/internal/clierr"
)

// builders maps a provider name to its constructor, mirroring the
// executor package's name-keyed tool registry.
var builders = map[string]func(Config) Provider{
	"openrouter": func(c Config) Provider { return newOpenRouterProvider(c) },
	"openai":     func(c Config) Provider { return newOpenAIProvider(c) },
	"anthropic":  func(c Config) Provider { return newAnthropicProvider(c) },
	"gemini":     func(c Config) Provider { return newGeminiProvider(c) },
	"local":      func(c Config) Provider { return newLocalProvider(c) },
}

// New resolves (name, config) to a concrete Provider.
func New(name string, cfg Config) (Provider, error) {
	build, ok := builders[name]
	if !ok {
		return nil, clierr.New(clierr.KindInvalidInput, fmt.Sprintf("unknown provider %q", name)).
			WithFix("use one of openrouter, openai, anthropic, gemini, local")
	}
	return build(cfg), nil
}

// Names lists the registered provider names, in a fixed order.
func Names() []string {
	return []string{"openrouter", "openai", "anthropic", "gemini", "local"}
}
