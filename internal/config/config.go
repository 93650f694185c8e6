// Package config resolves LogLens's runtime configuration from three
// layers, highest precedence first: command-line flags, environment
// variables, and a per-project config.toml. It has no teacher precedent
// (melisai takes all configuration via cobra flags with no file or env
// layer); the layering itself follows viper's own documented idiom, using
// the TOML codec donated by DataDog-datadog-agent's dependency tree.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/loglens/loglens/internal/provider"
)

// Provider names recognized by internal/provider, each resolved from an
// environment variable of the form {PROVIDER}_API_KEY.
var providerNames = []string{"openrouter", "openai", "anthropic", "gemini"}

const (
	DefaultPort    = 8080
	DefaultMCPPort = 8090
)

// Config is LogLens's fully resolved runtime configuration.
type Config struct {
	Port       int    `mapstructure:"port"`
	MCPPort    int    `mapstructure:"mcp_port"`
	MCPTransport string `mapstructure:"mcp_transport"`
	DBPath     string `mapstructure:"db_path"`

	// ProviderKeys maps a provider name (openrouter, openai, anthropic,
	// gemini) to its API key, resolved from {PROVIDER}_API_KEY env vars
	// or a [providers] table in config.toml.
	ProviderKeys map[string]string `mapstructure:"-"`
}

// Load builds a Config by layering, lowest precedence first: built-in
// defaults, configPath's config.toml (if it exists), {PROVIDER}_API_KEY/
// PORT/MCP_PORT environment variables, then flags bound on fs. Any of
// configPath or fs may be empty/nil to skip that layer.
func Load(configPath string, fs *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetConfigType("toml")

	v.SetDefault("port", DefaultPort)
	v.SetDefault("mcp_port", DefaultMCPPort)
	v.SetDefault("mcp_transport", "stdio")
	v.SetDefault("db_path", "")

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config.toml: %w", err)
			}
		}
	}

	v.SetEnvPrefix("")
	v.AutomaticEnv()
	v.BindEnv("port", "PORT")
	v.BindEnv("mcp_port", "MCP_PORT")
	v.BindEnv("mcp_transport", "MCP_TRANSPORT")

	if fs != nil {
		if err := v.BindPFlags(fs); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.ProviderKeys = resolveProviderKeys(v)
	return cfg, nil
}

// resolveProviderKeys reads each provider's API key from its
// {PROVIDER}_API_KEY environment variable, falling back to a
// [providers] table in config.toml (providers.openai = "...").
func resolveProviderKeys(v *viper.Viper) map[string]string {
	keys := make(map[string]string, len(providerNames))
	for _, name := range providerNames {
		envKey := strings.ToUpper(name) + "_API_KEY"
		v.BindEnv("providers."+name, envKey)
		if key := v.GetString("providers." + name); key != "" {
			keys[name] = key
		}
	}
	return keys
}

// Credentials returns a resolver from provider name to its Config, suitable
// for internal/scheduler.Credentials and internal/mcp.Deps.Credentials.
func (c Config) Credentials(providerName string) provider.Config {
	return provider.Config{APIKey: c.ProviderKeys[providerName]}
}

// WriteDefault writes a commented default config.toml to path, used by
// `loglens init` to seed a new project.
func WriteDefault(path string) error {
	defaults := struct {
		Port         int    `toml:"port" comment:"dashboard HTTP port"`
		MCPPort      int    `toml:"mcp_port" comment:"MCP HTTP+SSE port, unused for stdio transport"`
		MCPTransport string `toml:"mcp_transport" comment:"stdio or http"`
	}{
		Port:         DefaultPort,
		MCPPort:      DefaultMCPPort,
		MCPTransport: "stdio",
	}
	data, err := toml.Marshal(defaults)
	if err != nil {
		return fmt.Errorf("marshal default config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
