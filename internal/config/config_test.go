package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("", nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != DefaultPort {
		t.Fatalf("expected default port %d, got %d", DefaultPort, cfg.Port)
	}
	if cfg.MCPPort != DefaultMCPPort {
		t.Fatalf("expected default mcp port %d, got %d", DefaultMCPPort, cfg.MCPPort)
	}
	if cfg.MCPTransport != "stdio" {
		t.Fatalf("expected stdio transport, got %q", cfg.MCPTransport)
	}
}

func TestLoadReadsConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("port = 9999\nmcp_transport = \"http\"\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path, nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != 9999 {
		t.Fatalf("expected port 9999 from file, got %d", cfg.Port)
	}
	if cfg.MCPTransport != "http" {
		t.Fatalf("expected http transport from file, got %q", cfg.MCPTransport)
	}
}

func TestLoadMissingConfigFileIsNotAnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "does-not-exist.toml")
	if _, err := Load(path, nil); err != nil {
		t.Fatalf("Load should tolerate a missing config file: %v", err)
	}
}

func TestEnvOverridesConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("port = 1111\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	t.Setenv("PORT", "2222")

	cfg, err := Load(path, nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != 2222 {
		t.Fatalf("expected env override 2222, got %d", cfg.Port)
	}
}

func TestFlagOverridesEverything(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("port = 1111\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	t.Setenv("PORT", "2222")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.Int("port", 3333, "dashboard port")
	if err := fs.Parse([]string{"--port=4444"}); err != nil {
		t.Fatalf("Parse: %v", err)
	}

	cfg, err := Load(path, fs)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != 4444 {
		t.Fatalf("expected flag override 4444, got %d", cfg.Port)
	}
}

func TestResolveProviderKeysFromEnv(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test-123")
	cfg, err := Load("", nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ProviderKeys["openai"] != "sk-test-123" {
		t.Fatalf("expected openai key from env, got %+v", cfg.ProviderKeys)
	}
	if _, ok := cfg.ProviderKeys["anthropic"]; ok {
		t.Fatalf("expected no anthropic key, got %+v", cfg.ProviderKeys)
	}
}

func TestWriteDefaultProducesReadableConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := WriteDefault(path); err != nil {
		t.Fatalf("WriteDefault: %v", err)
	}

	cfg, err := Load(path, nil)
	if err != nil {
		t.Fatalf("Load written config: %v", err)
	}
	if cfg.Port != DefaultPort {
		t.Fatalf("expected default port %d, got %d", DefaultPort, cfg.Port)
	}
}
