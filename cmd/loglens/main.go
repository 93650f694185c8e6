// loglens — AI-assisted log analysis engine.
//
// Parses, filters, and analyzes application log files using pluggable
// LLM providers, persists projects and analyses in an embedded SQLite
// database, and exposes the same pipeline over a dashboard (HTTP +
// WebSocket) and an MCP tool server for AI coding agents.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/loglens/loglens/internal/analyzer"
	"github.com/loglens/loglens/internal/breaker"
	"github.com/loglens/loglens/internal/clierr"
	"github.com/loglens/loglens/internal/config"
	"github.com/loglens/loglens/internal/httpapi"
	"github.com/loglens/loglens/internal/logx"
	"github.com/loglens/loglens/internal/mcp"
	"github.com/loglens/loglens/internal/registry"
	"github.com/loglens/loglens/internal/scheduler"
	"github.com/loglens/loglens/internal/storage"
	"github.com/loglens/loglens/internal/streaming"
)

var version = "0.1.0"

const (
	shutdownGrace      = 10 * time.Second
	perAnalysisTimeout = 2 * time.Minute
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		clierr.Fatal(err)
	}
}

func newRootCmd() *cobra.Command {
	var (
		cfgPath      string
		dashboard    bool
		dashPort     int
		mcpServer    bool
		mcpTransport string
		mcpPort      int
	)

	rootCmd := &cobra.Command{
		Use:     "loglens",
		Short:   "AI-assisted log analysis engine",
		Version: version,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cfgPath, cmd.Flags())
			if err != nil {
				return err
			}

			switch {
			case dashboard:
				if dashPort > 0 {
					cfg.Port = dashPort
				}
				return runDashboard(cmd.Context(), cfg)
			case mcpServer:
				if mcpTransport != "" {
					cfg.MCPTransport = mcpTransport
				}
				if mcpPort > 0 {
					cfg.MCPPort = mcpPort
				}
				return runMCPServer(cmd.Context(), cfg)
			default:
				return cmd.Help()
			}
		},
	}

	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "path to config.toml (default: ~/.loglens/config.toml)")
	rootCmd.Flags().BoolVar(&dashboard, "dashboard", false, "run the HTTP/WebSocket dashboard server")
	rootCmd.Flags().IntVar(&dashPort, "port", 0, "dashboard port (overrides config)")
	rootCmd.Flags().BoolVar(&mcpServer, "mcp-server", false, "run the MCP tool server")
	rootCmd.Flags().StringVar(&mcpTransport, "mcp-transport", "", "mcp transport: stdio or http (overrides config)")
	rootCmd.Flags().IntVar(&mcpPort, "mcp-port", 0, "mcp http transport port (overrides config)")

	rootCmd.AddCommand(
		newInitCmd(),
		newLinkCmd(),
		newUnlinkCmd(),
		newListProjectsCmd(),
		newValidateLinksCmd(),
	)
	return rootCmd
}

// loadConfig layers config.toml, environment variables, and the flags
// bound on fs, defaulting cfgPath to ~/.loglens/config.toml when empty.
func loadConfig(cfgPath string, fs *pflag.FlagSet) (config.Config, error) {
	if cfgPath == "" {
		dir, err := homeLoglensDir()
		if err != nil {
			return config.Config{}, err
		}
		cfgPath = filepath.Join(dir, "config.toml")
	}
	return config.Load(cfgPath, fs)
}

// homeLoglensDir returns ~/.loglens, creating it if necessary.
func homeLoglensDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", clierr.Wrap(clierr.KindInternal, "failed to resolve home directory", err)
	}
	dir := filepath.Join(home, ".loglens")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", clierr.Wrap(clierr.KindStorage, "failed to create ~/.loglens", err)
	}
	return dir, nil
}

func openRegistry() (*registry.Registry, error) {
	dir, err := homeLoglensDir()
	if err != nil {
		return nil, err
	}
	return registry.Open(filepath.Join(dir, "registry.json"))
}

func openStore() (*storage.Store, error) {
	dir, err := homeLoglensDir()
	if err != nil {
		return nil, err
	}
	return storage.Open(filepath.Join(dir, "loglens.db"))
}

func runDashboard(ctx context.Context, cfg config.Config) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	reg, err := openRegistry()
	if err != nil {
		return err
	}

	breakers := breaker.NewRegistry(breaker.DefaultConfig())
	hub := streaming.NewHub()

	sched := scheduler.New(store, breakers, cfg.Credentials, scheduler.DefaultConfig())
	schedErrc := make(chan error, 1)
	go func() { schedErrc <- sched.Run(ctx) }()

	go resumeStreamingSources(ctx, store, hub)

	srv := httpapi.New(store, hub, reg)
	httpSrv := &http.Server{Addr: fmt.Sprintf(":%d", cfg.Port), Handler: srv}

	httpErrc := make(chan error, 1)
	go func() {
		logx.Log().Info().Str("addr", httpSrv.Addr).Msg("dashboard listening")
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			httpErrc <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		_ = httpSrv.Shutdown(shutdownCtx)
		return nil
	case err := <-schedErrc:
		return err
	case err := <-httpErrc:
		return err
	}
}

// resumeStreamingSources restarts every project's previously configured
// streaming sources when the dashboard starts back up, per spec.md §4.12.
func resumeStreamingSources(ctx context.Context, store *storage.Store, hub *streaming.Hub) {
	projects, err := store.ListProjects(ctx)
	if err != nil {
		logx.Log().Error().Err(err).Msg("failed to list projects for streaming resume")
		return
	}
	for _, p := range projects {
		sources, err := store.ListStreamingSources(ctx, p.ID)
		if err != nil {
			logx.Log().Error().Err(err).Str("project_id", p.ID).Msg("failed to list streaming sources")
			continue
		}
		for _, src := range sources {
			src := src
			go func() {
				if err := streaming.Run(ctx, src, hub, store); err != nil && ctx.Err() == nil {
					logx.Log().Error().Err(err).Str("source_id", src.ID).Msg("streaming source exited")
				}
			}()
		}
	}
}

func runMCPServer(ctx context.Context, cfg config.Config) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	reg, err := openRegistry()
	if err != nil {
		return err
	}

	deps := mcp.Deps{
		Store:       store,
		Registry:    reg,
		Breakers:    breaker.NewRegistry(breaker.DefaultConfig()),
		Credentials: cfg.Credentials,
		AnalyzerCfg: analyzer.DefaultConfig(),
		CallTimeout: perAnalysisTimeout,
	}
	srv := mcp.NewServer(version, deps)

	if cfg.MCPTransport == "http" {
		return srv.StartHTTP(fmt.Sprintf(":%d", cfg.MCPPort))
	}
	return srv.StartStdio(ctx)
}
