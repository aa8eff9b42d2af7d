package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"impactgraph/internal/core/app"
	"impactgraph/internal/core/config"
	"impactgraph/internal/shared/observability"
)

const version = "0.3.0"

var (
	configPath string
	rootPath   string
	outFormat  string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "impactgraph",
	Short: "Change-impact analysis over a project's file dependency graph",
	Long: `impactgraph parses a project's source files, links their imports into a
dependency graph and estimates which files and pages a change set reaches.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.SetVersionTemplate("impactgraph v{{.Version}}\n")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (default ./"+config.DefaultFile+" when present)")
	rootCmd.PersistentFlags().StringVar(&rootPath, "root", "", "Project root, overrides project.root")
	rootCmd.PersistentFlags().StringVar(&outFormat, "format", "text", "Output format (text, json; impact also accepts markdown, mermaid, sarif)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
}

// setupLogging routes logs to stderr, or to a state file when a full-screen
// UI owns the terminal.
func setupLogging(toFile bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	var output io.Writer = os.Stderr
	if toFile {
		logPath := resolveLogPath()
		if err := os.MkdirAll(filepath.Dir(logPath), 0o700); err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to create log dir for %s: %v\n", logPath, err)
		} else if fi, err := os.Lstat(logPath); err == nil && (fi.Mode()&os.ModeSymlink) != 0 {
			fmt.Fprintf(os.Stderr, "warning: refusing to write logs to symlink path %s\n", logPath)
		} else if f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600); err == nil {
			output = f
		} else {
			fmt.Fprintf(os.Stderr, "warning: failed to open log file %s: %v\n", logPath, err)
		}
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(output, &slog.HandlerOptions{Level: level})))
}

func resolveLogPath() string {
	if xdg := os.Getenv("XDG_STATE_HOME"); xdg != "" {
		return filepath.Join(xdg, "impactgraph", "impactgraph.log")
	}
	home, err := os.UserHomeDir()
	if err == nil && home != "" {
		return filepath.Join(home, ".local", "state", "impactgraph", "impactgraph.log")
	}
	return "impactgraph.log"
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if rootPath != "" {
		cfg.Project.Root = rootPath
	}
	return cfg, nil
}

// session bundles what every command needs and tears it down in order.
type session struct {
	app      *app.App
	shutdown func(context.Context) error
}

func openSession(ctx context.Context, cfg *config.Config) (*session, error) {
	s := &session{}
	if cfg.Observability.EnableTracing {
		shutdown, err := observability.InitTracing(ctx, observability.TracingConfig{
			ServiceName:  cfg.Observability.ServiceName,
			Version:      version,
			OTLPEndpoint: cfg.Observability.OTLPEndpoint,
			Insecure:     true,
		})
		if err != nil {
			return nil, fmt.Errorf("init tracing: %w", err)
		}
		s.shutdown = shutdown
	}

	a, err := app.New(cfg)
	if err != nil {
		s.close(ctx)
		return nil, err
	}
	s.app = a
	return s, nil
}

func (s *session) close(ctx context.Context) {
	if s.app != nil {
		if err := s.app.Close(ctx); err != nil {
			slog.Warn("close failed", "error", err)
		}
	}
	if s.shutdown != nil {
		if err := s.shutdown(ctx); err != nil {
			slog.Warn("tracing shutdown failed", "error", err)
		}
	}
}

func commandContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func jsonOutput() bool {
	return outFormat == "json"
}

// withSession loads config, opens an app with the latest snapshot published
// and runs fn.
func withSession(mutate func(*config.Config), fn func(ctx context.Context, a *app.App) error) error {
	setupLogging(false)
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if mutate != nil {
		mutate(cfg)
	}

	ctx, cancel := commandContext()
	defer cancel()

	s, err := openSession(ctx, cfg)
	if err != nil {
		return err
	}
	defer s.close(context.Background())

	if _, err := s.app.Open(ctx); err != nil {
		return err
	}
	return fn(ctx, s.app)
}
