// Package main provides the semview binary entry point.
// Semview loads RDF/OWL documents, classifies their nodes and serves
// filtered graph views and subgraph exports.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"github.com/c360studio/semview/config"
)

const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "semview"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath string
	logLevel   string
}

func rootCmd() *cobra.Command {
	flags := &globalFlags{}

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Ontology graph viewer",
		Long: `Semview parses Turtle documents, classifies every node as a class,
property or individual, and produces filtered graph views and subgraph
exports.

Use the subcommands to inspect a file directly, or "serve" to run the
HTTP API (and the NATS responder when nats.url is configured).`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "Config file path (YAML)")
	cmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	cmd.AddCommand(
		viewCmd(flags),
		nodesCmd(flags),
		triplesCmd(flags),
		exportCmd(flags),
		serveCmd(flags),
		configCmd(flags),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s version %s (build: %s)\n", appName, Version, BuildTime)
			},
		},
	)

	return cmd
}

// newLogger builds the text logger on w for level.
func newLogger(w io.Writer, level string) *slog.Logger {
	lvl := slog.LevelInfo
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
}

// loadConfig installs the logger and resolves the configuration.
func (f *globalFlags) loadConfig(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	logger := newLogger(cmd.ErrOrStderr(), f.logLevel)
	slog.SetDefault(logger)

	cfg, err := config.NewLoader(logger).Load(f.configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, logger, nil
}

// setup loads configuration and builds the application.
func (f *globalFlags) setup(cmd *cobra.Command) (*App, error) {
	cfg, logger, err := f.loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return NewApp(cfg, logger), nil
}
