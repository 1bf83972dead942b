// Package main is the entry point for the telegram-mcp server.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/StreetFDN/telegram-mcp/internal/account"
	"github.com/StreetFDN/telegram-mcp/internal/config"
	"github.com/StreetFDN/telegram-mcp/internal/mcpserver"
	"github.com/StreetFDN/telegram-mcp/internal/telegram"
)

// Set by goreleaser ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "telegram-mcp",
		Short:         "MCP server exposing a Telegram user account",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(versionCmd(), serveCmd())
	return root
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("telegram-mcp %s (commit: %s, built: %s)\n", version, commit, date)
		},
	}
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the MCP tools over stdio (default) or HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfgPath, _ := cmd.Flags().GetString("config")
			httpAddr, _ := cmd.Flags().GetString("http")

			if cfgPath == "" {
				cfgPath = filepath.Join(config.Dir(), "config.yaml")
			}
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			logger, err := buildLogger(cfg)
			if err != nil {
				return fmt.Errorf("create logger: %w", err)
			}
			defer logger.Sync()

			storage, err := telegram.NewStringSession(cfg.Telegram.Session)
			if err != nil {
				return err
			}
			client := telegram.NewGotdClient(cfg.Telegram.APIID, cfg.Telegram.APIHash, storage, logger.Named("telegram"))
			acct := account.New(client, cfg.Telegram.Session != "", logger.Named("account"))
			defer func() {
				// A login performed over the tool surface mints a fresh
				// token; surface it on shutdown so the operator can
				// persist it in the config.
				if token, err := acct.Session(); err == nil && token != "" && token != cfg.Telegram.Session {
					logger.Info("session token updated; set telegram.session in the config to skip the next login",
						zap.String("session", token))
				}
				acct.Close()
			}()

			srv := mcpserver.New(acct, version, logger.Named("mcp"))

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if httpAddr != "" {
				return srv.ServeHTTP(ctx, httpAddr)
			}

			errCh := make(chan error, 1)
			go func() {
				errCh <- srv.ServeStdio()
			}()
			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
				return nil
			}
		},
	}
	cmd.Flags().String("config", "", "path to config file (default: "+filepath.Join(config.Dir(), "config.yaml")+")")
	cmd.Flags().String("http", "", "serve over streamable HTTP on this address instead of stdio (e.g. :8080)")
	return cmd
}

// buildLogger writes logs to the configured file: stdout belongs to the
// stdio protocol.
func buildLogger(cfg *config.Config) (*zap.Logger, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0700); err != nil {
		return nil, err
	}

	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zapcore.InfoLevel
	}

	logCfg := zap.NewProductionConfig()
	logCfg.Level = zap.NewAtomicLevelAt(level)
	logCfg.OutputPaths = []string{cfg.LogFile}
	logCfg.ErrorOutputPaths = []string{cfg.LogFile}
	return logCfg.Build()
}
