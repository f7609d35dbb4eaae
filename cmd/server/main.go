package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/linechat/internal/app"
	"github.com/vovakirdan/linechat/internal/config"
	"github.com/vovakirdan/linechat/internal/log"
)

type flags struct {
	configPath string
	host       string
	port       int
	httpAddr   string
	logLevel   string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var f flags

	cmd := &cobra.Command{
		Use:          "linechat-server",
		Short:        "Line-based multi-user chat server",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, f)
		},
	}

	cmd.Flags().StringVarP(&f.configPath, "config", "c", "", "path to config.yaml")
	cmd.Flags().StringVar(&f.host, "host", "", "chat listen host")
	cmd.Flags().IntVarP(&f.port, "port", "p", 0, "chat listen port")
	cmd.Flags().StringVar(&f.httpAddr, "http-addr", "", "HTTP/WebSocket listen address, empty string disables it")
	cmd.Flags().StringVar(&f.logLevel, "log-level", "", "log level: debug, info, warn, error")
	return cmd
}

func run(cmd *cobra.Command, f flags) error {
	bootLogger := log.New("info", "console")

	cfg, path, err := config.Load(bootLogger, f.configPath)
	if err != nil {
		return err
	}
	cfg.UpdateFrom(config.Config{Host: f.host, Port: f.port, LogLevel: f.logLevel})
	if cmd.Flags().Changed("http-addr") {
		cfg.HTTPAddr = f.httpAddr
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config %s: %w", path, err)
	}

	logger := log.New(cfg.LogLevel, cfg.LogFormat)
	logger.Info().Str("config", path).Msg("configuration loaded")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(&cfg, logger)
	if err != nil {
		return err
	}

	logger.Info().Str("addr", cfg.Addr()).Msg("starting linechat server")
	if err := application.Run(ctx); err != nil {
		logger.Error().Err(err).Msg("server exited with error")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}
