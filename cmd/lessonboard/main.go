/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/friendsincode/lessonboard/internal/config"
	"github.com/friendsincode/lessonboard/internal/kiosk"
	"github.com/friendsincode/lessonboard/internal/logbuffer"
	"github.com/friendsincode/lessonboard/internal/logging"
	"github.com/friendsincode/lessonboard/internal/server"
	"github.com/friendsincode/lessonboard/internal/telemetry"
	"github.com/friendsincode/lessonboard/internal/version"
)

var (
	logger zerolog.Logger
	cfg    *config.Config
	logBuf *logbuffer.Buffer
)

var rootCmd = &cobra.Command{
	Use:   "lessonboard",
	Short: "Lessonboard - classroom digital signage",
	Long:  "Lessonboard drives a classroom display: clock, date, current lesson and a rotating slide deck.",
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the signage server",
	Long:  "Start the presentation loop, the renderer websocket and the HTTP API",
	RunE:  runServe,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintln(cmd.OutOrStdout(), version.String())
	},
}

var noKiosk bool

func init() {
	serveCmd.Flags().BoolVar(&noKiosk, "no-kiosk", false, "do not launch the kiosk browser even if LESSONBOARD_KIOSK_LAUNCH is set")
	rootCmd.AddCommand(serveCmd, validateCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig loads configuration and sets up logging.
func loadConfig() error {
	var err error
	cfg, err = config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logBuf = logbuffer.New(cfg.LogBufferSize)
	logger = logging.SetupWithWriter(cfg.Environment, logbuffer.NewWriter(logBuf, nil))
	return nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	if err := loadConfig(); err != nil {
		return err
	}

	logger.Info().Str("version", version.Version).Msg("lessonboard starting")

	tracerProvider, err := telemetry.InitTracer(context.Background(), telemetry.TracerConfig{
		ServiceName:    "lessonboard",
		ServiceVersion: version.Version,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		Enabled:        cfg.TracingEnabled,
		SampleRate:     cfg.TracingSampleRate,
	}, logger)
	if err != nil {
		return fmt.Errorf("initialize tracer: %w", err)
	}
	defer func() {
		if err := tracerProvider.Shutdown(context.Background()); err != nil {
			logger.Error().Err(err).Msg("failed to shutdown tracer provider")
		}
	}()

	srv, err := server.New(cfg, logBuf, logger)
	if err != nil {
		return fmt.Errorf("initialize server: %w", err)
	}

	addr, serveErr, err := srv.ListenAndServe()
	if err != nil {
		_ = srv.Close()
		return fmt.Errorf("listen on %s: %w", cfg.ListenAddr(), err)
	}
	logger.Info().Str("addr", addr.String()).Msg("HTTP server listening")

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.KioskLaunch && !noKiosk {
		k, err := kiosk.Launch(ctx, kiosk.Options{
			URL:        cfg.LocalURL(),
			BrowserBin: cfg.KioskBrowserBin,
		}, logger)
		if err != nil {
			// The server stays useful to an externally started browser.
			logger.Error().Err(err).Msg("kiosk launch failed")
		} else {
			srv.DeferClose(k.Close)
		}
	}

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			logger.Error().Err(err).Msg("http server error")
		}
	}

	logger.Info().Msg("shutting down gracefully...")

	timeoutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.HTTPServer().Shutdown(timeoutCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	if err := srv.Close(); err != nil {
		logger.Error().Err(err).Msg("shutdown cleanup failed")
	}

	logger.Info().Msg("lessonboard stopped")
	return nil
}
