package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/saturnino-fabrica-de-software/facematch/internal/config"
	"github.com/saturnino-fabrica-de-software/facematch/internal/face"
)

// Version is the application version.
const Version = "0.1.0"

var (
	// comps is shared by subcommands and built once per invocation
	comps  *face.Components
	logger *slog.Logger

	storeBackend string
	providerType string
)

var rootCmd = &cobra.Command{
	Use:           "facectl",
	Short:         "Enroll and recognize faces against the embedding store",
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if storeBackend != "" {
			cfg.StoreBackend = storeBackend
		}
		if providerType != "" {
			cfg.ProviderType = providerType
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		logger = config.NewLogger(cfg.Environment, cfg.LogLevel)

		comps, err = face.Build(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}

		// one-shot commands wait for the model instead of retrying
		if err := comps.Runtime.Init(cmd.Context()); err != nil {
			return fmt.Errorf("initialize %s extractor: %w", cfg.ProviderType, err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if comps != nil {
			_ = comps.Close()
		}
	},
}

func Execute() {
	// Create a context that listens for Ctrl+C (SIGINT) or Kill (SIGTERM)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&storeBackend, "store", "", "Embedding store backend: file, memory, postgres, redis (default: STORE_BACKEND)")
	rootCmd.PersistentFlags().StringVar(&providerType, "provider", "", "Descriptor extractor: deepface, mock, dlib (default: PROVIDER_TYPE)")
}
