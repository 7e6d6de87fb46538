package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/go-tokwalk/internal/bpe"
	"github.com/example/go-tokwalk/internal/config"
	"github.com/example/go-tokwalk/internal/server"
	"github.com/example/go-tokwalk/internal/tokenizer"
)

var (
	cfgFile   string
	activeCfg config.Config
	loaded    bool
)

func NewRootCmd() *cobra.Command {
	defaults := config.DefaultConfig()

	cmd := &cobra.Command{
		Use:           "tokwalk",
		Short:         "Tokenize text, files and directory trees with tiktoken encodings",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(config.LoadOptions{
				Cmd:        cmd,
				ConfigFile: cfgFile,
				Defaults:   defaults,
			})
			if err != nil {
				return err
			}
			setupLogger(cfg.LogLevel)
			if err := installLoader(cfg); err != nil {
				return err
			}
			activeCfg = cfg
			loaded = true
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Optional config file (yaml|toml|json)")
	config.RegisterFlags(cmd.PersistentFlags(), defaults)

	cmd.AddCommand(newTokenizeStrCmd())
	cmd.AddCommand(newCountStrCmd())
	cmd.AddCommand(newTokenizeFileCmd())
	cmd.AddCommand(newCountFileCmd())
	cmd.AddCommand(newTokenizeFilesCmd())
	cmd.AddCommand(newCountFilesCmd())
	cmd.AddCommand(newDecodeCmd())
	cmd.AddCommand(newModelsCmd())
	cmd.AddCommand(newEncodingsCmd())
	cmd.AddCommand(newBenchCmd())
	cmd.AddCommand(newDoctorCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newHealthCmd())

	return cmd
}

// setupLogger configures the process-wide slog default logger.
func setupLogger(levelStr string) {
	slog.SetDefault(newLogger(os.Stderr, levelStr))
}

// newLogger returns a JSON logger on w; an unknown level falls back to info.
func newLogger(w io.Writer, levelStr string) *slog.Logger {
	lvl, err := server.ParseLogLevel(levelStr)
	if err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl}))
}

// installLoader points the tokenizer at the configured rank-file source.
func installLoader(cfg config.Config) error {
	loader, err := bpe.NewLoader(cfg.Encoding.Loader, cfg.Cache.Dir)
	if err != nil {
		return fmt.Errorf("encoding loader: %w", err)
	}
	tokenizer.SetLoader(loader)
	slog.Debug("rank loader installed",
		slog.String("loader", cfg.Encoding.Loader),
		slog.String("cache_dir", cfg.Cache.Dir),
	)
	return nil
}

func requireConfig() (config.Config, error) {
	if !loaded {
		return config.Config{}, errors.New("configuration not loaded")
	}
	return activeCfg, nil
}

// requestFrom returns the resolution hints named by cfg.
func requestFrom(cfg config.Config) tokenizer.Request {
	return tokenizer.Request{Model: cfg.Encoding.Model, Encoding: cfg.Encoding.Name}
}
