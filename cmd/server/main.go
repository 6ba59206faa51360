package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/pr-poehali-dev/telegram-copy-project/internal/config"
	"github.com/pr-poehali-dev/telegram-copy-project/internal/logging"
)

var version = "dev"

// rootCmd runs the API server when called without a subcommand
var rootCmd = &cobra.Command{
	Use:           "messenger",
	Short:         "Messenger API server",
	Long:          "Messenger API server: chats, messages, reactions, contacts and typing indicators over MariaDB.",
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServe,
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// bootstrap loads .env and the environment, and installs the default logger.
func bootstrap() (config.Config, *slog.Logger, error) {
	// .envファイルを読み込み
	if err := godotenv.Load(); err != nil {
		fmt.Fprintf(os.Stderr, "⚠️  .env file not found, using environment: %v\n", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, nil, err
	}

	log := logging.Init(cfg.LogLevel, cfg.LogFormat)
	return cfg, log, nil
}
