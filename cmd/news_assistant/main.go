// Package main provides the entry point for the News Assistant CLI and HTTP API server.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/jonathan/news-assistant/internal/config"
	"github.com/jonathan/news-assistant/internal/observability"
)

var (
	configPath string
	debugFlag  bool

	// appConfig is loaded once before any subcommand runs.
	appConfig *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "news_assistant",
	Short: "News Assistant API server and content tools",
	Long: "News Assistant fetches articles, extracts their title and body text, summarizes them, " +
		"and turns them into speech-ready text and audio.",
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML config file (overrides "+config.PathEnv+")")
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "Enable debug logging")
}

func loadConfig(_ *cobra.Command, _ []string) error {
	path := configPath
	if path == "" {
		path = os.Getenv(config.PathEnv)
	}

	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	if debugFlag {
		cfg.Debug = true
	}

	observability.SetupLogging(cfg.Debug)
	appConfig = cfg
	return nil
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
