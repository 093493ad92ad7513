package main

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/jonathan/news-assistant/internal/db"
	"github.com/jonathan/news-assistant/internal/narration"
	"github.com/jonathan/news-assistant/internal/server"
)

var (
	servePort      int
	serveNoMigrate bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Start an HTTP server that exposes REST endpoints for articles, content processing and speech.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (overrides config)")
	serveCmd.Flags().BoolVar(&serveNoMigrate, "no-migrate", false, "Skip applying database migrations at startup")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg := appConfig
	if servePort > 0 {
		cfg.Server.Port = servePort
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("database URL is required (set NEWS_ASSISTANT_DB_URL or DATABASE_URL)")
	}

	ctx := cmd.Context()
	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer database.Close()

	if !serveNoMigrate {
		version, err := database.Migrate(db.MigrateUp)
		if err != nil {
			return err
		}
		log.Info().Uint("version", version).Msg("database schema up to date")
	}

	comps, err := newComponents(ctx, cfg, nil)
	if err != nil {
		return err
	}
	defer comps.Close()

	speechSvc, err := newSpeechService(cfg)
	if err != nil {
		return err
	}
	narrator := narration.New(speechSvc, comps.store, cfg.DataDir)

	srv := server.New(cfg, server.Deps{
		Articles:  database,
		Processor: comps.processor,
		Narrator:  narrator,
		Voices:    speechSvc,
	})

	if err := srv.Start(ctx); err != nil {
		return err
	}

	log.Info().Msg("waiting for background narration to finish")
	done := make(chan struct{})
	go func() {
		narrator.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(narration.DefaultTimeout):
		log.Warn().Msg("background narration still running at exit")
	}
	return nil
}
