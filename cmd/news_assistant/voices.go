package main

import (
	"github.com/spf13/cobra"

	"github.com/jonathan/news-assistant/internal/observability"
)

var voicesCmd = &cobra.Command{
	Use:   "voices",
	Short: "List the speech provider's voices",
	Args:  cobra.NoArgs,
	RunE:  runVoices,
}

func init() {
	rootCmd.AddCommand(voicesCmd)
}

func runVoices(cmd *cobra.Command, _ []string) error {
	svc, err := newSpeechService(appConfig)
	if err != nil {
		return err
	}

	voices, err := svc.Voices(cmd.Context())
	if err != nil {
		return err
	}

	observability.NewPrinter(cmd.OutOrStdout()).PrintVoices(voices)
	return nil
}
