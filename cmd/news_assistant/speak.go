package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jonathan/news-assistant/internal/audiotext"
	"github.com/jonathan/news-assistant/internal/observability"
	"github.com/jonathan/news-assistant/internal/speech"
)

var (
	speakText      string
	speakFile      string
	speakOut       string
	speakVoice     string
	speakFormat    string
	speakNormalize bool
)

var speakCmd = &cobra.Command{
	Use:   "speak",
	Short: "Synthesize speech from text",
	Long:  "Converts --text or the contents of --file to an audio file with the configured speech provider.",
	RunE:  runSpeak,
}

func init() {
	speakCmd.Flags().StringVar(&speakText, "text", "", "Text to synthesize")
	speakCmd.Flags().StringVar(&speakFile, "file", "", "File containing the text to synthesize")
	speakCmd.Flags().StringVarP(&speakOut, "out", "o", "", "Output audio path (generated under the data directory when empty)")
	speakCmd.Flags().StringVar(&speakVoice, "voice", "", "Voice name (defaults to the configured voice)")
	speakCmd.Flags().StringVar(&speakFormat, "format", "", "Audio format: wav, mp3 or ogg")
	speakCmd.Flags().BoolVar(&speakNormalize, "normalize", false, "Normalize the text for speech first")
	speakCmd.MarkFlagsMutuallyExclusive("text", "file")
	speakCmd.MarkFlagsOneRequired("text", "file")
	rootCmd.AddCommand(speakCmd)
}

func runSpeak(cmd *cobra.Command, _ []string) error {
	text := speakText
	if speakFile != "" {
		data, err := os.ReadFile(speakFile)
		if err != nil {
			return fmt.Errorf("failed to read text file: %w", err)
		}
		text = string(data)
	}
	if speakNormalize {
		text = audiotext.Normalize(text)
	}
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("nothing to synthesize")
	}

	var format speech.Format
	if speakFormat != "" {
		parsed, err := speech.ParseFormat(speakFormat)
		if err != nil {
			return err
		}
		format = parsed
	}

	svc, err := newSpeechService(appConfig)
	if err != nil {
		return err
	}

	resp, err := svc.SynthesizeText(cmd.Context(), text, speakVoice, format, speakOut)
	if err != nil {
		return err
	}

	observability.NewPrinter(cmd.OutOrStdout()).PrintSpeechResult(resp)
	if !resp.Success {
		return fmt.Errorf("speech synthesis failed: %s", resp.ErrorMessage)
	}
	return nil
}
