package main

import (
	"github.com/spf13/cobra"

	"github.com/jonathan/news-assistant/internal/observability"
	"github.com/jonathan/news-assistant/internal/summarize"
)

var (
	summarizeStyle     string
	summarizeMaxLength int
	summarizeLanguage  string
	summarizePrompt    string
	summarizeInfo      bool
)

var summarizeCmd = &cobra.Command{
	Use:   "summarize [file|-]",
	Short: "Summarize text with the configured LLM provider",
	Long: "Reads text from a file or stdin and prints its summary with length statistics. " +
		"With --info it only reports the provider, model and a connection check.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runSummarize,
}

func init() {
	summarizeCmd.Flags().StringVar(&summarizeStyle, "style", string(summarize.StyleConcise), "Summary style: concise, detailed, bullet_points or executive")
	summarizeCmd.Flags().IntVar(&summarizeMaxLength, "max-length", summarize.DefaultMaxLength, "Maximum summary length in characters")
	summarizeCmd.Flags().StringVar(&summarizeLanguage, "language", "", "Summary language code (detected when empty)")
	summarizeCmd.Flags().StringVar(&summarizePrompt, "prompt", "", "Custom prompt; {{.Content}} marks where the text goes")
	summarizeCmd.Flags().BoolVar(&summarizeInfo, "info", false, "Show provider settings and connection status instead of summarizing")
	rootCmd.AddCommand(summarizeCmd)
}

func runSummarize(cmd *cobra.Command, args []string) error {
	svc, err := newSummarizer(cmd.Context(), appConfig)
	if err != nil {
		return err
	}

	printer := observability.NewPrinter(cmd.OutOrStdout())
	if summarizeInfo {
		printer.PrintProviderInfo(svc.Info(cmd.Context()))
		return nil
	}

	text, err := readInput(cmd, args)
	if err != nil {
		return err
	}

	resp, err := svc.Summarize(cmd.Context(), summarize.Request{
		Content:      text,
		Style:        summarize.Style(summarizeStyle),
		MaxLength:    summarizeMaxLength,
		Language:     summarizeLanguage,
		CustomPrompt: summarizePrompt,
	})
	if err != nil {
		return err
	}

	printer.PrintSummary(resp)
	return nil
}
