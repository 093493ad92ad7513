package main

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/jonathan/news-assistant/internal/observability"
	"github.com/jonathan/news-assistant/internal/pipeline"
)

var (
	ingestTitle     string
	ingestArticleID int64
	ingestNoSummary bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <url>",
	Short: "Fetch a URL and extract its title, text and summary",
	Long: "Runs the content pipeline for one URL and prints the result. With --id the raw payload, " +
		"extracted text and speech text are saved under the data directory.",
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVar(&ingestTitle, "title", "", "Fallback title when the document has none")
	ingestCmd.Flags().Int64Var(&ingestArticleID, "id", 0, "Article ID used to name saved artifacts (0 saves nothing)")
	ingestCmd.Flags().BoolVar(&ingestNoSummary, "no-summary", false, "Skip summary generation")
	rootCmd.AddCommand(ingestCmd)
}

// articleIDFlag returns nil for the unset (zero) flag value.
func articleIDFlag(id int64) *int64 {
	if id <= 0 {
		return nil
	}
	return &id
}

func runIngest(cmd *cobra.Command, args []string) error {
	url := args[0]
	comps, err := newComponents(cmd.Context(), appConfig, func(e pipeline.ProgressEvent) {
		log.Debug().Str("step", e.Step).Str("url", e.URL).Msg(e.Message)
	})
	if err != nil {
		return err
	}
	defer comps.Close()

	result, err := comps.processor.Process(cmd.Context(), url, ingestTitle, articleIDFlag(ingestArticleID), !ingestNoSummary)
	if err != nil {
		return err
	}

	observability.NewPrinter(cmd.OutOrStdout()).PrintProcessedContent(result)
	return nil
}
