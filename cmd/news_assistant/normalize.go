package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/news-assistant/internal/audiotext"
)

var normalizeSummary bool

var normalizeCmd = &cobra.Command{
	Use:   "normalize [file|-]",
	Short: "Rewrite text for speech synthesis",
	Long:  "Reads text from a file or stdin and prints it normalized for text-to-speech.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runNormalize,
}

func init() {
	normalizeCmd.Flags().BoolVar(&normalizeSummary, "summary", false, "Apply the lighter summary normalization")
	rootCmd.AddCommand(normalizeCmd)
}

// readInput reads the named file, or stdin for "-" or no argument.
func readInput(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", fmt.Errorf("failed to read input file: %w", err)
	}
	return string(data), nil
}

func runNormalize(cmd *cobra.Command, args []string) error {
	text, err := readInput(cmd, args)
	if err != nil {
		return err
	}

	if normalizeSummary {
		text = audiotext.NormalizeSummary(text)
	} else {
		text = audiotext.Normalize(text)
	}
	fmt.Fprintln(cmd.OutOrStdout(), text)
	return nil
}
