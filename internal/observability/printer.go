// Package observability provides logging setup and formatted CLI output.
package observability

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/jonathan/news-assistant/internal/pipeline"
	"github.com/jonathan/news-assistant/internal/speech"
	"github.com/jonathan/news-assistant/internal/summarize"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// previewLines bounds how much body text is shown
	previewLines = 8
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 10
)

// Printer handles formatted output for CLI commands
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content. Widths are
// counted in runes so Japanese text is truncated on character boundaries.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %s │\n", pad(title, boxWidth-4))
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %s │\n", pad(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

func pad(s string, width int) string {
	n := utf8.RuneCountInString(s)
	if n > width {
		runes := []rune(s)
		return string(runes[:width-3]) + "..."
	}
	return s + strings.Repeat(" ", width-n)
}

// PrintProcessedContent outputs the result of running the content pipeline.
func (p *Printer) PrintProcessedContent(pc *pipeline.ProcessedContent) {
	if pc == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("URL:       %s\n", pc.URL))
	sb.WriteString(fmt.Sprintf("Title:     %s\n", pc.Title))
	sb.WriteString(fmt.Sprintf("Format:    %s\n", pc.Extension))
	sb.WriteString(fmt.Sprintf("Chars:     %d\n", utf8.RuneCountInString(pc.ExtractedText)))
	if pc.FilePath != "" {
		sb.WriteString(fmt.Sprintf("Saved to:  %s\n", pc.FilePath))
	}

	if pc.Summary != "" {
		sb.WriteString("\nSummary:\n")
		for _, line := range strings.Split(pc.Summary, "\n") {
			sb.WriteString("  " + line + "\n")
		}
	}

	if pc.ExtractedText != "" {
		sb.WriteString("\nText:\n")
		lines := strings.Split(pc.ExtractedText, "\n")
		for _, line := range lines[:min(len(lines), previewLines)] {
			sb.WriteString("  " + line + "\n")
		}
		if len(lines) > previewLines {
			sb.WriteString(fmt.Sprintf("  ... and %d more lines\n", len(lines)-previewLines))
		}
	}

	p.printBox("PROCESSED CONTENT", strings.TrimRight(sb.String(), "\n"))
}

// PrintSummary outputs a generated summary with its statistics.
func (p *Printer) PrintSummary(resp *summarize.Response) {
	if resp == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Provider:     %s (%s)\n", resp.Provider, resp.Model))
	sb.WriteString(fmt.Sprintf("Length:       %d -> %d (%.1f%%)\n", resp.OriginalLength, resp.SummaryLength, resp.CompressionRatio*100))
	sb.WriteString(fmt.Sprintf("Elapsed:      %.2fs\n\n", resp.ProcessingTime))
	sb.WriteString(resp.Summary)

	p.printBox("SUMMARY", sb.String())
}

// PrintProviderInfo outputs the summarization provider settings and whether
// it answered a connection check.
func (p *Printer) PrintProviderInfo(info summarize.Info) {
	status := "✓ connected"
	if !info.ConnectionStatus {
		status = "✗ unreachable"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Provider:     %s\n", info.Provider))
	sb.WriteString(fmt.Sprintf("Model:        %s\n", info.Model))
	sb.WriteString(fmt.Sprintf("Max tokens:   %d\n", info.MaxTokens))
	sb.WriteString(fmt.Sprintf("Temperature:  %.1f\n", info.Temperature))
	sb.WriteString(fmt.Sprintf("Status:       %s", status))

	p.printBox("SUMMARY PROVIDER", sb.String())
}

// PrintSpeechResult outputs the outcome of a synthesis request.
func (p *Printer) PrintSpeechResult(resp *speech.Response) {
	if resp == nil {
		return
	}

	var sb strings.Builder
	if !resp.Success {
		sb.WriteString("✗ Synthesis failed\n")
		sb.WriteString(resp.ErrorMessage)
		p.printBox("SPEECH", sb.String())
		return
	}

	sb.WriteString("✓ Synthesis completed\n")
	sb.WriteString(fmt.Sprintf("File:     %s\n", resp.OutputPath))
	sb.WriteString(fmt.Sprintf("Size:     %d bytes", resp.FileSizeBytes))
	if resp.DurationSeconds > 0 {
		sb.WriteString(fmt.Sprintf("\nDuration: %.1fs", resp.DurationSeconds))
	}
	p.printBox("SPEECH", sb.String())
}

// PrintVoices outputs the voices a speech provider offers.
func (p *Printer) PrintVoices(voices []speech.VoiceInfo) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Total: %d\n\n", len(voices)))

	count := min(len(voices), maxItemsToShow)
	for i := 0; i < count; i++ {
		v := voices[i]
		sb.WriteString(fmt.Sprintf("  • %s [%s, %s]\n", v.Name, v.Locale, v.Gender))
	}
	if len(voices) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(voices)-maxItemsToShow))
	}

	p.printBox("VOICES", strings.TrimRight(sb.String(), "\n"))
}
