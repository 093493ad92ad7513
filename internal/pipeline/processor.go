// Package pipeline runs the content processing sequence for one URL:
// fetch, title and text extraction, optional summary, and artifact storage.
package pipeline

import (
	"context"
	"errors"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/jonathan/news-assistant/internal/artifacts"
	"github.com/jonathan/news-assistant/internal/audiotext"
	"github.com/jonathan/news-assistant/internal/content"
	"github.com/jonathan/news-assistant/internal/fetch"
)

// Fetcher retrieves a URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*fetch.Result, error)
}

// Renderer retrieves a URL through a browser.
type Renderer interface {
	Render(ctx context.Context, url string) (*fetch.Result, error)
}

// Summarizer turns article text into a summary.
type Summarizer interface {
	SummarizeText(ctx context.Context, text string) (string, error)
}

// Store persists artifacts for an article.
type Store interface {
	SaveRaw(articleID int64, ext content.Extension, body []byte) (string, error)
	SaveText(articleID int64, text string) (string, error)
	SaveAudioText(articleID int64, text string) (string, error)
}

// ProcessedContent is the result of processing one URL.
type ProcessedContent struct {
	URL           string            `json:"url"`
	Title         string            `json:"title"`
	ExtractedText string            `json:"extracted_text"`
	Summary       string            `json:"summary"`
	Extension     content.Extension `json:"extension"`
	FilePath      string            `json:"file_path,omitempty"` // empty without an article id
}

// Step names reported through ProgressEvent.
const (
	StepFetch   = "fetch"
	StepTitle   = "title"
	StepText    = "text"
	StepSummary = "summary"
	StepSave    = "save"
)

// ProgressEvent represents a progress update during processing
type ProgressEvent struct {
	Step    string `json:"step"`
	URL     string `json:"url"`
	Message string `json:"message"`
	Content any    `json:"content,omitempty"`
}

// ProgressCallback is called when processing progress occurs
type ProgressCallback func(event ProgressEvent)

// Options wires a Processor. Fetcher, Extractor and Store are required;
// without a Summarizer summaries are skipped, without a Renderer pages are
// never re-rendered.
type Options struct {
	Fetcher    Fetcher
	Renderer   Renderer
	Extractor  *content.Extractor
	Summarizer Summarizer
	Store      Store
	OnProgress ProgressCallback
}

// Processor runs the content pipeline.
type Processor struct {
	fetcher    Fetcher
	renderer   Renderer
	extractor  *content.Extractor
	summarizer Summarizer
	store      Store
	onProgress ProgressCallback
}

// NewProcessor returns a Processor.
func NewProcessor(opts Options) *Processor {
	extractor := opts.Extractor
	if extractor == nil {
		extractor = content.NewExtractor(nil)
	}
	return &Processor{
		fetcher:    opts.Fetcher,
		renderer:   opts.Renderer,
		extractor:  extractor,
		summarizer: opts.Summarizer,
		store:      opts.Store,
		onProgress: opts.OnProgress,
	}
}

type progressKey struct{}

// WithProgress returns a context whose Process calls also report to cb, in
// addition to any callback configured on the Processor.
func WithProgress(ctx context.Context, cb ProgressCallback) context.Context {
	return context.WithValue(ctx, progressKey{}, cb)
}

func (p *Processor) emit(ctx context.Context, step, url, message string, payload any) {
	event := ProgressEvent{Step: step, URL: url, Message: message, Content: payload}
	if p.onProgress != nil {
		p.onProgress(event)
	}
	if cb, ok := ctx.Value(progressKey{}).(ProgressCallback); ok && cb != nil {
		cb(event)
	}
}

// Process fetches url and builds its ProcessedContent. Only a failed fetch or
// a failed raw payload write is returned as an error; every other failure
// degrades to an empty title, text or summary.
func (p *Processor) Process(ctx context.Context, url, fallbackTitle string, articleID *int64, summarize bool) (*ProcessedContent, error) {
	logger := log.With().Str("url", url).Logger()
	if articleID != nil {
		logger = logger.With().Int64("article_id", *articleID).Logger()
	}

	doc, err := p.fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	p.emit(ctx, StepFetch, url, "fetched "+string(doc.Extension), nil)

	titleOutcome := content.ExtractTitle(doc, fallbackTitle)
	title := fallbackTitle
	if titleOutcome.Success {
		title = titleOutcome.Title
	}
	logger.Debug().Str("method", string(titleOutcome.Method)).Str("title", title).Msg("title resolved")
	p.emit(ctx, StepTitle, url, title, titleOutcome)

	textOutcome := p.extractor.ExtractText(ctx, doc)
	text := ""
	if textOutcome.Success {
		text = textOutcome.Text
	}
	logger.Debug().Int("chars", textOutcome.Chars).Bool("success", textOutcome.Success).Msg("text extracted")
	p.emit(ctx, StepText, url, "text extracted", textOutcome)

	summary := ""
	if summarize && strings.TrimSpace(text) != "" {
		summary = p.summarize(ctx, text)
		if summary != "" {
			logger.Info().Msg("summary generated")
			p.emit(ctx, StepSummary, url, "summary generated", summary)
		}
	}

	result := &ProcessedContent{
		URL:           url,
		Title:         title,
		ExtractedText: text,
		Summary:       summary,
		Extension:     doc.Extension,
	}

	if articleID != nil {
		path, err := p.save(doc, *articleID, text)
		if err != nil {
			return nil, err
		}
		result.FilePath = path
		p.emit(ctx, StepSave, url, path, nil)
	}

	return result, nil
}

// fetch retrieves and classifies url, re-rendering short HTML pages in a
// browser when a Renderer is configured.
func (p *Processor) fetch(ctx context.Context, url string) (content.Fetched, error) {
	if p.fetcher == nil {
		return content.Fetched{}, &ProcessingError{Code: CodeProcessingFailed, URL: url, Message: "no fetcher configured"}
	}

	res, err := p.fetcher.Fetch(ctx, url)
	if err != nil {
		log.Error().Err(err).Str("url", url).Msg("fetch failed")
		return content.Fetched{}, &ProcessingError{Code: CodeFetchFailed, URL: url, Message: "failed to fetch content", Cause: err}
	}
	doc := content.NewFetched(url, res.Body, res.ContentType)

	if p.renderer == nil || doc.Extension != content.ExtHTML {
		return doc, nil
	}
	structural := content.NewExtractor(nil).ExtractText(ctx, doc)
	if !fetch.ShouldUseBrowser(structural.Text) {
		return doc, nil
	}

	log.Info().Str("url", url).Int("chars", structural.Chars).Msg("page text too short, rendering in browser")
	rendered, err := p.renderer.Render(ctx, url)
	if err != nil {
		log.Warn().Err(err).Str("url", url).Msg("browser rendering failed, using fetched HTML")
		return doc, nil
	}
	return content.NewFetched(url, rendered.Body, rendered.ContentType), nil
}

func (p *Processor) summarize(ctx context.Context, text string) string {
	if p.summarizer == nil {
		log.Debug().Msg("no summarizer configured, skipping summary")
		return ""
	}
	summary, err := p.summarizer.SummarizeText(ctx, text)
	if err != nil {
		log.Warn().Err(err).Msg("summary generation failed")
		return ""
	}
	return summary
}

// save writes the raw payload, then the extracted and speech-normalized text.
// Only the raw payload write can fail the operation.
func (p *Processor) save(doc content.Fetched, articleID int64, text string) (string, error) {
	path, err := p.store.SaveRaw(articleID, doc.Extension, doc.Body)
	if err != nil {
		perr := &ProcessingError{Code: CodeSaveFailed, URL: doc.URL, ArticleID: &articleID, Message: "failed to save content", Cause: err}
		var writeErr *artifacts.WriteError
		if errors.As(err, &writeErr) {
			perr.Filename = filepath.Base(writeErr.Path)
		}
		log.Error().Err(err).Int64("article_id", articleID).Msg("failed to save content")
		return "", perr
	}
	log.Info().Str("path", path).Msg("content saved")

	if text == "" {
		return path, nil
	}

	textPath, err := p.store.SaveText(articleID, text)
	if err != nil {
		log.Error().Err(err).Int64("article_id", articleID).Msg("failed to save extracted text")
		return path, nil
	}
	log.Info().Str("path", textPath).Msg("extracted text saved")

	audioPath, err := p.store.SaveAudioText(articleID, audiotext.Normalize(text))
	if err != nil {
		log.Error().Err(err).Int64("article_id", articleID).Msg("failed to save audio text")
		return path, nil
	}
	log.Info().Str("path", audioPath).Msg("audio text saved")

	return path, nil
}

// ExtractTitleOnly fetches url and returns its title, or fallback on any failure.
func (p *Processor) ExtractTitleOnly(ctx context.Context, url, fallback string) string {
	doc, err := p.fetch(ctx, url)
	if err != nil {
		log.Warn().Err(err).Str("url", url).Msg("title extraction failed")
		return fallback
	}
	outcome := content.ExtractTitle(doc, fallback)
	if !outcome.Success {
		return fallback
	}
	return outcome.Title
}

// ExtractTextOnly fetches url and returns its body text, or "" on any failure.
func (p *Processor) ExtractTextOnly(ctx context.Context, url string) string {
	doc, err := p.fetch(ctx, url)
	if err != nil {
		log.Warn().Err(err).Str("url", url).Msg("text extraction failed")
		return ""
	}
	outcome := p.extractor.ExtractText(ctx, doc)
	if !outcome.Success {
		return ""
	}
	return outcome.Text
}

// SummaryFromText summarizes text, returning "" for blank input or on failure.
func (p *Processor) SummaryFromText(ctx context.Context, text string) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}
	return p.summarize(ctx, text)
}
