package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/jonathan/news-assistant/internal/artifacts"
	"github.com/jonathan/news-assistant/internal/config"
	"github.com/jonathan/news-assistant/internal/content"
	"github.com/jonathan/news-assistant/internal/fetch"
	"github.com/jonathan/news-assistant/internal/llm"
	"github.com/jonathan/news-assistant/internal/pipeline"
	"github.com/jonathan/news-assistant/internal/speech"
	"github.com/jonathan/news-assistant/internal/summarize"
)

// components are the long-lived collaborators shared by the commands.
type components struct {
	store      *artifacts.Store
	summarizer *summarize.Service
	processor  *pipeline.Processor
	llmClient  llm.Client
}

func (c *components) Close() {
	if c.llmClient != nil {
		if err := c.llmClient.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close LLM client")
		}
	}
}

// newSummarizer builds the summarization service for cfg. Without LLM
// credentials the mock provider is used.
func newSummarizer(ctx context.Context, cfg *config.Config) (*summarize.Service, error) {
	provider, err := summarize.NewProvider(ctx, cfg.LLMClientConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to create summary provider: %w", err)
	}
	return summarize.NewService(provider).WithLimits(cfg.LLM.MaxTokens, cfg.LLM.Temperature), nil
}

// newComponents wires the content pipeline from cfg.
func newComponents(ctx context.Context, cfg *config.Config, onProgress pipeline.ProgressCallback) (*components, error) {
	store, err := artifacts.NewStore(cfg.DataDir)
	if err != nil {
		return nil, err
	}

	summarizer, err := newSummarizer(ctx, cfg)
	if err != nil {
		return nil, err
	}

	c := &components{store: store, summarizer: summarizer}

	// AI extraction only runs against a live model.
	var enhancer content.Enhancer
	if cfg.HasLLMCredentials() {
		client, err := llm.NewClient(ctx, cfg.LLMClientConfig())
		if err != nil {
			return nil, fmt.Errorf("failed to create LLM client: %w", err)
		}
		c.llmClient = client
		enhancer = content.NewAIExtractor(client)
	}

	fetcher := fetch.NewClient(&fetch.Options{Timeout: cfg.RequestTimeout, UserAgent: cfg.UserAgent})
	opts := pipeline.Options{
		Fetcher:    fetcher,
		Extractor:  content.NewExtractor(enhancer),
		Summarizer: summarizer,
		Store:      store,
		OnProgress: onProgress,
	}
	if cfg.UseBrowser {
		opts.Renderer = fetcher
	}
	c.processor = pipeline.NewProcessor(opts)

	log.Debug().
		Str("llm_provider", string(cfg.LLMClientConfig().Provider)).
		Bool("ai_extraction", enhancer != nil).
		Bool("browser", cfg.UseBrowser).
		Msg("content pipeline ready")
	return c, nil
}

// speechOptions maps cfg onto speech provider options. The OpenAI speech
// provider shares the LLM key.
func speechOptions(cfg *config.Config) speech.ProviderOptions {
	opts := speech.ProviderOptions{
		Provider:    cfg.Speech.Provider,
		AzureKey:    cfg.Speech.AzureKey,
		AzureRegion: cfg.Speech.AzureRegion,
	}
	if cfg.LLM.Provider == string(llm.ProviderOpenAI) {
		opts.OpenAIKey = cfg.LLM.APIKey
		opts.OpenAIBaseURL = cfg.LLM.BaseURL
	}
	return opts
}

// newSpeechService builds the speech service for cfg.
func newSpeechService(cfg *config.Config) (*speech.Service, error) {
	provider, err := speech.NewProvider(speechOptions(cfg))
	if err != nil {
		return nil, err
	}

	format, err := speech.ParseFormat(cfg.Speech.Format)
	if err != nil {
		return nil, err
	}
	return speech.NewService(provider, cfg.DataDir).WithDefaults(cfg.Speech.Voice, format), nil
}
