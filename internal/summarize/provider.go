package summarize

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"github.com/jonathan/news-assistant/internal/llm"
	"github.com/jonathan/news-assistant/internal/prompts"
)

const promptFile = "summary.json"

// Provider generates summaries. Implementations receive validated requests
// with Language already resolved.
type Provider interface {
	Generate(ctx context.Context, req Request) (*Response, error)
	Ping(ctx context.Context) bool
	Name() string
	Model() string
}

// NewProvider selects the provider for cfg: the mock for a nil config or the
// mock provider, otherwise a live provider over an llm client.
func NewProvider(ctx context.Context, cfg *llm.Config) (Provider, error) {
	if cfg == nil || cfg.Provider == llm.ProviderMock {
		log.Warn().Msg("no LLM credentials configured, using mock summary provider")
		return NewMockProvider(), nil
	}

	client, err := llm.NewClient(ctx, cfg)
	if err != nil {
		return nil, wrapLLMError(err)
	}
	return NewLiveProvider(client), nil
}

// LiveProvider summarizes with an LLM.
type LiveProvider struct {
	client llm.Client
}

// NewLiveProvider returns a provider backed by client.
func NewLiveProvider(client llm.Client) *LiveProvider {
	return &LiveProvider{client: client}
}

// Name implements Provider.
func (p *LiveProvider) Name() string { return string(p.client.Config().Provider) }

// Model implements Provider.
func (p *LiveProvider) Model() string { return p.client.Config().GetModel(llm.TierSummary) }

// Generate implements Provider.
func (p *LiveProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()

	prompt, err := buildPrompt(req)
	if err != nil {
		return nil, &GenerationError{Code: CodeGeneration, Message: "failed to build prompt", Cause: err}
	}

	resp, err := p.client.Chat(ctx, llm.ChatRequest{Tier: llm.TierSummary, Prompt: prompt})
	if err != nil {
		return nil, wrapLLMError(err)
	}

	model := resp.Model
	if model == "" {
		model = p.Model()
	}

	out := newResponse(req.Content, resp.Content, p.Name(), model, time.Since(start))
	out.Metadata = map[string]any{
		"finish_reason":     resp.FinishReason,
		"prompt_tokens":     resp.PromptTokens,
		"completion_tokens": resp.CompletionTokens,
		"total_tokens":      resp.TotalTokens,
		"language":          req.Language,
	}
	return out, nil
}

// Ping sends a tiny request and reports whether the provider answered.
func (p *LiveProvider) Ping(ctx context.Context) bool {
	_, err := p.client.Chat(ctx, llm.ChatRequest{
		Tier:      llm.TierSummary,
		Prompt:    prompts.MustGet(promptFile, "connection-test"),
		MaxTokens: 5,
	})
	if err != nil {
		log.Warn().Err(err).Str("provider", p.Name()).Msg("connection test failed")
		return false
	}
	return true
}

// MockProvider returns a fixed summary naming the requested style.
type MockProvider struct{}

// NewMockProvider returns the mock provider.
func NewMockProvider() *MockProvider {
	return &MockProvider{}
}

// Name implements Provider.
func (*MockProvider) Name() string { return string(llm.ProviderMock) }

// Model implements Provider.
func (*MockProvider) Model() string { return "mock-model" }

// Generate implements Provider.
func (p *MockProvider) Generate(_ context.Context, req Request) (*Response, error) {
	summary := fmt.Sprintf("これは%sスタイルのモック要約です。", req.style())
	out := newResponse(req.Content, summary, p.Name(), p.Model(), 100*time.Millisecond)
	out.Metadata = map[string]any{"mock": true, "language": req.Language}
	return out, nil
}

// Ping implements Provider.
func (*MockProvider) Ping(context.Context) bool { return true }

func buildPrompt(req Request) (string, error) {
	if req.CustomPrompt != "" {
		if strings.Contains(req.CustomPrompt, "{{.Content}}") {
			return prompts.Format(req.CustomPrompt, map[string]string{"Content": req.Content}), nil
		}
		return req.CustomPrompt + "\n\n" + req.Content, nil
	}

	template, err := prompts.Get(promptFile, string(req.style()))
	if err != nil {
		return "", err
	}
	prompt := prompts.Format(template, map[string]string{
		"Content":   req.Content,
		"MaxLength": fmt.Sprint(req.maxLength()),
	})

	if req.Language != "" && req.Language != DefaultLanguage {
		hint := prompts.MustGet(promptFile, "language-hint")
		prompt += "\n\n" + prompts.Format(hint, map[string]string{"Language": req.Language})
	}
	return prompt, nil
}

func newResponse(content, summary, provider, model string, elapsed time.Duration) *Response {
	original := utf8.RuneCountInString(content)
	length := utf8.RuneCountInString(summary)
	ratio := 0.0
	if original > 0 {
		ratio = float64(length) / float64(original)
	}
	return &Response{
		Summary:          summary,
		OriginalLength:   original,
		SummaryLength:    length,
		CompressionRatio: ratio,
		Provider:         provider,
		Model:            model,
		ProcessingTime:   elapsed.Seconds(),
		CreatedAt:        time.Now(),
	}
}
