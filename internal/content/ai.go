package content

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jonathan/news-assistant/internal/llm"
	"github.com/jonathan/news-assistant/internal/prompts"
	"github.com/jonathan/news-assistant/internal/schemas"
)

const (
	// MinConfidence is the confidence an AI extraction must exceed to be used.
	MinConfidence = 0.7
	// MaxSimplifiedChars bounds the simplified HTML sent to the model.
	MaxSimplifiedChars = 8000
	// TruncationMarker is appended to simplified HTML cut at MaxSimplifiedChars.
	TruncationMarker = "\n...（以下省略）"

	aiExtractionMaxTokens = 4000
)

// ArticleExtraction is the structured result requested from the model.
type ArticleExtraction struct {
	Title      string  `json:"title"`
	MainText   string  `json:"main_text"`
	IsArticle  bool    `json:"is_article"`
	Confidence float64 `json:"confidence"`
}

// Accepted reports whether the extraction is confident enough to replace
// structural extraction.
func (a ArticleExtraction) Accepted() bool {
	return a.IsArticle && a.Confidence > MinConfidence
}

// Text joins the title and body the way downstream consumers expect.
func (a ArticleExtraction) Text() string {
	if a.Title != "" {
		return a.Title + "\n\n" + a.MainText
	}
	return a.MainText
}

// AIExtractor asks an LLM to separate article text from page chrome.
type AIExtractor struct {
	client llm.Client
}

// NewAIExtractor returns an Enhancer backed by client.
func NewAIExtractor(client llm.Client) *AIExtractor {
	return &AIExtractor{client: client}
}

// Extract implements Enhancer. A rejected extraction is an unsuccessful
// outcome with a nil error.
func (a *AIExtractor) Extract(ctx context.Context, body []byte) (TextOutcome, error) {
	simplified, err := SimplifyHTML(body)
	if err != nil {
		return TextOutcome{}, err
	}
	simplified = truncateRunes(simplified, MaxSimplifiedChars, TruncationMarker)

	resp, err := a.client.Chat(ctx, llm.ChatRequest{
		Tier:        llm.TierExtraction,
		System:      prompts.MustGet("extraction.json", "extract-article-system"),
		Prompt:      simplified,
		MaxTokens:   aiExtractionMaxTokens,
		Temperature: llm.Float32(0),
		JSON:        true,
	})
	if err != nil {
		return TextOutcome{}, fmt.Errorf("AI extraction request failed: %w", err)
	}

	raw := llm.CleanJSONBlock(resp.Content)
	if err := schemas.Validate(schemas.ArticleExtraction, raw); err != nil {
		return TextOutcome{}, fmt.Errorf("AI extraction returned invalid result: %w", err)
	}

	var article ArticleExtraction
	if err := json.Unmarshal([]byte(raw), &article); err != nil {
		return TextOutcome{}, fmt.Errorf("failed to decode AI extraction: %w", err)
	}

	if !article.Accepted() {
		return TextOutcome{}, nil
	}
	return newTextOutcome(article.Text()), nil
}

func truncateRunes(s string, limit int, marker string) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + marker
}
