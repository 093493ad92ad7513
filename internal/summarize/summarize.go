// Package summarize generates article summaries through a pluggable
// provider: a live LLM-backed provider or a deterministic mock.
package summarize

import (
	"errors"
	"fmt"
	"time"

	"github.com/jonathan/news-assistant/internal/llm"
)

// Style selects the summary prompt.
type Style string

// Summary styles.
const (
	StyleConcise      Style = "concise"
	StyleDetailed     Style = "detailed"
	StyleBulletPoints Style = "bullet_points"
	StyleExecutive    Style = "executive"
)

// DefaultMaxLength is the target summary length in characters.
const DefaultMaxLength = 1000

// DefaultLanguage is used when the content language cannot be detected.
const DefaultLanguage = "ja"

// Request describes one summary.
type Request struct {
	Content   string `json:"content" validate:"required"`
	Style     Style  `json:"style,omitempty" validate:"omitempty,oneof=concise detailed bullet_points executive"`
	MaxLength int    `json:"max_length,omitempty" validate:"omitempty,min=50,max=2000"`
	// Language is an ISO 639-1 code; empty means detect from Content.
	Language string `json:"language,omitempty" validate:"omitempty,len=2"`
	// CustomPrompt replaces the style template. {{.Content}} marks where the
	// article goes; without it the article is appended.
	CustomPrompt string `json:"custom_prompt,omitempty"`
}

func (r Request) style() Style {
	if r.Style == "" {
		return StyleConcise
	}
	return r.Style
}

func (r Request) maxLength() int {
	if r.MaxLength == 0 {
		return DefaultMaxLength
	}
	return r.MaxLength
}

// Response is a generated summary with its statistics.
type Response struct {
	Summary          string         `json:"summary"`
	OriginalLength   int            `json:"original_length"`
	SummaryLength    int            `json:"summary_length"`
	CompressionRatio float64        `json:"compression_ratio"`
	Provider         string         `json:"provider"`
	Model            string         `json:"model_name"`
	ProcessingTime   float64        `json:"processing_time"`
	CreatedAt        time.Time      `json:"created_at"`
	Metadata         map[string]any `json:"metadata"`
}

// Error codes carried by GenerationError.
const (
	CodeEmptyContent   = "EMPTY_CONTENT"
	CodeInvalidRequest = "INVALID_REQUEST"
	CodeConfiguration  = "CONFIGURATION_ERROR"
	CodeRateLimit      = "RATE_LIMIT_EXCEEDED"
	CodeQuotaExceeded  = "QUOTA_EXCEEDED"
	CodeAPIError       = "API_ERROR"
	CodeEmptyResponse  = "EMPTY_RESPONSE"
	CodeGeneration     = "GENERATION_FAILED"
)

// GenerationError reports a failed summary.
type GenerationError struct {
	Code    string
	Message string
	Cause   error
}

func (e *GenerationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("summary generation failed [%s]: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("summary generation failed [%s]: %s", e.Code, e.Message)
}

func (e *GenerationError) Unwrap() error {
	return e.Cause
}

// CodeOf returns the code of a GenerationError, or "" for other errors.
func CodeOf(err error) string {
	var genErr *GenerationError
	if errors.As(err, &genErr) {
		return genErr.Code
	}
	return ""
}

// wrapLLMError maps a client failure onto a GenerationError code.
func wrapLLMError(err error) *GenerationError {
	code := CodeGeneration
	switch llm.KindOf(err) {
	case llm.KindConfiguration:
		code = CodeConfiguration
	case llm.KindRateLimited:
		code = CodeRateLimit
	case llm.KindQuotaExceeded:
		code = CodeQuotaExceeded
	case llm.KindProvider:
		code = CodeAPIError
	case llm.KindEmptyResponse:
		code = CodeEmptyResponse
	}
	return &GenerationError{Code: code, Message: "provider request failed", Cause: err}
}
