package llm

import (
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// ErrorKind distinguishes provider failures that callers may treat differently.
type ErrorKind string

// Error kinds reported by clients.
const (
	KindConfiguration ErrorKind = "configuration"
	KindQuotaExceeded ErrorKind = "quota_exceeded"
	KindRateLimited   ErrorKind = "rate_limited"
	KindEmptyResponse ErrorKind = "empty_response"
	KindProvider      ErrorKind = "provider_error"
	KindGeneration    ErrorKind = "generation_failed"
)

// Error is returned by every Client implementation.
type Error struct {
	Kind     ErrorKind
	Provider Provider
	Message  string
	Cause    error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s %s: %s: %v", e.Provider, e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s %s: %s", e.Provider, e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// KindOf returns the kind of an llm error, or "" when err is not one.
func KindOf(err error) ErrorKind {
	var llmErr *Error
	if errors.As(err, &llmErr) {
		return llmErr.Kind
	}
	return ""
}

func classifyOpenAIError(err error) *Error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		code, _ := apiErr.Code.(string)
		switch {
		case code == "insufficient_quota" || strings.Contains(strings.ToLower(apiErr.Message), "quota"):
			return &Error{Kind: KindQuotaExceeded, Provider: ProviderOpenAI, Message: "quota exceeded", Cause: err}
		case apiErr.HTTPStatusCode == 429:
			return &Error{Kind: KindRateLimited, Provider: ProviderOpenAI, Message: "rate limit exceeded", Cause: err}
		default:
			return &Error{Kind: KindProvider, Provider: ProviderOpenAI, Message: "API error", Cause: err}
		}
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		if reqErr.HTTPStatusCode == 429 {
			return &Error{Kind: KindRateLimited, Provider: ProviderOpenAI, Message: "rate limit exceeded", Cause: err}
		}
		return &Error{Kind: KindProvider, Provider: ProviderOpenAI, Message: "API error", Cause: err}
	}

	return &Error{Kind: KindGeneration, Provider: ProviderOpenAI, Message: "request failed", Cause: err}
}

func classifyGeminiError(err error) *Error {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "quota"):
		return &Error{Kind: KindQuotaExceeded, Provider: ProviderGemini, Message: "quota exceeded", Cause: err}
	case strings.Contains(msg, "429") || strings.Contains(msg, "resource exhausted") || strings.Contains(msg, "resourceexhausted"):
		return &Error{Kind: KindRateLimited, Provider: ProviderGemini, Message: "rate limit exceeded", Cause: err}
	default:
		return &Error{Kind: KindProvider, Provider: ProviderGemini, Message: "API error", Cause: err}
	}
}
