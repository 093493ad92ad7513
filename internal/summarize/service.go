package summarize

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/pemistahl/lingua-go"
	"github.com/rs/zerolog/log"
)

// detectionSample bounds how much text the language detector reads.
const detectionSample = 1000

var (
	validate = validator.New()

	detectorOnce sync.Once
	detector     lingua.LanguageDetector
)

func languageDetector() lingua.LanguageDetector {
	detectorOnce.Do(func() {
		detector = lingua.NewLanguageDetectorBuilder().
			FromLanguages(lingua.Japanese, lingua.English, lingua.Chinese, lingua.Korean,
				lingua.French, lingua.German, lingua.Spanish).
			Build()
	})
	return detector
}

// DetectLanguage returns the ISO 639-1 code of text, or DefaultLanguage when
// it cannot be determined.
func DetectLanguage(text string) string {
	runes := []rune(strings.TrimSpace(text))
	if len(runes) == 0 {
		return DefaultLanguage
	}
	if len(runes) > detectionSample {
		runes = runes[:detectionSample]
	}

	lang, ok := languageDetector().DetectLanguageOf(string(runes))
	if !ok {
		return DefaultLanguage
	}
	return strings.ToLower(lang.IsoCode639_1().String())
}

// Info describes the active provider.
type Info struct {
	Provider         string  `json:"provider"`
	Model            string  `json:"model_name"`
	MaxTokens        int     `json:"max_tokens,omitempty"`
	Temperature      float32 `json:"temperature"`
	ConnectionStatus bool    `json:"connection_status"`
}

// Service validates summary requests and dispatches them to a Provider.
type Service struct {
	provider    Provider
	maxTokens   int
	temperature float32
}

// NewService returns a service over provider.
func NewService(provider Provider) *Service {
	return &Service{provider: provider}
}

// WithLimits records the generation limits reported by Info.
func (s *Service) WithLimits(maxTokens int, temperature float32) *Service {
	s.maxTokens = maxTokens
	s.temperature = temperature
	return s
}

// Summarize generates a summary for req.
func (s *Service) Summarize(ctx context.Context, req Request) (*Response, error) {
	if strings.TrimSpace(req.Content) == "" {
		return nil, &GenerationError{Code: CodeEmptyContent, Message: "content cannot be empty"}
	}
	if err := validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return nil, &GenerationError{Code: CodeInvalidRequest, Message: verrs[0].Field() + " failed " + verrs[0].Tag(), Cause: err}
		}
		return nil, &GenerationError{Code: CodeInvalidRequest, Message: "invalid request", Cause: err}
	}

	if req.Language == "" {
		req.Language = DetectLanguage(req.Content)
	}

	resp, err := s.provider.Generate(ctx, req)
	if err != nil {
		log.Error().Err(err).Str("provider", s.provider.Name()).Msg("summary generation failed")
		return nil, err
	}

	log.Info().
		Str("provider", resp.Provider).
		Str("style", string(req.style())).
		Int("original_length", resp.OriginalLength).
		Int("summary_length", resp.SummaryLength).
		Msg("summary generated")
	return resp, nil
}

// SummarizeText returns a concise summary of text.
func (s *Service) SummarizeText(ctx context.Context, text string) (string, error) {
	resp, err := s.Summarize(ctx, Request{Content: text})
	if err != nil {
		return "", err
	}
	return resp.Summary, nil
}

// Ping reports whether the provider is reachable.
func (s *Service) Ping(ctx context.Context) bool {
	return s.provider.Ping(ctx)
}

// Info reports the provider configuration and a live connection check.
func (s *Service) Info(ctx context.Context) Info {
	return Info{
		Provider:         s.provider.Name(),
		Model:            s.provider.Model(),
		MaxTokens:        s.maxTokens,
		Temperature:      s.temperature,
		ConnectionStatus: s.Ping(ctx),
	}
}
