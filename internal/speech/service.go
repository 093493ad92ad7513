package speech

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Provider is a text-to-speech backend. Requests reach it validated and with
// OutputPath set to a path whose directory exists.
type Provider interface {
	Synthesize(ctx context.Context, req Request) (*Response, error)
	Voices(ctx context.Context) ([]VoiceInfo, error)
	Name() string
}

// ProviderOptions selects and configures a provider.
type ProviderOptions struct {
	Provider      string // openai, azure or mock
	AzureKey      string
	AzureRegion   string
	OpenAIKey     string
	OpenAIBaseURL string
}

// NewProvider returns the provider named by opts. A live provider without
// credentials falls back to the mock.
func NewProvider(opts ProviderOptions) (Provider, error) {
	switch opts.Provider {
	case "azure":
		if opts.AzureKey == "" {
			break
		}
		return NewAzureProvider(opts.AzureKey, opts.AzureRegion)
	case "openai":
		if opts.OpenAIKey == "" {
			break
		}
		return NewOpenAIProvider(opts.OpenAIKey, opts.OpenAIBaseURL)
	case "mock", "":
		return NewMockProvider(), nil
	default:
		return nil, &Error{Kind: KindConfiguration, Message: fmt.Sprintf("unsupported speech provider %q", opts.Provider)}
	}

	log.Warn().Str("provider", opts.Provider).Msg("speech credentials not set, using mock provider")
	return NewMockProvider(), nil
}

// Content kinds spoken in the narration header.
const (
	KindSummary = "summary"
	KindFull    = "full"
)

var kindLabels = map[string]string{
	KindSummary: "要約",
	KindFull:    "全文",
}

// Header returns the spoken introduction for an article.
func Header(title, kind string) string {
	label, ok := kindLabels[kind]
	if !ok {
		label = kind
	}
	return fmt.Sprintf("%sの%sをお読みします。", title, label)
}

// ArticleAudioPath returns {dataDir}/speech/{id}-{kind}.{format}.
func ArticleAudioPath(dataDir string, articleID int64, kind string, format Format) string {
	return filepath.Join(dataDir, "speech", fmt.Sprintf("%d-%s.%s", articleID, kind, format))
}

// GeneratedPath returns a fresh {dataDir}/speech/speech_{8 hex}.{format}.
func GeneratedPath(dataDir string, format Format) string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return filepath.Join(dataDir, "speech", fmt.Sprintf("speech_%s.%s", id, format))
}

var validate = validator.New()

// Service validates speech requests and dispatches them to a Provider.
type Service struct {
	provider Provider
	dataDir  string
	voice    VoiceConfig
	format   Format
}

// NewService returns a service writing generated files under dataDir.
func NewService(provider Provider, dataDir string) *Service {
	return &Service{provider: provider, dataDir: dataDir, voice: DefaultVoice(""), format: FormatWAV}
}

// WithDefaults sets the voice and format used by SynthesizeText.
func (s *Service) WithDefaults(voiceName string, format Format) *Service {
	s.voice = DefaultVoice(voiceName)
	if format != "" {
		s.format = format
	}
	return s
}

// Provider returns the active provider.
func (s *Service) Provider() Provider {
	return s.provider
}

// DefaultFormat returns the format used by SynthesizeText.
func (s *Service) DefaultFormat() Format {
	return s.format
}

// Synthesize converts req to audio.
func (s *Service) Synthesize(ctx context.Context, req Request) (*Response, error) {
	if req.Format == "" {
		req.Format = s.format
	}
	if req.Voice.Name == "" {
		req.Voice = s.voice
	}
	if err := validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return nil, &Error{Kind: KindSynthesis, Message: fmt.Sprintf("invalid request: %s failed %s", verrs[0].Namespace(), verrs[0].Tag()), Cause: err}
		}
		return nil, &Error{Kind: KindSynthesis, Message: "invalid request", Cause: err}
	}

	if req.OutputPath == "" {
		req.OutputPath = GeneratedPath(s.dataDir, req.Format)
	}
	if err := os.MkdirAll(filepath.Dir(req.OutputPath), 0o755); err != nil {
		return &Response{ErrorMessage: err.Error()}, nil
	}

	return s.provider.Synthesize(ctx, req)
}

// SynthesizeText converts text with the default voice unless voiceName is set.
func (s *Service) SynthesizeText(ctx context.Context, text, voiceName string, format Format, outputPath string) (*Response, error) {
	voice := s.voice
	if voiceName != "" {
		voice = DefaultVoice(voiceName)
	}
	return s.Synthesize(ctx, Request{Text: text, Voice: voice, Format: format, OutputPath: outputPath})
}

// SynthesizeWithHeader prefixes text with a spoken introduction naming the
// article and content kind.
func (s *Service) SynthesizeWithHeader(ctx context.Context, text, title, kind string, format Format, outputPath string) (*Response, error) {
	return s.SynthesizeText(ctx, Header(title, kind)+"\n\n"+text, "", format, outputPath)
}

// Voices lists the provider's voices.
func (s *Service) Voices(ctx context.Context) ([]VoiceInfo, error) {
	voices, err := s.provider.Voices(ctx)
	if err != nil {
		var speechErr *Error
		if errors.As(err, &speechErr) {
			return nil, err
		}
		return nil, &Error{Kind: KindService, Message: "failed to list voices", Cause: err}
	}
	return voices, nil
}
