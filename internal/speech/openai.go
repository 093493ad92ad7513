package speech

import (
	"context"
	"errors"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"
)

var openAIVoices = []VoiceInfo{
	{Name: "alloy", DisplayName: "Alloy", Locale: "multilingual", Gender: GenderNeutral, VoiceType: "Neural", SampleRateHertz: 24000},
	{Name: "echo", DisplayName: "Echo", Locale: "multilingual", Gender: GenderMale, VoiceType: "Neural", SampleRateHertz: 24000},
	{Name: "fable", DisplayName: "Fable", Locale: "multilingual", Gender: GenderNeutral, VoiceType: "Neural", SampleRateHertz: 24000},
	{Name: "onyx", DisplayName: "Onyx", Locale: "multilingual", Gender: GenderMale, VoiceType: "Neural", SampleRateHertz: 24000},
	{Name: "nova", DisplayName: "Nova", Locale: "multilingual", Gender: GenderFemale, VoiceType: "Neural", SampleRateHertz: 24000},
	{Name: "shimmer", DisplayName: "Shimmer", Locale: "multilingual", Gender: GenderFemale, VoiceType: "Neural", SampleRateHertz: 24000},
}

// OpenAIProvider synthesizes with the OpenAI speech endpoint.
type OpenAIProvider struct {
	client *openai.Client
}

// NewOpenAIProvider returns a provider authenticated with apiKey.
func NewOpenAIProvider(apiKey, baseURL string) (*OpenAIProvider, error) {
	if apiKey == "" {
		return nil, &Error{Kind: KindConfiguration, Message: "OpenAI API key is not set (OPENAI_API_KEY)"}
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIProvider{client: openai.NewClientWithConfig(cfg)}, nil
}

// Name implements Provider.
func (*OpenAIProvider) Name() string { return "openai" }

// openAIVoice maps a configured voice onto an OpenAI voice. Voice names from
// other providers fall back by gender.
func openAIVoice(v VoiceConfig) (openai.SpeechVoice, error) {
	for _, known := range openAIVoices {
		if strings.EqualFold(v.Name, known.Name) {
			return openai.SpeechVoice(known.Name), nil
		}
	}
	if !strings.Contains(v.Name, "-") {
		return "", voiceNotFound(v.Name)
	}
	if v.Gender == GenderMale {
		return openai.SpeechVoice("onyx"), nil
	}
	return openai.SpeechVoice("nova"), nil
}

func openAIFormat(f Format) openai.SpeechResponseFormat {
	switch f {
	case FormatMP3:
		return openai.SpeechResponseFormat("mp3")
	case FormatOGG:
		return openai.SpeechResponseFormat("opus")
	default:
		return openai.SpeechResponseFormat("wav")
	}
}

// Synthesize implements Provider.
func (p *OpenAIProvider) Synthesize(ctx context.Context, req Request) (*Response, error) {
	voice, err := openAIVoice(req.Voice)
	if err != nil {
		return nil, err
	}

	log.Info().Str("provider", p.Name()).Str("voice", string(voice)).Int("chars", len([]rune(req.Text))).Msg("speech synthesis started")

	audio, err := p.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          openai.TTSModel1,
		Input:          req.Text,
		Voice:          voice,
		ResponseFormat: openAIFormat(req.Format),
		Speed:          req.Voice.SpeakingRate,
	})
	if err != nil {
		if typed := classifyOpenAIError(err); typed != nil {
			return nil, typed
		}
		log.Error().Err(err).Msg("speech synthesis request failed")
		return &Response{ErrorMessage: err.Error()}, nil
	}
	defer func() { _ = audio.Close() }()

	file, err := os.Create(req.OutputPath)
	if err != nil {
		return &Response{ErrorMessage: err.Error()}, nil
	}
	size, err := io.Copy(file, audio)
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return &Response{ErrorMessage: err.Error()}, nil
	}

	out := &Response{Success: true, OutputPath: req.OutputPath, FileSizeBytes: size}
	log.Info().Str("path", req.OutputPath).Int64("bytes", size).Msg("speech synthesis completed")
	return out, nil
}

func classifyOpenAIError(err error) *Error {
	var apiErr *openai.APIError
	if !errors.As(err, &apiErr) {
		return nil
	}
	code, _ := apiErr.Code.(string)
	switch {
	case apiErr.HTTPStatusCode == 429 || code == "insufficient_quota" || strings.Contains(strings.ToLower(apiErr.Message), "quota"):
		return &Error{Kind: KindQuotaExceeded, Message: apiErr.Message, Cause: err}
	case apiErr.HTTPStatusCode == 401:
		return &Error{Kind: KindConfiguration, Message: apiErr.Message, Cause: err}
	default:
		return &Error{Kind: KindSynthesis, Message: apiErr.Message, Cause: err}
	}
}

// Voices implements Provider.
func (*OpenAIProvider) Voices(context.Context) ([]VoiceInfo, error) {
	out := make([]VoiceInfo, len(openAIVoices))
	copy(out, openAIVoices)
	return out, nil
}
