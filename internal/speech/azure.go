package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// azureOutputFormats maps formats onto X-Microsoft-OutputFormat values.
var azureOutputFormats = map[Format]string{
	FormatWAV: "riff-16khz-16bit-mono-pcm",
	FormatMP3: "audio-16khz-32kbitrate-mono-mp3",
	FormatOGG: "ogg-16khz-16bit-mono-opus",
}

// wavBytesPerSecond is the data rate of 16 kHz 16-bit mono PCM.
const wavBytesPerSecond = 32000

// AzureProvider synthesizes with the Azure Speech REST API.
type AzureProvider struct {
	key      string
	endpoint string
	client   *http.Client
}

// NewAzureProvider returns a provider for region.
func NewAzureProvider(key, region string) (*AzureProvider, error) {
	if key == "" {
		return nil, &Error{Kind: KindConfiguration, Message: "Azure Speech key is not set (AZURE_SPEECH_KEY)"}
	}
	if region == "" {
		return nil, &Error{Kind: KindConfiguration, Message: "Azure Speech region is not set (AZURE_SPEECH_REGION)"}
	}
	return &AzureProvider{
		key:      key,
		endpoint: fmt.Sprintf("https://%s.tts.speech.microsoft.com", region),
		client:   &http.Client{Timeout: 60 * time.Second},
	}, nil
}

// WithEndpoint overrides the service base URL.
func (p *AzureProvider) WithEndpoint(endpoint string) *AzureProvider {
	p.endpoint = strings.TrimRight(endpoint, "/")
	return p
}

// Name implements Provider.
func (*AzureProvider) Name() string { return "azure" }

// Synthesize implements Provider.
func (p *AzureProvider) Synthesize(ctx context.Context, req Request) (*Response, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint+"/cognitiveservices/v1", strings.NewReader(SSML(req)))
	if err != nil {
		return &Response{ErrorMessage: err.Error()}, nil
	}
	httpReq.Header.Set("Ocp-Apim-Subscription-Key", p.key)
	httpReq.Header.Set("Content-Type", "application/ssml+xml")
	httpReq.Header.Set("X-Microsoft-OutputFormat", azureOutputFormats[req.Format])
	httpReq.Header.Set("User-Agent", "news-assistant")

	log.Info().Str("provider", p.Name()).Str("voice", req.Voice.Name).Int("chars", len([]rune(req.Text))).Msg("speech synthesis started")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		log.Error().Err(err).Msg("speech synthesis request failed")
		return &Response{ErrorMessage: err.Error()}, nil
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, classifyAzureError(resp.StatusCode, string(body), req.Voice.Name)
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Response{ErrorMessage: err.Error()}, nil
	}
	if err := os.WriteFile(req.OutputPath, audio, 0o644); err != nil {
		return &Response{ErrorMessage: err.Error()}, nil
	}

	out := &Response{Success: true, OutputPath: req.OutputPath, FileSizeBytes: int64(len(audio))}
	if req.Format == FormatWAV {
		out.DurationSeconds = float64(len(audio)) / wavBytesPerSecond
	}
	log.Info().Str("path", req.OutputPath).Int64("bytes", out.FileSizeBytes).Msg("speech synthesis completed")
	return out, nil
}

func classifyAzureError(status int, body, voice string) *Error {
	msg := fmt.Sprintf("HTTP %d: %s", status, strings.TrimSpace(body))
	lower := strings.ToLower(body)
	switch {
	case status == http.StatusTooManyRequests || strings.Contains(lower, "quota"):
		return &Error{Kind: KindQuotaExceeded, Message: msg}
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return &Error{Kind: KindConfiguration, Message: msg}
	case strings.Contains(lower, "voice"):
		return voiceNotFound(voice)
	default:
		return &Error{Kind: KindSynthesis, Message: msg}
	}
}

type azureVoice struct {
	ShortName       string `json:"ShortName"`
	LocalName       string `json:"LocalName"`
	Locale          string `json:"Locale"`
	Gender          string `json:"Gender"`
	VoiceType       string `json:"VoiceType"`
	SampleRateHertz string `json:"SampleRateHertz"`
}

// Voices implements Provider.
func (p *AzureProvider) Voices(ctx context.Context) ([]VoiceInfo, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, p.endpoint+"/cognitiveservices/voices/list", nil)
	if err != nil {
		return nil, &Error{Kind: KindService, Message: "failed to list voices", Cause: err}
	}
	httpReq.Header.Set("Ocp-Apim-Subscription-Key", p.key)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, &Error{Kind: KindService, Message: "failed to list voices", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Kind: KindService, Message: "failed to read voice list", Cause: err}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &Error{Kind: KindService, Message: fmt.Sprintf("failed to list voices: HTTP %d: %s", resp.StatusCode, bytes.TrimSpace(body))}
	}

	var raw []azureVoice
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, &Error{Kind: KindService, Message: "failed to decode voice list", Cause: err}
	}

	voices := make([]VoiceInfo, 0, len(raw))
	for _, v := range raw {
		rate, err := strconv.Atoi(v.SampleRateHertz)
		if err != nil {
			rate = 24000
		}
		voices = append(voices, VoiceInfo{
			Name:            v.ShortName,
			DisplayName:     v.LocalName,
			Locale:          v.Locale,
			Gender:          v.Gender,
			VoiceType:       v.VoiceType,
			SampleRateHertz: rate,
		})
	}
	return voices, nil
}
