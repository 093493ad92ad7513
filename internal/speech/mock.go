package speech

import (
	"context"
	"os"
	"unicode/utf8"
)

// MockAudio is the payload written by MockProvider.
const MockAudio = "MOCK_AUDIO_DATA"

// MockProvider writes a fixed payload and estimates duration from text length.
type MockProvider struct{}

// NewMockProvider returns the mock provider.
func NewMockProvider() *MockProvider {
	return &MockProvider{}
}

// Name implements Provider.
func (*MockProvider) Name() string { return "mock" }

// Synthesize implements Provider.
func (*MockProvider) Synthesize(_ context.Context, req Request) (*Response, error) {
	if err := os.WriteFile(req.OutputPath, []byte(MockAudio), 0o644); err != nil {
		return &Response{ErrorMessage: err.Error()}, nil
	}

	chars := utf8.RuneCountInString(req.Text)
	return &Response{
		Success:         true,
		OutputPath:      req.OutputPath,
		DurationSeconds: float64(chars) * 0.1,
		FileSizeBytes:   int64(chars) * 100,
	}, nil
}

// Voices implements Provider.
func (*MockProvider) Voices(context.Context) ([]VoiceInfo, error) {
	return []VoiceInfo{
		{Name: "ja-JP-NanamiNeural", DisplayName: "Nanami (Neural)", Locale: "ja-JP", Gender: GenderFemale, VoiceType: "Neural", SampleRateHertz: 24000},
		{Name: "ja-JP-KeitaNeural", DisplayName: "Keita (Neural)", Locale: "ja-JP", Gender: GenderMale, VoiceType: "Neural", SampleRateHertz: 24000},
	}, nil
}
