// Package speech converts text to audio files through a configurable
// text-to-speech provider.
package speech

import "fmt"

// Format is an audio container.
type Format string

// Supported formats.
const (
	FormatWAV Format = "wav"
	FormatMP3 Format = "mp3"
	FormatOGG Format = "ogg"
)

// ParseFormat returns the Format named s.
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case FormatWAV, FormatMP3, FormatOGG:
		return f, nil
	case "":
		return FormatWAV, nil
	default:
		return "", fmt.Errorf("unsupported audio format %q", s)
	}
}

// Voice genders.
const (
	GenderMale    = "Male"
	GenderFemale  = "Female"
	GenderNeutral = "Neutral"
)

// DefaultVoiceName is the voice used when none is configured.
const DefaultVoiceName = "ja-JP-NanamiNeural"

// VoiceConfig selects and shapes a voice.
type VoiceConfig struct {
	Name         string  `json:"name" validate:"required"`
	Locale       string  `json:"locale" validate:"oneof=ja-JP en-US en-GB"`
	Gender       string  `json:"gender" validate:"oneof=Male Female Neutral"`
	SpeakingRate float64 `json:"speaking_rate" validate:"gte=0.5,lte=2"`
	Pitch        string  `json:"pitch"` // e.g. "+10Hz", "-5Hz" or "default"
	Volume       float64 `json:"volume" validate:"gte=0,lte=1"`
}

// DefaultVoice returns the standard Japanese voice at normal rate and volume.
func DefaultVoice(name string) VoiceConfig {
	if name == "" {
		name = DefaultVoiceName
	}
	return VoiceConfig{
		Name:         name,
		Locale:       "ja-JP",
		Gender:       GenderFemale,
		SpeakingRate: 1.0,
		Pitch:        "default",
		Volume:       1.0,
	}
}

// Request is a synthesis job. An empty OutputPath gets a generated path
// under the data directory.
type Request struct {
	Text       string      `json:"text" validate:"required,max=10000"`
	Voice      VoiceConfig `json:"voice_config"`
	Format     Format      `json:"output_format" validate:"oneof=wav mp3 ogg"`
	OutputPath string      `json:"output_path,omitempty"`
}

// Response reports a synthesis outcome. Provider-side failures that are not
// typed errors come back as Success=false with ErrorMessage set.
type Response struct {
	Success         bool    `json:"success"`
	OutputPath      string  `json:"output_path,omitempty"`
	DurationSeconds float64 `json:"duration_seconds,omitempty"`
	FileSizeBytes   int64   `json:"file_size_bytes,omitempty"`
	ErrorMessage    string  `json:"error_message,omitempty"`
}

// VoiceInfo describes a voice offered by a provider.
type VoiceInfo struct {
	Name            string `json:"name"`
	DisplayName     string `json:"display_name"`
	Locale          string `json:"locale"`
	Gender          string `json:"gender"`
	VoiceType       string `json:"voice_type"`
	SampleRateHertz int    `json:"sample_rate_hertz"`
}
