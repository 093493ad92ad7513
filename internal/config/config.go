// Package config builds the service configuration once at startup from
// defaults, an optional YAML file and environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/jonathan/news-assistant/internal/llm"
)

// PathEnv names the environment variable holding the YAML config path.
const PathEnv = "NEWS_ASSISTANT_CONFIG"

// Config is the complete service configuration. It is read-only after Load
// and passed explicitly to the components that need it.
type Config struct {
	AppName        string        `yaml:"app_name" validate:"required"`
	Version        string        `yaml:"version" validate:"required"`
	Debug          bool          `yaml:"debug"`
	DatabaseURL    string        `yaml:"database_url"`
	DataDir        string        `yaml:"data_dir" validate:"required"`
	RequestTimeout time.Duration `yaml:"request_timeout" validate:"min=1s,max=300s"`
	UserAgent      string        `yaml:"user_agent"`
	UseBrowser     bool          `yaml:"use_browser"`

	LLM    LLMConfig    `yaml:"llm"`
	Speech SpeechConfig `yaml:"speech"`
	Server ServerConfig `yaml:"server"`
}

// LLMConfig configures the summarization and extraction models.
type LLMConfig struct {
	Provider        string        `yaml:"provider" validate:"oneof=openai gemini mock"`
	APIKey          string        `yaml:"api_key"`
	BaseURL         string        `yaml:"base_url" validate:"omitempty,url"`
	SummaryModel    string        `yaml:"summary_model" validate:"required"`
	ExtractionModel string        `yaml:"extraction_model" validate:"required"`
	MaxTokens       int           `yaml:"max_tokens" validate:"min=1,max=4000"`
	Temperature     float32       `yaml:"temperature" validate:"gte=0,lte=2"`
	Timeout         time.Duration `yaml:"timeout" validate:"min=1s,max=300s"`
}

// SpeechConfig configures text-to-speech.
type SpeechConfig struct {
	Provider    string `yaml:"provider" validate:"oneof=openai azure mock"`
	AzureKey    string `yaml:"azure_key"`
	AzureRegion string `yaml:"azure_region"`
	Voice       string `yaml:"voice" validate:"required"`
	Format      string `yaml:"format" validate:"oneof=wav mp3 ogg"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port int `yaml:"port" validate:"min=1,max=65535"`
	// RateLimit is requests per minute per client on write endpoints; 0 disables.
	RateLimit int `yaml:"rate_limit" validate:"gte=0"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		AppName:        "News Assistant API",
		Version:        "0.1.0",
		DataDir:        "data",
		RequestTimeout: 10 * time.Second,
		UserAgent:      "news-assistant/0.1",
		LLM: LLMConfig{
			Provider:        string(llm.ProviderOpenAI),
			SummaryModel:    "gpt-3.5-turbo",
			ExtractionModel: "gpt-4o-mini",
			MaxTokens:       1000,
			Temperature:     0.3,
			Timeout:         30 * time.Second,
		},
		Speech: SpeechConfig{
			Provider: "mock",
			Voice:    "ja-JP-NanamiNeural",
			Format:   "wav",
		},
		Server: ServerConfig{
			Port:      8080,
			RateLimit: 60,
		},
	}
}

// Load returns the defaults overlaid with the YAML file at path (skipped
// when path is empty) and then the environment. The result is validated.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(os.Getenv); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) loadFile(path string) error {
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	// Unmarshalling over the defaults leaves absent keys untouched.
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config YAML: %w", err)
	}
	return nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	var errs []error

	setString := func(dst *string, keys ...string) {
		for _, key := range keys {
			if v := strings.TrimSpace(getenv(key)); v != "" {
				*dst = v
				return
			}
		}
	}
	setBool := func(dst *bool, key string) {
		if v := getenv(key); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = b
		}
	}
	setInt := func(dst *int, key string) {
		if v := getenv(key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = n
		}
	}
	setDuration := func(dst *time.Duration, key string) {
		if v := getenv(key); v != "" {
			d, err := parseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = d
		}
	}

	setBool(&c.Debug, "DEBUG")
	setString(&c.DatabaseURL, "NEWS_ASSISTANT_DB_URL", "DATABASE_URL")
	setString(&c.DataDir, "DATA_DIR")
	setDuration(&c.RequestTimeout, "REQUEST_TIMEOUT")
	setBool(&c.UseBrowser, "USE_BROWSER")

	setString(&c.LLM.Provider, "LLM_PROVIDER")
	setString(&c.LLM.BaseURL, "OPENAI_BASE_URL")
	if c.LLM.Provider == string(llm.ProviderGemini) {
		setString(&c.LLM.APIKey, "GEMINI_API_KEY")
	} else {
		setString(&c.LLM.APIKey, "OPENAI_API_KEY")
	}
	setString(&c.LLM.SummaryModel, "SUMMARY_MODEL")
	setInt(&c.LLM.MaxTokens, "LLM_MAX_TOKENS")
	setDuration(&c.LLM.Timeout, "LLM_TIMEOUT")

	setString(&c.Speech.Provider, "SPEECH_PROVIDER")
	setString(&c.Speech.AzureKey, "AZURE_SPEECH_KEY")
	setString(&c.Speech.AzureRegion, "AZURE_SPEECH_REGION")
	setString(&c.Speech.Voice, "SPEECH_VOICE")

	setInt(&c.Server.Port, "PORT")
	setInt(&c.Server.RateLimit, "RATE_LIMIT")

	return errors.Join(errs...)
}

// parseDuration accepts Go duration strings and bare seconds ("10").
func parseDuration(v string) (time.Duration, error) {
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	return time.ParseDuration(v)
}

var validate = validator.New()

// Validate checks field ranges and cross-field requirements.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("'%s' failed '%s'", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("config error: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("config error: %w", err)
	}

	if c.Speech.Provider == "azure" && (c.Speech.AzureKey == "" || c.Speech.AzureRegion == "") {
		return fmt.Errorf("config error: azure speech requires 'azure_key' and 'azure_region'")
	}
	return nil
}

// HasLLMCredentials reports whether a live LLM provider can be used.
func (c *Config) HasLLMCredentials() bool {
	return c.LLM.Provider != string(llm.ProviderMock) && c.LLM.APIKey != ""
}

// LLMClientConfig converts the LLM settings into a client configuration.
// Without credentials the mock provider is selected.
func (c *Config) LLMClientConfig() *llm.Config {
	if !c.HasLLMCredentials() {
		return &llm.Config{
			Provider:    llm.ProviderMock,
			Models:      map[llm.ModelTier]string{llm.TierSummary: "mock-model", llm.TierExtraction: "mock-model"},
			MaxTokens:   c.LLM.MaxTokens,
			Temperature: c.LLM.Temperature,
			Timeout:     c.LLM.Timeout,
		}
	}

	// The built-in model names are OpenAI's; Gemini keeps its own defaults
	// unless a model was set explicitly.
	defaults := Default().LLM
	var out *llm.Config
	if c.LLM.Provider == string(llm.ProviderGemini) {
		out = llm.DefaultGeminiConfig(c.LLM.APIKey)
		if c.LLM.SummaryModel != defaults.SummaryModel {
			out = out.WithModel(llm.TierSummary, c.LLM.SummaryModel)
		}
		if c.LLM.ExtractionModel != defaults.ExtractionModel {
			out = out.WithModel(llm.TierExtraction, c.LLM.ExtractionModel)
		}
	} else {
		out = llm.DefaultOpenAIConfig(c.LLM.APIKey).
			WithModel(llm.TierSummary, c.LLM.SummaryModel).
			WithModel(llm.TierExtraction, c.LLM.ExtractionModel)
	}
	out.BaseURL = c.LLM.BaseURL
	out.MaxTokens = c.LLM.MaxTokens
	out.Temperature = c.LLM.Temperature
	out.Timeout = c.LLM.Timeout
	return out
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}
