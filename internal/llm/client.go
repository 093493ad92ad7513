package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	openai "github.com/sashabaranov/go-openai"
	"google.golang.org/api/option"
)

// ChatRequest is a single system+user exchange.
type ChatRequest struct {
	Tier        ModelTier
	Model       string // overrides the tier model when set
	System      string
	Prompt      string
	MaxTokens   int
	Temperature *float32 // nil uses the client default
	JSON        bool     // ask the provider for a JSON object response
}

// ChatResponse is the provider-neutral completion result.
type ChatResponse struct {
	Content          string
	Model            string
	FinishReason     string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Client is an abstraction over LLM providers
type Client interface {
	// Chat runs a single completion.
	Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error)
	// Config returns the client configuration.
	Config() *Config
	// Close releases any resources held by the client
	Close() error
}

// Float32 is a helper for ChatRequest.Temperature.
func Float32(v float32) *float32 { return &v }

// NewClient creates a client for config.Provider. A live provider without an
// API key is a configuration error; callers that want a silent fallback use
// the mock provider explicitly.
func NewClient(ctx context.Context, config *Config) (Client, error) {
	if config == nil {
		return nil, &Error{Kind: KindConfiguration, Message: "config is required"}
	}

	switch config.Provider {
	case ProviderOpenAI:
		return NewOpenAIClient(config)
	case ProviderGemini:
		return NewGeminiClient(ctx, config)
	case ProviderMock:
		return NewMockClient(config), nil
	default:
		return nil, &Error{
			Kind:     KindConfiguration,
			Provider: config.Provider,
			Message:  fmt.Sprintf("unsupported provider %q", config.Provider),
		}
	}
}

func (r ChatRequest) model(c *Config) string {
	if r.Model != "" {
		return r.Model
	}
	return c.GetModel(r.Tier)
}

func (r ChatRequest) maxTokens(c *Config) int {
	if r.MaxTokens > 0 {
		return r.MaxTokens
	}
	return c.MaxTokens
}

func (r ChatRequest) temperature(c *Config) float32 {
	if r.Temperature != nil {
		return *r.Temperature
	}
	return c.Temperature
}

// OpenAIClient implements Client for OpenAI-compatible chat APIs.
type OpenAIClient struct {
	client *openai.Client
	config *Config
}

// NewOpenAIClient creates a new OpenAI client
func NewOpenAIClient(config *Config) (*OpenAIClient, error) {
	if config.APIKey == "" {
		return nil, &Error{Kind: KindConfiguration, Provider: ProviderOpenAI, Message: "API key is required"}
	}

	transportCfg := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		transportCfg.BaseURL = config.BaseURL
	}
	return &OpenAIClient{client: openai.NewClientWithConfig(transportCfg), config: config}, nil
}

// Chat runs a chat completion.
func (c *OpenAIClient) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	if c.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.Timeout)
		defer cancel()
	}

	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: req.System})
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: req.Prompt})

	request := openai.ChatCompletionRequest{
		Model:       req.model(c.config),
		Messages:    messages,
		MaxTokens:   req.maxTokens(c.config),
		Temperature: req.temperature(c.config),
	}
	if req.JSON {
		request.ResponseFormat = &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject}
	}

	resp, err := c.client.CreateChatCompletion(ctx, request)
	if err != nil {
		return nil, classifyOpenAIError(err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return nil, &Error{Kind: KindEmptyResponse, Provider: ProviderOpenAI, Message: "API returned empty content"}
	}

	return &ChatResponse{
		Content:          strings.TrimSpace(resp.Choices[0].Message.Content),
		Model:            resp.Model,
		FinishReason:     string(resp.Choices[0].FinishReason),
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		TotalTokens:      resp.Usage.TotalTokens,
	}, nil
}

// Config returns the client configuration.
func (c *OpenAIClient) Config() *Config { return c.config }

// Close is a no-op; the HTTP transport is shared.
func (c *OpenAIClient) Close() error { return nil }

// GeminiClient implements Client for Google Gemini
type GeminiClient struct {
	client *genai.Client
	config *Config
}

// NewGeminiClient creates a new Gemini client
func NewGeminiClient(ctx context.Context, config *Config) (*GeminiClient, error) {
	if config.APIKey == "" {
		return nil, &Error{Kind: KindConfiguration, Provider: ProviderGemini, Message: "API key is required"}
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(config.APIKey))
	if err != nil {
		return nil, &Error{Kind: KindConfiguration, Provider: ProviderGemini, Message: "failed to create client", Cause: err}
	}

	return &GeminiClient{client: client, config: config}, nil
}

// Chat generates content with a Gemini model.
func (c *GeminiClient) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	if c.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.Timeout)
		defer cancel()
	}

	modelName := req.model(c.config)
	model := c.client.GenerativeModel(modelName)
	model.SetTemperature(req.temperature(c.config))
	model.SetMaxOutputTokens(int32(req.maxTokens(c.config)))
	if req.System != "" {
		model.SystemInstruction = genai.NewUserContent(genai.Text(req.System))
	}
	if req.JSON {
		model.ResponseMIMEType = "application/json"
	}

	resp, err := model.GenerateContent(ctx, genai.Text(req.Prompt))
	if err != nil {
		return nil, classifyGeminiError(err)
	}

	text, finish, err := extractTextFromResponse(resp)
	if err != nil {
		return nil, &Error{Kind: KindEmptyResponse, Provider: ProviderGemini, Message: err.Error()}
	}

	out := &ChatResponse{Content: text, Model: modelName, FinishReason: finish}
	if resp.UsageMetadata != nil {
		out.PromptTokens = int(resp.UsageMetadata.PromptTokenCount)
		out.CompletionTokens = int(resp.UsageMetadata.CandidatesTokenCount)
		out.TotalTokens = int(resp.UsageMetadata.TotalTokenCount)
	}
	return out, nil
}

// Config returns the client configuration.
func (c *GeminiClient) Config() *Config { return c.config }

// Close releases resources held by the client
func (c *GeminiClient) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// extractTextFromResponse extracts text from Gemini API response
func extractTextFromResponse(resp *genai.GenerateContentResponse) (string, string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", "", fmt.Errorf("no candidates in response")
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", "", fmt.Errorf("no content in response")
	}

	var parts []string
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			parts = append(parts, string(text))
		}
	}

	text := strings.TrimSpace(strings.Join(parts, ""))
	if text == "" {
		return "", "", fmt.Errorf("no text parts in response")
	}

	return text, candidate.FinishReason.String(), nil
}
