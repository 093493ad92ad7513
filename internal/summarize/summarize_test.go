package summarize

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/news-assistant/internal/llm"
)

const article = "政府は本日、新しい経済対策を発表した。対策には中小企業への支援策が含まれている。"

func TestMockProvider(t *testing.T) {
	svc := NewService(NewMockProvider())

	tests := []struct {
		style Style
		want  string
	}{
		{"", "これはconciseスタイルのモック要約です。"},
		{StyleDetailed, "これはdetailedスタイルのモック要約です。"},
		{StyleBulletPoints, "これはbullet_pointsスタイルのモック要約です。"},
		{StyleExecutive, "これはexecutiveスタイルのモック要約です。"},
	}

	for _, tt := range tests {
		t.Run(string(tt.style), func(t *testing.T) {
			resp, err := svc.Summarize(context.Background(), Request{Content: article, Style: tt.style})
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.Summary)
			assert.Equal(t, "mock", resp.Provider)
			assert.Equal(t, "mock-model", resp.Model)
			assert.Equal(t, utf8.RuneCountInString(article), resp.OriginalLength)
			assert.Equal(t, true, resp.Metadata["mock"])
		})
	}
}

func TestSummarize_EmptyContent(t *testing.T) {
	svc := NewService(NewMockProvider())

	for _, content := range []string{"", "   \n\t"} {
		_, err := svc.Summarize(context.Background(), Request{Content: content})
		require.Error(t, err)
		assert.Equal(t, CodeEmptyContent, CodeOf(err))
	}
}

func TestSummarize_InvalidRequest(t *testing.T) {
	svc := NewService(NewMockProvider())

	tests := []struct {
		name string
		req  Request
	}{
		{"unknown style", Request{Content: article, Style: "haiku"}},
		{"max length too small", Request{Content: article, MaxLength: 10}},
		{"max length too large", Request{Content: article, MaxLength: 5000}},
		{"bad language", Request{Content: article, Language: "japanese"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Summarize(context.Background(), tt.req)
			require.Error(t, err)
			assert.Equal(t, CodeInvalidRequest, CodeOf(err))
		})
	}
}

func TestLiveProvider_Prompt(t *testing.T) {
	client := llm.NewMockClient(nil).WithHandler(func(req llm.ChatRequest) (*llm.ChatResponse, error) {
		return &llm.ChatResponse{Content: "要約", Model: "gpt-test", FinishReason: "stop", TotalTokens: 42}, nil
	})
	svc := NewService(NewLiveProvider(client))

	resp, err := svc.Summarize(context.Background(), Request{Content: article, Style: StyleDetailed, MaxLength: 300, Language: "ja"})
	require.NoError(t, err)

	assert.Equal(t, "要約", resp.Summary)
	assert.Equal(t, "gpt-test", resp.Model)
	assert.Equal(t, 2, resp.SummaryLength)
	assert.Equal(t, 42, resp.Metadata["total_tokens"])
	assert.InDelta(t, 2.0/float64(utf8.RuneCountInString(article)), resp.CompressionRatio, 1e-9)

	calls := client.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, llm.TierSummary, calls[0].Tier)
	assert.Contains(t, calls[0].Prompt, "300文字程度で詳細に要約")
	assert.Contains(t, calls[0].Prompt, article)
	assert.NotContains(t, calls[0].Prompt, "で出力してください")
}

func TestBuildPrompt(t *testing.T) {
	tests := []struct {
		name     string
		req      Request
		contains []string
	}{
		{
			name:     "default style and length",
			req:      Request{Content: "本文", Language: "ja"},
			contains: []string{"1000文字程度で簡潔に", "記事:\n本文"},
		},
		{
			name:     "language hint",
			req:      Request{Content: "body", Style: StyleExecutive, Language: "en"},
			contains: []string{"エグゼクティブサマリー", "要約はenで出力してください。"},
		},
		{
			name:     "custom prompt with placeholder",
			req:      Request{Content: "body", CustomPrompt: "Summarize: {{.Content}} now"},
			contains: []string{"Summarize: body now"},
		},
		{
			name:     "custom prompt without placeholder",
			req:      Request{Content: "body", CustomPrompt: "Summarize this"},
			contains: []string{"Summarize this\n\nbody"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prompt, err := buildPrompt(tt.req)
			require.NoError(t, err)
			for _, want := range tt.contains {
				assert.Contains(t, prompt, want)
			}
		})
	}
}

func TestLiveProvider_ErrorCodes(t *testing.T) {
	tests := []struct {
		kind llm.ErrorKind
		want string
	}{
		{llm.KindRateLimited, CodeRateLimit},
		{llm.KindQuotaExceeded, CodeQuotaExceeded},
		{llm.KindProvider, CodeAPIError},
		{llm.KindEmptyResponse, CodeEmptyResponse},
		{llm.KindConfiguration, CodeConfiguration},
		{llm.KindGeneration, CodeGeneration},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			client := llm.NewMockClient(nil).WithHandler(func(llm.ChatRequest) (*llm.ChatResponse, error) {
				return nil, &llm.Error{Kind: tt.kind, Provider: llm.ProviderOpenAI, Message: "boom"}
			})

			_, err := NewService(NewLiveProvider(client)).Summarize(context.Background(), Request{Content: article})
			require.Error(t, err)
			assert.Equal(t, tt.want, CodeOf(err))
			assert.Equal(t, tt.kind, llm.KindOf(err))
		})
	}
}

func TestSummarizeText(t *testing.T) {
	summary, err := NewService(NewMockProvider()).SummarizeText(context.Background(), article)
	require.NoError(t, err)
	assert.Equal(t, "これはconciseスタイルのモック要約です。", summary)

	_, err = NewService(NewMockProvider()).SummarizeText(context.Background(), "")
	assert.Equal(t, CodeEmptyContent, CodeOf(err))
}

func TestPingAndInfo(t *testing.T) {
	failing := llm.NewMockClient(nil).WithHandler(func(llm.ChatRequest) (*llm.ChatResponse, error) {
		return nil, errors.New("offline")
	})
	assert.False(t, NewService(NewLiveProvider(failing)).Ping(context.Background()))

	info := NewService(NewMockProvider()).WithLimits(1000, 0.3).Info(context.Background())
	assert.Equal(t, "mock", info.Provider)
	assert.Equal(t, "mock-model", info.Model)
	assert.Equal(t, 1000, info.MaxTokens)
	assert.True(t, info.ConnectionStatus)
}

func TestNewProvider(t *testing.T) {
	p, err := NewProvider(context.Background(), nil)
	require.NoError(t, err)
	assert.IsType(t, &MockProvider{}, p)

	p, err = NewProvider(context.Background(), llm.DefaultOpenAIConfig("sk-test"))
	require.NoError(t, err)
	assert.IsType(t, &LiveProvider{}, p)
	assert.Equal(t, "openai", p.Name())
	assert.Equal(t, "gpt-3.5-turbo", p.Model())

	_, err = NewProvider(context.Background(), llm.DefaultOpenAIConfig(""))
	require.Error(t, err)
	assert.Equal(t, CodeConfiguration, CodeOf(err))
}

func TestDetectLanguage(t *testing.T) {
	assert.Equal(t, "ja", DetectLanguage(article))
	assert.Equal(t, "en", DetectLanguage("The central bank raised interest rates again this week to fight inflation."))
	assert.Equal(t, DefaultLanguage, DetectLanguage("   "))

	long := strings.Repeat("The market rallied strongly today. ", 100)
	assert.Equal(t, "en", DetectLanguage(long))
}

func TestSummarize_DetectsLanguage(t *testing.T) {
	resp, err := NewService(NewMockProvider()).Summarize(context.Background(), Request{
		Content: "Officials announced a new stimulus package for small businesses on Monday.",
	})
	require.NoError(t, err)
	assert.Equal(t, "en", resp.Metadata["language"])
}
