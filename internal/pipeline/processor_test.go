package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/news-assistant/internal/artifacts"
	"github.com/jonathan/news-assistant/internal/content"
	"github.com/jonathan/news-assistant/internal/fetch"
)

type stubFetcher struct {
	body        string
	contentType string
	err         error
	calls       int
}

func (f *stubFetcher) Fetch(_ context.Context, url string) (*fetch.Result, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &fetch.Result{URL: url, Body: []byte(f.body), ContentType: f.contentType, StatusCode: 200}, nil
}

func (f *stubFetcher) Render(ctx context.Context, url string) (*fetch.Result, error) {
	return f.Fetch(ctx, url)
}

type stubSummarizer struct {
	summary string
	err     error
	calls   int
}

func (s *stubSummarizer) SummarizeText(_ context.Context, _ string) (string, error) {
	s.calls++
	return s.summary, s.err
}

type failingStore struct {
	rawErr  error
	textErr error
	texts   int
	audios  int
}

func (s *failingStore) SaveRaw(int64, content.Extension, []byte) (string, error) {
	if s.rawErr != nil {
		return "", s.rawErr
	}
	return "data/raw.html", nil
}

func (s *failingStore) SaveText(int64, string) (string, error) {
	s.texts++
	return "", s.textErr
}

func (s *failingStore) SaveAudioText(int64, string) (string, error) {
	s.audios++
	return "", nil
}

const articleHTML = `<html><head><title>T</title></head><body>Body</body></html>`

func newStore(t *testing.T) (*artifacts.Store, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := artifacts.NewStore(dir)
	require.NoError(t, err)
	return store.WithClock(func() time.Time { return time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC) }), dir
}

func id(v int64) *int64 { return &v }

func TestProcess_EndToEnd(t *testing.T) {
	store, dir := newStore(t)
	p := NewProcessor(Options{
		Fetcher: &stubFetcher{body: articleHTML, contentType: "text/html"},
		Store:   store,
	})

	result, err := p.Process(context.Background(), "http://x/a.html", "F", id(1), false)
	require.NoError(t, err)

	assert.Equal(t, "T", result.Title)
	assert.Equal(t, "Body", result.ExtractedText)
	assert.Equal(t, "", result.Summary)
	assert.Equal(t, content.ExtHTML, result.Extension)
	assert.Equal(t, filepath.Join(dir, "20240102_1.html"), result.FilePath)

	raw, err := os.ReadFile(result.FilePath)
	require.NoError(t, err)
	assert.Equal(t, articleHTML, string(raw))

	text, err := os.ReadFile(filepath.Join(dir, "raw", "article_1.txt"))
	require.NoError(t, err)
	assert.Equal(t, "Body", string(text))

	audio, err := os.ReadFile(filepath.Join(dir, "raw", "article_1_audio.txt"))
	require.NoError(t, err)
	assert.Equal(t, "Body", string(audio))
}

func TestProcess_AudioTextIsNormalized(t *testing.T) {
	store, dir := newStore(t)
	p := NewProcessor(Options{
		Fetcher: &stubFetcher{body: "詳細は https://example.com を参照【重要】", contentType: "text/plain"},
		Store:   store,
	})

	_, err := p.Process(context.Background(), "http://x/a.txt", "F", id(2), false)
	require.NoError(t, err)

	audio, err := os.ReadFile(filepath.Join(dir, "raw", "article_2_audio.txt"))
	require.NoError(t, err)
	assert.Equal(t, "詳細は （リンク） を参照（重要）", string(audio))
}

func TestProcess_FetchFailure(t *testing.T) {
	store, _ := newStore(t)
	cause := &fetch.Error{URL: "http://x/missing", StatusCode: 404, Message: "HTTP status 404"}
	p := NewProcessor(Options{Fetcher: &stubFetcher{err: cause}, Store: store})

	result, err := p.Process(context.Background(), "http://x/missing", "F", id(1), true)
	require.Error(t, err)
	assert.Nil(t, result)

	perr, ok := AsProcessingError(err)
	require.True(t, ok)
	assert.Equal(t, CodeFetchFailed, perr.Code)
	assert.Equal(t, "http://x/missing", perr.URL)
	assert.Contains(t, err.Error(), "http://x/missing")

	var fetchErr *fetch.Error
	assert.ErrorAs(t, err, &fetchErr)
}

func TestProcess_SummaryFailureIsAbsorbed(t *testing.T) {
	summarizer := &stubSummarizer{err: errors.New("quota exceeded")}
	p := NewProcessor(Options{
		Fetcher:    &stubFetcher{body: articleHTML, contentType: "text/html"},
		Summarizer: summarizer,
	})

	result, err := p.Process(context.Background(), "http://x/a.html", "F", nil, true)
	require.NoError(t, err)
	assert.Equal(t, "", result.Summary)
	assert.Equal(t, 1, summarizer.calls)
	assert.Empty(t, result.FilePath)
}

func TestProcess_Summary(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		summarize bool
		wantCalls int
		want      string
	}{
		{"summarized", articleHTML, true, 1, "要約"},
		{"not requested", articleHTML, false, 0, ""},
		{"blank text", "<html><head><title>T</title></head><body>   </body></html>", true, 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			summarizer := &stubSummarizer{summary: "要約"}
			p := NewProcessor(Options{
				Fetcher:    &stubFetcher{body: tt.body, contentType: "text/html"},
				Summarizer: summarizer,
			})

			result, err := p.Process(context.Background(), "http://x/a.html", "F", nil, tt.summarize)
			require.NoError(t, err)
			assert.Equal(t, tt.want, result.Summary)
			assert.Equal(t, tt.wantCalls, summarizer.calls)
		})
	}
}

func TestProcess_TitleFallback(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		contentType string
		fallback    string
		want        string
	}{
		{"html without title", "<html><body>x</body></html>", "text/html", "F", "F"},
		{"json payload", `{"a":1}`, "application/json", "F", "F"},
		{"no fallback", "<html><body>x</body></html>", "text/html", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewProcessor(Options{Fetcher: &stubFetcher{body: tt.body, contentType: tt.contentType}})
			result, err := p.Process(context.Background(), "http://x/doc", tt.fallback, nil, false)
			require.NoError(t, err)
			assert.Equal(t, tt.want, result.Title)
		})
	}
}

func TestProcess_UnsupportedFormatHasEmptyText(t *testing.T) {
	store := &failingStore{}
	p := NewProcessor(Options{Fetcher: &stubFetcher{body: `{"a":1}`, contentType: "application/json"}, Store: store})

	result, err := p.Process(context.Background(), "http://x/doc", "F", id(5), true)
	require.NoError(t, err)
	assert.Equal(t, "", result.ExtractedText)
	assert.Equal(t, content.ExtJSON, result.Extension)
	assert.Equal(t, "data/raw.html", result.FilePath)
	assert.Equal(t, 0, store.texts)
}

func TestProcess_RawSaveFailure(t *testing.T) {
	store := &failingStore{rawErr: &artifacts.WriteError{Path: "/data/20240102_9.html", Cause: os.ErrPermission}}
	p := NewProcessor(Options{Fetcher: &stubFetcher{body: articleHTML, contentType: "text/html"}, Store: store})

	result, err := p.Process(context.Background(), "http://x/a.html", "F", id(9), false)
	require.Error(t, err)
	assert.Nil(t, result)

	perr, ok := AsProcessingError(err)
	require.True(t, ok)
	assert.Equal(t, CodeSaveFailed, perr.Code)
	require.NotNil(t, perr.ArticleID)
	assert.Equal(t, int64(9), *perr.ArticleID)
	assert.Equal(t, "20240102_9.html", perr.Filename)
	assert.ErrorIs(t, err, os.ErrPermission)
}

func TestProcess_TextSaveFailureIsAbsorbed(t *testing.T) {
	store := &failingStore{textErr: errors.New("disk full")}
	p := NewProcessor(Options{Fetcher: &stubFetcher{body: articleHTML, contentType: "text/html"}, Store: store})

	result, err := p.Process(context.Background(), "http://x/a.html", "F", id(3), false)
	require.NoError(t, err)
	assert.Equal(t, "data/raw.html", result.FilePath)
	assert.Equal(t, 1, store.texts)
	assert.Equal(t, 0, store.audios, "audio text is only derived after the text was saved")
}

func TestProcess_BrowserRefetch(t *testing.T) {
	long := "<html><head><title>Rendered</title></head><body><p>" + strings.Repeat("本文", 300) + "</p></body></html>"

	t.Run("short page is rendered", func(t *testing.T) {
		renderer := &stubFetcher{body: long, contentType: "text/html"}
		p := NewProcessor(Options{
			Fetcher:  &stubFetcher{body: articleHTML, contentType: "text/html"},
			Renderer: renderer,
		})

		result, err := p.Process(context.Background(), "http://x/a.html", "F", nil, false)
		require.NoError(t, err)
		assert.Equal(t, 1, renderer.calls)
		assert.Equal(t, "Rendered", result.Title)
	})

	t.Run("long page is kept", func(t *testing.T) {
		renderer := &stubFetcher{body: articleHTML, contentType: "text/html"}
		p := NewProcessor(Options{
			Fetcher:  &stubFetcher{body: long, contentType: "text/html"},
			Renderer: renderer,
		})

		_, err := p.Process(context.Background(), "http://x/a.html", "F", nil, false)
		require.NoError(t, err)
		assert.Equal(t, 0, renderer.calls)
	})

	t.Run("render failure keeps fetched page", func(t *testing.T) {
		p := NewProcessor(Options{
			Fetcher:  &stubFetcher{body: articleHTML, contentType: "text/html"},
			Renderer: &stubFetcher{err: errors.New("no chrome")},
		})

		result, err := p.Process(context.Background(), "http://x/a.html", "F", nil, false)
		require.NoError(t, err)
		assert.Equal(t, "T", result.Title)
	})
}

func TestProcess_Progress(t *testing.T) {
	store, _ := newStore(t)
	var steps []string
	p := NewProcessor(Options{
		Fetcher:    &stubFetcher{body: articleHTML, contentType: "text/html"},
		Summarizer: &stubSummarizer{summary: "s"},
		Store:      store,
		OnProgress: func(e ProgressEvent) { steps = append(steps, e.Step) },
	})

	_, err := p.Process(context.Background(), "http://x/a.html", "F", id(1), true)
	require.NoError(t, err)
	assert.Equal(t, []string{StepFetch, StepTitle, StepText, StepSummary, StepSave}, steps)
}

func TestExtractTitleOnly(t *testing.T) {
	p := NewProcessor(Options{Fetcher: &stubFetcher{body: articleHTML, contentType: "text/html"}})
	assert.Equal(t, "T", p.ExtractTitleOnly(context.Background(), "http://x/a.html", "F"))

	failing := NewProcessor(Options{Fetcher: &stubFetcher{err: errors.New("down")}})
	assert.Equal(t, "F", failing.ExtractTitleOnly(context.Background(), "http://x/a.html", "F"))
}

func TestExtractTextOnly(t *testing.T) {
	p := NewProcessor(Options{Fetcher: &stubFetcher{body: "hello", contentType: "text/plain"}})
	assert.Equal(t, "hello", p.ExtractTextOnly(context.Background(), "http://x/a.txt"))

	failing := NewProcessor(Options{Fetcher: &stubFetcher{err: errors.New("down")}})
	assert.Equal(t, "", failing.ExtractTextOnly(context.Background(), "http://x/a.txt"))

	binary := NewProcessor(Options{Fetcher: &stubFetcher{body: "\x00\x01", contentType: "application/octet-stream"}})
	assert.Equal(t, "", binary.ExtractTextOnly(context.Background(), "http://x/a.bin"))
}

func TestSummaryFromText(t *testing.T) {
	summarizer := &stubSummarizer{summary: "要約"}
	p := NewProcessor(Options{Summarizer: summarizer})

	assert.Equal(t, "", p.SummaryFromText(context.Background(), "  "))
	assert.Equal(t, 0, summarizer.calls)
	assert.Equal(t, "要約", p.SummaryFromText(context.Background(), "本文"))

	failing := NewProcessor(Options{Summarizer: &stubSummarizer{err: errors.New("boom")}})
	assert.Equal(t, "", failing.SummaryFromText(context.Background(), "本文"))

	none := NewProcessor(Options{})
	assert.Equal(t, "", none.SummaryFromText(context.Background(), "本文"))
}

func TestProcess_ContextProgress(t *testing.T) {
	var configured, scoped []string
	p := NewProcessor(Options{
		Fetcher:    &stubFetcher{body: articleHTML, contentType: "text/html"},
		OnProgress: func(e ProgressEvent) { configured = append(configured, e.Step) },
	})

	ctx := WithProgress(context.Background(), func(e ProgressEvent) {
		assert.Equal(t, "http://x/a.html", e.URL)
		scoped = append(scoped, e.Step)
	})
	_, err := p.Process(ctx, "http://x/a.html", "F", nil, false)
	require.NoError(t, err)

	assert.Equal(t, []string{StepFetch, StepTitle, StepText}, scoped)
	assert.Equal(t, scoped, configured)
}
