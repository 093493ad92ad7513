package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestURL_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("<html><body><h1>Test</h1></body></html>"))
	}))
	defer server.Close()

	result, err := URL(context.Background(), server.URL, nil)
	require.NoError(t, err)
	assert.Equal(t, server.URL, result.URL)
	assert.Contains(t, string(result.Body), "<h1>Test</h1>")
	assert.Equal(t, "text/html; charset=utf-8", result.ContentType)
	assert.Equal(t, http.StatusOK, result.StatusCode)
}

func TestURL_BinaryBody(t *testing.T) {
	payload := []byte{0x25, 0x50, 0x44, 0x46, 0x00, 0xff}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write(payload)
	}))
	defer server.Close()

	result, err := URL(context.Background(), server.URL, nil)
	require.NoError(t, err)
	assert.Equal(t, payload, result.Body)
}

func TestURL_BodyTooLarge(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		limit   int64
		wantErr bool
	}{
		{"under limit", 1023, 1024, false},
		{"exactly at limit", 1024, 1024, false},
		{"one byte over", 1025, 1024, true},
		{"default limit exceeded", MaxBodySize + 1024, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload := []byte(strings.Repeat("%", tt.size))
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/pdf")
				_, _ = w.Write(payload)
			}))
			defer server.Close()

			result, err := URL(context.Background(), server.URL, &Options{Timeout: 10 * time.Second, MaxBodySize: tt.limit})
			if !tt.wantErr {
				require.NoError(t, err)
				assert.Len(t, result.Body, tt.size)
				return
			}

			require.Error(t, err)
			assert.Nil(t, result)
			var fetchErr *Error
			require.ErrorAs(t, err, &fetchErr)
			assert.Contains(t, fetchErr.Message, "response body exceeds")
		})
	}
}

func TestURL_InvalidURL(t *testing.T) {
	_, err := URL(context.Background(), "not-a-valid-url", nil)
	require.Error(t, err)

	var fetchErr *Error
	assert.ErrorAs(t, err, &fetchErr)
	assert.Contains(t, err.Error(), "invalid URL")
}

func TestURL_HTTPError(t *testing.T) {
	tests := []struct {
		name   string
		status int
	}{
		{"not found", http.StatusNotFound},
		{"server error", http.StatusInternalServerError},
		{"redirect without location", http.StatusMultipleChoices},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			result, err := URL(context.Background(), server.URL, nil)
			require.Error(t, err)
			assert.NotNil(t, result) // Result is returned even on error
			assert.Equal(t, tt.status, result.StatusCode)

			var fetchErr *Error
			require.ErrorAs(t, err, &fetchErr)
			assert.Equal(t, tt.status, fetchErr.StatusCode)
			assert.Equal(t, server.URL, fetchErr.URL)
		})
	}
}

func TestURL_NoContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	result, err := URL(context.Background(), server.URL, nil)
	require.NoError(t, err)
	assert.Empty(t, result.Body)
}

func TestURL_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	_, err := URL(context.Background(), server.URL, &Options{Timeout: 20 * time.Millisecond})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP request failed")
}

func TestURL_Headers(t *testing.T) {
	var gotUA, gotAccept string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotAccept = r.Header.Get("Accept-Language")
	}))
	defer server.Close()

	_, err := URL(context.Background(), server.URL, &Options{
		Timeout: time.Second,
		Headers: map[string]string{"Accept-Language": "ja"},
	})
	require.NoError(t, err)
	assert.Equal(t, DefaultUserAgent, gotUA)
	assert.Equal(t, "ja", gotAccept)
}

func TestClient_Fetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("hello"))
	}))
	defer server.Close()

	result, err := NewClient(nil).Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(result.Body))
	assert.Contains(t, result.String(), "text/plain")
}

func TestShouldUseBrowser(t *testing.T) {
	assert.True(t, ShouldUseBrowser(""))
	assert.True(t, ShouldUseBrowser("   short   "))
	assert.True(t, ShouldUseBrowser(strings.Repeat("あ", MinContentLength-1)))
	assert.False(t, ShouldUseBrowser(strings.Repeat("a", MinContentLength)))
}
