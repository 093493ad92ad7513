package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/jonathan/news-assistant/internal/db"
	"github.com/jonathan/news-assistant/internal/pipeline"
)

// Stream event names.
const (
	eventStep     = "step"
	eventArticle  = "article"
	eventComplete = "complete"
	eventError    = "error"
)

// progressStream writes article processing events as server-sent events.
// After the first failed write (client gone) further events are dropped.
type progressStream struct {
	mu      sync.Mutex
	w       http.ResponseWriter
	flusher http.Flusher
	broken  bool
}

func newProgressStream(w http.ResponseWriter) (*progressStream, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("streaming not supported")
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	return &progressStream{w: w, flusher: flusher}, nil
}

func (s *progressStream) send(event string, data any) {
	payload, err := json.Marshal(data)
	if err != nil {
		log.Error().Err(err).Str("event", event).Msg("failed to encode stream event")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.broken {
		return
	}
	if _, err := fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", event, payload); err != nil {
		s.broken = true
		log.Warn().Err(err).Str("event", event).Msg("client stopped reading event stream")
		return
	}
	s.flusher.Flush()
}

// Step forwards one pipeline progress event.
func (s *progressStream) Step(e pipeline.ProgressEvent) {
	s.send(eventStep, e)
}

// Article sends the stored article.
func (s *progressStream) Article(a *db.Article) {
	s.send(eventArticle, a)
}

// Complete ends a successful stream.
func (s *progressStream) Complete(articleID int64) {
	s.send(eventComplete, map[string]any{"article_id": articleID, "status": "completed"})
}

// Fail ends the stream with an error event shaped like JSON error bodies.
func (s *progressStream) Fail(err error) {
	s.send(eventError, map[string]string{"detail": err.Error()})
}
