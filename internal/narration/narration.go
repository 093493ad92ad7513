// Package narration generates article audio in the background.
package narration

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/news-assistant/internal/audiotext"
	"github.com/jonathan/news-assistant/internal/speech"
)

// DefaultTimeout bounds one dispatch, all kinds included.
const DefaultTimeout = 5 * time.Minute

// Article is the part of an article narration needs.
type Article struct {
	ID      int64
	Title   string
	Summary string
}

// Synthesizer renders text to an audio file.
type Synthesizer interface {
	SynthesizeWithHeader(ctx context.Context, text, title, kind string, format speech.Format, outputPath string) (*speech.Response, error)
	DefaultFormat() speech.Format
}

// TextSource returns the speech-normalized full text of an article.
type TextSource interface {
	ReadAudioText(articleID int64) (string, bool, error)
}

// Result reports one generated (or failed) audio file.
type Result struct {
	ArticleID int64
	Kind      string
	Path      string
	Err       error
}

// Narrator dispatches audio generation without blocking the caller.
type Narrator struct {
	synth   Synthesizer
	texts   TextSource
	dataDir string
	timeout time.Duration
	onDone  func(Result)
	wg      sync.WaitGroup
}

// New returns a Narrator writing under dataDir.
func New(synth Synthesizer, texts TextSource, dataDir string) *Narrator {
	return &Narrator{synth: synth, texts: texts, dataDir: dataDir, timeout: DefaultTimeout}
}

// WithTimeout overrides DefaultTimeout.
func (n *Narrator) WithTimeout(d time.Duration) *Narrator {
	if d > 0 {
		n.timeout = d
	}
	return n
}

// OnDone registers a hook called once per kind after synthesis finishes.
func (n *Narrator) OnDone(fn func(Result)) *Narrator {
	n.onDone = fn
	return n
}

// Dispatch generates audio for article in a detached goroutine. With no kinds
// both the summary and the full text are narrated. Failures are logged only.
func (n *Narrator) Dispatch(article Article, kinds ...string) {
	if len(kinds) == 0 {
		kinds = []string{speech.KindSummary, speech.KindFull}
	}

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), n.timeout)
		defer cancel()
		n.run(ctx, article, kinds)
	}()
}

// Wait blocks until every dispatched narration has finished.
func (n *Narrator) Wait() {
	n.wg.Wait()
}

func (n *Narrator) run(ctx context.Context, article Article, kinds []string) {
	logger := log.With().Int64("article_id", article.ID).Logger()
	start := time.Now()

	var g errgroup.Group
	for _, kind := range kinds {
		g.Go(func() error {
			res := n.narrate(ctx, article, kind)
			if n.onDone != nil {
				n.onDone(res)
			}
			if res.Err != nil {
				logger.Error().Err(res.Err).Str("kind", kind).Msg("audio generation failed")
				return res.Err
			}
			logger.Info().Str("kind", kind).Str("path", res.Path).Msg("audio generated")
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		logger.Warn().Dur("elapsed", time.Since(start)).Msg("narration finished with errors")
		return
	}
	logger.Info().Dur("elapsed", time.Since(start)).Msg("narration finished")
}

func (n *Narrator) narrate(ctx context.Context, article Article, kind string) Result {
	res := Result{ArticleID: article.ID, Kind: kind}

	text, err := n.text(article, kind)
	if err != nil {
		res.Err = err
		return res
	}

	format := n.synth.DefaultFormat()
	path := speech.ArticleAudioPath(n.dataDir, article.ID, kind, format)
	resp, err := n.synth.SynthesizeWithHeader(ctx, text, article.Title, kind, format, path)
	if err != nil {
		res.Err = err
		return res
	}
	if !resp.Success {
		res.Err = fmt.Errorf("synthesis failed: %s", resp.ErrorMessage)
		return res
	}
	res.Path = resp.OutputPath
	return res
}

// text picks the narration source for kind. The full text falls back to the
// summary when no audio text was saved for the article.
func (n *Narrator) text(article Article, kind string) (string, error) {
	summary := audiotext.NormalizeSummary(article.Summary)

	switch kind {
	case speech.KindSummary:
		if summary == "" {
			return "", fmt.Errorf("article %d has no summary", article.ID)
		}
		return summary, nil
	case speech.KindFull:
		if n.texts != nil {
			text, ok, err := n.texts.ReadAudioText(article.ID)
			if err != nil {
				log.Warn().Err(err).Int64("article_id", article.ID).Msg("failed to read audio text")
			}
			if ok && strings.TrimSpace(text) != "" {
				return text, nil
			}
		}
		if summary == "" {
			return "", fmt.Errorf("article %d has no text to narrate", article.ID)
		}
		return summary, nil
	default:
		return "", fmt.Errorf("unknown narration kind %q", kind)
	}
}
