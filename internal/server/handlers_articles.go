package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/jonathan/news-assistant/internal/db"
	"github.com/jonathan/news-assistant/internal/narration"
	"github.com/jonathan/news-assistant/internal/pipeline"
	"github.com/jonathan/news-assistant/internal/speech"
)

// CreateArticleRequest is the body of POST /api/articles.
type CreateArticleRequest struct {
	URL     string `json:"url" validate:"required,http_url"`
	Title   string `json:"title" validate:"required,min=1,max=500"`
	Summary string `json:"summary" validate:"max=2000"`
}

// UpdateArticleRequest is the body of PUT /api/articles/{id}. Absent fields
// are left unchanged.
type UpdateArticleRequest struct {
	Title   *string `json:"title"`
	Summary *string `json:"summary"`
}

// ArticleListResponse is the body of GET /api/articles.
type ArticleListResponse struct {
	Articles []db.Article `json:"articles"`
	Total    int          `json:"total"`
	Skip     int          `json:"skip"`
	Limit    int          `json:"limit"`
}

// parseArticleID reads the {id} path value.
func parseArticleID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, &ErrValidation{Field: "id", Message: "Invalid article ID"}
	}
	return id, nil
}

// parseQueryBool reports whether a query flag is set to a true value.
func parseQueryBool(r *http.Request, key string) bool {
	v, err := strconv.ParseBool(r.URL.Query().Get(key))
	return err == nil && v
}

// parseQueryInt parses an integer query parameter within [minValue, maxValue].
// maxValue <= 0 means unbounded.
func parseQueryInt(r *http.Request, key string, defaultValue, minValue, maxValue int) (int, error) {
	valStr := r.URL.Query().Get(key)
	if valStr == "" {
		return defaultValue, nil
	}
	val, err := strconv.Atoi(valStr)
	if err != nil {
		return 0, &ErrValidation{Field: key, Message: "must be an integer"}
	}
	if val < minValue || (maxValue > 0 && val > maxValue) {
		if maxValue > 0 {
			return 0, &ErrValidation{Field: key, Message: fmt.Sprintf("must be between %d and %d", minValue, maxValue)}
		}
		return 0, &ErrValidation{Field: key, Message: fmt.Sprintf("must be at least %d", minValue)}
	}
	return val, nil
}

func (s *Server) decodeCreateRequest(r *http.Request) (CreateArticleRequest, error) {
	var req CreateArticleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return req, &ErrValidation{Field: "body", Message: "Invalid request body: " + err.Error()}
	}
	if err := s.validate.Struct(req); err != nil {
		return req, validationError(err)
	}
	return req, nil
}

// handleCreateArticle stores an article. With ?process=true the URL is run
// through the content pipeline first; ?audio=true then narrates it in the
// background.
func (s *Server) handleCreateArticle(w http.ResponseWriter, r *http.Request) {
	req, err := s.decodeCreateRequest(r)
	if err != nil {
		s.domainError(w, err)
		return
	}

	article, err := s.createArticle(r.Context(), req, parseQueryBool(r, "process"), parseQueryBool(r, "audio"))
	if err != nil {
		s.domainError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusCreated, article)
}

// handleCreateArticleStream creates and processes an article, streaming
// pipeline progress as server-sent events.
func (s *Server) handleCreateArticleStream(w http.ResponseWriter, r *http.Request) {
	req, err := s.decodeCreateRequest(r)
	if err != nil {
		s.domainError(w, err)
		return
	}

	stream, err := newProgressStream(w)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	ctx := pipeline.WithProgress(r.Context(), stream.Step)
	article, err := s.createArticle(ctx, req, true, parseQueryBool(r, "audio"))
	if err != nil {
		stream.Fail(err)
		return
	}
	stream.Article(article)
	stream.Complete(article.ID)
}

func (s *Server) createArticle(ctx context.Context, req CreateArticleRequest, process, audio bool) (*db.Article, error) {
	if !process || s.processor == nil {
		return s.articles.CreateArticle(ctx, db.ArticleInput{URL: req.URL, Title: req.Title, Summary: req.Summary})
	}

	// Known URLs are rejected before the placeholder insert; the unique
	// constraint still settles concurrent creates.
	existing, err := s.articles.GetArticleByURL(ctx, req.URL)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, &db.DuplicateURLError{URL: req.URL}
	}

	article, err := s.articles.CreateArticle(ctx, db.ArticleInput{URL: req.URL, Title: req.Title})
	if err != nil {
		return nil, err
	}
	logger := log.With().Int64("article_id", article.ID).Str("url", req.URL).Logger()

	result, err := s.processor.Process(ctx, req.URL, req.Title, &article.ID, true)
	processed := err == nil
	var patch db.ArticlePatch
	if !processed {
		logger.Warn().Err(err).Msg("content processing failed, keeping submitted data")
		if req.Summary != "" {
			patch.Summary = &req.Summary
		}
	} else {
		patch.Title = &result.Title
		patch.Summary = &result.Summary
	}

	if !patch.Empty() {
		article, err = s.articles.UpdateArticle(ctx, article.ID, patch)
		if err != nil {
			return nil, err
		}
	}

	if audio && processed && s.narrator != nil {
		logger.Info().Msg("dispatching narration")
		s.narrator.Dispatch(narration.Article{ID: article.ID, Title: article.Title, Summary: article.Summary})
	}
	return article, nil
}

// handleListArticles returns one page of articles, newest first.
func (s *Server) handleListArticles(w http.ResponseWriter, r *http.Request) {
	skip, err := parseQueryInt(r, "skip", 0, 0, 0)
	if err != nil {
		s.domainError(w, err)
		return
	}
	limit, err := parseQueryInt(r, "limit", 100, 1, 1000)
	if err != nil {
		s.domainError(w, err)
		return
	}

	articles, total, err := s.articles.ListArticles(r.Context(), skip, limit)
	if err != nil {
		s.domainError(w, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, ArticleListResponse{Articles: articles, Total: total, Skip: skip, Limit: limit})
}

// handleGetArticle returns one article.
func (s *Server) handleGetArticle(w http.ResponseWriter, r *http.Request) {
	id, err := parseArticleID(r)
	if err != nil {
		s.domainError(w, err)
		return
	}

	article, err := s.articles.GetArticle(r.Context(), id)
	if err != nil {
		s.domainError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, article)
}

// handleUpdateArticle changes the title and/or summary of an article.
func (s *Server) handleUpdateArticle(w http.ResponseWriter, r *http.Request) {
	id, err := parseArticleID(r)
	if err != nil {
		s.domainError(w, err)
		return
	}

	var req UpdateArticleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Title != nil {
		if err := s.validate.Var(*req.Title, "min=1,max=500"); err != nil {
			s.domainError(w, &ErrValidation{Field: "title", Message: "length must be between 1 and 500"})
			return
		}
	}
	if req.Summary != nil {
		if err := s.validate.Var(*req.Summary, "max=2000"); err != nil {
			s.domainError(w, &ErrValidation{Field: "summary", Message: "length must be at most 2000"})
			return
		}
	}

	article, err := s.articles.UpdateArticle(r.Context(), id, db.ArticlePatch{Title: req.Title, Summary: req.Summary})
	if err != nil {
		s.domainError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, article)
}

// handleDeleteArticle removes an article.
func (s *Server) handleDeleteArticle(w http.ResponseWriter, r *http.Request) {
	id, err := parseArticleID(r)
	if err != nil {
		s.domainError(w, err)
		return
	}

	if err := s.articles.DeleteArticle(r.Context(), id); err != nil {
		s.domainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleGenerateAudio queues narration of an article. ?kind selects
// "summary" or "full"; without it both are generated.
func (s *Server) handleGenerateAudio(w http.ResponseWriter, r *http.Request) {
	id, err := parseArticleID(r)
	if err != nil {
		s.domainError(w, err)
		return
	}

	var kinds []string
	switch kind := r.URL.Query().Get("kind"); kind {
	case "":
		kinds = []string{speech.KindSummary, speech.KindFull}
	case speech.KindSummary, speech.KindFull:
		kinds = []string{kind}
	default:
		s.domainError(w, &ErrValidation{Field: "kind", Message: "must be summary or full"})
		return
	}

	if s.narrator == nil {
		s.errorResponse(w, http.StatusServiceUnavailable, "Speech service not configured")
		return
	}

	article, err := s.articles.GetArticle(r.Context(), id)
	if err != nil {
		s.domainError(w, err)
		return
	}

	s.narrator.Dispatch(narration.Article{ID: article.ID, Title: article.Title, Summary: article.Summary}, kinds...)
	s.jsonResponse(w, http.StatusAccepted, map[string]any{
		"article_id": article.ID,
		"kinds":      kinds,
		"status":     "accepted",
	})
}
