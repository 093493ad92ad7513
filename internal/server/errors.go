package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/jonathan/news-assistant/internal/db"
	"github.com/jonathan/news-assistant/internal/pipeline"
	"github.com/jonathan/news-assistant/internal/speech"
)

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// validationError converts the first validator failure into an *ErrValidation.
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return &ErrValidation{Field: "body", Message: err.Error()}
	}
	fe := verrs[0]
	msg := "failed " + fe.Tag()
	switch fe.Tag() {
	case "required":
		msg = "is required"
	case "http_url":
		msg = "must be an http(s) URL"
	case "min", "max":
		msg = fmt.Sprintf("length must satisfy %s=%s", fe.Tag(), fe.Param())
	}
	return &ErrValidation{Field: jsonFieldNames[fe.Field()], Message: msg}
}

var jsonFieldNames = map[string]string{
	"URL":     "url",
	"Title":   "title",
	"Summary": "summary",
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var (
		notFound   *db.NotFoundError
		duplicate  *db.DuplicateURLError
		validation *ErrValidation
		processing *pipeline.ProcessingError
		speechErr  *speech.Error
	)
	switch {
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &duplicate):
		return http.StatusConflict
	case errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.As(err, &processing) && processing.Code == pipeline.CodeFetchFailed:
		return http.StatusBadGateway
	case errors.As(err, &speechErr) && speechErr.Kind == speech.KindQuotaExceeded:
		return http.StatusTooManyRequests
	case errors.As(err, &speechErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
