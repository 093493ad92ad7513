package pipeline

import (
	"errors"
	"fmt"
)

// Processing error codes.
const (
	CodeFetchFailed      = "FETCH_FAILED"
	CodeSaveFailed       = "SAVE_FAILED"
	CodeProcessingFailed = "PROCESSING_FAILED"
)

// ProcessingError is the only error Process returns. It always carries the
// requested URL; save failures also carry the article id and file name.
type ProcessingError struct {
	Code      string
	URL       string
	ArticleID *int64
	Filename  string
	Message   string
	Cause     error
}

func (e *ProcessingError) Error() string {
	msg := fmt.Sprintf("content processing failed for %s [%s]: %s", e.URL, e.Code, e.Message)
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *ProcessingError) Unwrap() error {
	return e.Cause
}

// AsProcessingError unwraps err to a ProcessingError.
func AsProcessingError(err error) (*ProcessingError, bool) {
	var perr *ProcessingError
	ok := errors.As(err, &perr)
	return perr, ok
}
