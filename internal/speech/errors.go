package speech

import (
	"errors"
	"fmt"
)

// ErrorKind classifies speech failures.
type ErrorKind string

// Error kinds.
const (
	KindConfiguration ErrorKind = "configuration"
	KindSynthesis     ErrorKind = "synthesis"
	KindVoiceNotFound ErrorKind = "voice_not_found"
	KindQuotaExceeded ErrorKind = "quota_exceeded"
	KindService       ErrorKind = "service"
)

// Error is a typed speech failure.
type Error struct {
	Kind    ErrorKind
	Message string
	Voice   string // set for KindVoiceNotFound
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("speech %s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("speech %s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// KindOf returns the kind of a speech error, or "" for other errors.
func KindOf(err error) ErrorKind {
	var speechErr *Error
	if errors.As(err, &speechErr) {
		return speechErr.Kind
	}
	return ""
}

func voiceNotFound(name string) *Error {
	return &Error{Kind: KindVoiceNotFound, Message: "voice not found: " + name, Voice: name}
}
