// Package artifacts stores fetched payloads and derived text on disk under
// the configured data directory.
//
// Layout:
//
//	{data_dir}/{YYYYMMDD}_{id}.{ext}         raw payload
//	{data_dir}/raw/article_{id}.txt          extracted text
//	{data_dir}/raw/article_{id}_audio.txt    speech-normalized text
package artifacts

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jonathan/news-assistant/internal/content"
)

const rawDir = "raw"

// WriteError reports a failed artifact write.
type WriteError struct {
	Path  string
	Cause error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("failed to write %s: %v", e.Path, e.Cause)
}

func (e *WriteError) Unwrap() error {
	return e.Cause
}

// Store writes artifacts under a data directory.
type Store struct {
	dataDir string
	now     func() time.Time
}

// NewStore creates dataDir and its raw/ subdirectory if needed.
func NewStore(dataDir string) (*Store, error) {
	if err := os.MkdirAll(filepath.Join(dataDir, rawDir), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory %s: %w", dataDir, err)
	}
	return &Store{dataDir: dataDir, now: time.Now}, nil
}

// WithClock replaces the clock used to date raw payload names.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

// DataDir returns the root directory.
func (s *Store) DataDir() string {
	return s.dataDir
}

// RawPath returns the dated raw payload path for an article.
func (s *Store) RawPath(articleID int64, ext content.Extension) string {
	name := fmt.Sprintf("%s_%d.%s", s.now().Format("20060102"), articleID, ext)
	return filepath.Join(s.dataDir, name)
}

// TextPath returns the extracted text path for an article.
func (s *Store) TextPath(articleID int64) string {
	return filepath.Join(s.dataDir, rawDir, fmt.Sprintf("article_%d.txt", articleID))
}

// AudioTextPath returns the speech-normalized text path for an article.
func (s *Store) AudioTextPath(articleID int64) string {
	return filepath.Join(s.dataDir, rawDir, fmt.Sprintf("article_%d_audio.txt", articleID))
}

// SaveRaw writes the fetched payload and returns its path.
func (s *Store) SaveRaw(articleID int64, ext content.Extension, body []byte) (string, error) {
	return write(s.RawPath(articleID, ext), body)
}

// SaveText writes extracted text and returns its path.
func (s *Store) SaveText(articleID int64, text string) (string, error) {
	return write(s.TextPath(articleID), []byte(text))
}

// SaveAudioText writes speech-normalized text and returns its path.
func (s *Store) SaveAudioText(articleID int64, text string) (string, error) {
	return write(s.AudioTextPath(articleID), []byte(text))
}

// ReadAudioText returns the stored speech-normalized text. ok is false when
// the article has none.
func (s *Store) ReadAudioText(articleID int64) (text string, ok bool, err error) {
	data, err := os.ReadFile(s.AudioTextPath(articleID))
	if errors.Is(err, os.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return string(data), true, nil
}

func write(path string, data []byte) (string, error) {
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", &WriteError{Path: path, Cause: err}
	}
	return path, nil
}
