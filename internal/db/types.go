package db

import (
	"fmt"
	"time"
)

// Article is a stored article record.
type Article struct {
	ID        int64      `json:"id"`
	URL       string     `json:"url"`
	Title     string     `json:"title"`
	Summary   string     `json:"summary"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at"`
}

// ArticleInput holds the fields of a new article.
type ArticleInput struct {
	URL     string
	Title   string
	Summary string
}

// ArticlePatch holds the fields to change; nil fields are left untouched.
type ArticlePatch struct {
	Title   *string
	Summary *string
}

// Empty reports whether the patch changes nothing.
func (p ArticlePatch) Empty() bool {
	return p.Title == nil && p.Summary == nil
}

// NotFoundError is returned when an article does not exist.
type NotFoundError struct {
	ID int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("Article with ID %d not found", e.ID)
}

// DuplicateURLError is returned when an article URL is already stored.
type DuplicateURLError struct {
	URL   string
	Cause error
}

func (e *DuplicateURLError) Error() string {
	return fmt.Sprintf("URL already registered: %s", e.URL)
}

func (e *DuplicateURLError) Unwrap() error {
	return e.Cause
}
