package db

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

var articleColumns = []string{"id", "url", "title", "summary", "created_at", "updated_at"}

func scanArticle(row pgx.Row) (*Article, error) {
	var a Article
	if err := row.Scan(&a.ID, &a.URL, &a.Title, &a.Summary, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	return &a, nil
}

func insertArticleQuery(in ArticleInput) (string, []any, error) {
	return psql.Insert("articles").
		Columns("url", "title", "summary").
		Values(in.URL, in.Title, in.Summary).
		Suffix("RETURNING id, url, title, summary, created_at, updated_at").
		ToSql()
}

func listArticlesQuery(skip, limit uint64) (string, []any, error) {
	return psql.Select(articleColumns...).
		From("articles").
		OrderBy("created_at DESC", "id DESC").
		Offset(skip).
		Limit(limit).
		ToSql()
}

func updateArticleQuery(id int64, patch ArticlePatch) (string, []any, error) {
	q := psql.Update("articles").Set("updated_at", sq.Expr("NOW()"))
	if patch.Title != nil {
		q = q.Set("title", *patch.Title)
	}
	if patch.Summary != nil {
		q = q.Set("summary", *patch.Summary)
	}
	return q.Where(sq.Eq{"id": id}).
		Suffix("RETURNING id, url, title, summary, created_at, updated_at").
		ToSql()
}

// CreateArticle inserts an article. A URL that is already stored yields a
// *DuplicateURLError.
func (db *DB) CreateArticle(ctx context.Context, in ArticleInput) (*Article, error) {
	query, args, err := insertArticleQuery(in)
	if err != nil {
		return nil, fmt.Errorf("failed to build insert: %w", err)
	}

	a, err := scanArticle(db.pool.QueryRow(ctx, query, args...))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, &DuplicateURLError{URL: in.URL, Cause: err}
		}
		return nil, fmt.Errorf("failed to create article: %w", err)
	}
	return a, nil
}

// GetArticle returns the article with id or a *NotFoundError.
func (db *DB) GetArticle(ctx context.Context, id int64) (*Article, error) {
	query, args, err := psql.Select(articleColumns...).From("articles").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select: %w", err)
	}

	a, err := scanArticle(db.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{ID: id}
		}
		return nil, fmt.Errorf("failed to get article: %w", err)
	}
	return a, nil
}

// GetArticleByURL returns the article stored under url, or nil when there is none.
func (db *DB) GetArticleByURL(ctx context.Context, url string) (*Article, error) {
	query, args, err := psql.Select(articleColumns...).From("articles").Where(sq.Eq{"url": url}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select: %w", err)
	}

	a, err := scanArticle(db.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get article by url: %w", err)
	}
	return a, nil
}

// ListArticles returns one page of articles, newest first, and the total count.
func (db *DB) ListArticles(ctx context.Context, skip, limit int) ([]Article, int, error) {
	var total int
	if err := db.pool.QueryRow(ctx, "SELECT COUNT(*) FROM articles").Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count articles: %w", err)
	}

	query, args, err := listArticlesQuery(uint64(max(skip, 0)), uint64(max(limit, 0)))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build list: %w", err)
	}

	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list articles: %w", err)
	}
	defer rows.Close()

	articles := []Article{}
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan article: %w", err)
		}
		articles = append(articles, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to list articles: %w", err)
	}
	return articles, total, nil
}

// UpdateArticle changes the fields set in patch and stamps updated_at. An
// empty patch returns the article unchanged.
func (db *DB) UpdateArticle(ctx context.Context, id int64, patch ArticlePatch) (*Article, error) {
	if patch.Empty() {
		return db.GetArticle(ctx, id)
	}

	query, args, err := updateArticleQuery(id, patch)
	if err != nil {
		return nil, fmt.Errorf("failed to build update: %w", err)
	}

	a, err := scanArticle(db.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{ID: id}
		}
		return nil, fmt.Errorf("failed to update article: %w", err)
	}
	return a, nil
}

// DeleteArticle removes the article with id or returns a *NotFoundError.
func (db *DB) DeleteArticle(ctx context.Context, id int64) error {
	query, args, err := psql.Delete("articles").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build delete: %w", err)
	}

	tag, err := db.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to delete article: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return &NotFoundError{ID: id}
	}
	return nil
}
