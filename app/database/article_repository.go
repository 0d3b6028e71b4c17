package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ArticleRepository handles database operations for articles.
type ArticleRepository struct {
	db *DB
}

var _ ArticleStore = (*ArticleRepository)(nil)

func NewArticleRepository(db *DB) *ArticleRepository {
	return &ArticleRepository{db: db}
}

// SaveArticles persists candidate articles with best-effort deduplication.
// Each candidate is checked against the (title, url, source) key and skipped
// when a match exists. The check-then-insert is not atomic across concurrent
// callers; the unique constraint catches the race and the violating insert
// is counted as skipped.
func (r *ArticleRepository) SaveArticles(ctx context.Context, articles []Article) (int, int, error) {
	inserted := 0
	skipped := 0

	for _, article := range articles {
		exists, err := r.ExistsArticle(ctx, article.Title, article.URL, article.Source)
		if err != nil {
			return inserted, skipped, fmt.Errorf("failed to check duplicate: %w", err)
		}
		if exists {
			skipped++
			continue
		}

		if _, err := r.InsertArticle(ctx, article); err != nil {
			if isUniqueViolation(err) {
				skipped++
				continue
			}
			slog.Warn("Failed to insert article, skipping", "title", article.Title, "source", article.Source, "error", err)
			skipped++
			continue
		}
		inserted++
	}

	return inserted, skipped, nil
}

// ExistsArticle reports whether an article with the given dedup key exists.
func (r *ArticleRepository) ExistsArticle(ctx context.Context, title, url, source string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx,
		`SELECT 1 FROM articles WHERE title = ? AND url = ? AND source = ? LIMIT 1`,
		title, url, source).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check article existence: %w", err)
	}
	return true, nil
}

// InsertArticle inserts a single article and returns its assigned id.
func (r *ArticleRepository) InsertArticle(ctx context.Context, article Article) (string, error) {
	id := article.ID
	if id == "" {
		id = uuid.NewString()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO articles (id, title, url, source, published_at, summary, labels, categories, thumbnail_url, content, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, id, article.Title, article.URL, article.Source, nullableTime(article.PublishedAt),
		article.Summary, encodeStrings(article.Labels), encodeStrings(article.Categories),
		article.ThumbnailURL, article.Content, time.Now().UTC())
	if err != nil {
		return "", fmt.Errorf("failed to insert article: %w", err)
	}

	return id, nil
}

// GetArticleByID returns the article with the given id, or nil when absent.
func (r *ArticleRepository) GetArticleByID(ctx context.Context, id string) (*Article, error) {
	row := r.db.QueryRowContext(ctx, selectArticleColumns+` WHERE id = ?`, id)

	article, err := scanArticle(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get article by id: %w", err)
	}
	return article, nil
}

// GetArticlesWithoutSummary returns articles pending enrichment, newest first.
func (r *ArticleRepository) GetArticlesWithoutSummary(ctx context.Context, limit int) ([]Article, error) {
	rows, err := r.db.QueryContext(ctx, selectArticleColumns+`
		WHERE summary = ''
		ORDER BY published_at DESC, created_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get articles without summary: %w", err)
	}
	defer rows.Close()

	return scanArticles(rows)
}

// GetLatestArticles returns the most recently published articles.
func (r *ArticleRepository) GetLatestArticles(ctx context.Context, limit int) ([]Article, error) {
	rows, err := r.db.QueryContext(ctx, selectArticleColumns+`
		ORDER BY published_at DESC, created_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get latest articles: %w", err)
	}
	defer rows.Close()

	return scanArticles(rows)
}

// UpdateArticleSummaryAndLabels stores the enrichment result for an article.
func (r *ArticleRepository) UpdateArticleSummaryAndLabels(ctx context.Context, id, summary string, labels []string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE articles SET summary = ?, labels = ? WHERE id = ?`,
		summary, encodeStrings(labels), id)
	if err != nil {
		return fmt.Errorf("failed to update article summary: %w", err)
	}
	return nil
}

// UpdateArticleCategories stores the mapped taxonomy categories for an article.
func (r *ArticleRepository) UpdateArticleCategories(ctx context.Context, id string, categories []string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE articles SET categories = ? WHERE id = ?`,
		encodeStrings(categories), id)
	if err != nil {
		return fmt.Errorf("failed to update article categories: %w", err)
	}
	return nil
}

func (r *ArticleRepository) GetArticleCount(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM articles`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get article count: %w", err)
	}
	return count, nil
}

const selectArticleColumns = `
	SELECT id, title, url, source, published_at, summary, labels, categories, thumbnail_url, content, created_at
	FROM articles`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanArticle(row rowScanner) (*Article, error) {
	var article Article
	var publishedAt sql.NullTime
	var labels, categories string

	err := row.Scan(&article.ID, &article.Title, &article.URL, &article.Source,
		&publishedAt, &article.Summary, &labels, &categories,
		&article.ThumbnailURL, &article.Content, &article.CreatedAt)
	if err != nil {
		return nil, err
	}

	if publishedAt.Valid {
		article.PublishedAt = &publishedAt.Time
	}
	article.Labels = decodeStrings(labels)
	article.Categories = decodeStrings(categories)

	return &article, nil
}

func scanArticles(rows *sql.Rows) ([]Article, error) {
	var articles []Article
	for rows.Next() {
		article, err := scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan article row: %w", err)
		}
		articles = append(articles, *article)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating article rows: %w", err)
	}

	return articles, nil
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}

// encodeStrings stores string slices as JSON text; SQLite has no array type.
func encodeStrings(values []string) string {
	if len(values) == 0 {
		return "[]"
	}
	data, err := json.Marshal(values)
	if err != nil {
		return "[]"
	}
	return string(data)
}

func decodeStrings(data string) []string {
	if data == "" {
		return nil
	}
	var values []string
	if err := json.Unmarshal([]byte(data), &values); err != nil {
		return nil
	}
	if len(values) == 0 {
		return nil
	}
	return values
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
