package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TopicRepository handles database operations for curated digests.
type TopicRepository struct {
	db *DB
}

var _ TopicStore = (*TopicRepository)(nil)

func NewTopicRepository(db *DB) *TopicRepository {
	return &TopicRepository{db: db}
}

// InsertTopic persists a topic and its article links in one transaction.
func (r *TopicRepository) InsertTopic(ctx context.Context, topic Topic) (string, error) {
	id := topic.ID
	if id == "" {
		id = uuid.NewString()
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO topics (id, title, content, publish_date, template, categories, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, id, topic.Title, topic.Content, topic.PublishDate, topic.Template,
		encodeStrings(topic.Categories), time.Now().UTC())
	if err != nil {
		return "", fmt.Errorf("failed to insert topic: %w", err)
	}

	for position, articleID := range topic.ArticleIDs {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO topic_articles (topic_id, article_id, position)
			VALUES (?, ?, ?)
		`, id, articleID, position)
		if err != nil {
			return "", fmt.Errorf("failed to link article %s to topic: %w", articleID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit topic: %w", err)
	}

	return id, nil
}

// GetTopicByID returns the topic with the given id, or nil when absent.
func (r *TopicRepository) GetTopicByID(ctx context.Context, id string) (*Topic, error) {
	var topic Topic
	var categories string

	err := r.db.QueryRowContext(ctx, `
		SELECT id, title, content, publish_date, template, categories, created_at
		FROM topics WHERE id = ?
	`, id).Scan(&topic.ID, &topic.Title, &topic.Content, &topic.PublishDate,
		&topic.Template, &categories, &topic.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get topic by id: %w", err)
	}

	topic.Categories = decodeStrings(categories)

	rows, err := r.db.QueryContext(ctx, `
		SELECT article_id FROM topic_articles WHERE topic_id = ? ORDER BY position
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get topic article ids: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var articleID string
		if err := rows.Scan(&articleID); err != nil {
			return nil, fmt.Errorf("failed to scan topic article id: %w", err)
		}
		topic.ArticleIDs = append(topic.ArticleIDs, articleID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating topic article rows: %w", err)
	}

	return &topic, nil
}

// GetArticlesByTopicID returns the articles linked to a topic in link order.
func (r *TopicRepository) GetArticlesByTopicID(ctx context.Context, topicID string) ([]Article, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT a.id, a.title, a.url, a.source, a.published_at, a.summary, a.labels,
		       a.categories, a.thumbnail_url, a.content, a.created_at
		FROM topic_articles ta
		JOIN articles a ON ta.article_id = a.id
		WHERE ta.topic_id = ?
		ORDER BY ta.position
	`, topicID)
	if err != nil {
		return nil, fmt.Errorf("failed to get articles by topic id: %w", err)
	}
	defer rows.Close()

	return scanArticles(rows)
}
