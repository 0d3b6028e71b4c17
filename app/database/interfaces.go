package database

import (
	"context"
)

// ArticleStore is the persistence interface the pipeline depends on.
// The existence check in SaveArticles is an optimization; the unique
// constraint on (title, url, source) is the authoritative backstop.
type ArticleStore interface {
	SaveArticles(ctx context.Context, articles []Article) (inserted, skipped int, err error)
	ExistsArticle(ctx context.Context, title, url, source string) (bool, error)
	InsertArticle(ctx context.Context, article Article) (string, error)
	GetArticleByID(ctx context.Context, id string) (*Article, error)
	GetArticlesWithoutSummary(ctx context.Context, limit int) ([]Article, error)
	GetLatestArticles(ctx context.Context, limit int) ([]Article, error)
	UpdateArticleSummaryAndLabels(ctx context.Context, id, summary string, labels []string) error
	UpdateArticleCategories(ctx context.Context, id string, categories []string) error
	GetArticleCount(ctx context.Context) (int, error)
}

type TopicStore interface {
	InsertTopic(ctx context.Context, topic Topic) (string, error)
	GetTopicByID(ctx context.Context, id string) (*Topic, error)
	GetArticlesByTopicID(ctx context.Context, topicID string) ([]Article, error)
}
