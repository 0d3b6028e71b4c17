package api

import (
	"context"

	"newsdigest/app/collector"
	"newsdigest/app/database"
	"newsdigest/app/digest"
	"newsdigest/app/enrich"
	"newsdigest/app/feed"
)

// CollectorInterface is what the crawl endpoint needs from the collector.
type CollectorInterface interface {
	CollectAndStore(ctx context.Context, sourceNames []string, window feed.Window) (*collector.Summary, error)
}

var _ CollectorInterface = (*collector.Collector)(nil)

// EnricherInterface covers the summarize and categorize endpoints.
type EnricherInterface interface {
	SummarizeArticles(ctx context.Context, limit int) (*enrich.Report, error)
	SummarizeByIDs(ctx context.Context, articleIDs []string) (*enrich.Report, error)
	CategorizeArticles(ctx context.Context, articleIDs []string, limit int) (*enrich.Report, error)
}

var _ EnricherInterface = (*enrich.Service)(nil)

// AssemblerInterface covers the topic endpoints.
type AssemblerInterface interface {
	Generate(ctx context.Context, articleIDs []string, template string) (*digest.Result, error)
	ExportTopic(ctx context.Context, topicID, format string) (string, error)
}

var _ AssemblerInterface = (*digest.Assembler)(nil)

type Handler struct {
	collector   CollectorInterface
	enricher    EnricherInterface
	assembler   AssemblerInterface
	articles    database.ArticleStore
	topics      database.TopicStore
	defaultDays int
}

type crawlRequest struct {
	Sources   []string `json:"sources"`
	Days      int      `json:"days"`
	StartDate string   `json:"start_date"`
	EndDate   string   `json:"end_date"`
}

type enrichRequest struct {
	ArticleIDs []string `json:"article_ids"`
	Limit      int      `json:"limit"`
}

type generateTopicRequest struct {
	ArticleIDs []string `json:"article_ids"`
	Template   string   `json:"template_type"`
}

type exportTopicRequest struct {
	Format string `json:"format"`
}
