// Package enrich applies generation backends to stored articles: summaries
// and labels for unprocessed articles, and category inference mapped onto
// the fixed taxonomy.
package enrich

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"newsdigest/app/database"
	"newsdigest/app/llm"
	"newsdigest/app/taxonomy"
)

// Outcome classifies what happened to one article during an enrichment run.
type Outcome string

const (
	OutcomeSuccess   Outcome = "success"
	OutcomeNotFound  Outcome = "not_found"
	OutcomeNoContent Outcome = "no_content"
	OutcomeError     Outcome = "error"
)

// ItemResult reports the outcome for a single article.
type ItemResult struct {
	ArticleID  string   `json:"article_id"`
	Title      string   `json:"title,omitempty"`
	Outcome    Outcome  `json:"outcome"`
	Categories []string `json:"categories,omitempty"`
}

// Report aggregates an enrichment run.
type Report struct {
	Processed  int          `json:"processed"`
	Errors     int          `json:"errors"`
	TotalFound int          `json:"total_found"`
	Items      []ItemResult `json:"items,omitempty"`
}

// Service runs enrichment over persisted articles. Per-article failures
// are counted, never propagated; only a failed store query fails a run.
type Service struct {
	store  database.ArticleStore
	client llm.Client
}

func NewService(store database.ArticleStore, client llm.Client) *Service {
	return &Service{store: store, client: client}
}

// SummarizeArticles processes up to limit articles that have no summary
// yet. Generation failures degrade to a placeholder summary with no
// labels so the article is still marked processed.
func (s *Service) SummarizeArticles(ctx context.Context, limit int) (*Report, error) {
	articles, err := s.store.GetArticlesWithoutSummary(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load articles without summary: %w", err)
	}

	report := &Report{TotalFound: len(articles)}
	for i := range articles {
		report.addItem(s.summarizeOne(ctx, &articles[i]))
	}

	slog.Info("Summarization completed",
		"total_found", report.TotalFound, "processed", report.Processed, "errors", report.Errors)
	return report, nil
}

// SummarizeByIDs processes the given articles regardless of whether they
// already have a summary. An empty id list is a caller error.
func (s *Service) SummarizeByIDs(ctx context.Context, articleIDs []string) (*Report, error) {
	if len(articleIDs) == 0 {
		return nil, fmt.Errorf("no article ids provided")
	}

	report := &Report{TotalFound: len(articleIDs)}
	for _, id := range articleIDs {
		article, err := s.store.GetArticleByID(ctx, id)
		if err != nil {
			slog.Warn("Failed to load article", "article_id", id, "error", err)
			report.addError(ItemResult{ArticleID: id, Outcome: OutcomeError})
			continue
		}
		if article == nil {
			slog.Warn("Article not found", "article_id", id)
			report.addError(ItemResult{ArticleID: id, Outcome: OutcomeNotFound})
			continue
		}

		report.addItem(s.summarizeOne(ctx, article))
	}

	slog.Info("Targeted summarization completed",
		"total_found", report.TotalFound, "processed", report.Processed, "errors", report.Errors)
	return report, nil
}

func (s *Service) summarizeOne(ctx context.Context, article *database.Article) ItemResult {
	item := ItemResult{ArticleID: article.ID, Title: article.Title}

	content := articleText(article)
	if content == "" {
		item.Outcome = OutcomeNoContent
		return item
	}

	summary, labels, err := s.client.GenerateSummaryAndLabels(ctx, content)
	if err != nil {
		slog.Warn("Summary generation failed, using fallback", "article_id", article.ID, "error", err)
		summary = llm.FallbackSummary
		labels = nil
	}

	if err := s.store.UpdateArticleSummaryAndLabels(ctx, article.ID, summary, labels); err != nil {
		slog.Warn("Failed to store summary", "article_id", article.ID, "error", err)
		item.Outcome = OutcomeError
		return item
	}

	item.Outcome = OutcomeSuccess
	return item
}

// CategorizeArticles infers categories for the given articles, or for the
// latest limit articles when no ids are given, and persists the single
// mapped taxonomy category per article.
func (s *Service) CategorizeArticles(ctx context.Context, articleIDs []string, limit int) (*Report, error) {
	var articles []database.Article
	if len(articleIDs) > 0 {
		for _, id := range articleIDs {
			article, err := s.store.GetArticleByID(ctx, id)
			if err != nil {
				return nil, fmt.Errorf("failed to load article %s: %w", id, err)
			}
			if article == nil {
				continue
			}
			articles = append(articles, *article)
		}
	} else {
		var err error
		articles, err = s.store.GetLatestArticles(ctx, limit)
		if err != nil {
			return nil, fmt.Errorf("failed to load latest articles: %w", err)
		}
	}

	report := &Report{TotalFound: len(articles)}
	for i := range articles {
		report.addItem(s.categorizeOne(ctx, &articles[i]))
	}

	slog.Info("Categorization completed",
		"total_found", report.TotalFound, "processed", report.Processed, "errors", report.Errors)
	return report, nil
}

func (s *Service) categorizeOne(ctx context.Context, article *database.Article) ItemResult {
	item := ItemResult{ArticleID: article.ID, Title: article.Title}

	content := articleText(article)
	if content == "" {
		item.Outcome = OutcomeNoContent
		return item
	}

	var categories []string
	predicted, err := s.client.GenerateCategories(ctx, content)
	if err != nil {
		// The fallback category is final and skips taxonomy mapping, so
		// failed articles land in the uncategorized digest group.
		slog.Warn("Category generation failed, using fallback", "article_id", article.ID, "error", err)
		categories = llm.FallbackCategories()
	} else {
		categories = []string{taxonomy.Map(predicted)}
	}

	if err := s.store.UpdateArticleCategories(ctx, article.ID, categories); err != nil {
		slog.Warn("Failed to store categories", "article_id", article.ID, "error", err)
		item.Outcome = OutcomeError
		return item
	}

	item.Outcome = OutcomeSuccess
	item.Categories = categories
	return item
}

func articleText(article *database.Article) string {
	if content := strings.TrimSpace(article.Content); content != "" {
		return content
	}
	return strings.TrimSpace(article.Title)
}

// addItem counts success as processed and error outcomes as errors.
// No-content articles are recorded but counted as neither, on every path.
func (r *Report) addItem(item ItemResult) {
	switch item.Outcome {
	case OutcomeSuccess:
		r.Processed++
	case OutcomeError:
		r.Errors++
	}
	r.Items = append(r.Items, item)
}

func (r *Report) addError(item ItemResult) {
	r.Errors++
	r.Items = append(r.Items, item)
}
