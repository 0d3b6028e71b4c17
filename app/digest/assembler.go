// Package digest assembles stored articles into a deliverable topic
// document, grouped by category and rendered through a named template.
package digest

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"newsdigest/app/database"
	"newsdigest/app/llm"
	"newsdigest/app/taxonomy"
)

const (
	TemplateDefault  = "default"
	TemplateSummary  = "summary"
	TemplateDetailed = "detailed"
)

// summaryTopCount limits the featured article list in the summary template.
const summaryTopCount = 5

// Result describes a generated topic.
type Result struct {
	TopicID      string `json:"topic_id"`
	Title        string `json:"title"`
	Content      string `json:"content"`
	ArticleCount int    `json:"article_count"`
	Template     string `json:"template_type"`
}

// Assembler builds topics from enriched articles.
type Assembler struct {
	articles     database.ArticleStore
	topics       database.TopicStore
	client       llm.Client
	templatesDir string
	now          func() time.Time
}

func NewAssembler(articles database.ArticleStore, topics database.TopicStore,
	client llm.Client, templatesDir string) *Assembler {
	return &Assembler{
		articles:     articles,
		topics:       topics,
		client:       client,
		templatesDir: templatesDir,
		now:          time.Now,
	}
}

// Generate renders a topic from the given articles and persists it. An
// empty id list is a caller error; unknown ids are skipped, but at least
// one article must resolve. Unknown template names render as default.
func (a *Assembler) Generate(ctx context.Context, articleIDs []string, template string) (*Result, error) {
	if len(articleIDs) == 0 {
		return nil, fmt.Errorf("no article ids provided")
	}

	// A repeated id is a per-item anomaly, not a malformed request. Only
	// the first occurrence is kept so the topic links stay unique.
	seen := make(map[string]bool, len(articleIDs))
	var articles []database.Article
	var foundIDs []string
	for _, id := range articleIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		article, err := a.articles.GetArticleByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to load article %s: %w", id, err)
		}
		if article == nil {
			slog.Warn("Article not found, skipping", "article_id", id)
			continue
		}
		articles = append(articles, *article)
		foundIDs = append(foundIDs, id)
	}
	if len(articles) == 0 {
		return nil, fmt.Errorf("no articles found for the given ids")
	}

	switch template {
	case TemplateDefault, TemplateSummary, TemplateDetailed:
	default:
		template = TemplateDefault
	}

	now := a.now()
	var content, title string
	switch template {
	case TemplateSummary:
		content, title = a.renderSummary(ctx, articles, now)
	case TemplateDetailed:
		content = renderDetailed(articles, now)
		title = fmt.Sprintf("TOPICS配信（詳細版） - %s", now.Format("2006年01月02日"))
	default:
		content = renderDefault(articles, now)
		title = fmt.Sprintf("TOPICS配信 - %s", now.Format("2006年01月02日"))
	}

	topicID, err := a.topics.InsertTopic(ctx, database.Topic{
		Title:       title,
		Content:     content,
		PublishDate: now,
		Template:    template,
		Categories:  presentCategories(articles),
		ArticleIDs:  foundIDs,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to store topic: %w", err)
	}

	slog.Info("Topic generated", "topic_id", topicID, "template", template, "articles", len(articles))
	return &Result{
		TopicID:      topicID,
		Title:        title,
		Content:      content,
		ArticleCount: len(articles),
		Template:     template,
	}, nil
}

// renderSummary asks the generation backend for a monthly digest. Any
// failure there falls back to the default grouped layout.
func (a *Assembler) renderSummary(ctx context.Context, articles []database.Article, now time.Time) (content, title string) {
	texts := make([]string, 0, len(articles))
	for _, article := range articles {
		texts = append(texts, fmt.Sprintf("%s: %s", article.Title, article.Summary))
	}

	digest, err := a.client.GenerateMonthlyDigest(ctx, texts)
	if err != nil {
		slog.Warn("Digest generation failed, falling back to default layout", "error", err)
		return renderDefault(articles, now), fmt.Sprintf("TOPICS配信 - %s", now.Format("2006年01月02日"))
	}

	parts := []string{
		fmt.Sprintf("# 月次サマリー - %s", now.Format("2006年01月")),
		"",
		"## 概要",
		digest,
		"",
		"## 注目記事",
		"",
	}
	for i, article := range articles {
		if i >= summaryTopCount {
			break
		}
		parts = append(parts, fmt.Sprintf("- [%s](%s)", article.Title, article.URL))
	}

	return strings.Join(parts, "\n"), fmt.Sprintf("月次サマリー - %s", now.Format("2006年01月"))
}

func renderDefault(articles []database.Article, now time.Time) string {
	parts := []string{
		fmt.Sprintf("# TOPICS配信 - %s", now.Format("2006年01月02日")),
		"",
		"## 今週のハイライト",
		"",
	}

	for _, group := range groupByCategory(articles) {
		parts = append(parts, fmt.Sprintf("### %s", group.name), "")
		for _, article := range group.articles {
			parts = append(parts, fmt.Sprintf("**%s**", article.Title))
			if article.Summary != "" {
				parts = append(parts, article.Summary)
			}
			parts = append(parts, fmt.Sprintf("[詳細を読む](%s)", article.URL), "")
		}
	}

	return strings.Join(parts, "\n")
}

func renderDetailed(articles []database.Article, now time.Time) string {
	parts := []string{
		fmt.Sprintf("# TOPICS配信（詳細版） - %s", now.Format("2006年01月02日")),
		"",
		"## 目次",
		"",
	}

	groups := groupByCategory(articles)
	for i, group := range groups {
		parts = append(parts, fmt.Sprintf("%d. %s (%d件)", i+1, group.name, len(group.articles)))
	}
	parts = append(parts, "", "---", "")

	for _, group := range groups {
		parts = append(parts, fmt.Sprintf("## %s", group.name), "")
		for _, article := range group.articles {
			parts = append(parts, fmt.Sprintf("### %s", article.Title))
			parts = append(parts, fmt.Sprintf("**出典:** %s", article.Source))
			if article.PublishedAt != nil {
				parts = append(parts, fmt.Sprintf("**公開日:** %s", article.PublishedAt.Format("2006-01-02")))
			}
			parts = append(parts, "")
			if article.Summary != "" {
				parts = append(parts, article.Summary, "")
			}
			parts = append(parts, fmt.Sprintf("[元記事を読む](%s)", article.URL), "", "---", "")
		}
	}

	return strings.Join(parts, "\n")
}

type categoryGroup struct {
	name     string
	articles []database.Article
}

// groupByCategory buckets articles by their mapped category in the fixed
// display order, with uncategorized articles last. Empty groups are
// dropped.
func groupByCategory(articles []database.Article) []categoryGroup {
	buckets := make(map[string][]database.Article)
	for _, article := range articles {
		name := taxonomy.CategoryOther
		if len(article.Categories) > 0 && isTaxonomyCategory(article.Categories[0]) {
			name = article.Categories[0]
		}
		buckets[name] = append(buckets[name], article)
	}

	order := append(append([]string{}, taxonomy.DisplayOrder...), taxonomy.CategoryOther)
	var groups []categoryGroup
	for _, name := range order {
		if bucket := buckets[name]; len(bucket) > 0 {
			groups = append(groups, categoryGroup{name: name, articles: bucket})
		}
	}
	return groups
}

func isTaxonomyCategory(name string) bool {
	for _, category := range taxonomy.Categories {
		if name == category {
			return true
		}
	}
	return false
}

func presentCategories(articles []database.Article) []string {
	var names []string
	for _, group := range groupByCategory(articles) {
		names = append(names, group.name)
	}
	return names
}

// ExportTopic writes a stored topic to a file under the templates
// directory and returns the file path.
func (a *Assembler) ExportTopic(ctx context.Context, topicID, format string) (string, error) {
	topic, err := a.topics.GetTopicByID(ctx, topicID)
	if err != nil {
		return "", fmt.Errorf("failed to load topic: %w", err)
	}
	if topic == nil {
		return "", fmt.Errorf("topic %s not found", topicID)
	}

	if format == "" {
		format = "markdown"
	}

	if err := os.MkdirAll(a.templatesDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create templates directory: %w", err)
	}

	content := topic.Content
	if format == "html" {
		content = fmt.Sprintf("<html><body>%s</body></html>", topic.Content)
	}

	filename := fmt.Sprintf("topics_%s_%s.%s", topicID, a.now().Format("20060102"), format)
	path := filepath.Join(a.templatesDir, filename)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("failed to write export file: %w", err)
	}

	slog.Info("Topic exported", "topic_id", topicID, "path", path, "format", format)
	return path, nil
}
