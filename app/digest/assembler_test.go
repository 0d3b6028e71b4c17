package digest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"newsdigest/app/database"
	"newsdigest/app/llm"
)

type testStores struct {
	articles *database.ArticleRepository
	topics   *database.TopicRepository
}

func newTestStores(t *testing.T) testStores {
	t.Helper()

	db, err := database.NewConnection(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, _, err := database.RunMigrations(db); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	return testStores{
		articles: database.NewArticleRepository(db),
		topics:   database.NewTopicRepository(db),
	}
}

func insertArticleWithCategory(t *testing.T, stores testStores, title, category string) string {
	t.Helper()

	published := time.Date(2025, 8, 15, 12, 0, 0, 0, time.UTC)
	id, err := stores.articles.InsertArticle(context.Background(), database.Article{
		Title:       title,
		URL:         "https://example.com/" + title,
		Source:      "test-source",
		PublishedAt: &published,
		Summary:     title + "の要約",
	})
	if err != nil {
		t.Fatalf("Failed to insert article: %v", err)
	}
	if category != "" {
		if err := stores.articles.UpdateArticleCategories(context.Background(), id, []string{category}); err != nil {
			t.Fatalf("Failed to set category: %v", err)
		}
	}
	return id
}

type failingDigestClient struct {
	llm.Client
}

func (failingDigestClient) GenerateMonthlyDigest(context.Context, []string) (string, error) {
	return "", errors.New("backend down")
}

func newTestAssembler(t *testing.T, stores testStores, client llm.Client) *Assembler {
	t.Helper()
	a := NewAssembler(stores.articles, stores.topics, client, filepath.Join(t.TempDir(), "templates"))
	a.now = func() time.Time { return time.Date(2025, 9, 1, 10, 0, 0, 0, time.UTC) }
	return a
}

func TestGenerateDefaultTemplateGroupsByCategory(t *testing.T) {
	stores := newTestStores(t)
	techID := insertArticleWithCategory(t, stores, "技術記事", "技術")
	econID := insertArticleWithCategory(t, stores, "経済記事", "経済")
	otherID := insertArticleWithCategory(t, stores, "未分類記事", "")

	a := newTestAssembler(t, stores, llm.NewStubClient())
	result, err := a.Generate(context.Background(), []string{econID, otherID, techID}, TemplateDefault)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if result.ArticleCount != 3 {
		t.Errorf("Expected 3 articles, got %d", result.ArticleCount)
	}

	// Categories render in fixed display order with uncategorized last.
	techPos := strings.Index(result.Content, "### 技術")
	econPos := strings.Index(result.Content, "### 経済")
	otherPos := strings.Index(result.Content, "### その他")
	if techPos < 0 || econPos < 0 || otherPos < 0 {
		t.Fatalf("Expected all category headings, got:\n%s", result.Content)
	}
	if !(techPos < econPos && econPos < otherPos) {
		t.Errorf("Expected order 技術 < 経済 < その他, got positions %d %d %d", techPos, econPos, otherPos)
	}

	topic, err := stores.topics.GetTopicByID(context.Background(), result.TopicID)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if topic == nil || len(topic.ArticleIDs) != 3 {
		t.Errorf("Expected persisted topic with 3 articles, got %+v", topic)
	}
}

func TestGenerateSummaryTemplateUsesDigest(t *testing.T) {
	stores := newTestStores(t)
	id := insertArticleWithCategory(t, stores, "技術記事", "技術")

	a := newTestAssembler(t, stores, llm.NewStubClient())
	result, err := a.Generate(context.Background(), []string{id}, TemplateSummary)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if !strings.Contains(result.Content, "ダミー月次まとめ") {
		t.Errorf("Expected generated digest in content:\n%s", result.Content)
	}
	if !strings.Contains(result.Content, "## 注目記事") {
		t.Errorf("Expected featured article section:\n%s", result.Content)
	}
}

func TestGenerateSummaryTemplateFallsBackToDefault(t *testing.T) {
	stores := newTestStores(t)
	id := insertArticleWithCategory(t, stores, "技術記事", "技術")

	a := newTestAssembler(t, stores, failingDigestClient{})
	result, err := a.Generate(context.Background(), []string{id}, TemplateSummary)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if !strings.Contains(result.Content, "## 今週のハイライト") {
		t.Errorf("Expected default layout fallback:\n%s", result.Content)
	}
}

func TestGenerateDetailedTemplate(t *testing.T) {
	stores := newTestStores(t)
	id := insertArticleWithCategory(t, stores, "技術記事", "技術")

	a := newTestAssembler(t, stores, llm.NewStubClient())
	result, err := a.Generate(context.Background(), []string{id}, TemplateDetailed)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	for _, expected := range []string{"## 目次", "1. 技術 (1件)", "**出典:** test-source", "**公開日:** 2025-08-15"} {
		if !strings.Contains(result.Content, expected) {
			t.Errorf("Expected %q in content:\n%s", expected, result.Content)
		}
	}
}

func TestGenerateEmptyIDsIsError(t *testing.T) {
	a := newTestAssembler(t, newTestStores(t), llm.NewStubClient())
	if _, err := a.Generate(context.Background(), nil, TemplateDefault); err == nil {
		t.Errorf("Expected error for empty id list")
	}
}

func TestGenerateSkipsUnknownIDs(t *testing.T) {
	stores := newTestStores(t)
	id := insertArticleWithCategory(t, stores, "技術記事", "技術")

	a := newTestAssembler(t, stores, llm.NewStubClient())
	result, err := a.Generate(context.Background(), []string{"missing", id}, TemplateDefault)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if result.ArticleCount != 1 {
		t.Errorf("Expected unknown id to be skipped, got %d articles", result.ArticleCount)
	}
}

func TestGenerateDeduplicatesRepeatedIDs(t *testing.T) {
	stores := newTestStores(t)
	techID := insertArticleWithCategory(t, stores, "技術記事", "技術")
	econID := insertArticleWithCategory(t, stores, "経済記事", "経済")

	a := newTestAssembler(t, stores, llm.NewStubClient())
	result, err := a.Generate(context.Background(), []string{techID, econID, techID, techID}, TemplateDefault)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if result.ArticleCount != 2 {
		t.Errorf("Expected repeated id to count once, got %d articles", result.ArticleCount)
	}

	topic, err := stores.topics.GetTopicByID(context.Background(), result.TopicID)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if topic == nil {
		t.Fatal("Expected persisted topic")
	}
	// First-occurrence order survives deduplication.
	if len(topic.ArticleIDs) != 2 || topic.ArticleIDs[0] != techID || topic.ArticleIDs[1] != econID {
		t.Errorf("Expected article ids [%s %s], got %v", techID, econID, topic.ArticleIDs)
	}
}

func TestGenerateAllUnknownIDsIsError(t *testing.T) {
	a := newTestAssembler(t, newTestStores(t), llm.NewStubClient())
	if _, err := a.Generate(context.Background(), []string{"missing"}, TemplateDefault); err == nil {
		t.Errorf("Expected error when no articles resolve")
	}
}

func TestGenerateUnknownTemplateRendersDefault(t *testing.T) {
	stores := newTestStores(t)
	id := insertArticleWithCategory(t, stores, "技術記事", "技術")

	a := newTestAssembler(t, stores, llm.NewStubClient())
	result, err := a.Generate(context.Background(), []string{id}, "nonsense")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if result.Template != TemplateDefault {
		t.Errorf("Expected default template, got %q", result.Template)
	}
}

func TestExportTopic(t *testing.T) {
	stores := newTestStores(t)
	id := insertArticleWithCategory(t, stores, "技術記事", "技術")

	a := newTestAssembler(t, stores, llm.NewStubClient())
	result, err := a.Generate(context.Background(), []string{id}, TemplateDefault)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	path, err := a.ExportTopic(context.Background(), result.TopicID, "markdown")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read exported file: %v", err)
	}
	if string(data) != result.Content {
		t.Errorf("Exported content does not match topic content")
	}

	htmlPath, err := a.ExportTopic(context.Background(), result.TopicID, "html")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	htmlData, err := os.ReadFile(htmlPath)
	if err != nil {
		t.Fatalf("Failed to read exported file: %v", err)
	}
	if !strings.HasPrefix(string(htmlData), "<html>") {
		t.Errorf("Expected HTML wrapper, got %q", string(htmlData)[:20])
	}
}

func TestExportTopicNotFound(t *testing.T) {
	a := newTestAssembler(t, newTestStores(t), llm.NewStubClient())
	if _, err := a.ExportTopic(context.Background(), "missing", "markdown"); err == nil {
		t.Errorf("Expected error for missing topic")
	}
}
