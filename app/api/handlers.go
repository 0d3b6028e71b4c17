package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"newsdigest/app/database"
	"newsdigest/app/enrich"
	"newsdigest/app/feed"
)

const defaultEnrichLimit = 50

func NewHandler(articleCollector CollectorInterface, enricher EnricherInterface,
	assembler AssemblerInterface, articles database.ArticleStore,
	topics database.TopicStore, defaultDays int) *Handler {
	return &Handler{
		collector:   articleCollector,
		enricher:    enricher,
		assembler:   assembler,
		articles:    articles,
		topics:      topics,
		defaultDays: defaultDays,
	}
}

// Crawl triggers a collection run. The window comes from explicit
// start/end dates when given, otherwise from a day count ending now.
func (h *Handler) Crawl(c *gin.Context) {
	var req crawlRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	window, err := h.resolveWindow(req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	summary, err := h.collector.CollectAndStore(c.Request.Context(), req.Sources, window)
	if err != nil {
		slog.Error("Collection run failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Collection failed", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Crawl completed",
		"summary": summary,
	})
}

func (h *Handler) resolveWindow(req crawlRequest) (feed.Window, error) {
	if req.StartDate != "" || req.EndDate != "" {
		if req.StartDate == "" || req.EndDate == "" {
			return feed.Window{}, fmt.Errorf("both start_date and end_date are required")
		}
		start, err := time.Parse("2006-01-02", req.StartDate)
		if err != nil {
			return feed.Window{}, fmt.Errorf("invalid start_date: %w", err)
		}
		end, err := time.Parse("2006-01-02", req.EndDate)
		if err != nil {
			return feed.Window{}, fmt.Errorf("invalid end_date: %w", err)
		}
		return feed.Window{Start: start, End: end}, nil
	}

	days := req.Days
	if days <= 0 {
		days = h.defaultDays
	}
	return feed.LastDays(days, time.Now()), nil
}

// GetLatestArticles returns the most recently published articles.
func (h *Handler) GetLatestArticles(c *gin.Context) {
	limit := defaultEnrichLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit parameter"})
			return
		}
		limit = parsed
	}

	articles, err := h.articles.GetLatestArticles(c.Request.Context(), limit)
	if err != nil {
		slog.Error("Database error", "operation", "get_latest_articles", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"articles": articles,
		"total":    len(articles),
	})
}

// Summarize enriches the given articles, or pending articles when no ids
// are provided.
func (h *Handler) Summarize(c *gin.Context) {
	var req enrichRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}
	if req.Limit <= 0 {
		req.Limit = defaultEnrichLimit
	}

	var report *enrich.Report
	var err error
	if len(req.ArticleIDs) > 0 {
		report, err = h.enricher.SummarizeByIDs(c.Request.Context(), req.ArticleIDs)
	} else {
		report, err = h.enricher.SummarizeArticles(c.Request.Context(), req.Limit)
	}
	if err != nil {
		slog.Error("Summarization failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Summarization failed", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, report)
}

// Categorize infers and persists taxonomy categories.
func (h *Handler) Categorize(c *gin.Context) {
	var req enrichRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}
	if req.Limit <= 0 {
		req.Limit = defaultEnrichLimit
	}

	report, err := h.enricher.CategorizeArticles(c.Request.Context(), req.ArticleIDs, req.Limit)
	if err != nil {
		slog.Error("Categorization failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Categorization failed", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, report)
}

// GenerateTopic assembles a digest topic from the requested articles.
func (h *Handler) GenerateTopic(c *gin.Context) {
	var req generateTopicRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}
	if len(req.ArticleIDs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "article_ids is required"})
		return
	}

	result, err := h.assembler.Generate(c.Request.Context(), req.ArticleIDs, req.Template)
	if err != nil {
		slog.Error("Topic generation failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Topic generation failed", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetTopic returns a stored topic with its linked articles.
func (h *Handler) GetTopic(c *gin.Context) {
	id := c.Param("id")

	topic, err := h.topics.GetTopicByID(c.Request.Context(), id)
	if err != nil {
		slog.Error("Database error", "operation", "get_topic", "topic_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if topic == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Topic not found"})
		return
	}

	articles, err := h.topics.GetArticlesByTopicID(c.Request.Context(), id)
	if err != nil {
		slog.Error("Database error", "operation", "get_topic_articles", "topic_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"topic":    topic,
		"articles": articles,
	})
}

// ExportTopic writes a topic to a file and returns its path.
func (h *Handler) ExportTopic(c *gin.Context) {
	id := c.Param("id")

	var req exportTopicRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	path, err := h.assembler.ExportTopic(c.Request.Context(), id, req.Format)
	if err != nil {
		slog.Error("Topic export failed", "topic_id", id, "error", err)
		c.JSON(http.StatusNotFound, gin.H{"error": "Export failed", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   "Export completed",
		"file_path": path,
	})
}

// GetHealth reports service liveness plus a few store counters.
func (h *Handler) GetHealth(c *gin.Context) {
	health := gin.H{
		"status":    "ok",
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
	}

	if count, err := h.articles.GetArticleCount(c.Request.Context()); err == nil {
		health["articles"] = count
	}

	c.JSON(http.StatusOK, health)
}
