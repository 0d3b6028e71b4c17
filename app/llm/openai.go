package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const openAITimeout = 60 * time.Second

const (
	summarySystemPrompt  = "あなたは業界の専門記事を要約し、関連するタグを生成するAIアシスタントです。"
	categorySystemPrompt = "あなたは記事を適切なカテゴリに分類するAIアシスタントです。"
	digestSystemPrompt   = "あなたは業界の月次動向をまとめるアナリストです。"
)

// OpenAIClient talks to OpenAI-compatible chat completion APIs.
type OpenAIClient struct {
	endpoint   string
	model      string
	apiKey     string
	httpClient *http.Client
}

var _ Client = (*OpenAIClient)(nil)

func NewOpenAIClient(endpoint, model, apiKey string) *OpenAIClient {
	return &OpenAIClient{
		endpoint:   endpoint,
		model:      model,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: openAITimeout},
	}
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (c *OpenAIClient) GenerateSummaryAndLabels(ctx context.Context, articleText string) (string, []string, error) {
	prompt := fmt.Sprintf(`次の記事を200字以内で要約し、関連するタグを5～10個生成してください。
記事: %s

出力形式はJSON形式で以下のようにしてください：
{
    "summary": "記事の要約",
    "labels": ["タグ1", "タグ2", "タグ3"]
}`, articleText)

	content, err := c.chat(ctx, summarySystemPrompt, prompt, 500, 0.5)
	if err != nil {
		return "", nil, err
	}

	var result struct {
		Summary string   `json:"summary"`
		Labels  []string `json:"labels"`
	}
	if err := json.Unmarshal([]byte(stripCodeFence(content)), &result); err != nil {
		return "", nil, fmt.Errorf("failed to parse summary response: %w", err)
	}

	return strings.TrimSpace(result.Summary), result.Labels, nil
}

func (c *OpenAIClient) GenerateCategories(ctx context.Context, articleText string) ([]string, error) {
	prompt := fmt.Sprintf(`次の記事を適切なカテゴリに分類してください。
記事: %s

可能なカテゴリ：
- 技術動向
- 市場動向
- 企業動向
- 政策・規制
- 投資・M&A
- 人材・組織
- その他

出力形式はJSON配列で：["カテゴリ1", "カテゴリ2"]`, articleText)

	content, err := c.chat(ctx, categorySystemPrompt, prompt, 100, 0.3)
	if err != nil {
		return nil, err
	}

	var categories []string
	if err := json.Unmarshal([]byte(stripCodeFence(content)), &categories); err != nil {
		return nil, fmt.Errorf("failed to parse categories response: %w", err)
	}

	return categories, nil
}

func (c *OpenAIClient) GenerateMonthlyDigest(ctx context.Context, articles []string) (string, error) {
	prompt := fmt.Sprintf(`以下の記事群から月次の業界動向をまとめてください。

%s

以下の観点でまとめてください：
1. 技術動向のハイライト
2. 市場・企業動向のポイント
3. 注目すべき今後の展望

800字程度でまとめてください。`, joinArticles(articles))

	content, err := c.chat(ctx, digestSystemPrompt, prompt, 1000, 0.6)
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(content), nil
}

func (c *OpenAIClient) chat(ctx context.Context, systemPrompt, userPrompt string, maxTokens int, temperature float64) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("API key is not configured")
	}

	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		MaxTokens:   maxTokens,
		Temperature: temperature,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to call chat API: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("chat API error %s: %s", resp.Status, strings.TrimSpace(string(respBody)))
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("failed to parse chat response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("chat response contains no choices")
	}

	return parsed.Choices[0].Message.Content, nil
}

// stripCodeFence removes a surrounding markdown code fence some models wrap
// JSON payloads in.
func stripCodeFence(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}

	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}

func joinArticles(articles []string) string {
	parts := make([]string, 0, len(articles))
	for i, article := range articles {
		parts = append(parts, fmt.Sprintf("記事%d: %s", i+1, article))
	}
	return strings.Join(parts, "\n\n")
}
