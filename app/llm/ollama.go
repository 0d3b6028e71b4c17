package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const ollamaTimeout = 60 * time.Second

// OllamaClient talks to a self-hosted Ollama instance. Responses are plain
// text, so structured fields are recovered by line-prefix parsing.
type OllamaClient struct {
	base       *url.URL
	model      string
	httpClient *http.Client
}

var _ Client = (*OllamaClient)(nil)

func NewOllamaClient(baseURL, model string) (*OllamaClient, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid ollama base URL: %w", err)
	}

	return &OllamaClient{
		base:       base,
		model:      model,
		httpClient: &http.Client{Timeout: ollamaTimeout},
	}, nil
}

type ollamaRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type ollamaResponse struct {
	Response string `json:"response"`
}

func (c *OllamaClient) GenerateSummaryAndLabels(ctx context.Context, articleText string) (string, []string, error) {
	prompt := fmt.Sprintf(`記事を200字以内で要約し、関連するタグを5～10個生成してください。

記事: %s

出力形式：
要約: [ここに要約]
タグ: [タグ1,タグ2,タグ3]`, articleText)

	response, err := c.generate(ctx, prompt)
	if err != nil {
		return "", nil, err
	}

	summary := ""
	var labels []string
	for _, line := range strings.Split(strings.TrimSpace(response), "\n") {
		if value, ok := strings.CutPrefix(line, "要約:"); ok {
			summary = strings.TrimSpace(value)
		} else if value, ok := strings.CutPrefix(line, "タグ:"); ok {
			labels = splitList(value)
		}
	}

	if summary == "" {
		return "", nil, fmt.Errorf("response contains no summary line")
	}

	return summary, labels, nil
}

func (c *OllamaClient) GenerateCategories(ctx context.Context, articleText string) ([]string, error) {
	prompt := fmt.Sprintf(`以下の記事を適切なカテゴリに分類してください。

記事: %s

可能なカテゴリ：技術動向, 市場動向, 企業動向, 政策・規制, 投資・M&A, 人材・組織, その他

カテゴリ: [選択したカテゴリをカンマ区切りで]`, articleText)

	response, err := c.generate(ctx, prompt)
	if err != nil {
		return nil, err
	}

	for _, line := range strings.Split(strings.TrimSpace(response), "\n") {
		if value, ok := strings.CutPrefix(line, "カテゴリ:"); ok {
			if categories := splitList(value); len(categories) > 0 {
				return categories, nil
			}
		}
	}

	return nil, fmt.Errorf("response contains no category line")
}

func (c *OllamaClient) GenerateMonthlyDigest(ctx context.Context, articles []string) (string, error) {
	prompt := fmt.Sprintf(`以下の記事群から業界の月次動向をまとめてください：

%s

800字程度で以下の観点でまとめてください：
1. 技術動向のハイライト
2. 市場・企業動向のポイント
3. 注目すべき今後の展望`, joinArticles(articles))

	response, err := c.generate(ctx, prompt)
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(response), nil
}

func (c *OllamaClient) generate(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(ollamaRequest{
		Model:  c.model,
		Prompt: prompt,
		Stream: false,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	reqURL := c.base.JoinPath("/api/generate")
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL.String(), bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to call ollama: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ollama error %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var parsed ollamaResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("failed to parse ollama response: %w", err)
	}

	return parsed.Response, nil
}

// splitList parses a comma-separated value, tolerating surrounding
// brackets from models that echo the requested format literally.
func splitList(value string) []string {
	value = strings.Trim(strings.TrimSpace(value), "[]")

	var items []string
	for _, item := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}
