// Package llm provides interchangeable text-generation backends used for
// article summarization, category inference and monthly digests.
package llm

import "context"

// Fallback values returned by callers when every generation attempt fails.
const (
	FallbackSummary = "要約生成に失敗しました"
	FallbackDigest  = "月次まとめの生成に失敗しました"
)

// FallbackCategories is the single-element category list used when
// category inference fails.
func FallbackCategories() []string {
	return []string{"その他"}
}

// Client is the capability set every generation backend implements.
type Client interface {
	// GenerateSummaryAndLabels produces a short summary and a tag list
	// for one article body.
	GenerateSummaryAndLabels(ctx context.Context, articleText string) (string, []string, error)

	// GenerateCategories infers free-form category strings for one
	// article body.
	GenerateCategories(ctx context.Context, articleText string) ([]string, error)

	// GenerateMonthlyDigest produces a single digest text over a set of
	// article summaries.
	GenerateMonthlyDigest(ctx context.Context, articles []string) (string, error)
}
