// Package taxonomy maps free-form generated category strings onto the
// fixed four-category set used throughout the application.
package taxonomy

import (
	"strings"

	"golang.org/x/text/width"
)

const (
	CategoryPolitics   = "政治"
	CategoryEconomy    = "経済"
	CategorySociety    = "社会"
	CategoryTechnology = "技術"

	// CategoryOther marks articles whose categorization failed entirely.
	CategoryOther = "その他"
)

// Categories is the closed category set.
var Categories = []string{
	CategoryPolitics,
	CategoryEconomy,
	CategorySociety,
	CategoryTechnology,
}

// DisplayOrder is the fixed ordering used when grouping articles for
// rendered output.
var DisplayOrder = []string{
	CategoryTechnology,
	CategoryEconomy,
	CategoryPolitics,
	CategorySociety,
}

type rule struct {
	category string
	keywords []string
}

// Rules are checked in order; the first keyword hit wins.
var rules = []rule{
	{
		category: CategoryTechnology,
		keywords: []string{
			"技術", "テクノロジー", "イノベーション", "先端技術", "生産技術",
			"研究開発", "サプライチェーン", "環境",
			"technology", "innovation", "process", "r&d", "supply chain", "environment",
		},
	},
	{
		category: CategoryEconomy,
		keywords: []string{
			"市場", "マーケット", "需要", "価格", "企業", "会社", "業績", "決算",
			"投資", "買収", "資金調達",
			"market", "demand", "price", "company", "earnings", "m&a", "investment",
		},
	},
	{
		category: CategoryPolitics,
		keywords: []string{
			"政策", "規制", "法律", "政府", "政治", "国の取り組み",
			"policy", "regulation", "law", "government", "politics",
		},
	},
	{
		category: CategorySociety,
		keywords: []string{
			"人材", "採用", "組織", "人事", "社会", "世の中の動き",
			"talent", "hiring", "organization", "social",
		},
	},
}

// Map resolves raw generated category strings to exactly one category.
// Each raw string is tested for exact membership first, then against the
// keyword rules; the first raw string producing a match decides the
// result. No match at all defaults to CategoryTechnology.
func Map(rawCategories []string) string {
	for _, raw := range rawCategories {
		if category, ok := mapOne(raw); ok {
			return category
		}
	}
	return CategoryTechnology
}

func mapOne(raw string) (string, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", false
	}

	for _, category := range Categories {
		if trimmed == category {
			return category, true
		}
	}

	normalized := normalize(trimmed)
	for _, r := range rules {
		for _, keyword := range r.keywords {
			if strings.Contains(normalized, keyword) {
				return r.category, true
			}
		}
	}

	return "", false
}

// normalize lowercases and folds full-width Latin characters so keyword
// matching treats "ＡＩ技術" and "ai技術" alike.
func normalize(s string) string {
	return strings.ToLower(width.Fold.String(s))
}
