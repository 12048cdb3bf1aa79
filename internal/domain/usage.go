package domain

import (
	"time"
	"unicode"
)

// UsageKind tags which pipeline stage issued an AI call.
type UsageKind string

const (
	UsageSiteAnalysis      UsageKind = "site_analysis"
	UsageGroupAnalysis     UsageKind = "group_analysis"
	UsageIntegration       UsageKind = "integration"
	UsageOutline           UsageKind = "outline"
	UsageAdditionalOutline UsageKind = "additional_outline"
	UsageArticleGeneration UsageKind = "article_generation"
)

// UsageLogEntry is an append-only audit record of one AI call.
type UsageLogEntry struct {
	ID              int64
	SiteID          *int64
	ArticleID       *int64
	Model           string
	Kind            UsageKind
	Prompt          string
	Response        string
	TokensEstimated int
	Elapsed         time.Duration
	CreatedAt       time.Time
}

// UsageStat aggregates calls per model and usage kind.
type UsageStat struct {
	Model       string
	Kind        UsageKind
	Calls       int
	TotalTokens int
	AvgElapsed  time.Duration
}

// EstimateTokens approximates the token count of text with a character-count
// heuristic: CJK text runs close to one token per rune, Latin text close to
// one token per four runes. It is an estimate, not a tokenizer.
func EstimateTokens(text string) int {
	runes := []rune(text)
	for _, r := range runes {
		if unicode.In(r, unicode.Hiragana, unicode.Katakana, unicode.Han) {
			return len(runes)
		}
	}
	return len(runes) / 4
}
