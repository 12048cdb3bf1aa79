// Package outline turns delimited AI output into article outline records.
package outline

import (
	"strings"

	"articleforge/internal/domain"
)

// Line prefixes of the outline wire format. The labels are part of the prompt
// contract, so they stay in Japanese regardless of runtime locale.
const (
	recordDelimiter = "---記事"
	titleLabel      = "タイトル:"
	keywordsLabel   = "キーワード:"
	summaryLabel    = "概要:"
)

// Parse scans outline text and collects records. A delimiter line flushes the
// record in progress and opens a new one; labeled lines fill fields of the
// current record, a later duplicate label overwriting the earlier value; all
// other lines are ignored. Parse never rejects a record — callers filter with
// OutlineRecord.Valid before persisting.
func Parse(text string) []domain.OutlineRecord {
	var (
		records []domain.OutlineRecord
		current *domain.OutlineRecord
	)

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)

		switch {
		case strings.HasPrefix(line, recordDelimiter):
			if current != nil {
				records = append(records, *current)
			}
			current = &domain.OutlineRecord{}
		case current == nil:
			// Labeled lines before the first delimiter have no record to fill.
		case strings.HasPrefix(line, titleLabel):
			current.Title = strings.TrimSpace(strings.TrimPrefix(line, titleLabel))
		case strings.HasPrefix(line, keywordsLabel):
			current.Keywords = strings.TrimSpace(strings.TrimPrefix(line, keywordsLabel))
		case strings.HasPrefix(line, summaryLabel):
			current.Summary = strings.TrimSpace(strings.TrimPrefix(line, summaryLabel))
		}
	}

	if current != nil {
		records = append(records, *current)
	}

	return records
}
