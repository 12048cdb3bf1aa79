package export

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"articleforge/internal/domain"
)

func TestWriteCSV(t *testing.T) {
	t.Parallel()

	publish := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	created := time.Date(2025, 2, 14, 9, 30, 0, 0, time.UTC)
	articles := []domain.Article{
		{
			ID:          7,
			Title:       "今日の運勢を上げる習慣",
			SEOKeywords: "運勢, 開運, 習慣",
			Summary:     "朝の習慣で運気を整える方法。",
			Content:     "本文です。\n改行も含みます。",
			PublishDate: &publish,
			CreatedAt:   created,
		},
		{
			ID:        8,
			Title:     "手相の基本",
			CreatedAt: created,
		},
	}

	var buf bytes.Buffer
	if err := WriteCSV(&buf, articles); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}

	out := buf.String()
	if !strings.HasPrefix(out, "\xEF\xBB\xBF") {
		t.Error("output missing UTF-8 BOM")
	}

	records, err := csv.NewReader(strings.NewReader(strings.TrimPrefix(out, "\xEF\xBB\xBF"))).ReadAll()
	if err != nil {
		t.Fatalf("parse output: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("got %d records, want header + 2 rows", len(records))
	}
	if records[0][1] != "タイトル" {
		t.Errorf("header[1] = %q", records[0][1])
	}
	if records[1][0] != "7" || records[1][5] != "2025-03-01" {
		t.Errorf("row 1 = %v", records[1])
	}
	if records[2][5] != "" {
		t.Errorf("missing publish date should be empty, got %q", records[2][5])
	}
}

func TestWriteCSVRejectsEmptyList(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := WriteCSV(&buf, nil); err == nil {
		t.Fatal("expected error for empty article list")
	}
	if buf.Len() != 0 {
		t.Errorf("wrote %d bytes for empty list", buf.Len())
	}
}
