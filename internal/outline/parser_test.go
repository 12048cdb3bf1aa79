package outline

import "testing"

const wellFormed = `---記事1---
タイトル: 星座占いの基礎知識
キーワード: 星座占い, 運勢, 初心者
概要: 星座占いの仕組みを初心者向けに解説します。

---記事2---
タイトル: タロットカードの選び方
キーワード: タロット, カード, 選び方
概要: 自分に合うタロットデッキの選び方を紹介します。

---記事3---
タイトル: 手相の見方入門
キーワード: 手相, 生命線, 入門
概要: 代表的な線の読み方をまとめます。
`

func TestParseWellFormedBlocks(t *testing.T) {
	t.Parallel()

	records := Parse(wellFormed)
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}

	first := records[0]
	if first.Title != "星座占いの基礎知識" {
		t.Fatalf("unexpected title: %q", first.Title)
	}
	if first.Keywords != "星座占い, 運勢, 初心者" {
		t.Fatalf("unexpected keywords: %q", first.Keywords)
	}
	if first.Summary != "星座占いの仕組みを初心者向けに解説します。" {
		t.Fatalf("unexpected summary: %q", first.Summary)
	}

	for i, record := range records {
		if !record.Valid() {
			t.Fatalf("record %d should be valid: %+v", i, record)
		}
	}
}

func TestParseMissingSummary(t *testing.T) {
	t.Parallel()

	text := "---記事1---\nタイトル: 見出しだけ\nキーワード: 占い\n"

	records := Parse(text)
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0].Summary != "" {
		t.Fatalf("summary should be empty, got %q", records[0].Summary)
	}
	if records[0].Valid() {
		t.Fatalf("record missing summary must not validate")
	}
}

func TestParseReorderedAndNoisyLines(t *testing.T) {
	t.Parallel()

	text := `前置きのテキストは無視される
---記事5---
概要: 先に概要が来る
無関係な行
キーワード: 順不同
タイトル: 最後にタイトル
`

	records := Parse(text)
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}

	got := records[0]
	if got.Title != "最後にタイトル" || got.Keywords != "順不同" || got.Summary != "先に概要が来る" {
		t.Fatalf("unexpected record: %+v", got)
	}
}

func TestParseDuplicateLabelOverwrites(t *testing.T) {
	t.Parallel()

	text := "---記事1---\nタイトル: 古い\nタイトル: 新しい\nキーワード: k\n概要: s\n"

	records := Parse(text)
	if len(records) != 1 || records[0].Title != "新しい" {
		t.Fatalf("later label must overwrite: %+v", records)
	}
}

func TestParseEmptyInput(t *testing.T) {
	t.Parallel()

	if records := Parse(""); len(records) != 0 {
		t.Fatalf("expected no records, got %d", len(records))
	}
}

func TestParseDelimiterIndexIgnored(t *testing.T) {
	t.Parallel()

	text := "---記事100---\nタイトル: t\nキーワード: k\n概要: s\n---記事---\nタイトル: t2\nキーワード: k2\n概要: s2\n"

	records := Parse(text)
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
}
