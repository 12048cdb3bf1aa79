package textutil

import (
	"strings"
	"testing"

	"golang.org/x/text/encoding/japanese"
)

func TestCleanWebTextCollapsesWhitespace(t *testing.T) {
	t.Parallel()

	got := CleanWebText("  hello \n\n  world\t\tagain  ")
	if got != "hello world again" {
		t.Fatalf("unexpected result: %q", got)
	}
}

func TestCleanWebTextDecodesEntities(t *testing.T) {
	t.Parallel()

	got := CleanWebText("fish &amp; chips &copy; 2024")
	if got != "fish & chips © 2024" {
		t.Fatalf("unexpected result: %q", got)
	}
}

func TestCleanWebTextStripsControlAndEmoji(t *testing.T) {
	t.Parallel()

	got := CleanWebText("star\x01\x02 sign \U0001F600 reading")
	if got != "star sign reading" {
		t.Fatalf("unexpected result: %q", got)
	}
}

func TestCleanWebTextTranscodesShiftJIS(t *testing.T) {
	t.Parallel()

	encoded, err := japanese.ShiftJIS.NewEncoder().String("今日の占いは大吉です。星座のコラムを読みましょう。")
	if err != nil {
		t.Fatalf("encode fixture: %v", err)
	}

	got := CleanWebText(encoded)
	if !strings.Contains(got, "占い") {
		t.Fatalf("expected transcoded japanese text, got %q", got)
	}
}

func TestCleanWebTextEmptyInput(t *testing.T) {
	t.Parallel()

	if got := CleanWebText(""); got != "" {
		t.Fatalf("expected empty string, got %q", got)
	}
}

func TestCleanWebTextIdempotent(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"plain text",
		"  spaced \n out \t text  ",
		"日本語のテキスト　全角スペース",
		"broken \xff\xfe bytes",
		"emoji \U0001F52E gone",
	}

	for _, input := range inputs {
		once := CleanWebText(input)
		twice := CleanWebText(once)
		if once != twice {
			t.Fatalf("not idempotent for %q: %q != %q", input, once, twice)
		}
	}
}

func TestCleanPromptTextKeepsLineBreaks(t *testing.T) {
	t.Parallel()

	got := CleanPromptText("line one\nline two\n\nline three")
	if got != "line one\nline two\n\nline three" {
		t.Fatalf("line breaks were not preserved: %q", got)
	}
}

func TestCleanPromptTextKeepsEntities(t *testing.T) {
	t.Parallel()

	// The prompt variant must not rewrite entity-looking sequences.
	got := CleanPromptText("A &amp; B")
	if got != "A &amp; B" {
		t.Fatalf("entities should be untouched: %q", got)
	}
}

func TestCleanPromptTextIdempotent(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"タイトル: 運勢\n概要: 今週の運勢",
		"control\x00chars\x1F removed",
		"invalid \xc3\x28 utf8",
	}

	for _, input := range inputs {
		once := CleanPromptText(input)
		twice := CleanPromptText(once)
		if once != twice {
			t.Fatalf("not idempotent for %q: %q != %q", input, once, twice)
		}
	}
}

func TestSanitizeDeep(t *testing.T) {
	t.Parallel()

	body := map[string]any{
		"model": "gpt-4o",
		"messages": []any{
			map[string]any{"role": "user", "content": "bad\x01 bytes \U0001F600"},
		},
		"max_tokens": 4000,
	}

	cleaned := SanitizeDeep(body).(map[string]any)

	messages := cleaned["messages"].([]any)
	content := messages[0].(map[string]any)["content"].(string)
	if content != "bad bytes" {
		t.Fatalf("unexpected sanitized content: %q", content)
	}
	if cleaned["max_tokens"] != 4000 {
		t.Fatalf("non-string values must pass through unchanged")
	}
}
