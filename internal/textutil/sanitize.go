// Package textutil normalizes arbitrary fetched text to clean UTF-8 before it
// enters prompts or storage. Every function here is total: bad input yields a
// reduced string, never an error.
package textutil

import (
	"html"
	"strings"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
)

// Candidate source encodings, checked in this order. Anything else is treated
// as already-broken UTF-8 and repaired by dropping invalid sequences.
var candidateEncodings = map[string]encoding.Encoding{
	"shift_jis":    japanese.ShiftJIS,
	"euc-jp":       japanese.EUCJP,
	"iso-8859-1":   charmap.ISO8859_1,
	"windows-1252": charmap.Windows1252,
}

// CleanWebText normalizes text extracted from a crawled page: transcodes to
// UTF-8, decodes HTML entities, strips control and astral characters, and
// collapses whitespace runs to single spaces.
func CleanWebText(text string) string {
	if text == "" {
		return ""
	}

	text = forceUTF8(text)
	text = html.UnescapeString(text)
	text = stripControl(text)
	text = stripAstral(text)
	text = strings.Join(strings.Fields(text), " ")
	text = whitelistIfInvalid(text)

	return strings.TrimSpace(text)
}

// CleanPromptText normalizes text bound for an AI request body. Unlike
// CleanWebText it keeps line breaks and does not decode entities, so prompt
// structure survives the pass.
func CleanPromptText(text string) string {
	if text == "" {
		return ""
	}

	text = forceUTF8(text)
	text = stripControl(text)
	text = stripAstral(text)
	text = whitelistIfInvalid(text)

	return strings.TrimSpace(text)
}

// SanitizeDeep walks a decoded JSON-like value and sanitizes every string in
// it. Used as the retry path when a request body fails to encode.
func SanitizeDeep(value any) any {
	switch v := value.(type) {
	case string:
		return CleanPromptText(v)
	case map[string]any:
		for k, inner := range v {
			v[k] = SanitizeDeep(inner)
		}
		return v
	case []any:
		for i := range v {
			v[i] = SanitizeDeep(v[i])
		}
		return v
	default:
		return value
	}
}

// forceUTF8 detects the source encoding against the fixed candidate list and
// transcodes to UTF-8; text that is already valid UTF-8 passes through.
// Undecodable remainders are dropped rather than surfaced.
func forceUTF8(text string) string {
	if utf8.ValidString(text) {
		return text
	}

	if enc := detectEncoding([]byte(text)); enc != nil {
		if decoded, err := enc.NewDecoder().String(text); err == nil && utf8.ValidString(decoded) {
			return decoded
		}
	}

	return strings.ToValidUTF8(text, "")
}

func detectEncoding(raw []byte) encoding.Encoding {
	results, err := chardet.NewTextDetector().DetectAll(raw)
	if err != nil {
		return nil
	}

	for _, result := range results {
		if enc, ok := candidateEncodings[strings.ToLower(result.Charset)]; ok {
			return enc
		}
	}

	return nil
}

// stripControl removes ASCII control characters, keeping tab, newline and
// carriage return.
func stripControl(text string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\t' || r == '\n' || r == '\r':
			return r
		case r < 0x20 || r == 0x7F:
			return -1
		default:
			return r
		}
	}, text)
}

// stripAstral drops code points outside the Basic Multilingual Plane (emoji
// and other 4-byte sequences) that legacy storage targets cannot hold.
func stripAstral(text string) string {
	return strings.Map(func(r rune) rune {
		if r > 0xFFFF {
			return -1
		}
		return r
	}, text)
}

// whitelistIfInvalid is the last-resort repair: when the pipeline output still
// fails UTF-8 validation, keep only printable ASCII and the common CJK ranges.
func whitelistIfInvalid(text string) string {
	if utf8.ValidString(text) {
		return text
	}

	var b strings.Builder
	for _, r := range text {
		switch {
		case r >= 0x20 && r <= 0x7E:
			b.WriteRune(r)
		case r >= 0x3000 && r <= 0x9FFF:
			b.WriteRune(r)
		case r >= 0xFF00 && r <= 0xFFEF:
			b.WriteRune(r)
		}
	}
	return b.String()
}
