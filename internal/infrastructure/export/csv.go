// Package export writes generated articles as spreadsheet-friendly CSV.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"articleforge/internal/domain"
)

// utf8BOM makes Excel open the file as UTF-8 instead of the locale encoding.
const utf8BOM = "\xEF\xBB\xBF"

var header = []string{"ID", "タイトル", "SEOキーワード", "概要", "記事内容", "投稿日時", "作成日"}

// WriteCSV streams the articles to w as a BOM-prefixed CSV with a Japanese
// header row. Only generated articles should be passed in; the caller filters.
func WriteCSV(w io.Writer, articles []domain.Article) error {
	if len(articles) == 0 {
		return fmt.Errorf("no articles to export")
	}

	if _, err := io.WriteString(w, utf8BOM); err != nil {
		return fmt.Errorf("write bom: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, a := range articles {
		publishDate := ""
		if a.PublishDate != nil {
			publishDate = a.PublishDate.Format("2006-01-02")
		}
		record := []string{
			strconv.FormatInt(a.ID, 10),
			a.Title,
			a.SEOKeywords,
			a.Summary,
			a.Content,
			publishDate,
			a.CreatedAt.Format("2006-01-02 15:04:05"),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write article %d: %w", a.ID, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}
