// Package prompts assembles the Japanese prompt bodies sent to the AI
// backends. The wording is load-bearing: the outline prompts pin the exact
// record format the outline parser expects back.
package prompts

import (
	"fmt"
	"strings"

	"articleforge/internal/domain"
)

// promptContentLimit caps how much of one page's text is quoted in a prompt.
const promptContentLimit = 2000

// Analysis builds the single-shot site analysis prompt over fetched pages.
func Analysis(contents []domain.PageContent) string {
	var b strings.Builder
	b.WriteString("以下のサイトの内容を分析して、このサイトに最適化されたコラム記事を作成するための特徴とキーワードを分析してください。\n\n")

	writePageContents(&b, contents)

	b.WriteString("以下の観点で分析し、マークダウン形式で出力してください：\n")
	b.WriteString("1. サイトの特徴とテーマ\n")
	b.WriteString("2. ターゲット読者層と興味関心\n")
	b.WriteString("3. SEOに有効なキーワード（主要キーワード、関連キーワード、ロングテールキーワード）\n")
	b.WriteString("4. コンテンツの傾向とトーン\n")
	b.WriteString("5. 記事作成時の注意点\n")
	b.WriteString("6. 競合他社分析と差別化ポイント\n")
	b.WriteString("7. 検索意図と読者のニーズ\n")

	return b.String()
}

// GroupAnalysis builds the per-group prompt. The group index and total are
// stated up front so each group's output is self-describing when integrated.
func GroupAnalysis(contents []domain.PageContent, groupIndex, totalGroups int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "以下のサイトの内容を分析してください。これは全%dグループ中の%d番目のグループです。\n\n", totalGroups, groupIndex)

	writePageContents(&b, contents)

	b.WriteString("このグループの特徴を以下の観点で分析し、簡潔にマークダウン形式で出力してください：\n")
	b.WriteString("1. サイト群の特徴とテーマ\n")
	b.WriteString("2. ターゲット読者層と興味関心\n")
	b.WriteString("3. SEOに有効なキーワード（主要キーワード、関連キーワード、ロングテールキーワード）\n")
	b.WriteString("4. コンテンツの傾向とトーン\n")
	b.WriteString("5. 検索意図と読者のニーズ\n")
	b.WriteString("\n注意：これは複数グループの一部なので、他のグループと統合できるような形式で分析してください。\n")

	return b.String()
}

// Integration builds the consolidation prompt. Analyses are emitted under
// numbered group headers in exactly the order given, which keeps the output
// reproducible for a fixed input ordering.
func Integration(analyses []string, totalURLs int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "以下は複数のサイトグループ（合計%d個のURL）を分析した結果です。これらを統合して、このサイトに最適化されたコラム記事を作成するための総合的な分析を行ってください。\n\n", totalURLs)

	for i, analysis := range analyses {
		fmt.Fprintf(&b, "=== グループ%dの分析結果 ===\n", i+1)
		b.WriteString(analysis)
		b.WriteString("\n\n")
	}

	b.WriteString("上記の分析結果を統合して、以下の観点で総合的な分析をマークダウン形式で出力してください：\n")
	b.WriteString("1. 全体的なサイトの特徴とテーマ\n")
	b.WriteString("2. ターゲット読者層と興味関心（重要度順）\n")
	b.WriteString("3. SEOに有効なキーワード（出現頻度と重要度を考慮）\n")
	b.WriteString("4. コンテンツの傾向と分析\n")
	b.WriteString("5. 記事作成時の注意点\n")
	b.WriteString("6. 推奨される記事戦略\n")
	b.WriteString("7. 競合他社分析と差別化ポイント\n")
	b.WriteString("8. 検索意図と読者のニーズ\n")

	return b.String()
}

// Outline requests count outline records in the parseable record format.
func Outline(analysis string, count int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "以下のサイト分析結果を基に、コラム記事を%d記事分作成してください。\n\n", count)
	b.WriteString("分析結果:\n")
	b.WriteString(analysis)
	b.WriteString("\n\n")
	writeOutlineFormat(&b, count)

	return b.String()
}

// AdditionalOutline requests count more records beyond an existing batch.
func AdditionalOutline(analysis string, existingCount, count int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "以下のサイト分析結果を基に、コラム記事を%d記事分作成してください。\n\n", count)
	b.WriteString("分析結果:\n")
	b.WriteString(analysis)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "既に%d記事が存在します。既存の記事と重複しない新しいテーマで作成してください。\n\n", existingCount)
	writeOutlineFormat(&b, count)

	return b.String()
}

// Article builds the full generation prompt for one article stub, including
// the fixed structural and SEO instructions.
func Article(article domain.Article) string {
	var b strings.Builder
	b.WriteString("以下の記事概要を基に、ターゲット読者に最適化された詳細なコラム記事を作成してください。\n\n")
	fmt.Fprintf(&b, "タイトル: %s\n", article.Title)
	fmt.Fprintf(&b, "SEOキーワード: %s\n", article.SEOKeywords)
	fmt.Fprintf(&b, "概要: %s\n\n", article.Summary)

	b.WriteString("記事の要件：\n")
	b.WriteString("- 必ず10,000文字以上の詳細な記事を作成する（これは最重要要件です）\n")
	b.WriteString("- 完全なマークダウン形式で出力する\n")
	b.WriteString("- ターゲット読者が求める価値のある内容\n")
	b.WriteString("- SEOを意識したキーワードの自然な配置（キーワード密度2-3%程度）\n")
	b.WriteString("- 読みやすい構成（見出し、段落分け、箇条書き）\n")
	b.WriteString("- 具体的で実用的な内容\n")
	b.WriteString("- 深い洞察と詳細な解説\n")
	b.WriteString("- 例や事例を豊富に含む\n")
	b.WriteString("- 実践的なアドバイスとガイダンス\n")
	b.WriteString("- 読者が最後まで読み続けられる魅力的な内容\n")
	b.WriteString("- 各セクションごとに詳しい説明を含む\n")
	b.WriteString("- 検索意図を満たす包括的な情報\n")
	b.WriteString("- 読者が実際に活用できる具体的な方法を提示\n")
	b.WriteString("- 内部リンクの提案（関連記事の想定タイトル）\n")

	b.WriteString("\n記事構成の指針：\n")
	b.WriteString("1. 導入部：読者の関心を引く導入（問題提起、統計データ、興味深い事実）\n")
	b.WriteString("2. 基礎知識：テーマの基本的な説明（初心者にもわかりやすく）\n")
	b.WriteString("3. 詳細解説：具体的な内容の深掘り（専門性の高い情報）\n")
	b.WriteString("4. 実践的な応用：読者が実践できる方法（ステップバイステップ）\n")
	b.WriteString("5. 事例・体験談：具体的な例や体験談（信頼性の向上）\n")
	b.WriteString("6. よくある質問：FAQ形式で疑問を解決\n")
	b.WriteString("7. まとめ・次のステップ：総括と今後の展望\n")

	b.WriteString("\nSEO最適化の注意事項：\n")
	b.WriteString("- タイトルタグとして使用できる魅力的なH1を含める\n")
	b.WriteString("- メタディスクリプションとして使用できる要約を含める\n")
	b.WriteString("- 関連キーワードを自然に文章に組み込む\n")
	b.WriteString("- 読者の検索意図（情報収集、比較検討、購入意向）を意識した内容\n")
	b.WriteString("- E-A-T（専門性・権威性・信頼性）を意識した記述\n")

	b.WriteString("\n重要な注意事項：\n")
	b.WriteString("- 省略表現（「[以下、さらに詳細な解説と実践的なアドバイスが続きます...]」など）は絶対に使用しない\n")
	b.WriteString("- 「この記事の続きをご希望の場合」などの制作者向けメッセージは厳禁\n")
	b.WriteString("- 必ず完全な記事を作成し、最後まで詳細に執筆する\n")
	b.WriteString("- 記事内に文字数や文字数カウントは一切記載しない\n")
	b.WriteString("- 各セクションは充実した内容で執筆する\n")
	b.WriteString("- 独自性のある視点や情報を含める\n")

	return b.String()
}

func writePageContents(b *strings.Builder, contents []domain.PageContent) {
	for _, page := range contents {
		fmt.Fprintf(b, "URL: %s\n", page.URL)
		fmt.Fprintf(b, "内容: %s...\n\n", truncateRunes(page.Text, promptContentLimit))
	}
}

func writeOutlineFormat(b *strings.Builder, count int) {
	fmt.Fprintf(b, "以下の形式で、記事タイトル、SEOキーワード、記事概要をセットで%d記事分出力してください：\n\n", count)
	b.WriteString("---記事1---\n")
	b.WriteString("タイトル: [記事タイトル]\n")
	b.WriteString("キーワード: [SEOキーワード（カンマ区切り）]\n")
	b.WriteString("概要: [記事の概要]\n\n")
	fmt.Fprintf(b, "（%d記事まで繰り返し）\n", count)
}

func truncateRunes(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}
