package enrich

import (
	"fmt"
	"strings"

	"ainewsbot/types"
)

const (
	maxPromptContent = 3000
	defaultScore     = 3

	systemPrompt = "あなたはAI・テクノロジー分野に精通したビジネスアナリストです。" +
		"ニュース記事を的確に要約し、ビジネスパーソンにとっての重要度を評価します。"

	summaryMarker = "【要約】"
	scoreMarker   = "【スコア】"
)

const promptTemplate = `以下のAIニュース記事を分析してください。

【タイトル】
%s

【本文】
%s

---
以下の2つを出力してください：

## 1. 要約（150〜200文字）
- 何が発表/発生したのか（Who/What）
- ビジネスへの影響や意義
- 今後の展望（あれば）

## 2. 重要度スコア（1〜5の整数）
以下の基準で評価：
- 5: 業界全体に影響する重大ニュース（大手企業の大規模導入、画期的な技術発表など）
- 4: 注目すべき重要ニュース（具体的な成果・数値あり、国内大手企業の事例）
- 3: 参考になるニュース（一般的な導入事例、技術解説）
- 2: 軽い情報（イベント告知、小規模な取り組み）
- 1: 重要度低い（プレスリリースのみ、内容薄い）

---
以下の形式で出力してください：
【要約】
（要約文）

【スコア】
（1〜5の数字のみ）`

// BuildPrompt renders the summarization prompt for an article.
func BuildPrompt(a types.Article) string {
	content := []rune(a.Content)
	if len(content) > maxPromptContent {
		content = content[:maxPromptContent]
	}
	return fmt.Sprintf(promptTemplate, a.Title, string(content))
}

// ParseResponse extracts the summary and the 1-5 score from a model reply.
// A reply without the summary marker is used whole; a missing score means 3.
func ParseResponse(reply string) (string, int, error) {
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return "", 0, fmt.Errorf("empty reply")
	}

	summary, score := reply, defaultScore
	if strings.Contains(reply, summaryMarker) {
		parts := strings.SplitN(reply, scoreMarker, 2)
		summary = strings.TrimSpace(strings.ReplaceAll(parts[0], summaryMarker, ""))
		if len(parts) > 1 {
			for _, r := range parts[1] {
				if r >= '0' && r <= '9' {
					score = int(r - '0')
					break
				}
			}
		}
	}
	if summary == "" {
		return "", 0, fmt.Errorf("reply has no summary: %q", reply)
	}
	return summary, clampScore(score), nil
}

func clampScore(s int) int {
	return max(1, min(5, s))
}
