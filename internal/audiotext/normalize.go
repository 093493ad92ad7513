// Package audiotext rewrites extracted article text into a form a speech
// synthesizer reads naturally: no visual navigation phrases, no raw URLs,
// symbols spelled out and bullet lists read as ordinals.
package audiotext

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

// LinkPlaceholder replaces every URL.
const LinkPlaceholder = "（リンク）"

var visualInstructions = []*regexp.Regexp{
	regexp.MustCompile(`(?i)下記のリンクをクリック`),
	regexp.MustCompile(`(?i)上記のリンクをクリック`),
	regexp.MustCompile(`(?i)こちらをクリック`),
	regexp.MustCompile(`(?i)詳細はこちら`),
	regexp.MustCompile(`(?i)下記のリンク`),
	regexp.MustCompile(`(?i)上記のリンク`),
	regexp.MustCompile(`(?i)→詳細を見る`),
	regexp.MustCompile(`(?i)▶.*?を見る`),
	regexp.MustCompile(`(?i)↓.*?はこちら`),
	regexp.MustCompile(`(?i)\[続きを読む\]`),
	regexp.MustCompile(`(?i)＞＞続きを読む`),
	regexp.MustCompile(`(?i)…続きを読む`),
	regexp.MustCompile(`(?im)続きはこちら.*$`),
}

var (
	urlPattern        = regexp.MustCompile(`(?i)https?://[\w/:%#\$&\?\(\)~\.=\+\-]+|www\.[\w/:%#\$&\?\(\)~\.=\+\-]+`)
	annotationPattern = regexp.MustCompile(`[（(](?:写真|画像|図|表|グラフ|出典|引用|参照|クリックで拡大)[）)]`)

	numberedLine = regexp.MustCompile(`^\d+\.`)
	bulletMarker = regexp.MustCompile(`^[・•\-\*][\s\p{Z}]*`)

	excessNewlines = regexp.MustCompile(`\n{3,}`)
	repeatedComma  = regexp.MustCompile(`、{2,}`)
	repeatedPeriod = regexp.MustCompile(`。{2,}`)
	mixedStops     = regexp.MustCompile(`[、。]{2,}`)
	repeatedSpace  = regexp.MustCompile(` {2,}`)
	repeatedIdeoSp = regexp.MustCompile(`　{2,}`)
)

// symbolReplacer spells out glyphs the synthesizer would skip or misread,
// including CJK radical code points that look like ordinary kanji.
var symbolReplacer = strings.NewReplacer(
	"※", "、なお、",
	"★", "、", "☆", "、", "●", "、", "○", "、",
	"■", "、", "□", "、", "▼", "、", "▲", "、",
	"→", "、", "⇒", "、", "←", "、", "⇐", "、",
	"¥", "円", "￥", "円",
	"⾦", "金", "⽰", "示", "⾨", "門", "⾷", "食",
	"⾺", "馬", "⿂", "魚", "⿃", "鳥", "⿓", "竜",
)

var bracketReplacer = strings.NewReplacer("【", "（", "】", "）", "(", "（", ")", "）")

var bulletPrefixes = []string{"・", "•", "-", "*", "1.", "2.", "3."}

// Normalize prepares extracted article text for speech synthesis.
// Passes run in a fixed order; each relies on the shape left by the previous one.
//
// Normalize is idempotent except for annotations in lenticular brackets:
// "【写真】" survives the annotation pass and becomes "（写真）", which a
// second call then removes.
func Normalize(text string) string {
	if text == "" {
		return text
	}

	text = removeVisualInstructions(text)
	text = replaceURLs(text)
	text = annotationPattern.ReplaceAllString(text, "")
	text = symbolReplacer.Replace(text)
	text = formatBullets(text)
	text = normalizeWhitespace(text)
	text = bracketReplacer.Replace(text)
	text = collapsePunctuation(text)
	text = collapseSpaces(text)

	return strings.TrimSpace(text)
}

// NormalizeSummary is the light variant for short generated summaries:
// URLs, symbols and blank lines only.
func NormalizeSummary(text string) string {
	if text == "" {
		return text
	}

	text = replaceURLs(text)
	text = symbolReplacer.Replace(text)
	text = normalizeWhitespace(text)

	return strings.TrimSpace(text)
}

func removeVisualInstructions(text string) string {
	for _, pattern := range visualInstructions {
		text = pattern.ReplaceAllString(text, "")
	}
	return text
}

func replaceURLs(text string) string {
	return urlPattern.ReplaceAllString(text, LinkPlaceholder)
}

// formatBullets renumbers marker bullets as spoken ordinals ("1つ目、…").
// Numbered lines pass through; a non-empty non-bullet line restarts the count.
func formatBullets(text string) string {
	lines := strings.Split(text, "\n")
	count := 0

	for i, line := range lines {
		stripped := strings.TrimSpace(line)
		if stripped == "" {
			continue
		}
		if !isBullet(stripped) {
			count = 0
			continue
		}

		count++
		if numberedLine.MatchString(stripped) {
			lines[i] = stripped
			continue
		}
		lines[i] = fmt.Sprintf("%dつ目、%s", count, bulletMarker.ReplaceAllString(stripped, ""))
	}

	return strings.Join(lines, "\n")
}

func isBullet(line string) bool {
	for _, prefix := range bulletPrefixes {
		if strings.HasPrefix(line, prefix) {
			return true
		}
	}
	return false
}

// normalizeWhitespace strips trailing whitespace per line, then caps blank
// runs at one empty line. Stripping first keeps the pass idempotent.
func normalizeWhitespace(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRightFunc(line, unicode.IsSpace)
	}
	return excessNewlines.ReplaceAllString(strings.Join(lines, "\n"), "\n\n")
}

func collapsePunctuation(text string) string {
	text = repeatedComma.ReplaceAllString(text, "、")
	text = repeatedPeriod.ReplaceAllString(text, "。")
	return mixedStops.ReplaceAllString(text, "。")
}

func collapseSpaces(text string) string {
	text = repeatedSpace.ReplaceAllString(text, " ")
	return repeatedIdeoSp.ReplaceAllString(text, "　")
}
