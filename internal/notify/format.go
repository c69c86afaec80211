package notify

import (
	"regexp"
	"strings"
)

// ParseMode selects the markup dialect of outgoing messages.
type ParseMode string

const (
	ParseModeNone       ParseMode = ""
	ParseModeMarkdown   ParseMode = "Markdown"
	ParseModeMarkdownV2 ParseMode = "MarkdownV2"
	ParseModeHTML       ParseMode = "HTML"
)

var markdownV2Specials = []string{
	"_", "*", "[", "]", "(", ")", "~", "`", ">", "#", "+", "-", "=", "|", "{", "}", ".", "!",
}

var (
	htmlCodeBlockRe = regexp.MustCompile("(?s)```(.*?)```")
	htmlCodeRe      = regexp.MustCompile("`([^`]+)`")
	htmlBoldRe      = regexp.MustCompile(`\*([^*]+)\*`)
)

// FormatMessage renders text for the given parse mode. Messages are authored
// in Markdown; Markdown passes through, MarkdownV2 escapes the dialect's
// special characters, HTML escapes and converts the span markers to tags.
func FormatMessage(text string, mode ParseMode) string {
	switch mode {
	case ParseModeMarkdown:
		return text
	case ParseModeMarkdownV2:
		return escapeMarkdownV2(text)
	case ParseModeHTML:
		return formatHTML(text)
	default:
		return text
	}
}

func escapeMarkdownV2(text string) string {
	for _, ch := range markdownV2Specials {
		text = strings.ReplaceAll(text, ch, `\`+ch)
	}
	return text
}

func escapeHTML(text string) string {
	replacer := strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
		"'", "&#39;",
	)
	return replacer.Replace(text)
}

func formatHTML(text string) string {
	text = escapeHTML(text)
	text = htmlCodeBlockRe.ReplaceAllString(text, "<pre><code>$1</code></pre>")
	text = htmlCodeRe.ReplaceAllString(text, "<code>$1</code>")
	text = htmlBoldRe.ReplaceAllString(text, "<b>$1</b>")
	return text
}
