package telegram

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	reCodeBlock  = regexp.MustCompile("```[\\w]*\\n?([\\s\\S]*?)```")
	reInlineCode = regexp.MustCompile("`([^`\n]+)`")
	reHeading    = regexp.MustCompile(`(?m)^#{1,6}\s+(.+)$`)
	reLink       = regexp.MustCompile(`\[([^\]]+)\]\(([^)]+)\)`)
	reBold       = regexp.MustCompile(`\*\*(.+?)\*\*`)
	reBoldAlt    = regexp.MustCompile(`__(.+?)__`)
	reStrike     = regexp.MustCompile(`~~(.+?)~~`)
)

// markdownToHTML converts the Markdown subset models usually produce into
// Telegram HTML. Code is extracted first so its content is never reformatted.
func markdownToHTML(text string) string {
	if text == "" {
		return ""
	}

	var blocks, inline []string
	text = reCodeBlock.ReplaceAllStringFunc(text, func(s string) string {
		blocks = append(blocks, reCodeBlock.FindStringSubmatch(s)[1])
		return fmt.Sprintf("\x00CB%d\x00", len(blocks)-1)
	})
	text = reInlineCode.ReplaceAllStringFunc(text, func(s string) string {
		inline = append(inline, reInlineCode.FindStringSubmatch(s)[1])
		return fmt.Sprintf("\x00IC%d\x00", len(inline)-1)
	})

	text = reHeading.ReplaceAllString(text, "**$1**")
	text = escapeHTML(text)
	text = reLink.ReplaceAllString(text, `<a href="$2">$1</a>`)
	text = reBold.ReplaceAllString(text, "<b>$1</b>")
	text = reBoldAlt.ReplaceAllString(text, "<b>$1</b>")
	text = reStrike.ReplaceAllString(text, "<s>$1</s>")

	for i, code := range inline {
		text = strings.ReplaceAll(text, fmt.Sprintf("\x00IC%d\x00", i), "<code>"+escapeHTML(code)+"</code>")
	}
	for i, code := range blocks {
		text = strings.ReplaceAll(text, fmt.Sprintf("\x00CB%d\x00", i), "<pre><code>"+escapeHTML(code)+"</code></pre>")
	}
	return text
}

func escapeHTML(text string) string {
	text = strings.ReplaceAll(text, "&", "&amp;")
	text = strings.ReplaceAll(text, "<", "&lt;")
	text = strings.ReplaceAll(text, ">", "&gt;")
	return text
}

// splitMessage breaks text into chunks of at most limit runes, preferring
// line breaks, then spaces.
func splitMessage(text string, limit int) []string {
	runes := []rune(text)
	if len(runes) <= limit {
		return []string{text}
	}

	var chunks []string
	for len(runes) > limit {
		cut := lastIndex(runes[:limit], '\n')
		if cut <= 0 {
			cut = lastIndex(runes[:limit], ' ')
		}
		if cut <= 0 {
			cut = limit
		}
		chunks = append(chunks, strings.TrimRight(string(runes[:cut]), " \n"))
		runes = runes[cut:]
		for len(runes) > 0 && (runes[0] == '\n' || runes[0] == ' ') {
			runes = runes[1:]
		}
	}
	if len(runes) > 0 {
		chunks = append(chunks, string(runes))
	}
	return chunks
}

func lastIndex(runes []rune, r rune) int {
	for i := len(runes) - 1; i >= 0; i-- {
		if runes[i] == r {
			return i
		}
	}
	return -1
}
