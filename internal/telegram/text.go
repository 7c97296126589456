package telegram

import (
	"strings"
	"unicode/utf8"
)

// SplitMessage cuts text into chunks of at most maxLen runes. It prefers a
// paragraph break, then a line break, then a space in the second half of a
// chunk, and cuts hard only when none exists.
func SplitMessage(text string, maxLen int) []string {
	if utf8.RuneCountInString(text) <= maxLen {
		return []string{text}
	}

	var parts []string
	runes := []rune(text)
	for len(runes) > maxLen {
		chunk := string(runes[:maxLen])
		cut := maxLen
		for _, sep := range []string{"\n\n", "\n", " "} {
			if i := strings.LastIndex(chunk, sep); i >= 0 {
				at := utf8.RuneCountInString(chunk[:i]) + utf8.RuneCountInString(sep)
				if at > maxLen/2 {
					cut = at
					break
				}
			}
		}
		parts = append(parts, string(runes[:cut]))
		runes = runes[cut:]
	}
	if len(runes) > 0 {
		parts = append(parts, string(runes))
	}
	return parts
}

// FixMarkdown closes an unbalanced code fence and unbalanced inline code so
// that a legacy Markdown parse has a chance to succeed.
func FixMarkdown(text string) string {
	if strings.Count(text, "```")%2 != 0 {
		text += "\n```"
	}

	var b strings.Builder
	inFence, inline := false, false
	for i := 0; i < len(text); i++ {
		if strings.HasPrefix(text[i:], "```") {
			if inline {
				b.WriteByte('`')
				inline = false
			}
			inFence = !inFence
			b.WriteString("```")
			i += 2
			continue
		}
		if !inFence && text[i] == '`' {
			inline = !inline
		}
		b.WriteByte(text[i])
	}
	if inline {
		b.WriteByte('`')
	}
	return b.String()
}
