package reply

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/tidwall/gjson"
)

// MaxLength is Discord's hard limit on message content, in characters.
const MaxLength = 2000

// EmptyPlaceholder replaces generated text that is empty after trimming.
const EmptyPlaceholder = "[No response from Gemini AI]"

// Format turns a raw generation result into postable text. It never fails and
// never returns an empty string. Non-string values are rendered with fmt; text
// longer than MaxLength characters is cut to its first MaxLength characters.
func Format(raw any) string {
	var text string
	switch v := raw.(type) {
	case nil:
		text = ""
	case string:
		text = v
	case fmt.Stringer:
		text = v.String()
	default:
		text = fmt.Sprint(v)
	}

	if strings.TrimSpace(text) == "" {
		text = EmptyPlaceholder
	}

	return truncate(text, MaxLength)
}

// UnwrapContent returns the "content" field when text is a JSON object that
// carries a non-empty one. Any other input, including invalid JSON, is
// returned unchanged.
func UnwrapContent(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "{") || !gjson.Valid(trimmed) {
		return text
	}

	content := gjson.Get(trimmed, "content")
	if !content.Exists() || content.Type == gjson.Null {
		return text
	}
	// String() renders nested objects and arrays as their raw JSON.
	if s := content.String(); s != "" {
		return s
	}
	return text
}

func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	count := 0
	for i := range s {
		if count == limit {
			return s[:i]
		}
		count++
	}
	return s
}
