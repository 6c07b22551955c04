package format

import (
	"regexp"
	"strings"
)

var (
	htmlTag      = regexp.MustCompile(`<[^>]*>`)
	urlPattern   = regexp.MustCompile(`https?://[^\s]+`)
	mentionRegex = regexp.MustCompile(`@(\w+)`)
	hashtagRegex = regexp.MustCompile(`#(\w+)`)
	htmlEscaper  = strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
		"'", "&#039;",
	)
)

// StripHTML removes anything that looks like a tag.
func StripHTML(s string) string {
	return htmlTag.ReplaceAllString(s, "")
}

// EscapeHTML escapes the five HTML special characters.
func EscapeHTML(s string) string {
	return htmlEscaper.Replace(s)
}

// HighlightKeyword wraps case-insensitive matches of keyword in <mark>.
// The keyword is matched literally.
func HighlightKeyword(text, keyword string) string {
	if keyword == "" {
		return text
	}
	re := regexp.MustCompile(`(?i)(` + regexp.QuoteMeta(keyword) + `)`)
	return re.ReplaceAllString(text, "<mark>$1</mark>")
}

// CensorSensitiveWords replaces case-insensitive matches of every word with
// replacement.
func CensorSensitiveWords(text string, words []string, replacement string) string {
	for _, w := range words {
		if w == "" {
			continue
		}
		re := regexp.MustCompile(`(?i)` + regexp.QuoteMeta(w))
		text = re.ReplaceAllLiteralString(text, replacement)
	}
	return text
}

// NewlinesToBr converts line feeds to <br /> tags.
func NewlinesToBr(text string) string {
	return strings.ReplaceAll(text, "\n", "<br />")
}

// ExtractURLs returns every http or https URL in text.
func ExtractURLs(text string) []string {
	urls := urlPattern.FindAllString(text, -1)
	if urls == nil {
		return []string{}
	}
	return urls
}

// ExtractMentions returns the names following @ in text.
func ExtractMentions(text string) []string {
	return submatches(mentionRegex, text)
}

// ExtractHashtags returns the tags following # in text.
func ExtractHashtags(text string) []string {
	return submatches(hashtagRegex, text)
}

func submatches(re *regexp.Regexp, text string) []string {
	out := []string{}
	for _, m := range re.FindAllStringSubmatch(text, -1) {
		out = append(out, m[1])
	}
	return out
}
