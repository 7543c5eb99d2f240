package render

import (
	"fmt"
	"html/template"
	"regexp"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
)

var (
	numberedPattern  = regexp.MustCompile(`(\d+)\.\s`)
	bulletPattern    = regexp.MustCompile(`\*\s(.+)`)
	suggestionPolicy = bluemonday.UGCPolicy()
)

// FormatTime renders t relative to now in Turkish ("şimdi", "5 dk önce", ...).
// Anything a week or older is shown as a date.
func FormatTime(t, now time.Time) string {
	diff := now.Sub(t)
	minutes := int(diff / time.Minute)
	hours := int(diff / time.Hour)
	days := int(diff / (24 * time.Hour))

	switch {
	case minutes < 1:
		return "şimdi"
	case minutes < 60:
		return fmt.Sprintf("%d dk önce", minutes)
	case hours < 24:
		return fmt.Sprintf("%d sa önce", hours)
	case days < 7:
		return fmt.Sprintf("%d gün önce", days)
	default:
		return t.Local().Format("02.01.2006")
	}
}

// FormatSuggestion turns assistant output into HTML: line breaks become <br>,
// list numbers and "* item" bullets are emphasised.
func FormatSuggestion(text string) template.HTML {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	for i, line := range lines {
		line = numberedPattern.ReplaceAllString(line, "<strong>$1.</strong> ")
		line = bulletPattern.ReplaceAllString(line, "• <strong>$1</strong>")
		lines[i] = line
	}
	return template.HTML(suggestionPolicy.Sanitize(strings.Join(lines, "<br>")))
}

// FormatMessage escapes text and keeps its line breaks.
func FormatMessage(text string) template.HTML {
	escaped := template.HTMLEscapeString(text)
	return template.HTML(strings.ReplaceAll(escaped, "\n", "<br>"))
}
