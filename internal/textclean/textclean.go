package textclean

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

var (
	markupExpr   = regexp.MustCompile(`<[a-zA-Z/!][^>]*>`)
	spaceExpr    = regexp.MustCompile(`[ \t\f\v]+`)
	blankExpr    = regexp.MustCompile(`\n{3,}`)
	headingExpr  = regexp.MustCompile(`^\s{0,3}#{1,6}(\s|$)`)
	boldLineExpr = regexp.MustCompile(`^(\*\*|__)([^*_]+)(\*\*|__)\s*(:?)$`)
)

// PlainText converts an article body to plain text. Bodies without markup
// are only whitespace-normalized.
func PlainText(body string) string {
	if !markupExpr.MatchString(body) {
		return normalize(body)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return normalize(markupExpr.ReplaceAllString(body, " "))
	}

	doc.Find("script, style, noscript").Remove()
	doc.Find("br").ReplaceWithHtml("\n")
	doc.Find("p, div, li, h1, h2, h3, h4, h5, h6, blockquote").Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml("\n")
	})

	return normalize(doc.Text())
}

// Prefix returns at most n characters of s without splitting a rune.
func Prefix(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}

// StripStructure removes heading lines and lines that only carry a section
// label. A bold line is a label when its text is a known label or ends with
// a colon; any other bold line is prose and keeps its text without the markers.
func StripStructure(text string, labels []string) string {
	known := make(map[string]struct{}, len(labels))
	for _, label := range labels {
		known[labelKey(label)] = struct{}{}
	}

	lines := strings.Split(text, "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)

		if headingExpr.MatchString(line) {
			continue
		}
		if m := boldLineExpr.FindStringSubmatch(trimmed); m != nil {
			inner := strings.TrimSpace(m[2])
			if _, ok := known[labelKey(inner)]; ok || m[4] == ":" || strings.HasSuffix(inner, ":") {
				continue
			}
			line, trimmed = inner, inner
		}
		if _, ok := known[labelKey(trimmed)]; ok && trimmed != "" {
			continue
		}

		if label, rest, found := strings.Cut(trimmed, ":"); found {
			if _, ok := known[labelKey(label)]; ok {
				rest = strings.TrimSpace(strings.TrimLeft(rest, "*_"))
				if rest == "" {
					continue
				}
				line = rest
			}
		}

		kept = append(kept, line)
	}

	return normalize(strings.Join(kept, "\n"))
}

func labelKey(s string) string {
	s = strings.Trim(strings.TrimSpace(s), `*_"':`)
	return strings.ToLower(strings.TrimSpace(s))
}

func normalize(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = spaceExpr.ReplaceAllString(s, " ")

	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	s = strings.Join(lines, "\n")
	s = blankExpr.ReplaceAllString(s, "\n\n")

	return strings.TrimSpace(s)
}
