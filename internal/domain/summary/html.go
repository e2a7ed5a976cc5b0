package summary

import (
	"html"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// RenderBullets renders bullets as an escaped <ul> list.
func RenderBullets(bullets []string) string {
	var sb strings.Builder
	sb.WriteString("<ul>")
	for _, b := range bullets {
		sb.WriteString("<li>")
		sb.WriteString(html.EscapeString(b))
		sb.WriteString("</li>")
	}
	sb.WriteString("</ul>")
	return sb.String()
}

// ExtractBullets recovers a bullet list from rendered HTML. It reads <li>
// elements when present and otherwise splits the document text on lines.
func ExtractBullets(summaryHTML string) []string {
	if strings.TrimSpace(summaryHTML) == "" {
		return nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(summaryHTML))
	if err != nil {
		return splitLines(summaryHTML)
	}

	items := doc.Find("li")
	if items.Length() == 0 {
		return splitLines(doc.Text())
	}
	bullets := make([]string, 0, items.Length())
	items.Each(func(_ int, s *goquery.Selection) {
		if text := strings.TrimSpace(s.Text()); text != "" {
			bullets = append(bullets, text)
		}
	})
	return bullets
}

func splitLines(text string) []string {
	var bullets []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.Trim(line, " -\t\r")
		if line != "" {
			bullets = append(bullets, line)
		}
	}
	return bullets
}
