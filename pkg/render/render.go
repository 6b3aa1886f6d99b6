// Package render serializes a Document into the reading surface: a
// self-contained HTML file, or plain text for piping.
package render

import (
	"bytes"
	"fmt"
	"html"
	"strings"

	nethtml "golang.org/x/net/html"

	"github.com/dtnitsch/reader-lens/models"
)

// tocThreshold is the minimum outline size worth rendering. Below it a
// table of contents is more clutter than help.
const tocThreshold = 3

const pageStyle = `body{max-width:42rem;margin:2rem auto;padding:0 1rem;font:1.05rem/1.7 Georgia,serif;color:#222}
header{border-bottom:1px solid #ddd;margin-bottom:1.5rem;padding-bottom:1rem}
header p{color:#666;font-size:.9rem}
nav.rl-toc{background:#f7f7f7;padding:.75rem 1.25rem;border-radius:4px}
nav.rl-toc li{list-style:none}
img.rl-media{max-width:100%;height:auto}
.rl-code{background:#f4f4f4;padding:.1rem .3rem;font-family:monospace}
.rl-annotation{border-bottom:1px dotted #888;cursor:help}
.rl-vocab{background:#fdf6d8}
.rl-concept{background:#e3f0fb}`

// HTML renders the full reading surface.
func HTML(document *models.Document) (string, error) {
	content, err := contentHTML(document)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString("<!DOCTYPE html>\n<html")
	if document.Language != "" {
		fmt.Fprintf(&sb, " lang=%q", document.Language)
	}
	sb.WriteString(">\n<head>\n<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&sb, "<title>%s</title>\n", html.EscapeString(document.Title))
	fmt.Fprintf(&sb, "<style>%s</style>\n", pageStyle)
	sb.WriteString("</head>\n<body>\n")

	sb.WriteString("<header>\n")
	fmt.Fprintf(&sb, "<h1>%s</h1>\n", html.EscapeString(document.Title))
	sb.WriteString("<p>")
	sb.WriteString(html.EscapeString(byline(document)))
	sb.WriteString("</p>\n</header>\n")

	if len(document.Headings) > tocThreshold {
		sb.WriteString(tocHTML(document.Headings))
	}

	sb.WriteString("<main>\n")
	sb.WriteString(content)
	sb.WriteString("\n</main>\n</body>\n</html>\n")
	return sb.String(), nil
}

// Text renders title, byline and body as plain text.
func Text(document *models.Document) string {
	var sb strings.Builder
	sb.WriteString(document.Title)
	sb.WriteString("\n")
	sb.WriteString(byline(document))
	sb.WriteString("\n\n")
	sb.WriteString(document.PlainText())
	sb.WriteString("\n")
	return sb.String()
}

func contentHTML(document *models.Document) (string, error) {
	if document.Content == nil {
		return "", nil
	}
	var buf bytes.Buffer
	if err := nethtml.Render(&buf, document.Content); err != nil {
		return "", fmt.Errorf("failed to render content: %w", err)
	}
	return buf.String(), nil
}

func tocHTML(headings []models.Heading) string {
	var sb strings.Builder
	sb.WriteString("<nav class=\"rl-toc\">\n<ul>\n")
	for _, heading := range headings {
		fmt.Fprintf(&sb, "<li style=\"margin-left:%drem\"><a href=\"#%s\">%s</a></li>\n",
			heading.Level-1, html.EscapeString(heading.AnchorID), html.EscapeString(heading.Text))
	}
	sb.WriteString("</ul>\n</nav>\n")
	return sb.String()
}

// byline assembles the metadata line: site, author, date, reading time.
func byline(document *models.Document) string {
	var parts []string
	if document.SiteName != "" {
		parts = append(parts, document.SiteName)
	}
	if document.Author != "" {
		parts = append(parts, document.Author)
	}
	if document.PublishDate != nil {
		parts = append(parts, document.PublishDate.Format("2006-01-02"))
	}
	parts = append(parts, fmt.Sprintf("%d min read", document.ReadingTimeMinutes))
	return strings.Join(parts, " · ")
}
