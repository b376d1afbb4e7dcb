package pdftext

import (
	"html"
	"strconv"
	"strings"

	"github.com/hyperjump/refproxy/internal/normalize"
)

// RenderHTML builds a minimal HTML page of the attachment's text, one
// section per page, escaped and mojibake-repaired.
func RenderHTML(title string, pages []string) string {
	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n<title>")
	b.WriteString(html.EscapeString(title))
	b.WriteString("</title>\n</head>\n<body>\n")
	for i, page := range pages {
		b.WriteString("<h2>Page ")
		b.WriteString(strconv.Itoa(i + 1))
		b.WriteString("</h2>\n<pre>")
		b.WriteString(html.EscapeString(normalize.Repair(page)))
		b.WriteString("</pre>\n")
	}
	b.WriteString("</body>\n</html>\n")
	return b.String()
}
