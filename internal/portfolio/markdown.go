package portfolio

import (
	"bytes"
	"html/template"
	"log"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// Raw HTML in content is dropped by the renderer.
var md = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
)

// Markdown renders s to HTML for the bio and description blocks. On a
// render error the text is returned escaped.
func Markdown(s string) template.HTML {
	if s == "" {
		return ""
	}
	var buf bytes.Buffer
	if err := md.Convert([]byte(s), &buf); err != nil {
		log.Printf("[Content] markdown render failed: %v", err)
		return template.HTML(template.HTMLEscapeString(s))
	}
	return template.HTML(buf.String())
}
