package render

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// HTML renders markdown to HTML. Raw HTML in the source is dropped.
type HTML struct {
	md goldmark.Markdown
}

func NewHTML() *HTML {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			highlighting.NewHighlighting(
				highlighting.WithStyle("monokai"),
			),
		),
		goldmark.WithRendererOptions(
			html.WithHardWraps(),
		),
	)
	return &HTML{md: md}
}

func (h *HTML) Render(content string) (string, error) {
	var buf bytes.Buffer
	if err := h.md.Convert([]byte(content), &buf); err != nil {
		return content, fmt.Errorf("markdown conversion: %w", err)
	}
	return buf.String(), nil
}
