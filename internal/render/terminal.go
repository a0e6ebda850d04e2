package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"

	"stream-chat/internal/logging"
)

// Terminal renders markdown to ANSI text with glamour
type Terminal struct {
	renderer *glamour.TermRenderer
}

// NewTerminal creates a markdown renderer with fallback handling. style is a
// glamour standard style name or "auto".
func NewTerminal(style string, width int) *Terminal {
	wrap := width - 10
	if wrap < 20 {
		wrap = 20
	}

	styleOpt := glamour.WithAutoStyle()
	if style != "" && style != "auto" {
		styleOpt = glamour.WithStandardStyle(style)
	}

	renderer, err := glamour.NewTermRenderer(styleOpt, glamour.WithWordWrap(wrap))
	if err == nil {
		return &Terminal{renderer: renderer}
	}

	logging.Error("Failed to create markdown renderer with style %q: %v, trying fallback", style, err)

	renderer, err = glamour.NewTermRenderer(glamour.WithWordWrap(wrap))
	if err == nil {
		return &Terminal{renderer: renderer}
	}

	logging.Error("Failed to create markdown renderer with basic style: %v, using no style", err)

	renderer, err = glamour.NewTermRenderer()
	if err != nil {
		logging.Error("Critical: Failed to create basic markdown renderer: %v", err)
		return &Terminal{}
	}

	return &Terminal{renderer: renderer}
}

// Render renders markdown. Panics inside glamour are recovered and reported
// as errors; callers fall back to the raw content.
func (t *Terminal) Render(content string) (out string, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, err = content, fmt.Errorf("panic in markdown rendering: %v", r)
		}
	}()

	if t.renderer == nil {
		return content, nil
	}

	if content == "" {
		return content, nil
	}

	rendered, err := t.renderer.Render(content)
	if err != nil {
		return content, fmt.Errorf("markdown rendering: %w", err)
	}

	return strings.Trim(rendered, "\n"), nil
}
