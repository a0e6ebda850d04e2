package render

import (
	"fmt"
	"strings"
)

// Renderer converts message content to display output
type Renderer interface {
	Render(content string) (string, error)
}

const (
	FormatANSI  = "ansi"
	FormatHTML  = "html"
	FormatPlain = "plain"
)

// New returns the renderer for format. width only applies to ANSI output.
func New(format, style string, width int) (Renderer, error) {
	switch strings.ToLower(format) {
	case FormatANSI, "":
		return NewTerminal(style, width), nil
	case FormatHTML:
		return NewHTML(), nil
	case FormatPlain:
		return Plain{}, nil
	default:
		return nil, fmt.Errorf("unknown render format %q (want ansi, html or plain)", format)
	}
}

// Plain returns content unchanged
type Plain struct{}

func (Plain) Render(content string) (string, error) {
	return content, nil
}
