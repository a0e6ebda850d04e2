package ui

import (
	"github.com/charmbracelet/lipgloss"
	tint "github.com/lrstanley/bubbletint"

	"stream-chat/internal/logging"
)

// Theme is the tint registry the styles are built from
var Theme *tint.Registry

// Common style elements used across all views
var (
	TitleWithPaddingStyle        lipgloss.Style
	ErrorMessageStyle            lipgloss.Style
	ErrorBannerStyle             lipgloss.Style
	ErrorBannerTitleStyle        lipgloss.Style
	statusBarStyle               lipgloss.Style
	StreamingStyle               lipgloss.Style
	helpStyle                    lipgloss.Style
	UserMessageLabelStyle        lipgloss.Style
	AssistantMessageLabelStyle   lipgloss.Style
	UserMessageContentStyle      lipgloss.Style
	AssistantMessageContentStyle lipgloss.Style
	TimestampStyle               lipgloss.Style
	SpinnerStyle                 lipgloss.Style
	ViewportBorderStyle          lipgloss.Style
	ScrollIndicatorStyle         lipgloss.Style
)

func init() {
	tint.NewDefaultRegistry()
	tint.SetTint(tint.TintChalk)
	Theme = tint.DefaultRegistry

	buildStyles()
}

// SetTheme switches to the tint with the given ID and rebuilds the styles.
// Unknown IDs keep the current tint.
func SetTheme(id string) bool {
	if id == "" {
		return false
	}
	if ok := Theme.SetTintID(id); !ok {
		logging.Error("Unknown theme %q, keeping the current tint", id)
		return false
	}
	buildStyles()
	return true
}

func buildStyles() {
	TitleWithPaddingStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(tint.Purple()).
		Padding(0, 1)

	ErrorMessageStyle = lipgloss.NewStyle().
		Foreground(tint.Red())

	ErrorBannerStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(tint.Red()).
		Padding(1, 2)

	ErrorBannerTitleStyle = lipgloss.NewStyle().
		Foreground(tint.Red()).
		Bold(true)

	statusBarStyle = lipgloss.NewStyle().
		Foreground(tint.BrightBlack()).
		Padding(0, 1)

	StreamingStyle = lipgloss.NewStyle().
		Foreground(tint.Yellow())

	helpStyle = lipgloss.NewStyle().
		Foreground(tint.BrightBlack()).
		Padding(1, 0, 0, 1)

	UserMessageLabelStyle = lipgloss.NewStyle().
		Foreground(tint.White()).
		Bold(true)

	AssistantMessageLabelStyle = lipgloss.NewStyle().
		Foreground(tint.Purple()).
		Bold(true)

	UserMessageContentStyle = lipgloss.NewStyle().
		Foreground(tint.Fg()).
		Padding(0, 1).
		MarginBottom(1)

	AssistantMessageContentStyle = lipgloss.NewStyle().
		Foreground(tint.Fg()).
		Padding(0, 1).
		MarginBottom(1)

	TimestampStyle = lipgloss.NewStyle().
		Foreground(tint.BrightBlack())

	SpinnerStyle = lipgloss.NewStyle().
		Foreground(tint.Purple())

	ViewportBorderStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(tint.White()).
		Padding(0, 1)

	ScrollIndicatorStyle = lipgloss.NewStyle().
		Foreground(tint.White()).
		Bold(false)
}

// RenderError renders an error message
func RenderError(msg string) string {
	return ErrorMessageStyle.Render("  ✗ " + msg)
}

// RenderViewportWithBorder renders content with a viewport border style
func RenderViewportWithBorder(content string) string {
	return ViewportBorderStyle.Render(content)
}

// GetUserMessageContentStyle returns a style for user message content with given width
func GetUserMessageContentStyle(width int) lipgloss.Style {
	return UserMessageContentStyle.
		Width(width - 10).
		Align(lipgloss.Right)
}

// GetAssistantMessageContentStyle returns a style for assistant message content with given width
func GetAssistantMessageContentStyle(width int) lipgloss.Style {
	return AssistantMessageContentStyle.
		Width(width - 10)
}

// GetTimestampStyle returns a style for timestamp with given width
func GetTimestampStyle(width int, alignRight bool) lipgloss.Style {
	style := TimestampStyle.Width(width - 10)
	if alignRight {
		return style.Align(lipgloss.Right)
	}
	return style
}

// GetErrorBannerStyle returns the banner border style with a width that fits the screen
func GetErrorBannerStyle(width int) lipgloss.Style {
	w := width - 20
	if w > 80 {
		w = 80
	}
	if w < 20 {
		w = 20
	}
	return ErrorBannerStyle.Width(w)
}
