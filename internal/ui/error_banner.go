package ui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	overlay "github.com/rmhubbert/bubbletea-overlay"
)

// ErrorBannerModel is the foreground of the error overlay
type ErrorBannerModel struct {
	err   error
	width int
}

func (m ErrorBannerModel) Init() tea.Cmd {
	return nil
}

func (m ErrorBannerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	return m, nil
}

func (m ErrorBannerModel) View() string {
	var b strings.Builder
	b.WriteString(ErrorBannerTitleStyle.Render("Something went wrong"))
	b.WriteString("\n\n")
	if m.err != nil {
		b.WriteString(RenderError(m.err.Error()))
		b.WriteString("\n\n")
	}
	b.WriteString(TimestampStyle.Render("Esc: Dismiss"))
	return GetErrorBannerStyle(m.width).Render(b.String())
}

// ErrorBannerOverlayModel wraps the banner with the overlay library
type ErrorBannerOverlayModel struct {
	banner  ErrorBannerModel
	visible bool
}

func NewErrorBannerOverlayModel() ErrorBannerOverlayModel {
	return ErrorBannerOverlayModel{}
}

func (m *ErrorBannerOverlayModel) Show(err error) {
	m.banner.err = err
	m.visible = true
}

func (m *ErrorBannerOverlayModel) Hide() {
	m.visible = false
}

func (m *ErrorBannerOverlayModel) IsVisible() bool {
	return m.visible
}

func (m *ErrorBannerOverlayModel) Err() error {
	return m.banner.err
}

func (m *ErrorBannerOverlayModel) UpdateSize(width int) {
	m.banner.width = width
}

func (m ErrorBannerOverlayModel) RenderOverlay(backgroundView string) string {
	if !m.visible {
		return backgroundView
	}

	overlayModel := overlay.New(
		m.banner,
		&staticViewModel{content: backgroundView},
		overlay.Center,
		overlay.Center,
		0,
		0,
	)

	return overlayModel.View()
}

// staticViewModel is a simple model that renders static content (background)
type staticViewModel struct {
	content string
}

func (m staticViewModel) Init() tea.Cmd {
	return nil
}

func (m staticViewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	return m, nil
}

func (m staticViewModel) View() string {
	return m.content
}
