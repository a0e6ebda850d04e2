package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-runewidth"

	"stream-chat/internal/chat"
	"stream-chat/internal/conversation"
	"stream-chat/internal/logging"
	"stream-chat/internal/models"
	"stream-chat/internal/render"
)

const (
	titleHeight    = 4
	textareaHeight = 5
	helpHeight     = 2
	padding        = 2
)

// ChatViewModel is the chat screen: a conversation viewport, a prompt input
// and at most one request session in flight.
type ChatViewModel struct {
	client       *chat.Client
	conversation *conversation.Conversation
	session      *chat.Session
	renderStyle  string

	viewport viewport.Model
	textarea textarea.Model
	spinner  spinner.Model
	banner   ErrorBannerOverlayModel

	width  int
	height int

	// busy shows the spinner until the first chunk of a reply arrives
	busy bool
	// streaming shows the stop affordance while a reply is being received
	streaming     bool
	inputDisabled bool
	notice        string
}

// BatchReceived carries every message materialized so far by a session
type BatchReceived struct {
	Session  *chat.Session
	Messages []models.Message
}

// StreamComplete is sent when a session's stream ends normally or was stopped
type StreamComplete struct {
	Session *chat.Session
}

// StreamError is sent when a session fails
type StreamError struct {
	Session *chat.Session
	Err     error
}

func NewChatViewModel(client *chat.Client, renderStyle string, width, height int) ChatViewModel {
	ta := textarea.New()
	ta.Placeholder = "Ask something..."
	ta.Focus()
	ta.CharLimit = 4000
	ta.SetWidth(width - 4)
	ta.SetHeight(3)
	ta.ShowLineNumbers = false

	// Keep only essential editing keys; Enter submits
	ta.KeyMap.CharacterForward = key.NewBinding(key.WithKeys("right"))
	ta.KeyMap.CharacterBackward = key.NewBinding(key.WithKeys("left"))
	ta.KeyMap.LineStart = key.NewBinding(key.WithKeys("home"))
	ta.KeyMap.LineEnd = key.NewBinding(key.WithKeys("end"))
	ta.KeyMap.DeleteCharacterBackward = key.NewBinding(key.WithKeys("backspace"))
	ta.KeyMap.DeleteCharacterForward = key.NewBinding(key.WithKeys("delete"))
	ta.KeyMap.InsertNewline = key.NewBinding()
	ta.KeyMap.LineNext = key.NewBinding()
	ta.KeyMap.LinePrevious = key.NewBinding()

	vp := viewport.New(width-6, viewportHeight(height))
	vp.SetContent("")
	vp.MouseWheelDelta = 2
	vp.KeyMap.Down = key.NewBinding(key.WithKeys("down"))
	vp.KeyMap.Up = key.NewBinding(key.WithKeys("up"))
	vp.KeyMap.PageDown = key.NewBinding(key.WithKeys("pgdown"))
	vp.KeyMap.PageUp = key.NewBinding(key.WithKeys("pgup"))
	vp.KeyMap.HalfPageDown = key.NewBinding()
	vp.KeyMap.HalfPageUp = key.NewBinding()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = SpinnerStyle

	banner := NewErrorBannerOverlayModel()
	banner.UpdateSize(width)

	return ChatViewModel{
		client:       client,
		conversation: conversation.New(render.NewTerminal(renderStyle, width)),
		renderStyle:  renderStyle,
		viewport:     vp,
		textarea:     ta,
		spinner:      sp,
		banner:       banner,
		width:        width,
		height:       height,
	}
}

func viewportHeight(height int) int {
	h := height - titleHeight - textareaHeight - helpHeight - padding
	if h < 3 {
		h = 3
	}
	return h
}

func (m ChatViewModel) Init() tea.Cmd {
	return tea.Batch(
		textarea.Blink,
		m.spinner.Tick,
		m.loadHistory(),
	)
}

// loadHistory starts the initial GET through the same streaming path as a
// submission
func (m ChatViewModel) loadHistory() tea.Cmd {
	return func() tea.Msg {
		return historyRequested{}
	}
}

type historyRequested struct{}

func (m ChatViewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = msg.Width - 6
		m.viewport.Height = viewportHeight(msg.Height)
		m.textarea.SetWidth(msg.Width - 4)
		m.banner.UpdateSize(msg.Width)

		// Rewrap every node for the new width
		m.conversation.SetRenderer(render.NewTerminal(m.renderStyle, msg.Width))
		m.refreshConversation(false)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "ctrl+x":
			m.stopSession()
			return m, tea.Quit

		case "esc":
			if m.banner.IsVisible() {
				m.banner.Hide()
			}
			return m, nil

		case "ctrl+s":
			if m.session != nil {
				m.stopSession()
				m.notice = "Stopped"
				return m, textarea.Blink
			}
			return m, nil

		case "ctrl+y":
			m.copyLastMessage()
			return m, nil

		case "enter":
			return m.submit()
		}

	case historyRequested:
		if m.session != nil {
			return m, nil
		}
		m.session = m.client.Load(context.Background())
		m.busy = true
		logging.With(logging.Fields{"session": m.session.ID}).Info("Loading history")
		return m, waitForBatch(m.session)

	case BatchReceived:
		if !m.isCurrent(msg.Session) {
			return m, nil
		}
		m.busy = false
		m.streaming = true
		if m.conversation.Apply(msg.Messages) {
			m.refreshConversation(true)
		}
		return m, waitForBatch(msg.Session)

	case StreamComplete:
		if !m.isCurrent(msg.Session) {
			return m, nil
		}
		m.settle()
		m.streaming = false
		return m, textarea.Blink

	case StreamError:
		if !m.isCurrent(msg.Session) {
			return m, nil
		}
		m.handleError(msg.Err)
		return m, textarea.Blink

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmds []tea.Cmd

	if !m.inputDisabled {
		var cmd tea.Cmd
		m.textarea, cmd = m.textarea.Update(msg)
		cmds = append(cmds, cmd)
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// submit sends the prompt input as a new session. Only one session may be in
// flight; Enter is ignored until it settles.
func (m ChatViewModel) submit() (tea.Model, tea.Cmd) {
	if m.session != nil || m.inputDisabled {
		return m, nil
	}

	prompt := strings.TrimSpace(m.textarea.Value())
	if prompt == "" {
		return m, nil
	}

	m.busy = true
	m.notice = ""
	m.textarea.Reset()
	m.textarea.Blur()
	m.inputDisabled = true

	m.session = m.client.Submit(context.Background(), prompt)
	logging.With(logging.Fields{"session": m.session.ID}).Infof("Submitted prompt (%d chars)", len(prompt))

	return m, waitForBatch(m.session)
}

func (m ChatViewModel) isCurrent(s *chat.Session) bool {
	return s != nil && s == m.session && !s.Stopped()
}

// stopSession cancels the in-flight session and puts the input back
func (m *ChatViewModel) stopSession() {
	if m.session == nil {
		return
	}
	m.session.Stop()
	m.settle()
	m.streaming = false
}

// settle re-enables input after a session ends for any reason
func (m *ChatViewModel) settle() {
	m.session = nil
	m.busy = false
	m.inputDisabled = false
	m.textarea.Focus()
}

// handleError is the single sink for load and submit failures
func (m *ChatViewModel) handleError(err error) {
	fields := logging.Fields{}
	if m.session != nil {
		fields["session"] = m.session.ID
		fields["kind"] = m.session.Kind
	}
	logging.With(fields).Errorf("Request failed: %v", err)

	m.banner.Show(err)
	m.settle()
	m.streaming = false
}

func (m *ChatViewModel) copyLastMessage() {
	node, ok := m.conversation.Last()
	if !ok {
		m.notice = "Nothing to copy"
		return
	}
	if err := clipboard.WriteAll(node.Content); err != nil {
		logging.Error("Failed to copy %s: %v", node.ID, err)
		m.notice = "Copy failed"
		return
	}
	m.notice = "Copied " + node.ID
}

// waitForBatch creates a command that waits for the session's next batch
func waitForBatch(s *chat.Session) tea.Cmd {
	return func() tea.Msg {
		batch, ok := <-s.Batches()
		if ok {
			return BatchReceived{Session: s, Messages: batch}
		}

		<-s.Done()
		if err, ok := <-s.Err(); ok && err != nil {
			return StreamError{Session: s, Err: err}
		}
		return StreamComplete{Session: s}
	}
}

func (m *ChatViewModel) refreshConversation(gotoBottom bool) {
	m.viewport.SetContent(m.renderConversation())
	if gotoBottom {
		m.viewport.GotoBottom()
	}
}

// roleLabel names the author of a reply; unknown roles are shown as sent
func roleLabel(role string) string {
	switch role {
	case models.RoleModel, models.RoleAssistant:
		return "Assistant:"
	case "":
		return "Unknown:"
	default:
		return role + ":"
	}
}

func (m ChatViewModel) renderConversation() string {
	var b strings.Builder

	for _, node := range m.conversation.Nodes() {
		if node.Role == models.RoleUser {
			label := UserMessageLabelStyle.Render("You:")
			meta := GetTimestampStyle(m.width, true).Render(node.Title)
			b.WriteString(GetUserMessageContentStyle(m.width).Render(label + "\n" + node.Rendered))
			b.WriteString("\n" + meta + "\n\n")
		} else {
			label := AssistantMessageLabelStyle.Render(roleLabel(node.Role))
			meta := GetTimestampStyle(m.width, false).Render(node.Title)
			b.WriteString(GetAssistantMessageContentStyle(m.width).Render(label + "\n" + node.Rendered))
			b.WriteString("\n" + meta + "\n\n")
		}
	}

	return b.String()
}

func (m ChatViewModel) View() string {
	var b strings.Builder

	b.WriteString(TitleWithPaddingStyle.Render("Stream Chat") + "\n")

	endpoint := runewidth.Truncate(m.client.Endpoint(), max(m.width-30, 10), "…")
	statusLine := fmt.Sprintf("%s | Messages: %d", endpoint, m.conversation.Len())

	switch {
	case m.busy:
		statusLine += " | " + m.spinner.View() + " Waiting..."
	case m.streaming:
		statusLine += " | " + StreamingStyle.Render("Streaming... Ctrl+S: Stop")
	case m.notice != "":
		statusLine += " | " + m.notice
	}

	b.WriteString(statusBarStyle.Render(statusLine) + "\n\n")

	b.WriteString(RenderViewportWithBorder(m.viewport.View()))
	b.WriteString("\n")

	if scrollInfo := m.renderScrollIndicator(); scrollInfo != "" {
		b.WriteString(scrollInfo)
	}
	b.WriteString("\n")

	b.WriteString(m.textarea.View() + "\n")

	helpText := "Enter: Send • Ctrl+S: Stop • Ctrl+Y: Copy last • ↑/↓: Scroll • Esc: Dismiss error • Ctrl+X: Exit"
	b.WriteString(helpStyle.Render(helpText))

	return m.banner.RenderOverlay(b.String())
}

func (m ChatViewModel) renderScrollIndicator() string {
	if m.viewport.TotalLineCount() <= m.viewport.Height {
		return ""
	}

	scrollPercent := int(m.viewport.ScrollPercent() * 100)
	indicator := fmt.Sprintf("Scroll: %d%% ↕", scrollPercent)

	return ScrollIndicatorStyle.Render(indicator)
}
