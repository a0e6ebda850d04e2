package ui

import (
	"net/http"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stream-chat/internal/chat"
	"stream-chat/internal/chattest"
	"stream-chat/internal/models"
)

func newTestView(t *testing.T, srv *chattest.Server) ChatViewModel {
	t.Helper()
	tr := &http.Transport{}
	t.Cleanup(tr.CloseIdleConnections)
	client := chat.NewClient(srv.URL(), chat.WithHTTPClient(&http.Client{Transport: tr}))
	return NewChatViewModel(client, "notty", 100, 40)
}

func update(t *testing.T, m ChatViewModel, msg tea.Msg) (ChatViewModel, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	view, ok := next.(ChatViewModel)
	require.True(t, ok)
	return view, cmd
}

// runCmd executes a stream command with a deadline so a hung session fails the test
func runCmd(t *testing.T, cmd tea.Cmd) tea.Msg {
	t.Helper()
	require.NotNil(t, cmd)
	out := make(chan tea.Msg, 1)
	go func() { out <- cmd() }()
	select {
	case msg := <-out:
		return msg
	case <-time.After(5 * time.Second):
		t.Fatal("stream command did not return")
		return nil
	}
}

// drain feeds stream messages back into the model until the session settles
func drain(t *testing.T, m ChatViewModel, cmd tea.Cmd) (ChatViewModel, tea.Msg) {
	t.Helper()
	for i := 0; i < 100; i++ {
		msg := runCmd(t, cmd)
		m, cmd = update(t, m, msg)
		switch msg.(type) {
		case StreamComplete, StreamError:
			return m, msg
		}
	}
	t.Fatal("session did not settle")
	return m, nil
}

func nodeIDs(m ChatViewModel) []string {
	var ids []string
	for _, n := range m.conversation.Nodes() {
		ids = append(ids, n.ID)
	}
	return ids
}

func TestInitialLoadRendersHistory(t *testing.T) {
	srv := chattest.NewServer(
		models.Message{Role: "user", Content: "hi", Timestamp: "t1"},
		models.Message{Role: "assistant", Content: "hello", Timestamp: "t2"},
	)
	defer srv.Close()

	m := newTestView(t, srv)
	m, cmd := update(t, m, historyRequested{})
	assert.True(t, m.busy)

	m, last := drain(t, m, cmd)
	assert.IsType(t, StreamComplete{}, last)

	assert.Equal(t, []string{"msg-t1", "msg-t2"}, nodeIDs(m))
	assert.False(t, m.busy)
	assert.False(t, m.streaming)
	assert.Nil(t, m.session)

	view := m.View()
	assert.Contains(t, view, "hello")
	assert.Contains(t, view, "Messages: 2")
}

func TestSubmitStreamsIntoOneNodePerTimestamp(t *testing.T) {
	srv := chattest.NewServer()
	defer srv.Close()

	m := newTestView(t, srv)
	m, cmd := update(t, m, historyRequested{})
	m, _ = drain(t, m, cmd)

	m.textarea.SetValue("tell me more")
	m, cmd = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, "", m.textarea.Value(), "input is cleared on submit")
	assert.True(t, m.inputDisabled)
	assert.True(t, m.busy)
	require.NotNil(t, m.session)
	assert.Equal(t, chat.KindSubmit, m.session.Kind)

	m, last := drain(t, m, cmd)
	assert.IsType(t, StreamComplete{}, last)

	require.Equal(t, 2, m.conversation.Len())
	reply := m.conversation.Nodes()[1]
	assert.Equal(t, "echo: tell me more", reply.Content)
	assert.Equal(t, models.RoleModel, reply.Role)

	assert.False(t, m.inputDisabled)
	assert.True(t, m.textarea.Focused())
	assert.False(t, m.streaming)
	assert.Equal(t, []string{"tell me more"}, srv.Prompts())
}

func TestEnterIgnoredWhileInFlight(t *testing.T) {
	srv := chattest.NewServer()
	srv.Gate = make(chan struct{})
	defer srv.Close()

	m := newTestView(t, srv)
	m.textarea.SetValue("first")
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	session := m.session

	m.textarea.SetValue("second")
	m, again := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, again)
	assert.Same(t, session, m.session)

	close(srv.Gate)
	m, _ = drain(t, m, cmd)
	assert.Equal(t, []string{"first"}, srv.Prompts())
}

func TestEmptyPromptIsIgnored(t *testing.T) {
	srv := chattest.NewServer()
	defer srv.Close()

	m := newTestView(t, srv)
	m.textarea.SetValue("   ")
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.Nil(t, m.session)
	assert.False(t, m.busy)
}

func TestStopHaltsUpdates(t *testing.T) {
	srv := chattest.NewServer()
	srv.Gate = make(chan struct{})
	defer srv.Close()

	m := newTestView(t, srv)
	m.textarea.SetValue("one two three")
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	// First chunk arrives, then the server waits on the gate
	msg := runCmd(t, cmd)
	require.IsType(t, BatchReceived{}, msg)
	m, cmd = update(t, m, msg)
	assert.True(t, m.streaming)
	assert.Contains(t, m.View(), "Streaming...")

	before := m.conversation.Nodes()[m.conversation.Len()-1].Content
	stopped := m.session

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})
	assert.Nil(t, m.session)
	assert.True(t, stopped.Stopped())
	assert.False(t, m.inputDisabled)
	assert.True(t, m.textarea.Focused())
	assert.False(t, m.busy)
	assert.False(t, m.streaming)

	// Whatever the stopped session still reports is dropped
	late := runCmd(t, cmd)
	m, next := update(t, m, late)
	assert.Nil(t, next)
	assert.Equal(t, before, m.conversation.Nodes()[m.conversation.Len()-1].Content)
	assert.False(t, m.banner.IsVisible(), "stop is not an error")
}

func TestErrorShowsBannerAndResets(t *testing.T) {
	srv := chattest.NewServer()
	srv.FailStatus = http.StatusInternalServerError
	defer srv.Close()

	m := newTestView(t, srv)
	m.textarea.SetValue("hello")
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	m, last := drain(t, m, cmd)
	require.IsType(t, StreamError{}, last)

	assert.True(t, m.banner.IsVisible())
	assert.Contains(t, m.banner.Err().Error(), "unexpected response: 500")
	assert.False(t, m.busy)
	assert.False(t, m.inputDisabled)
	assert.Equal(t, 0, m.conversation.Len(), "failed responses render nothing")
	assert.Contains(t, m.View(), "Something went wrong")

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, m.banner.IsVisible())
}

func TestResizeRerendersNodes(t *testing.T) {
	srv := chattest.NewServer(models.Message{Role: "assistant", Content: strings.Repeat("word ", 40), Timestamp: "t1"})
	defer srv.Close()

	m := newTestView(t, srv)
	m, cmd := update(t, m, historyRequested{})
	m, _ = drain(t, m, cmd)
	wide := m.conversation.Nodes()[0].Rendered

	m, _ = update(t, m, tea.WindowSizeMsg{Width: 50, Height: 30})
	assert.Equal(t, 50-6, m.viewport.Width)
	assert.NotEqual(t, wide, m.conversation.Nodes()[0].Rendered)
}

func TestRoleLabel(t *testing.T) {
	tests := []struct {
		role string
		want string
	}{
		{role: models.RoleModel, want: "Assistant:"},
		{role: models.RoleAssistant, want: "Assistant:"},
		{role: "tool", want: "tool:"},
		{role: "", want: "Unknown:"},
	}

	for _, tt := range tests {
		t.Run(tt.role, func(t *testing.T) {
			assert.Equal(t, tt.want, roleLabel(tt.role))
		})
	}
}

func TestCopyWithEmptyConversation(t *testing.T) {
	srv := chattest.NewServer()
	defer srv.Close()

	m := newTestView(t, srv)
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyCtrlY})
	assert.Nil(t, cmd)
	assert.Equal(t, "Nothing to copy", m.notice)
	assert.Contains(t, m.View(), "Nothing to copy")
}
