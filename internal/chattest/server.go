// Package chattest runs an in-process chat endpoint for tests. It follows the
// reference backend: GET returns the history as NDJSON, POST echoes the prompt
// as a user message and then re-sends one assistant message with the reply
// accumulated so far.
package chattest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"

	"stream-chat/internal/models"
)

const Path = "/chat/"

type Server struct {
	srv *httptest.Server

	mu      sync.Mutex
	history []models.Message
	prompts []string
	seq     int

	// Reply returns the pieces of the assistant reply for a prompt
	Reply func(prompt string) []string
	// Gate, when set, is received from before every piece after the first
	Gate chan struct{}
	// FailStatus, when non-zero, fails every request with this status
	FailStatus int
	// EventStream switches POST replies to text/event-stream framing
	EventStream bool
}

func NewServer(history ...models.Message) *Server {
	s := &Server{
		history: append([]models.Message(nil), history...),
		Reply: func(prompt string) []string {
			return strings.SplitAfter("echo: "+prompt, " ")
		},
	}

	r := chi.NewRouter()
	r.Get(Path, s.handleHistory)
	r.Post(Path, s.handleChat)

	s.srv = httptest.NewServer(r)
	return s
}

// URL returns the chat endpoint URL
func (s *Server) URL() string {
	return s.srv.URL + Path
}

func (s *Server) Close() {
	s.srv.CloseClientConnections()
	s.srv.Close()
}

// Prompts returns every prompt received so far
func (s *Server) Prompts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.prompts...)
}

func (s *Server) nextTimestamp() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	return fmt.Sprintf("2025-01-01T00:00:%02d+00:00", s.seq)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.FailStatus != 0 {
		http.Error(w, http.StatusText(s.FailStatus), s.FailStatus)
		return
	}

	s.mu.Lock()
	history := append([]models.Message(nil), s.history...)
	s.mu.Unlock()

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if len(history) == 0 {
		w.Write([]byte("\n"))
		return
	}
	for _, msg := range history {
		writeLine(w, msg)
	}
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if s.FailStatus != 0 {
		http.Error(w, http.StatusText(s.FailStatus), s.FailStatus)
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	prompt := r.PostForm.Get("prompt")
	if prompt == "" {
		http.Error(w, "missing prompt", http.StatusUnprocessableEntity)
		return
	}

	s.mu.Lock()
	s.prompts = append(s.prompts, prompt)
	s.mu.Unlock()

	flusher, _ := w.(http.Flusher)
	write := func(msg models.Message) {
		if s.EventStream {
			data, _ := json.Marshal(msg)
			fmt.Fprintf(w, "data: %s\n\n", data)
		} else {
			writeLine(w, msg)
		}
		if flusher != nil {
			flusher.Flush()
		}
	}

	if s.EventStream {
		w.Header().Set("Content-Type", "text/event-stream")
	} else {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	}

	user := models.Message{Role: models.RoleUser, Content: prompt, Timestamp: s.nextTimestamp() + ":Q"}
	write(user)

	reply := models.Message{Role: models.RoleModel, Timestamp: s.nextTimestamp()}
	var content strings.Builder
	for i, piece := range s.Reply(prompt) {
		if i > 0 && s.Gate != nil {
			select {
			case <-s.Gate:
			case <-r.Context().Done():
				return
			}
		}
		content.WriteString(piece)
		reply.Content = content.String()
		write(reply)
	}

	if s.EventStream {
		fmt.Fprint(w, "data: [DONE]\n\n")
	}

	s.mu.Lock()
	s.history = append(s.history, user, reply)
	s.mu.Unlock()
}

func writeLine(w http.ResponseWriter, msg models.Message) {
	data, _ := json.Marshal(msg)
	w.Write(append(data, '\n'))
}
