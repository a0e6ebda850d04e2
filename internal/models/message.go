package models

import (
	"fmt"
)

// Message is one record of the chat stream. Timestamp is an opaque identifier:
// the server re-sends a message under the same timestamp to update its content.
type Message struct {
	Role      string `json:"role"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}

const (
	RoleUser      = "user"
	RoleModel     = "model"
	RoleAssistant = "assistant"
)

// NodeID returns the identity of the rendered node for this message
func (m Message) NodeID() string {
	return NodeID(m.Timestamp)
}

// Title returns the display metadata for the rendered node
func (m Message) Title() string {
	return fmt.Sprintf("%s at %s", m.Role, m.Timestamp)
}

const NodeIDPrefix = "msg-"

func NodeID(timestamp string) string {
	return NodeIDPrefix + timestamp
}
