// Package conversation keeps the rendered form of every message in a chat,
// one node per message timestamp, in the order the timestamps first appeared.
package conversation

import (
	"strings"

	"stream-chat/internal/logging"
	"stream-chat/internal/models"
	"stream-chat/internal/render"
)

// Node is the rendered form of one message
type Node struct {
	ID       string
	Role     string
	Title    string
	Content  string
	Rendered string
}

// Conversation owns its nodes and an index from timestamp to node position.
// It is not safe for concurrent use; the UI loop is its only caller.
type Conversation struct {
	renderer render.Renderer
	nodes    []*Node
	index    map[string]int
}

func New(renderer render.Renderer) *Conversation {
	if renderer == nil {
		renderer = render.Plain{}
	}
	return &Conversation{
		renderer: renderer,
		index:    make(map[string]int),
	}
}

// Upsert creates the node for msg on first sight of its timestamp and
// overwrites the node content on every later delivery. Identical content is
// not re-rendered.
func (c *Conversation) Upsert(msg models.Message) (node *Node, created, changed bool) {
	if i, ok := c.index[msg.Timestamp]; ok {
		node = c.nodes[i]
	} else {
		node = &Node{
			ID:    msg.NodeID(),
			Role:  msg.Role,
			Title: msg.Title(),
		}
		c.index[msg.Timestamp] = len(c.nodes)
		c.nodes = append(c.nodes, node)
		created = true
	}

	if !created && node.Content == msg.Content {
		return node, false, false
	}

	node.Content = msg.Content
	node.Rendered = c.render(msg.Content)
	return node, created, true
}

// Apply upserts a batch in order and reports whether any node changed
func (c *Conversation) Apply(batch []models.Message) bool {
	changed := false
	for _, msg := range batch {
		if _, _, ch := c.Upsert(msg); ch {
			changed = true
		}
	}
	return changed
}

// SetRenderer swaps the renderer and re-renders every node
func (c *Conversation) SetRenderer(renderer render.Renderer) {
	if renderer == nil {
		renderer = render.Plain{}
	}
	c.renderer = renderer
	for _, node := range c.nodes {
		node.Rendered = c.render(node.Content)
	}
}

// Nodes returns the nodes in insertion order
func (c *Conversation) Nodes() []*Node {
	return c.nodes
}

func (c *Conversation) Len() int {
	return len(c.nodes)
}

// Get looks a node up by its node ID ("msg-<timestamp>")
func (c *Conversation) Get(nodeID string) (*Node, bool) {
	ts, ok := strings.CutPrefix(nodeID, models.NodeIDPrefix)
	if !ok {
		return nil, false
	}
	i, ok := c.index[ts]
	if !ok {
		return nil, false
	}
	return c.nodes[i], true
}

// Last returns the most recently created node
func (c *Conversation) Last() (*Node, bool) {
	if len(c.nodes) == 0 {
		return nil, false
	}
	return c.nodes[len(c.nodes)-1], true
}

func (c *Conversation) render(content string) string {
	out, err := c.renderer.Render(content)
	if err != nil {
		logging.Error("Rendering message failed, showing raw content: %v", err)
		return content
	}
	return out
}
