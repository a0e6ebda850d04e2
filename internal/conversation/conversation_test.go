package conversation

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stream-chat/internal/models"
)

// upperRenderer marks output so tests can tell rendered from raw content
type upperRenderer struct {
	calls int
}

func (r *upperRenderer) Render(content string) (string, error) {
	r.calls++
	return "<" + strings.ToUpper(content) + ">", nil
}

type failingRenderer struct{}

func (failingRenderer) Render(content string) (string, error) {
	return "", errors.New("boom")
}

func ids(c *Conversation) []string {
	var out []string
	for _, n := range c.Nodes() {
		out = append(out, n.ID)
	}
	return out
}

func TestTwoMessagesInOrder(t *testing.T) {
	c := New(&upperRenderer{})

	c.Apply([]models.Message{{Role: "user", Content: "hi", Timestamp: "t1"}})
	c.Apply([]models.Message{
		{Role: "user", Content: "hi", Timestamp: "t1"},
		{Role: "assistant", Content: "hello", Timestamp: "t2"},
	})

	assert.Equal(t, []string{"msg-t1", "msg-t2"}, ids(c))
	assert.Equal(t, "<HI>", c.Nodes()[0].Rendered)
	assert.Equal(t, "<HELLO>", c.Nodes()[1].Rendered)
	assert.Equal(t, "assistant at t2", c.Nodes()[1].Title)
}

func TestUpdateInPlace(t *testing.T) {
	c := New(&upperRenderer{})

	c.Upsert(models.Message{Role: "user", Content: "q", Timestamp: "t0"})
	_, created, changed := c.Upsert(models.Message{Role: "model", Content: "partial", Timestamp: "t1"})
	assert.True(t, created)
	assert.True(t, changed)
	c.Upsert(models.Message{Role: "user", Content: "later", Timestamp: "t2"})

	node, created, changed := c.Upsert(models.Message{Role: "model", Content: "partial and more", Timestamp: "t1"})
	assert.False(t, created)
	assert.True(t, changed)
	assert.Equal(t, "<PARTIAL AND MORE>", node.Rendered)

	require.Equal(t, 3, c.Len())
	assert.Equal(t, []string{"msg-t0", "msg-t1", "msg-t2"}, ids(c))
}

func TestIdempotentRedelivery(t *testing.T) {
	r := &upperRenderer{}
	c := New(r)
	msg := models.Message{Role: "user", Content: "same", Timestamp: "t1"}

	assert.True(t, c.Apply([]models.Message{msg}))
	before := c.Nodes()[0].Rendered

	assert.False(t, c.Apply([]models.Message{msg, msg}))
	assert.Equal(t, 1, c.Len())
	assert.Equal(t, before, c.Nodes()[0].Rendered)
	assert.Equal(t, 1, r.calls, "identical content must not be re-rendered")
}

func TestLastContentWins(t *testing.T) {
	c := New(&upperRenderer{})
	batches := [][]models.Message{
		{{Role: "model", Content: "a", Timestamp: "x"}},
		{{Role: "model", Content: "ab", Timestamp: "x"}, {Role: "user", Content: "q", Timestamp: "y"}},
		{{Role: "model", Content: "abc", Timestamp: "x"}, {Role: "user", Content: "q2", Timestamp: "y"}},
	}
	for _, b := range batches {
		c.Apply(b)
	}

	require.Equal(t, 2, c.Len())
	x, ok := c.Get("msg-x")
	require.True(t, ok)
	assert.Equal(t, "abc", x.Content)
	y, ok := c.Get("msg-y")
	require.True(t, ok)
	assert.Equal(t, "q2", y.Content)

	_, ok = c.Get("msg-z")
	assert.False(t, ok)
}

func TestGetByNodeID(t *testing.T) {
	c := New(nil)
	c.Upsert(models.Message{Role: "user", Content: "a", Timestamp: "t1"})
	c.Upsert(models.Message{Role: "model", Content: "b", Timestamp: "msg-t1"})

	tests := []struct {
		nodeID  string
		want    string
		wantHit bool
	}{
		{nodeID: "msg-t1", want: "a", wantHit: true},
		{nodeID: "msg-msg-t1", want: "b", wantHit: true},
		{nodeID: "t1", wantHit: false},
		{nodeID: "msg-", wantHit: false},
	}

	for _, tt := range tests {
		t.Run(tt.nodeID, func(t *testing.T) {
			node, ok := c.Get(tt.nodeID)
			require.Equal(t, tt.wantHit, ok)
			if ok {
				assert.Equal(t, tt.want, node.Content)
				assert.Equal(t, tt.nodeID, node.ID)
			}
		})
	}
}

func TestRenderErrorKeepsRawContent(t *testing.T) {
	c := New(failingRenderer{})
	node, created, _ := c.Upsert(models.Message{Role: "user", Content: "**raw**", Timestamp: "t1"})
	assert.True(t, created)
	assert.Equal(t, "**raw**", node.Rendered)
}

func TestSetRendererRerenders(t *testing.T) {
	c := New(nil)
	c.Upsert(models.Message{Role: "user", Content: "hi", Timestamp: "t1"})
	assert.Equal(t, "hi", c.Nodes()[0].Rendered)

	c.SetRenderer(&upperRenderer{})
	assert.Equal(t, "<HI>", c.Nodes()[0].Rendered)

	last, ok := c.Last()
	require.True(t, ok)
	assert.Equal(t, "msg-t1", last.ID)
}
