package chat

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"stream-chat/internal/config"
	"stream-chat/internal/stream"
)

// Client talks to a chat endpoint: GET returns the conversation so far, POST
// with a form-encoded prompt streams the reply.
type Client struct {
	endpoint    string
	promptField string
	timeout     time.Duration
	httpClient  *http.Client
	consumer    *stream.Consumer
}

type Option func(*Client)

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout bounds every request; zero means no timeout
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithPromptField sets the form field carrying the prompt
func WithPromptField(field string) Option {
	return func(c *Client) {
		c.promptField = field
	}
}

func NewClient(endpoint string, opts ...Option) *Client {
	c := &Client{
		endpoint:    endpoint,
		promptField: "prompt",
		// No client timeout: a reply streams for as long as the server keeps writing
		httpClient: &http.Client{},
		consumer:   stream.NewConsumer(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewClientFromConfig builds a client from the application configuration
func NewClientFromConfig(cfg *config.Config) *Client {
	return NewClient(cfg.Endpoint,
		WithPromptField(cfg.PromptField),
		WithTimeout(cfg.Timeout()),
	)
}

func (c *Client) Endpoint() string {
	return c.endpoint
}

// Load fetches the existing conversation
func (c *Client) Load(ctx context.Context) *Session {
	return c.start(ctx, KindLoad, func(ctx context.Context) (*http.Response, error) {
		return c.doRequest(ctx, http.MethodGet, nil)
	})
}

// Submit posts prompt and streams the reply
func (c *Client) Submit(ctx context.Context, prompt string) *Session {
	form := url.Values{}
	form.Set(c.promptField, prompt)

	return c.start(ctx, KindSubmit, func(ctx context.Context) (*http.Response, error) {
		return c.doRequest(ctx, http.MethodPost, form)
	})
}

func (c *Client) start(parent context.Context, kind Kind, do func(context.Context) (*http.Response, error)) *Session {
	ctx, cancel := context.WithCancel(parent)
	if c.timeout > 0 {
		var timeoutCancel context.CancelFunc
		ctx, timeoutCancel = context.WithTimeout(ctx, c.timeout)
		base := cancel
		cancel = func() {
			timeoutCancel()
			base()
		}
	}

	s := newSession(ctx, cancel, kind)
	go s.run(func(ctx context.Context, emit stream.EmitFunc) error {
		resp, err := do(ctx)
		if err != nil {
			return err
		}
		return c.consumer.Consume(ctx, resp, emit)
	})
	return s
}

func (c *Client) doRequest(ctx context.Context, method string, form url.Values) (*http.Response, error) {
	var reqBody io.Reader
	if form != nil {
		reqBody = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	req.Header.Set("Accept", "application/x-ndjson, text/plain, text/event-stream")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}

	return resp, nil
}
