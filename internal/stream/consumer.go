package stream

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	sse "github.com/tmaxmax/go-sse"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"stream-chat/internal/logging"
	"stream-chat/internal/models"
)

const (
	defaultChunkSize = 32 * 1024
	maxErrorBody     = 64 * 1024

	doneMarker = "[DONE]"
)

// EmitFunc receives every message materialized so far. Returning an error
// stops the consumer with that error.
type EmitFunc func(messages []models.Message) error

// Consumer reads a streamed chat response and materializes its messages
type Consumer struct {
	ChunkSize int
}

func NewConsumer() *Consumer {
	return &Consumer{ChunkSize: defaultChunkSize}
}

// Consume reads resp.Body until it ends, calling emit with the messages of the
// whole buffer after every chunk and once more when the stream ends. Failed
// responses are reported as *StatusError without emitting anything. A
// cancelled ctx stops the loop and returns ctx.Err().
func (c *Consumer) Consume(ctx context.Context, resp *http.Response, emit EmitFunc) error {
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	mediaType, enc := contentType(resp.Header.Get("Content-Type"))
	body := transform.NewReader(resp.Body, enc.NewDecoder())

	if mediaType == "text/event-stream" {
		return c.consumeEvents(ctx, body, emit)
	}
	return c.consumeLines(ctx, body, emit)
}

func (c *Consumer) consumeLines(ctx context.Context, body io.Reader, emit EmitFunc) error {
	size := c.ChunkSize
	if size <= 0 {
		size = defaultChunkSize
	}

	var text strings.Builder
	chunk := make([]byte, size)
	chunks := 0

	for {
		n, err := body.Read(chunk)
		if n > 0 {
			chunks++
			text.Write(chunk[:n])
			if emitErr := c.materialize(ctx, text.String(), false, emit); emitErr != nil {
				return emitErr
			}
		}

		if err == io.EOF {
			break
		}
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("error reading stream: %w", err)
		}
	}

	logging.Debug("Stream ended after %d chunks, %d bytes", chunks, text.Len())
	return c.materialize(ctx, text.String(), true, emit)
}

// consumeEvents handles event-stream framing: each event carries one record
func (c *Consumer) consumeEvents(ctx context.Context, body io.Reader, emit EmitFunc) error {
	var text strings.Builder

	for ev, err := range sse.Read(body, nil) {
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("error reading event stream: %w", err)
		}

		if ev.Data == doneMarker {
			break
		}

		text.WriteString(ev.Data)
		text.WriteByte('\n')
		if emitErr := c.materialize(ctx, text.String(), false, emit); emitErr != nil {
			return emitErr
		}
	}

	if ctx.Err() != nil {
		return ctx.Err()
	}
	return nil
}

func (c *Consumer) materialize(ctx context.Context, buffer string, final bool, emit EmitFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	messages, err := Materialize(buffer, final)
	if err != nil {
		return err
	}
	if len(messages) == 0 {
		return nil
	}
	return emit(messages)
}

// contentType returns the media type and the text encoding named by the
// charset parameter, defaulting to UTF-8. A leading UTF-8 byte order mark is
// stripped.
func contentType(header string) (string, encoding.Encoding) {
	if header == "" {
		return "", unicode.UTF8BOM
	}

	mediaType, params, err := mime.ParseMediaType(header)
	if err != nil {
		logging.Debug("Unparseable Content-Type %q: %v", header, err)
		return "", unicode.UTF8BOM
	}

	charset := params["charset"]
	if charset == "" {
		return mediaType, unicode.UTF8BOM
	}

	enc, err := htmlindex.Get(charset)
	if err != nil {
		logging.Error("Unknown charset %q, decoding as UTF-8: %v", charset, err)
		return mediaType, unicode.UTF8BOM
	}
	if enc == unicode.UTF8 {
		return mediaType, unicode.UTF8BOM
	}

	return mediaType, enc
}
