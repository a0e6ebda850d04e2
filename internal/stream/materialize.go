package stream

import (
	"encoding/json"
	"strings"
	"unicode/utf16"

	"stream-chat/internal/models"
)

// Materialize parses every message record in buffer, a newline-delimited
// JSON stream. Segments of at most one character are blank and skipped.
// Unless final is set, the segment after the last newline is still being
// received and is left for a later call.
func Materialize(buffer string, final bool) ([]models.Message, error) {
	lines := strings.Split(buffer, "\n")
	if !final {
		lines = lines[:len(lines)-1]
	}

	messages := make([]models.Message, 0, len(lines))
	for i, line := range lines {
		if codeUnits(line) <= 1 {
			continue
		}

		var msg models.Message
		if err := json.Unmarshal([]byte(line), &msg); err != nil {
			return nil, &ParseError{Line: i + 1, Text: line, Err: err}
		}
		messages = append(messages, msg)
	}

	return messages, nil
}

// codeUnits counts UTF-16 code units, stopping once the count passes one
func codeUnits(s string) int {
	n := 0
	for _, r := range s {
		n += utf16.RuneLen(r)
		if n > 1 {
			break
		}
	}
	return n
}
