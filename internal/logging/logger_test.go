package logging

import (
	"bytes"
	"os"
	"strings"
	"testing"
)

func TestLevels(t *testing.T) {
	tests := []struct {
		name      string
		verbose   bool
		wantDebug bool
	}{
		{name: "Default level hides debug", verbose: false, wantDebug: false},
		{name: "Verbose shows debug", verbose: true, wantDebug: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			SetOutput(&buf, tt.verbose)

			Debug("debug %d", 1)
			Info("info %s", "two")
			Error("error %v", 3)

			out := buf.String()
			if got := strings.Contains(out, "[DEBUG] debug 1"); got != tt.wantDebug {
				t.Errorf("debug line present = %v, want %v\n%s", got, tt.wantDebug, out)
			}
			if !strings.Contains(out, "[INFO] info two") {
				t.Errorf("missing info line:\n%s", out)
			}
			if !strings.Contains(out, "[ERROR] error 3") {
				t.Errorf("missing error line:\n%s", out)
			}
		})
	}
}

func TestWithFieldsSorted(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf, false)

	With(Fields{"session": "abc", "kind": "submit"}).Info("stream started")

	out := buf.String()
	if !strings.Contains(out, "stream started kind=submit session=abc") {
		t.Errorf("unexpected field formatting: %s", out)
	}
}

func TestInitLoggerCreatesFile(t *testing.T) {
	dir := t.TempDir()
	path, err := InitLogger(dir, false)
	if err != nil {
		t.Fatalf("InitLogger failed: %v", err)
	}
	Info("hello")
	Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read log: %v", err)
	}
	if !strings.Contains(string(data), "hello") {
		t.Errorf("log file missing entry: %s", data)
	}
}
