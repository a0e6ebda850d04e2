package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

type Fields = logrus.Fields

var (
	debugLogger *logrus.Logger
	logFile     *os.File
)

// InitLogger initializes the debug logger to write to a dated file in logDir.
// An empty logDir places the file next to the executable.
func InitLogger(logDir string, verbose bool) (string, error) {
	if logDir == "" {
		exePath, err := os.Executable()
		if err != nil {
			return "", fmt.Errorf("failed to get executable path: %w", err)
		}
		logDir = filepath.Dir(exePath)
	}

	if err := os.MkdirAll(logDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create log directory: %w", err)
	}

	logPath := filepath.Join(logDir, fmt.Sprintf("stream-chat-%s.log", time.Now().Format("2006-01-02")))

	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return "", fmt.Errorf("failed to open log file: %w", err)
	}
	logFile = f

	SetOutput(f, verbose)
	debugLogger.Info("=== Stream Chat Log Started ===")

	return logPath, nil
}

// SetOutput points the logger at w. Tests use it to capture output.
func SetOutput(w io.Writer, verbose bool) {
	l := logrus.New()
	l.SetOutput(w)
	l.SetFormatter(LineFormatter{})
	l.SetLevel(logrus.InfoLevel)
	if verbose {
		l.SetLevel(logrus.DebugLevel)
	}
	debugLogger = l
}

// Debug logs a debug message
func Debug(format string, v ...interface{}) {
	if debugLogger != nil {
		debugLogger.Debugf(format, v...)
	}
}

// Info logs an info message
func Info(format string, v ...interface{}) {
	if debugLogger != nil {
		debugLogger.Infof(format, v...)
	}
}

// Error logs an error message
func Error(format string, v ...interface{}) {
	if debugLogger != nil {
		debugLogger.Errorf(format, v...)
	}
}

// With returns an entry carrying fields, e.g. the session ID of a request.
// It is safe to call before InitLogger; output is discarded in that case.
func With(fields Fields) *logrus.Entry {
	if debugLogger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		return logrus.NewEntry(l).WithFields(fields)
	}
	return debugLogger.WithFields(fields)
}

// Close closes the log file
func Close() {
	if logFile != nil {
		debugLogger.Info("=== Stream Chat Log Ended ===")
		logFile.Close()
		logFile = nil
	}
}

// LineFormatter writes one line per entry: timestamp, level, message, sorted fields.
type LineFormatter struct{}

func (LineFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	var b strings.Builder
	b.WriteString(entry.Time.Format("2006/01/02 15:04:05.000000"))
	b.WriteString(" [")
	b.WriteString(strings.ToUpper(entry.Level.String()))
	b.WriteString("] ")
	b.WriteString(entry.Message)

	if len(entry.Data) > 0 {
		keys := make([]string, 0, len(entry.Data))
		for k := range entry.Data {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, " %s=%v", k, entry.Data[k])
		}
	}

	b.WriteByte('\n')
	return []byte(b.String()), nil
}
