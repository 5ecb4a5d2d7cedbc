package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/jingkaihe/hushprint/internal/errx"
)

// JSONLWriter is the --audit-log sink. Client and server processes may
// share one file; each event is a single append of one JSON line.
type JSONLWriter struct {
	path string

	mu   sync.Mutex
	file *os.File
}

func NewJSONLWriter(path string) (*JSONLWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errx.Wrap(ErrOpenAuditLog, err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, errx.With(ErrOpenAuditLog, " %s: %w", path, err)
	}
	return &JSONLWriter{path: path, file: f}, nil
}

func (w *JSONLWriter) Path() string {
	return w.path
}

// Write encodes event into one buffer before touching the file, so a line
// is never split across appends.
func (w *JSONLWriter) Write(event *Event) error {
	line, err := json.Marshal(event)
	if err != nil {
		return errx.Wrap(ErrAppendEvent, err)
	}
	line = append(line, '\n')

	w.mu.Lock()
	defer w.mu.Unlock()
	if _, err := w.file.Write(line); err != nil {
		return errx.With(ErrAppendEvent, " %s: %w", event.EventType, err)
	}
	return nil
}

func (w *JSONLWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	_ = w.file.Sync()
	if err := w.file.Close(); err != nil {
		return errx.Wrap(ErrCloseAuditLog, err)
	}
	return nil
}
