package sink

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sync"
)

const jsonLinesName = "jsonlines"

// JSONLines writes every record as a RECORD message on its own line.
type JSONLines struct {
	mu  sync.Mutex
	buf *bufio.Writer
}

// NewJSONLines creates a sink writing to w, typically os.Stdout.
func NewJSONLines(w io.Writer) *JSONLines {
	return &JSONLines{buf: bufio.NewWriter(w)}
}

// Write implements Sink.
func (s *JSONLines) Write(ctx context.Context, rec Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := WriteMessage(s.buf, NewRecordMessage(rec)); err != nil {
		writeErrors.WithLabelValues(jsonLinesName).Inc()
		return fmt.Errorf("write record: %w", err)
	}
	recordsWritten.WithLabelValues(jsonLinesName).Inc()
	return nil
}

// Flush writes buffered records to the underlying writer.
func (s *JSONLines) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Flush()
}

// Close flushes buffered records. The underlying writer stays open.
func (s *JSONLines) Close() error {
	return s.Flush()
}
