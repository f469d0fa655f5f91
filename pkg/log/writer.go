package log

import (
	"bytes"
	"strings"
	"sync"
)

// LineWriter is an io.Writer that emits one Info entry per line written to it.
// It is used to relay the stdout/stderr of child processes. The last Tail
// lines are retained for error reporting.
type LineWriter struct {
	logger Logger
	msg    string
	keep   int

	mu   sync.Mutex
	buf  bytes.Buffer
	tail []string
}

// NewLineWriter returns a LineWriter logging through l with msg as the entry
// message. keep bounds the number of retained lines; zero disables retention.
func NewLineWriter(l Logger, msg string, keep int) *LineWriter {
	return &LineWriter{logger: l, msg: msg, keep: keep}
}

func (w *LineWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.buf.Write(p)
	for {
		idx := bytes.IndexByte(w.buf.Bytes(), '\n')
		if idx < 0 {
			break
		}
		line := string(w.buf.Next(idx + 1))
		w.emit(line)
	}

	return len(p), nil
}

// Flush emits any trailing partial line.
func (w *LineWriter) Flush() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.buf.Len() > 0 {
		w.emit(w.buf.String())
		w.buf.Reset()
	}
}

// Tail returns a copy of the retained lines, oldest first.
func (w *LineWriter) Tail() []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	out := make([]string, len(w.tail))
	copy(out, w.tail)
	return out
}

func (w *LineWriter) emit(line string) {
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return
	}

	w.logger.Info(w.msg, "line", line)

	if w.keep <= 0 {
		return
	}
	if len(w.tail) == w.keep {
		w.tail = append(w.tail[:0], w.tail[1:]...)
	}
	w.tail = append(w.tail, line)
}
