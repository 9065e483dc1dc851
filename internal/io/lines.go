package io

import (
	"bufio"
	"io"
)

// LineWriter writes child process output to w, one indented line at a time.
// Every line is flushed immediately so long-running installs show progress
// as it happens.
type LineWriter struct {
	w       io.Writer
	flusher interface{ Flush() error }
	prefix  string
}

// NewLineWriter creates a LineWriter. If w already supports flushing it is
// used directly; otherwise it is wrapped in a bufio.Writer.
func NewLineWriter(w io.Writer, prefix string) *LineWriter {
	lw := &LineWriter{w: w, prefix: prefix}

	if f, ok := w.(interface{ Flush() error }); ok {
		lw.flusher = f
	} else {
		bw := bufio.NewWriter(w)
		lw.w = bw
		lw.flusher = bw
	}

	return lw
}

// WriteLine writes prefix, line and a newline, then flushes.
func (lw *LineWriter) WriteLine(line string) error {
	if _, err := io.WriteString(lw.w, lw.prefix+line+"\n"); err != nil {
		return err
	}
	return lw.Flush()
}

// Sink adapts the writer to a line callback. Write errors are dropped: a
// broken terminal must not abort the child whose output is being shown.
func (lw *LineWriter) Sink() func(line string) {
	return func(line string) {
		_ = lw.WriteLine(line)
	}
}

// Flush explicitly flushes any buffered data.
func (lw *LineWriter) Flush() error {
	if lw.flusher != nil {
		return lw.flusher.Flush()
	}
	return nil
}
