// Package output prints installer progress to the console.
package output

import (
	"io"

	"github.com/fatih/color"
)

// Reporter writes colored status messages to a writer. Colors are dropped
// automatically when stdout is not a terminal.
type Reporter struct {
	w       io.Writer
	info    *color.Color
	comment *color.Color
	warn    *color.Color
	err     *color.Color
}

// New creates a Reporter writing to w
func New(w io.Writer) *Reporter {
	return &Reporter{
		w:       w,
		info:    color.New(color.FgGreen),
		comment: color.New(color.FgYellow),
		warn:    color.New(color.FgHiMagenta),
		err:     color.New(color.FgRed),
	}
}

// Info prints a success message in green.
func (r *Reporter) Info(format string, a ...any) {
	_, _ = r.info.Fprintf(r.w, format, a...)
}

// Comment prints a progress notice in yellow.
func (r *Reporter) Comment(format string, a ...any) {
	_, _ = r.comment.Fprintf(r.w, format, a...)
}

// Warn prints a non-fatal problem in magenta.
func (r *Reporter) Warn(format string, a ...any) {
	_, _ = r.warn.Fprintf(r.w, format, a...)
}

// Error prints a failure in red.
func (r *Reporter) Error(format string, a ...any) {
	_, _ = r.err.Fprintf(r.w, format, a...)
}
