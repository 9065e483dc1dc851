package command

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"time"

	"golang.org/x/term"

	"github.com/satococoa/jigsaw-installer/internal/errors"
)

const (
	maxLineSize   = 1024 * 1024
	readChunkSize = 32 * 1024
	promptDelay   = 50 * time.Millisecond
)

// terminalDevice is the controlling terminal children are attached to
var terminalDevice = "/dev/tty"

// ShellRunner implements Runner by handing each batch to the platform shell
type ShellRunner struct {
	interactive bool
	warn        func(error)
}

// NewShellRunner creates a runner. When interactive is set, children get the
// controlling terminal as stdin if one is available. warn receives non-fatal
// problems and may be nil.
func NewShellRunner(interactive bool, warn func(error)) *ShellRunner {
	return &ShellRunner{
		interactive: interactive,
		warn:        warn,
	}
}

// Run spawns one shell for the whole batch and blocks until it exits. stdout
// and stderr share a pipe, so sink sees lines in the order they were written.
func (r *ShellRunner) Run(ctx context.Context, batch Batch, sink LineSink) (*ExecutionResult, error) {
	if len(batch.Commands) == 0 {
		return &ExecutionResult{Succeeded: true}, nil
	}

	cmd := shellCommand(ctx, batch.Line())
	if batch.Dir != "" {
		cmd.Dir = batch.Dir
	}
	if len(batch.Env) > 0 {
		cmd.Env = append(os.Environ(), batch.Env...)
	}

	if r.interactive && terminalAvailable() {
		tty, err := openTerminal()
		if err != nil {
			r.report(&errors.AttachmentWarning{Device: terminalDevice, Err: err})
		} else {
			defer tty.Close()
			cmd.Stdin = tty
		}
	}

	pr, pw, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create output pipe: %w", err)
	}
	defer pr.Close()

	cmd.Stdout = pw
	cmd.Stderr = pw

	if err := cmd.Start(); err != nil {
		_ = pw.Close()
		return nil, fmt.Errorf("failed to start '%s': %w", batch.Line(), err)
	}
	// The child owns its copy of the write end; ours must go for EOF to arrive.
	_ = pw.Close()

	if err := streamLines(pr, sink); err != nil {
		r.report(fmt.Errorf("output of '%s' could not be read: %w", batch.Line(), err))
		_, _ = io.Copy(io.Discard, pr)
	}

	return exitResult(cmd.Wait())
}

func (r *ShellRunner) report(err error) {
	if r.warn != nil {
		r.warn(err)
	}
}

func shellCommand(ctx context.Context, line string) *exec.Cmd {
	if runtime.GOOS == "windows" {
		// #nosec G204 - Command lines are built by the installer, not read from input
		return exec.CommandContext(ctx, "cmd", "/c", line)
	}
	// #nosec G204 - Command lines are built by the installer, not read from input
	return exec.CommandContext(ctx, "sh", "-c", line)
}

// terminalAvailable is the capability check done before attaching. A missing
// device is not worth a warning: there is simply nothing to attach to.
func terminalAvailable() bool {
	if runtime.GOOS == "windows" {
		return false
	}
	_, err := os.Stat(terminalDevice)
	return err == nil
}

func openTerminal() (*os.File, error) {
	tty, err := os.Open(terminalDevice)
	if err != nil {
		return nil, err
	}
	if !term.IsTerminal(int(tty.Fd())) {
		_ = tty.Close()
		return nil, fmt.Errorf("%s is not a terminal", terminalDevice)
	}
	return tty, nil
}

// streamLines hands complete lines to sink as they are read. Text left
// without a newline is delivered once the child has been quiet for
// promptDelay, so prompts waiting for input are visible; a pending fragment
// is also cut at maxLineSize.
func streamLines(r io.Reader, sink LineSink) error {
	chunks := make(chan []byte)
	readErr := make(chan error, 1)

	go func() {
		defer close(chunks)
		buf := make([]byte, readChunkSize)
		for {
			n, err := r.Read(buf)
			if n > 0 {
				chunk := make([]byte, n)
				copy(chunk, buf[:n])
				chunks <- chunk
			}
			if err != nil {
				if err != io.EOF {
					readErr <- err
				}
				return
			}
		}
	}()

	var pending []byte
	var quiet <-chan time.Time
	for {
		select {
		case chunk, ok := <-chunks:
			if !ok {
				deliver(sink, pending)
				select {
				case err := <-readErr:
					return err
				default:
					return nil
				}
			}

			pending = deliverLines(sink, append(pending, chunk...))
			if len(pending) >= maxLineSize {
				deliver(sink, pending)
				pending = nil
			}

			quiet = nil
			if len(pending) > 0 {
				quiet = time.After(promptDelay)
			}
		case <-quiet:
			deliver(sink, pending)
			pending = nil
			quiet = nil
		}
	}
}

// deliverLines sends every newline-terminated line in data and returns the rest
func deliverLines(sink LineSink, data []byte) []byte {
	for {
		i := bytes.IndexByte(data, '\n')
		if i < 0 {
			return data
		}
		if sink != nil {
			sink(string(bytes.TrimSuffix(data[:i], []byte("\r"))))
		}
		data = data[i+1:]
	}
}

// deliver sends a fragment without its newline; empty fragments are dropped
func deliver(sink LineSink, line []byte) {
	if sink != nil && len(line) > 0 {
		sink(string(line))
	}
}

func exitResult(waitErr error) (*ExecutionResult, error) {
	if waitErr == nil {
		return &ExecutionResult{ExitCode: 0, Succeeded: true}, nil
	}

	exitErr, ok := waitErr.(*exec.ExitError)
	if !ok {
		return nil, fmt.Errorf("failed to wait for command: %w", waitErr)
	}

	code := exitErr.ExitCode()
	if code < 0 {
		// Terminated by a signal
		code = 1
	}
	return &ExecutionResult{ExitCode: code, Succeeded: false}, nil
}
