package process

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"
)

const defaultGracePeriod = 5 * time.Second

// Run starts cmd and waits for it. The process runs in its own process
// group; cancelling ctx sends SIGTERM to the whole group and SIGKILL once the
// grace period has passed, so helpers a script forked die with it.
//
// A non-zero exit is returned as an error together with the Result.
func Run(ctx context.Context, cmd Command) (*Result, error) {
	if cmd.Binary == "" {
		return nil, errors.New("process: binary is required")
	}

	c := exec.CommandContext(ctx, cmd.Binary, cmd.Args...) //nolint:gosec // running configured scripts is the point
	c.Dir = cmd.Dir
	if len(cmd.Env) > 0 {
		c.Env = append(os.Environ(), cmd.Env...)
	}
	c.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	c.Cancel = func() error { return syscall.Kill(-c.Process.Pid, syscall.SIGTERM) }
	c.WaitDelay = cmd.GracePeriod
	if c.WaitDelay <= 0 {
		c.WaitDelay = defaultGracePeriod
	}

	var out capture
	c.Stdout = out.stream(Stdout, cmd.OnLine)
	c.Stderr = out.stream(Stderr, cmd.OnLine)

	start := time.Now()
	err := c.Run()
	out.flush()

	res := &Result{
		Stdout:   out.buf[Stdout].Bytes(),
		Stderr:   out.buf[Stderr].Bytes(),
		ExitCode: -1,
		Duration: time.Since(start),
	}
	if c.ProcessState != nil {
		res.ExitCode = c.ProcessState.ExitCode()
	}

	switch {
	case err == nil:
		return res, nil
	case c.ProcessState == nil:
		return res, fmt.Errorf("process: start %s: %w", cmd.Binary, err)
	case ctx.Err() != nil:
		return res, &ExitError{Result: res, Err: ctx.Err()}
	default:
		return res, &ExitError{Result: res, Err: err}
	}
}

// ExitError is returned when the process failed or was killed. It keeps the
// Result so callers holding only the error can still report output.
type ExitError struct {
	Result *Result
	Err    error
}

func (e *ExitError) Error() string {
	if e.Result.ExitCode >= 0 {
		return fmt.Sprintf("process: exit code %d: %v", e.Result.ExitCode, e.Err)
	}
	return fmt.Sprintf("process: killed: %v", e.Err)
}

func (e *ExitError) Unwrap() error { return e.Err }

// capture buffers both output streams and, when fn is set, splits them into
// lines for it. Lines of both streams are delivered one at a time.
type capture struct {
	mu    sync.Mutex
	buf   map[Stream]*bytes.Buffer
	lines []*lineSplitter
}

func (c *capture) stream(s Stream, fn LineFunc) io.Writer {
	if c.buf == nil {
		c.buf = map[Stream]*bytes.Buffer{}
	}
	b := &bytes.Buffer{}
	c.buf[s] = b
	if fn == nil {
		return b
	}
	ls := &lineSplitter{stream: s, fn: fn, mu: &c.mu}
	c.lines = append(c.lines, ls)
	return io.MultiWriter(b, ls)
}

func (c *capture) flush() {
	for _, ls := range c.lines {
		ls.flush()
	}
}

type lineSplitter struct {
	stream  Stream
	fn      LineFunc
	mu      *sync.Mutex
	pending []byte
}

func (w *lineSplitter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending = append(w.pending, p...)
	for {
		line, rest, ok := bytes.Cut(w.pending, []byte{'\n'})
		if !ok {
			break
		}
		w.fn(w.stream, string(bytes.TrimSuffix(line, []byte{'\r'})))
		w.pending = rest
	}
	return len(p), nil
}

func (w *lineSplitter) flush() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.pending) > 0 {
		w.fn(w.stream, string(w.pending))
		w.pending = nil
	}
}
