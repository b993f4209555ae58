package process

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/forPelevin/scenecut/internal/logging"
	"github.com/forPelevin/scenecut/internal/ports"
)

// maxStderrBytes is the tail of stderr kept for diagnostics.
const maxStderrBytes = 16 * 1024

// ExitError reports an external tool that failed to start or exited non-zero.
type ExitError struct {
	Name     string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *ExitError) Error() string {
	msg := fmt.Sprintf("%s exited %d", e.Name, e.ExitCode)
	if e.Err != nil && e.ExitCode < 0 {
		msg = fmt.Sprintf("%s: %v", e.Name, e.Err)
	}
	if tail := strings.TrimSpace(e.Stderr); tail != "" {
		msg += "\n" + tail
	}
	return msg
}

func (e *ExitError) Unwrap() error { return e.Err }

func (e *ExitError) Diagnostic() string { return strings.TrimSpace(e.Stderr) }

// Diagnostic returns the captured stderr of a failed command found in err's chain.
func Diagnostic(err error) string {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Diagnostic()
	}
	return ""
}

type Executor struct {
	log zerolog.Logger
}

func New(log zerolog.Logger) *Executor {
	return &Executor{log: logging.WithComponent(log, "exec")}
}

func (e *Executor) Run(ctx context.Context, c ports.Command) (ports.ExecResult, error) {
	start := time.Now()

	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Dir = c.Dir

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &limitedWriter{w: &stderr, limit: maxStderrBytes}

	e.log.Debug().Str("cmd", c.Name).Strs("args", c.Args).Msg("executing")

	err := cmd.Run()
	res := ports.ExecResult{
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}
	if err == nil {
		e.log.Debug().Str("cmd", c.Name).Dur("elapsed", res.Duration).Msg("command succeeded")
		return res, nil
	}

	res.ExitCode = -1
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		err = fmt.Errorf("%w: %w", ctxErr, err)
	}

	e.log.Warn().
		Str("cmd", c.Name).
		Int("exit_code", res.ExitCode).
		Dur("elapsed", res.Duration).
		Str("stderr_tail", truncate(res.Stderr, 512)).
		Msg("command failed")

	return res, &ExitError{Name: c.Name, ExitCode: res.ExitCode, Stderr: res.Stderr, Err: err}
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return "..." + s[len(s)-maxLen:]
}

// limitedWriter keeps only the last limit bytes written.
type limitedWriter struct {
	w     *bytes.Buffer
	limit int
}

func (lw *limitedWriter) Write(p []byte) (int, error) {
	n := len(p)
	lw.w.Write(p)
	if lw.w.Len() > lw.limit {
		b := lw.w.Bytes()
		tail := append([]byte(nil), b[len(b)-lw.limit:]...)
		lw.w.Reset()
		lw.w.Write(tail)
	}
	return n, nil
}
