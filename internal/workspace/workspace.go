// Package workspace provides the per-run scratch directory and the advisory
// lock that keeps two runs off the same input file.
package workspace

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"github.com/forPelevin/scenecut/internal/ports"
)

// Manager creates run workspaces below Base (os.TempDir when empty).
type Manager struct {
	Base string
}

func (m Manager) Acquire(runID string) (ports.Workspace, error) {
	base := m.Base
	if base == "" {
		base = os.TempDir()
	}
	if err := os.MkdirAll(base, 0o755); err != nil {
		return nil, fmt.Errorf("create workspace base: %w", err)
	}
	dir, err := os.MkdirTemp(base, "scenecut-"+runID+"-")
	if err != nil {
		return nil, fmt.Errorf("create workspace: %w", err)
	}
	return &Dir{path: dir}, nil
}

type Dir struct {
	path string
}

func (d *Dir) Dir() string { return d.path }

func (d *Dir) Path(name string) string { return filepath.Join(d.path, name) }

// Release removes the workspace and everything in it. Releasing twice is a no-op.
func (d *Dir) Release() error {
	if d.path == "" {
		return nil
	}
	err := os.RemoveAll(d.path)
	if err == nil {
		d.path = ""
	}
	return err
}

var ErrInputBusy = errors.New("input is already being processed by another run")

// InputLock is an advisory lock keyed on the absolute input path.
type InputLock struct {
	lock *flock.Flock
}

// LockInput takes a non-blocking lock for input under dir.
func LockInput(dir, input string) (*InputLock, error) {
	abs, err := filepath.Abs(input)
	if err != nil {
		return nil, err
	}
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create lock dir: %w", err)
	}
	sum := sha256.Sum256([]byte(abs))
	l := flock.New(filepath.Join(dir, "scenecut-"+hex.EncodeToString(sum[:])[:16]+".lock"))

	ok, err := l.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire input lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%s: %w", input, ErrInputBusy)
	}
	return &InputLock{lock: l}, nil
}

func (l *InputLock) Path() string { return l.lock.Path() }

func (l *InputLock) Unlock() error {
	if err := l.lock.Unlock(); err != nil {
		return err
	}
	return os.Remove(l.lock.Path())
}
