package dispatch

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"pkt.systems/crust/internal/shellerr"
)

// Spec describes one process to start.
type Spec struct {
	Argv   []string
	Dir    string
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// Process is a started child.
type Process interface {
	Pid() int
	// Wait blocks until the process exits. It is safe to call more than once.
	Wait() error
	// TryWait reports whether the process has exited without blocking.
	TryWait() (bool, error)
}

// Executor starts external commands.
type Executor interface {
	Start(ctx context.Context, spec Spec) (Process, error)
}

// OSExecutor starts real processes with os/exec.
type OSExecutor struct {
	// WaitDelay bounds how long Wait keeps copying output after the child
	// exited. Zero means one second.
	WaitDelay time.Duration
}

// Start implements Executor. Start failures are classified as
// CommandNotFound or PermissionDenied.
func (e OSExecutor) Start(_ context.Context, spec Spec) (Process, error) {
	if len(spec.Argv) == 0 || spec.Argv[0] == "" {
		return nil, shellerr.New(shellerr.KindCommandNotFound, "", "", exec.ErrNotFound)
	}
	name := spec.Argv[0]
	path := name
	if strings.ContainsRune(name, filepath.Separator) && !filepath.IsAbs(name) && spec.Dir != "" {
		path = filepath.Join(spec.Dir, name)
	}
	cmd := exec.Command(path, spec.Argv[1:]...)
	cmd.Args[0] = name
	cmd.Dir = spec.Dir
	cmd.Stdin = spec.Stdin
	cmd.Stdout = spec.Stdout
	cmd.Stderr = spec.Stderr
	cmd.WaitDelay = e.WaitDelay
	if cmd.WaitDelay <= 0 {
		cmd.WaitDelay = time.Second
	}
	if err := cmd.Start(); err != nil {
		return nil, classifyStart(name, err)
	}
	return &osProcess{cmd: cmd, done: make(chan struct{})}, nil
}

func classifyStart(name string, err error) error {
	switch {
	case errors.Is(err, fs.ErrPermission):
		return shellerr.New(shellerr.KindPermissionDenied, "", name, err)
	default:
		return shellerr.New(shellerr.KindCommandNotFound, "", name, err)
	}
}

type osProcess struct {
	cmd   *exec.Cmd
	once  sync.Once
	watch sync.Once
	done  chan struct{}
	err   error
}

func (p *osProcess) Pid() int {
	return p.cmd.Process.Pid
}

func (p *osProcess) Wait() error {
	p.once.Do(func() {
		p.err = p.cmd.Wait()
		close(p.done)
	})
	<-p.done
	return p.err
}

func (p *osProcess) TryWait() (bool, error) {
	select {
	case <-p.done:
		return true, p.err
	default:
	}
	exited, err := p.poll()
	if err != nil || !exited {
		return false, err
	}
	return true, p.Wait()
}
