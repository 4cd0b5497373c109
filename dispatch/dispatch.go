// Package dispatch runs parsed commands: builtins inside the shell, anything
// else as a child process in the foreground or background.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"pkt.systems/pslog"

	"pkt.systems/crust/internal/logx"
	"pkt.systems/crust/internal/shellerr"
	"pkt.systems/crust/schema"
)

// ErrExit is returned by Execute when the exit builtin ran. Commands after it
// in the same batch are not run.
var ErrExit = errors.New("exit")

// Reporter prints user-facing failures.
type Reporter interface {
	Report(err error)
}

// Config wires a Dispatcher. Zero fields get process defaults.
type Config struct {
	Stdin    io.Reader
	Stdout   io.Writer
	Stderr   io.Writer
	Dir      WorkDir
	Home     func() (string, error)
	Executor Executor
	Jobs     *Jobs
	Reporter Reporter
}

// Dispatcher executes command batches for one shell session.
type Dispatcher struct {
	stdin    io.Reader
	stdout   io.Writer
	stderr   io.Writer
	dir      WorkDir
	home     func() (string, error)
	exec     Executor
	jobs     *Jobs
	reporter Reporter
}

// New returns a dispatcher.
func New(cfg Config) *Dispatcher {
	d := &Dispatcher{
		stdin:    cfg.Stdin,
		stdout:   cfg.Stdout,
		stderr:   cfg.Stderr,
		dir:      cfg.Dir,
		home:     cfg.Home,
		exec:     cfg.Executor,
		jobs:     cfg.Jobs,
		reporter: cfg.Reporter,
	}
	if d.stdout == nil {
		d.stdout = os.Stdout
	}
	if d.stderr == nil {
		d.stderr = os.Stderr
	}
	if d.dir == nil {
		d.dir = ProcessDir{}
	}
	if d.home == nil {
		d.home = os.UserHomeDir
	}
	if d.exec == nil {
		d.exec = OSExecutor{}
	}
	if d.jobs == nil {
		d.jobs = NewJobs()
	}
	if d.reporter == nil {
		d.reporter = &shellerr.Reporter{Out: d.stderr, Picker: shellerr.RandomPicker}
	}
	return d
}

// Jobs returns the background job registry.
func (d *Dispatcher) Jobs() *Jobs {
	return d.jobs
}

// Execute runs cmds in order. Failures are reported and the batch continues;
// the joined failures are returned. When exit runs, the result matches
// ErrExit and the remaining commands are skipped.
func (d *Dispatcher) Execute(ctx context.Context, cmds []schema.Command) error {
	d.ReapJobs(ctx)
	var errs []error
	for _, cmd := range cmds {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		err := d.run(ctx, cmd)
		if err == nil {
			continue
		}
		if errors.Is(err, ErrExit) {
			errs = append(errs, ErrExit)
			break
		}
		d.reporter.Report(err)
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// ReapJobs collects finished background jobs and prints a notice for each.
func (d *Dispatcher) ReapJobs(ctx context.Context) []Finished {
	finished := d.jobs.Reap()
	for _, f := range finished {
		log := logx.WithJob(pslog.Ctx(ctx), f.ID, f.Pid)
		if f.Err != nil {
			log.Debug("dispatch job finished", "name", f.Name, "err", f.Err)
		} else {
			log.Debug("dispatch job finished", "name", f.Name)
		}
		_, _ = fmt.Fprintf(d.stdout, "[%d] Done %s\n", f.ID, f.Name)
	}
	return finished
}

func (d *Dispatcher) run(ctx context.Context, cmd schema.Command) error {
	switch cmd.Builtin {
	case schema.BuiltinExit:
		return ErrExit
	case schema.BuiltinCD:
		return d.cd(cmd.Args)
	case schema.BuiltinEcho:
		_, err := fmt.Fprintln(d.stdout, strings.Join(cmd.Args, " "))
		return err
	case schema.BuiltinAlias:
		logx.WithCommand(pslog.Ctx(ctx), cmd.Name, len(cmd.Args)).Debug("dispatch alias not implemented")
		return nil
	}
	return d.spawn(ctx, cmd)
}

func (d *Dispatcher) cd(args []string) error {
	var target string
	switch len(args) {
	case 0:
		home, err := d.home()
		if err != nil || home == "" {
			return shellerr.Errorf(shellerr.KindFileNotFound, "cd", "", errors.Join(schema.ErrHomeNotSet, err), "home not set")
		}
		target = home
	case 1:
		target = args[0]
		if !filepath.IsAbs(target) {
			cwd, err := d.dir.Get()
			if err != nil {
				return shellerr.New(shellerr.KindFileNotFound, "cd", target, err)
			}
			target = filepath.Join(cwd, target)
		}
	default:
		return shellerr.Errorf(shellerr.KindInvalidArgument, "cd", "", schema.ErrTooManyArguments, "too many arguments")
	}
	info, err := os.Stat(target)
	if err != nil {
		subject := target
		if len(args) == 1 {
			subject = args[0]
		}
		return shellerr.New(shellerr.KindFileNotFound, "cd", subject, err)
	}
	if !info.IsDir() {
		return shellerr.Errorf(shellerr.KindFileNotFound, "cd", args[0], nil, "not a directory")
	}
	if err := d.dir.Set(target); err != nil {
		return shellerr.New(shellerr.KindFileNotFound, "cd", target, err)
	}
	return nil
}

func (d *Dispatcher) spawn(ctx context.Context, cmd schema.Command) error {
	log := logx.WithCommand(pslog.Ctx(ctx), cmd.Name, len(cmd.Args))
	dir, err := d.dir.Get()
	if err != nil {
		log.Warn("dispatch working directory unavailable", "err", err)
		dir = ""
	}
	spec := Spec{
		Argv:   cmd.Argv(),
		Dir:    dir,
		Stdout: d.stdout,
		Stderr: d.stderr,
	}
	if !cmd.Background {
		spec.Stdin = d.stdin
	}
	proc, err := d.exec.Start(ctx, spec)
	if err != nil {
		log.Debug("dispatch start failed", "err", err)
		if shellerr.KindOf(err) == shellerr.KindUnknown {
			return shellerr.New(shellerr.KindCommandNotFound, "", cmd.Name, err)
		}
		return err
	}
	if cmd.Background {
		job := d.jobs.Add(cmd.Name, proc)
		logx.WithJob(log, job.ID, job.Pid).Debug("dispatch job started")
		_, _ = fmt.Fprintf(d.stdout, "[%d] %d\n", job.ID, job.Pid)
		return nil
	}
	log = logx.WithJob(log, 0, proc.Pid())
	log.Trace("dispatch wait")
	err = proc.Wait()
	var exitErr *exec.ExitError
	switch {
	case err == nil:
		log.Debug("dispatch exited", "code", 0)
	case errors.As(err, &exitErr):
		log.Debug("dispatch exited", "code", exitErr.ExitCode())
	default:
		log.Warn("dispatch wait failed", "err", err)
	}
	return nil
}
