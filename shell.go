// Package crust is an interactive command shell: a keystroke line editor in
// front of a small command language with builtins, background jobs and an
// optional ask mode that turns questions into command lines.
package crust

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"pkt.systems/pslog"

	"pkt.systems/crust/dispatch"
	"pkt.systems/crust/editor"
	"pkt.systems/crust/internal/complete"
	"pkt.systems/crust/internal/history"
	"pkt.systems/crust/internal/shellerr"
	"pkt.systems/crust/parse"
	"pkt.systems/crust/suggest"
	"pkt.systems/crust/terminal"
)

// Terminal is the interactive device a shell session runs on.
type Terminal interface {
	io.Writer
	// Raw puts the device in raw mode and returns the function undoing it.
	Raw() (restore func() error, err error)
	// Keys starts delivering key events. stop ends delivery and releases
	// the input for child processes.
	Keys() (keys <-chan editor.Key, stop func(), err error)
}

// Config holds presentation settings.
type Config struct {
	// Name prefixes user-facing error messages.
	Name   string
	Prompt string
	Color  bool
	// SpinnerInterval is the ask mode spinner frame time.
	SpinnerInterval time.Duration
}

// Deps carries the collaborators of a shell. Nil fields get defaults for the
// local process.
type Deps struct {
	Stdin     io.Reader
	Stdout    io.Writer
	Stderr    io.Writer
	Dir       dispatch.WorkDir
	Home      func() (string, error)
	Executor  dispatch.Executor
	History   *history.Store
	Completer editor.Completer
	Suggester suggest.Suggester
	Picker    shellerr.Picker
}

// Shell runs command lines for one session.
type Shell struct {
	cfg        Config
	history    *history.Store
	editor     *editor.Editor
	dispatcher *dispatch.Dispatcher
	reporter   *shellerr.Reporter
	suggester  suggest.Suggester
}

// New wires a shell.
func New(cfg Config, deps Deps) *Shell {
	if cfg.Name == "" {
		cfg.Name = "crust"
	}
	if cfg.Prompt == "" {
		cfg.Prompt = terminal.DefaultPrompt
	}
	if cfg.SpinnerInterval <= 0 {
		cfg.SpinnerInterval = 250 * time.Millisecond
	}
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	if deps.Dir == nil {
		deps.Dir = dispatch.ProcessDir{}
	}
	if deps.History == nil {
		deps.History = history.New()
	}
	if deps.Picker == nil {
		deps.Picker = shellerr.RandomPicker
	}
	if deps.Completer == nil {
		deps.Completer = complete.Provider{Dir: deps.Dir.Get}
	}
	reporter := &shellerr.Reporter{Out: deps.Stderr, Name: cfg.Name, Picker: deps.Picker}
	s := &Shell{
		cfg:       cfg,
		history:   deps.History,
		reporter:  reporter,
		suggester: deps.Suggester,
		dispatcher: dispatch.New(dispatch.Config{
			Stdin:    deps.Stdin,
			Stdout:   deps.Stdout,
			Stderr:   deps.Stderr,
			Dir:      deps.Dir,
			Home:     deps.Home,
			Executor: deps.Executor,
			Reporter: reporter,
		}),
	}
	s.editor = editor.New(s.history, deps.Completer, editor.WithAsk(deps.Suggester != nil))
	return s
}

// PromptFromEnv picks the prompt: PS2 when set, else configured, else "$ ".
func PromptFromEnv(configured string) string {
	if ps2 := os.Getenv("PS2"); ps2 != "" {
		return ps2
	}
	if configured != "" {
		return configured
	}
	return terminal.DefaultPrompt
}

// History returns the session history.
func (s *Shell) History() *history.Store {
	return s.history
}

// Close stops tracking background jobs of the session.
func (s *Shell) Close(ctx context.Context) {
	if n := s.dispatcher.Jobs().Abandon(); n > 0 {
		pslog.Ctx(ctx).Debug("shell abandoned jobs", "count", n)
	}
}

// RunLine parses and executes one line. Parse failures are reported and
// returned without running anything. The result matches dispatch.ErrExit
// when the line ran exit.
func (s *Shell) RunLine(ctx context.Context, line string) error {
	cmds, err := parse.Parse(line)
	if err != nil {
		s.reportParse(err)
		return err
	}
	return s.dispatcher.Execute(ctx, cmds)
}

// RunScript runs a whole script. exit stops the script with success.
// Failing commands are reported and the script continues; their errors are
// returned joined.
func (s *Shell) RunScript(ctx context.Context, text string) error {
	cmds, err := parse.Parse(text)
	if err != nil {
		s.reportParse(err)
		return fmt.Errorf("parse script: %w", err)
	}
	err = s.dispatcher.Execute(ctx, cmds)
	if errors.Is(err, dispatch.ErrExit) {
		return nil
	}
	return err
}

func (s *Shell) reportParse(err error) {
	var perr *parse.Error
	if errors.As(err, &perr) {
		s.reporter.Report(shellerr.Errorf(shellerr.KindParsing, "parse", fmt.Sprintf("offset %d", perr.Offset), err, "%s", perr.Reason))
		return
	}
	s.reporter.Report(shellerr.New(shellerr.KindParsing, "parse", "", err))
}

// RunInteractive edits and runs lines on term until Ctrl+D, exit, the end
// of input, or ctx is done. The terminal is in raw mode only while a line is
// being edited.
func (s *Shell) RunInteractive(ctx context.Context, term Terminal) error {
	log := pslog.Ctx(ctx)
	log.Debug("shell interactive start", "prompt", s.cfg.Prompt, "ask", s.suggester != nil)
	for {
		s.dispatcher.ReapJobs(ctx)
		line, mode, err := s.readLine(ctx, term)
		if err != nil {
			return err
		}
		switch mode {
		case editor.ModeTerminated:
			log.Debug("shell interactive end")
			return nil
		case editor.ModeInterrupted:
			continue
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		s.history.Append(line)
		err = s.RunLine(ctx, line)
		if errors.Is(err, dispatch.ErrExit) {
			log.Debug("shell exit builtin")
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
	}
}

type suggestion struct {
	text string
	err  error
}

// readLine runs one editing session and returns the final line and mode.
func (s *Shell) readLine(ctx context.Context, term Terminal) (string, editor.Mode, error) {
	log := pslog.Ctx(ctx)
	restore, err := term.Raw()
	if err != nil {
		return "", editor.ModeTerminated, fmt.Errorf("enter raw mode: %w", err)
	}
	defer func() {
		if err := restore(); err != nil {
			log.Warn("shell restore terminal failed", "err", err)
		}
	}()
	keys, stop, err := term.Keys()
	if err != nil {
		return "", editor.ModeTerminated, fmt.Errorf("read keys: %w", err)
	}
	defer stop()

	var (
		st         editor.State
		spinner    int
		ticker     *time.Ticker
		tick       <-chan time.Time
		answers    chan suggestion
		cancelWait context.CancelFunc
	)
	stopWaiting := func() {
		if cancelWait != nil {
			cancelWait()
			cancelWait = nil
		}
		if ticker != nil {
			ticker.Stop()
			ticker = nil
		}
		tick = nil
		answers = nil
	}
	defer stopWaiting()

	renderer := terminal.NewRenderer(term, s.cfg.Prompt, s.cfg.Color)
	paint := func() {
		if err := renderer.Render(st, spinner); err != nil {
			log.Debug("shell render failed", "err", err)
		}
		st.Completions = nil
	}
	paint()
	for {
		select {
		case <-ctx.Done():
			return "", editor.ModeTerminated, ctx.Err()
		case k, ok := <-keys:
			if !ok {
				st.Mode = editor.ModeTerminated
				_ = renderer.Finish(st)
				return "", editor.ModeTerminated, nil
			}
			prev := st.Mode
			st = s.editor.HandleKey(st, k)
			switch {
			case prev == editor.ModeWaiting && st.Mode != editor.ModeWaiting:
				log.Debug("shell ask canceled")
				stopWaiting()
			case prev != editor.ModeWaiting && st.Mode == editor.ModeWaiting:
				askCtx, cancel := context.WithCancel(ctx)
				cancelWait = cancel
				answers = make(chan suggestion, 1)
				go func(ctx context.Context, question string, out chan<- suggestion) {
					text, err := s.suggester.Suggest(ctx, question)
					out <- suggestion{text: text, err: err}
				}(askCtx, st.Line(), answers)
				ticker = time.NewTicker(s.cfg.SpinnerInterval)
				tick = ticker.C
				spinner = 0
			}
			if st.Mode.Done() {
				paint()
				_ = renderer.Finish(st)
				return st.Line(), st.Mode, nil
			}
			paint()
		case <-tick:
			spinner++
			paint()
		case res := <-answers:
			stopWaiting()
			if res.err != nil {
				log.Debug("shell ask failed", "err", res.err)
				st = editor.CancelWait(st)
				_, _ = fmt.Fprintf(term, "\r\x1b[K%s\r\n", s.reporter.Format(classifyAsk(res.err)))
			} else {
				st = editor.ApplySuggestion(st, res.text)
			}
			paint()
		}
	}
}

func classifyAsk(err error) error {
	if shellerr.KindOf(err) == shellerr.KindUnknown {
		return shellerr.New(shellerr.KindNetwork, "ask", "", err)
	}
	return err
}
