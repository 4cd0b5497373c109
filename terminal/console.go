// Package terminal connects the line editor to a real terminal: raw mode,
// key decoding, and prompt rendering.
package terminal

import (
	"context"
	"io"
	"os"

	"github.com/muesli/cancelreader"
	"golang.org/x/term"

	"pkt.systems/crust/editor"
)

// Console is the local controlling terminal.
type Console struct {
	in  *os.File
	out io.Writer
}

// NewConsole returns a console reading keys from in and painting to out.
func NewConsole(in *os.File, out io.Writer) *Console {
	return &Console{in: in, out: out}
}

// Write paints to the console output.
func (c *Console) Write(p []byte) (int, error) {
	return c.out.Write(p)
}

// IsTerminal reports whether the input is an interactive terminal.
func (c *Console) IsTerminal() bool {
	return term.IsTerminal(int(c.in.Fd()))
}

// Raw switches the input to raw mode and returns the function restoring the
// previous mode. Non-terminal inputs are left alone.
func (c *Console) Raw() (func() error, error) {
	fd := int(c.in.Fd())
	if !term.IsTerminal(fd) {
		return func() error { return nil }, nil
	}
	state, err := term.MakeRaw(fd)
	if err != nil {
		return nil, err
	}
	restored := false
	return func() error {
		if restored {
			return nil
		}
		restored = true
		return term.Restore(fd, state)
	}, nil
}

// Keys starts decoding key events from the input. stop cancels the pending
// read and waits for the decoder to exit, handing the input back to child
// processes.
func (c *Console) Keys() (<-chan editor.Key, func(), error) {
	reader, err := cancelreader.NewReader(c.in)
	if err != nil {
		return nil, nil, err
	}
	ctx, cancel := context.WithCancel(context.Background())
	keys := make(chan editor.Key, 16)
	done := make(chan struct{})
	go func() {
		defer close(done)
		ReadKeys(ctx, reader, keys)
	}()
	stop := func() {
		cancel()
		reader.Cancel()
		<-done
		_ = reader.Close()
	}
	return keys, stop, nil
}
