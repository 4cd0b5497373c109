package terminal

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/muesli/termenv"

	"pkt.systems/crust/editor"
)

// DefaultPrompt is shown when neither PS2 nor the config sets a prompt.
const DefaultPrompt = "$ "

// AskPrompt is shown while collecting a question for the suggester.
const AskPrompt = "[ask-crust]: "

// SpinnerFrames animate the prompt while waiting for a suggestion.
var SpinnerFrames = []rune{'|', '/', '-', '\\'}

// Renderer repaints the prompt line for an editor state. It assumes the
// terminal is in raw mode and emits CRLF line breaks itself.
type Renderer struct {
	out    io.Writer
	prompt string
	color  bool
}

// NewRenderer returns a renderer writing to out.
func NewRenderer(out io.Writer, prompt string, color bool) *Renderer {
	if prompt == "" {
		prompt = DefaultPrompt
	}
	return &Renderer{out: out, prompt: prompt, color: color}
}

// Render redraws the current line. Pending completions are listed on their
// own line above the prompt. spinner is the frame index used while waiting.
func (r *Renderer) Render(st editor.State, spinner int) error {
	var b strings.Builder
	b.WriteString("\r\x1b[K")
	if len(st.Completions) > 0 {
		b.WriteString(strings.Join(st.Completions, "    "))
		b.WriteString("\r\n")
	}
	prefix, styled := r.promptFor(st, spinner)
	b.WriteString(styled)
	b.WriteString(string(st.Buffer))

	cursor := st.Cursor
	if cursor < 0 {
		cursor = 0
	}
	if cursor > len(st.Buffer) {
		cursor = len(st.Buffer)
	}
	col := runewidth.StringWidth(prefix) + runewidth.StringWidth(string(st.Buffer[:cursor]))
	b.WriteString("\r")
	if col > 0 {
		fmt.Fprintf(&b, "\x1b[%dC", col)
	}
	_, err := io.WriteString(r.out, b.String())
	return err
}

// Finish ends the prompt line once the session is over.
func (r *Renderer) Finish(st editor.State) error {
	var err error
	switch st.Mode {
	case editor.ModeInterrupted:
		_, err = io.WriteString(r.out, "^C\r\n")
	case editor.ModeSubmitted, editor.ModeTerminated:
		_, err = io.WriteString(r.out, "\r\n")
	}
	return err
}

func (r *Renderer) promptFor(st editor.State, spinner int) (string, string) {
	switch st.Mode {
	case editor.ModeAsking:
		return AskPrompt, r.style(AskPrompt)
	case editor.ModeWaiting:
		frame := string(SpinnerFrames[positiveMod(spinner, len(SpinnerFrames))]) + " "
		return frame + AskPrompt, frame + r.style(AskPrompt)
	}
	return r.prompt, r.prompt
}

func (r *Renderer) style(text string) string {
	if !r.color {
		return text
	}
	return termenv.String(text).Foreground(termenv.ANSIBrightMagenta).String()
}

func positiveMod(a, n int) int {
	m := a % n
	if m < 0 {
		m += n
	}
	return m
}
