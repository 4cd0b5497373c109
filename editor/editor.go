// Package editor implements the interactive line editor as a pure state
// machine: every key event maps a State to a new State without touching the
// terminal.
package editor

import (
	"strings"
	"unicode"
)

// History is the read-only view of submitted lines the editor browses.
// At indexes from the oldest entry.
type History interface {
	Len() int
	At(i int) string
}

// Completer lists candidates that start with a partial token.
type Completer interface {
	Complete(prefix string) []string
}

// CompleterFunc adapts a function to Completer.
type CompleterFunc func(prefix string) []string

// Complete implements Completer.
func (f CompleterFunc) Complete(prefix string) []string {
	return f(prefix)
}

// Editor applies key events to editing state.
type Editor struct {
	history   History
	completer Completer
	ask       bool
}

// Option configures an Editor.
type Option func(*Editor)

// WithAsk enables the Ctrl+A ask sub-mode.
func WithAsk(enabled bool) Option {
	return func(e *Editor) {
		e.ask = enabled
	}
}

// New returns an editor browsing h and completing with c. Both may be nil.
func New(h History, c Completer, opts ...Option) *Editor {
	e := &Editor{history: h, completer: c}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// HandleKey returns the state that results from pressing k in st. The
// returned state never shares buffers with st and always satisfies
// 0 <= Cursor <= len(Buffer).
func (e *Editor) HandleKey(st State, k Key) State {
	next := st.Clone()
	next.Completions = nil
	next.clampCursor()

	switch next.Mode {
	case ModeSubmitted, ModeInterrupted, ModeTerminated:
		return next
	case ModeWaiting:
		switch k.Kind {
		case KeyCtrlC:
			next.Mode = ModeEditing
		case KeyCtrlD:
			next.Mode = ModeTerminated
		}
		return next
	}

	asking := next.Mode == ModeAsking
	switch k.Kind {
	case KeyRune:
		next.insert(k.R)
	case KeyBackspace:
		next.backspace()
	case KeyDelete:
		next.deleteForward()
	case KeyLeft:
		if next.Cursor > 0 {
			next.Cursor--
		}
	case KeyRight:
		if next.Cursor < len(next.Buffer) {
			next.Cursor++
		}
	case KeyHome:
		next.Cursor = 0
	case KeyEnd:
		next.Cursor = len(next.Buffer)
	case KeyUp:
		if !asking {
			e.historyUp(&next)
		}
	case KeyDown:
		if !asking {
			e.historyDown(&next)
		}
	case KeyTab:
		if !asking {
			e.complete(&next)
		}
	case KeyEnter:
		if asking {
			if strings.TrimSpace(next.Line()) != "" {
				next.Mode = ModeWaiting
			}
			break
		}
		next.Mode = ModeSubmitted
	case KeyCtrlA:
		if e.ask && !asking {
			next.Mode = ModeAsking
		}
	case KeyCtrlC:
		if asking {
			next.Mode = ModeEditing
			break
		}
		next.Mode = ModeInterrupted
	case KeyCtrlD:
		next.Mode = ModeTerminated
	}
	return next
}

// ApplySuggestion replaces the buffer of a waiting state with text and
// resumes editing. States that are not waiting are returned unchanged.
func ApplySuggestion(st State, text string) State {
	if st.Mode != ModeWaiting {
		return st
	}
	next := st.Clone()
	next.setString(text)
	next.Mode = ModeEditing
	return next
}

// CancelWait resumes editing of a waiting state with the question kept.
func CancelWait(st State) State {
	if st.Mode != ModeWaiting {
		return st
	}
	next := st.Clone()
	next.Mode = ModeEditing
	return next
}

func (s *State) insert(r rune) {
	if !unicode.IsPrint(r) {
		return
	}
	if s.Cursor == len(s.Buffer) {
		s.Buffer = append(s.Buffer, r)
	} else {
		s.Buffer = append(s.Buffer[:s.Cursor], append([]rune{r}, s.Buffer[s.Cursor:]...)...)
	}
	s.Cursor++
	s.leaveHistory()
}

func (s *State) backspace() {
	if len(s.Buffer) == 0 || s.Cursor == 0 {
		return
	}
	if s.Cursor == len(s.Buffer) {
		s.Buffer = s.Buffer[:len(s.Buffer)-1]
	} else {
		s.Buffer = append(s.Buffer[:s.Cursor-1], s.Buffer[s.Cursor:]...)
	}
	s.Cursor--
	s.leaveHistory()
}

func (s *State) deleteForward() {
	if s.Cursor >= len(s.Buffer) {
		return
	}
	s.Buffer = append(s.Buffer[:s.Cursor], s.Buffer[s.Cursor+1:]...)
	s.leaveHistory()
}

// leaveHistory returns to plain editing after the browsed entry is changed.
// HistoryIndex is kept so Down still walks back to the saved buffer.
func (s *State) leaveHistory() {
	if s.Mode == ModeHistoryBrowsing {
		s.Mode = ModeEditing
	}
}

func (e *Editor) historyUp(s *State) {
	if e.history == nil {
		return
	}
	n := e.history.Len()
	if s.HistoryIndex < 0 || s.HistoryIndex >= n {
		return
	}
	if s.HistoryIndex == 0 {
		s.SavedBuffer = cloneRunes(s.Buffer)
	}
	s.setString(e.history.At(n - s.HistoryIndex - 1))
	s.HistoryIndex++
	s.Mode = ModeHistoryBrowsing
}

func (e *Editor) historyDown(s *State) {
	if e.history == nil || s.HistoryIndex <= 0 {
		return
	}
	if s.HistoryIndex == 1 {
		s.Buffer = cloneRunes(s.SavedBuffer)
		s.Cursor = len(s.Buffer)
	} else {
		n := e.history.Len()
		s.setString(e.history.At(n - s.HistoryIndex + 1))
	}
	s.HistoryIndex--
	s.Mode = ModeHistoryBrowsing
}

func (e *Editor) complete(s *State) {
	if e.completer == nil {
		return
	}
	token := lastToken(s.Line())
	candidates := e.completer.Complete(token)
	switch len(candidates) {
	case 0:
	case 1:
		suffix := []rune(strings.TrimPrefix(candidates[0], token))
		s.Buffer = append(s.Buffer, suffix...)
		s.Cursor += len(suffix)
		s.clampCursor()
	default:
		s.Completions = append([]string(nil), candidates...)
	}
}

func lastToken(line string) string {
	idx := strings.LastIndexAny(line, " \t")
	if idx < 0 {
		return line
	}
	return line[idx+1:]
}
