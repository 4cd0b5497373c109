package editor

// Mode is the editing session state.
type Mode int

const (
	ModeEditing Mode = iota
	ModeSubmitted
	ModeInterrupted
	ModeTerminated
	ModeHistoryBrowsing
	// ModeAsking collects a question for the suggester.
	ModeAsking
	// ModeWaiting blocks editing until the suggester answers or is cancelled.
	ModeWaiting
)

func (m Mode) String() string {
	switch m {
	case ModeEditing:
		return "editing"
	case ModeSubmitted:
		return "submitted"
	case ModeInterrupted:
		return "interrupted"
	case ModeTerminated:
		return "terminated"
	case ModeHistoryBrowsing:
		return "history"
	case ModeAsking:
		return "asking"
	case ModeWaiting:
		return "waiting"
	default:
		return "unknown"
	}
}

// Done reports whether the mode ends the editing session.
func (m Mode) Done() bool {
	return m == ModeSubmitted || m == ModeInterrupted || m == ModeTerminated
}

// State is the renderable snapshot of one editing session. The zero value is
// an empty line in ModeEditing.
type State struct {
	Buffer       []rune
	Cursor       int
	Mode         Mode
	Completions  []string
	HistoryIndex int
	SavedBuffer  []rune
}

// Line returns the buffer as a string.
func (s State) Line() string {
	return string(s.Buffer)
}

// Clone returns a deep copy of s.
func (s State) Clone() State {
	out := s
	out.Buffer = cloneRunes(s.Buffer)
	out.SavedBuffer = cloneRunes(s.SavedBuffer)
	if s.Completions != nil {
		out.Completions = append([]string(nil), s.Completions...)
	}
	return out
}

func cloneRunes(r []rune) []rune {
	if r == nil {
		return nil
	}
	out := make([]rune, len(r))
	copy(out, r)
	return out
}

func (s *State) clampCursor() {
	if s.Cursor < 0 {
		s.Cursor = 0
	}
	if s.Cursor > len(s.Buffer) {
		s.Cursor = len(s.Buffer)
	}
}

func (s *State) setString(value string) {
	s.Buffer = []rune(value)
	s.Cursor = len(s.Buffer)
}
