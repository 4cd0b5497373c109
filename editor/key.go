package editor

// KeyKind identifies a decoded key event.
type KeyKind int

const (
	KeyUnknown KeyKind = iota
	KeyRune
	KeyEnter
	KeyBackspace
	KeyDelete
	KeyLeft
	KeyRight
	KeyUp
	KeyDown
	KeyHome
	KeyEnd
	KeyTab
	KeyCtrlA
	KeyCtrlC
	KeyCtrlD
)

// Key is one decoded key event. R is set for KeyRune.
type Key struct {
	Kind KeyKind
	R    rune
}

// RuneKey returns a printable key event.
func RuneKey(r rune) Key {
	return Key{Kind: KeyRune, R: r}
}

// KeysFor returns the rune events that type s.
func KeysFor(s string) []Key {
	keys := make([]Key, 0, len(s))
	for _, r := range s {
		keys = append(keys, RuneKey(r))
	}
	return keys
}
