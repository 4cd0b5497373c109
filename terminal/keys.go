package terminal

import (
	"bufio"
	"context"
	"io"
	"unicode"
	"unicode/utf8"

	"pkt.systems/crust/editor"
)

// ReadKeys decodes raw terminal bytes from r into key events until r fails
// or ctx is cancelled. out is closed on return.
func ReadKeys(ctx context.Context, r io.Reader, out chan<- editor.Key) {
	defer close(out)
	br := bufio.NewReader(r)
	send := func(k editor.Key) bool {
		select {
		case out <- k:
			return true
		case <-ctx.Done():
			return false
		}
	}
	lastWasCR := false
	for {
		b, err := br.ReadByte()
		if err != nil {
			return
		}
		if lastWasCR {
			lastWasCR = false
			if b == '\n' {
				continue
			}
		}
		var k editor.Key
		switch b {
		case 0x1b:
			var ok bool
			if k, ok = readEscape(br); !ok {
				continue
			}
		case '\r':
			k = editor.Key{Kind: editor.KeyEnter}
			lastWasCR = true
		case '\n':
			k = editor.Key{Kind: editor.KeyEnter}
		case 0x7f, 0x08:
			k = editor.Key{Kind: editor.KeyBackspace}
		case 0x01:
			k = editor.Key{Kind: editor.KeyCtrlA}
		case 0x03:
			k = editor.Key{Kind: editor.KeyCtrlC}
		case 0x04:
			k = editor.Key{Kind: editor.KeyCtrlD}
		case 0x09:
			k = editor.Key{Kind: editor.KeyTab}
		default:
			if b < 0x20 {
				k = editor.Key{Kind: editor.KeyUnknown}
				break
			}
			if b < utf8.RuneSelf {
				k = editor.RuneKey(rune(b))
				break
			}
			_ = br.UnreadByte()
			rn, _, err := br.ReadRune()
			if err != nil {
				return
			}
			k = editor.RuneKey(rn)
		}
		if !send(k) {
			return
		}
	}
}

func readEscape(br *bufio.Reader) (editor.Key, bool) {
	b, err := br.ReadByte()
	if err != nil {
		return editor.Key{}, false
	}
	switch b {
	case '[':
		return readCSI(br)
	case 'O':
		return readSS3(br)
	}
	return editor.Key{Kind: editor.KeyUnknown}, true
}

func readCSI(br *bufio.Reader) (editor.Key, bool) {
	seq := []byte{}
	for {
		b, err := br.ReadByte()
		if err != nil {
			return editor.Key{}, false
		}
		seq = append(seq, b)
		if b == '~' || unicode.IsLetter(rune(b)) {
			break
		}
		if len(seq) > 8 {
			return editor.Key{}, false
		}
	}
	switch string(seq) {
	case "A":
		return editor.Key{Kind: editor.KeyUp}, true
	case "B":
		return editor.Key{Kind: editor.KeyDown}, true
	case "C":
		return editor.Key{Kind: editor.KeyRight}, true
	case "D":
		return editor.Key{Kind: editor.KeyLeft}, true
	case "H", "1~", "7~":
		return editor.Key{Kind: editor.KeyHome}, true
	case "F", "4~", "8~":
		return editor.Key{Kind: editor.KeyEnd}, true
	case "3~":
		return editor.Key{Kind: editor.KeyDelete}, true
	}
	return editor.Key{Kind: editor.KeyUnknown}, true
}

func readSS3(br *bufio.Reader) (editor.Key, bool) {
	b, err := br.ReadByte()
	if err != nil {
		return editor.Key{}, false
	}
	switch b {
	case 'A':
		return editor.Key{Kind: editor.KeyUp}, true
	case 'B':
		return editor.Key{Kind: editor.KeyDown}, true
	case 'C':
		return editor.Key{Kind: editor.KeyRight}, true
	case 'D':
		return editor.Key{Kind: editor.KeyLeft}, true
	case 'H':
		return editor.Key{Kind: editor.KeyHome}, true
	case 'F':
		return editor.Key{Kind: editor.KeyEnd}, true
	}
	return editor.Key{Kind: editor.KeyUnknown}, true
}
