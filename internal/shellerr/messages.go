package shellerr

import (
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
)

// Messages holds the phrasings shown for each kind. Every kind has at least
// one entry and the first entry is the canonical one.
var Messages = map[Kind][]string{
	KindCommandNotFound: {
		"Rodeo! Couldn't find that command 🤠.",
		"No such critter on this range 🐎.",
	},
	KindPermissionDenied: {
		"Permission denied 🚫. Looks like you're not the sheriff around here.",
		"Permission denied 🚫. That gate stays shut, partner.",
	},
	KindFileNotFound: {
		"File not found 🙁, it's probably out there somewhere. Keep searching partner.",
		"File not found 🌵, nothing but tumbleweeds here.",
	},
	KindInvalidArgument: {
		"Uh oh, that argument won't work 🤔. Time to try a different trail.",
		"That argument won't hold water 🤔.",
	},
	KindParsing: {
		"Couldn't make heads or tails of that line 🐂.",
		"That line's got a burr under its saddle 🐂.",
	},
	KindNetwork: {
		"The telegraph's down 📡, no answer came back.",
	},
	KindUnknown: {
		"Something went sideways out on the trail.",
	},
}

// Picker chooses one of n phrasings.
type Picker interface {
	Pick(n int) int
}

// PickerFunc adapts a function to Picker.
type PickerFunc func(n int) int

// Pick implements Picker.
func (f PickerFunc) Pick(n int) int {
	return f(n)
}

// FirstPicker always picks the canonical phrasing.
var FirstPicker Picker = PickerFunc(func(int) int { return 0 })

// RandomPicker rotates phrasings at random.
var RandomPicker Picker = PickerFunc(func(n int) int {
	if n <= 1 {
		return 0
	}
	return rand.IntN(n)
})

// Message returns the phrasing for kind chosen by picker.
func Message(kind Kind, picker Picker) string {
	phrases, ok := Messages[kind]
	if !ok || len(phrases) == 0 {
		phrases = Messages[KindUnknown]
	}
	if picker == nil {
		picker = FirstPicker
	}
	i := picker.Pick(len(phrases))
	if i < 0 || i >= len(phrases) {
		i = 0
	}
	return phrases[i]
}

// Reporter prints errors in the shell's "-name: op: subject: message" form.
type Reporter struct {
	Out    io.Writer
	Name   string
	Picker Picker
}

// Report writes err to the reporter's writer. Nil errors are ignored.
func (r *Reporter) Report(err error) {
	if r == nil || r.Out == nil || err == nil {
		return
	}
	_, _ = fmt.Fprintln(r.Out, r.Format(err))
}

// Format renders err without writing it.
func (r *Reporter) Format(err error) string {
	name := r.Name
	if name == "" {
		name = "crust"
	}
	var classified *Error
	if !errors.As(err, &classified) {
		return fmt.Sprintf("-%s: %s", name, Message(KindOf(err), r.Picker))
	}
	msg := "-" + name
	if classified.Op != "" {
		msg += ": " + classified.Op
	}
	if classified.Subject != "" {
		msg += ": " + classified.Subject
	}
	if classified.Detail != "" {
		return msg + ": " + classified.Detail
	}
	return msg + ": " + Message(classified.Kind, r.Picker)
}
