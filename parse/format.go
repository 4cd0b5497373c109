package parse

import (
	"strings"

	"mvdan.cc/sh/v3/syntax"

	"pkt.systems/crust/schema"
)

// Format renders cmds back into a line that Parse turns into the same
// commands.
func Format(cmds []schema.Command) string {
	var b strings.Builder
	for i, cmd := range cmds {
		if i > 0 {
			b.WriteString("; ")
		}
		words := make([]string, 0, len(cmd.Args)+1)
		for _, word := range cmd.Argv() {
			words = append(words, Quote(word))
		}
		b.WriteString(strings.Join(words, " "))
		if cmd.Background {
			b.WriteString(" &")
		}
	}
	return b.String()
}

// Quote returns word in POSIX shell quoting, unchanged when it needs none.
// Words the shell quoter refuses, such as those holding control
// characters, are single quoted.
func Quote(word string) string {
	if quoted, err := syntax.Quote(word, syntax.LangPOSIX); err == nil {
		return quoted
	}
	return "'" + strings.ReplaceAll(word, "'", `'\''`) + "'"
}
