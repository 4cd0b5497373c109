// Package parse turns a submitted line or script into commands.
//
// Lines are read with the mvdan.cc/sh shell parser. Statements are separated
// by ';' or newlines. A trailing '&' runs the statement in the background; a
// separator or the end of input must follow it. Quoting and backslash
// escapes follow POSIX shell rules. Pipelines, lists, redirections,
// assignments and expansions are rejected.
package parse

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"mvdan.cc/sh/v3/syntax"

	"pkt.systems/crust/schema"
)

// Error reports where a line stopped making sense. Offset is the byte offset
// of the offending character.
type Error struct {
	Offset int
	Rune   rune
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("offset %d (%q): %s", e.Offset, e.Rune, e.Reason)
}

// Unwrap lets errors.Is match schema.ErrParsing.
func (e *Error) Unwrap() error {
	return schema.ErrParsing
}

// Parse splits line into commands. On failure no commands are returned.
func Parse(line string) ([]schema.Command, error) {
	src, file, err := parseFile(line)
	if err != nil {
		return nil, err
	}
	w := walker{src: src}
	var cmds []schema.Command
	for i, stmt := range file.Stmts {
		cmd, err := w.command(stmt)
		if err != nil {
			return nil, err
		}
		if stmt.Background && i+1 < len(file.Stmts) {
			if err := w.separated(stmt, file.Stmts[i+1]); err != nil {
				return nil, err
			}
		}
		cmds = append(cmds, cmd)
	}
	return cmds, nil
}

// parseFile runs the shell parser. Separators the shell grammar refuses
// (leading, doubled, or right after '&') are blanked to newlines in place,
// which keeps every offset valid, and parsing is retried.
func parseFile(line string) (string, *syntax.File, error) {
	src := []byte(line)
	for {
		file, err := syntax.NewParser().Parse(strings.NewReader(string(src)), "")
		if err == nil {
			return string(src), file, nil
		}
		var perr syntax.ParseError
		if !errors.As(err, &perr) {
			return "", nil, &Error{Reason: err.Error()}
		}
		off := int(perr.Pos.Offset())
		if off < len(src) && src[off] == ';' {
			for ; off < len(src) && src[off] == ';'; off++ {
				src[off] = '\n'
			}
			continue
		}
		return "", nil, errorAt(string(src), off, perr.Text)
	}
}

func errorAt(src string, off int, reason string) *Error {
	e := &Error{Offset: off, Reason: reason}
	if off >= 0 && off < len(src) {
		e.Rune, _ = utf8.DecodeRuneInString(src[off:])
	}
	return e
}

type walker struct {
	src string
}

func (w walker) offset(node syntax.Node) int {
	return int(node.Pos().Offset())
}

func (w walker) fail(node syntax.Node, reason string) *Error {
	return errorAt(w.src, w.offset(node), reason)
}

// separated checks that a ';' or newline sits between a background
// statement and the next one.
func (w walker) separated(bg, next *syntax.Stmt) error {
	from := int(bg.Semicolon.Offset()) + 1
	to := w.offset(next)
	if from <= to && strings.ContainsAny(w.src[from:to], ";\n") {
		return nil
	}
	return w.fail(next, "expected separator after background marker")
}

func (w walker) command(stmt *syntax.Stmt) (schema.Command, error) {
	switch {
	case stmt.Negated:
		return schema.Command{}, w.fail(stmt, "negation is not supported")
	case stmt.Coprocess:
		return schema.Command{}, w.fail(stmt, "coprocesses are not supported")
	case len(stmt.Redirs) > 0:
		return schema.Command{}, w.fail(stmt.Redirs[0], "redirection is not supported")
	}
	call, ok := stmt.Cmd.(*syntax.CallExpr)
	if !ok {
		return schema.Command{}, w.fail(stmt.Cmd, unsupported(stmt.Cmd))
	}
	if len(call.Assigns) > 0 {
		return schema.Command{}, w.fail(call.Assigns[0], "assignments are not supported")
	}
	words := make([]string, 0, len(call.Args))
	for _, arg := range call.Args {
		word, err := w.word(arg)
		if err != nil {
			return schema.Command{}, err
		}
		words = append(words, word)
	}
	if len(words) == 0 {
		return schema.Command{}, w.fail(stmt, "unsupported syntax")
	}
	if words[0] == "" {
		return schema.Command{}, w.fail(call.Args[0], "empty command name")
	}
	cmd := schema.Command{
		Name:       words[0],
		Background: stmt.Background,
		Builtin:    schema.LookupBuiltin(words[0]),
	}
	if len(words) > 1 {
		cmd.Args = words[1:]
	}
	return cmd, nil
}

func unsupported(node syntax.Command) string {
	if bin, ok := node.(*syntax.BinaryCmd); ok {
		switch bin.Op {
		case syntax.Pipe, syntax.PipeAll:
			return "pipelines are not supported"
		case syntax.AndStmt:
			return "&& lists are not supported"
		case syntax.OrStmt:
			return "|| lists are not supported"
		}
	}
	return "unsupported syntax"
}

// word joins the parts of a word with quotes removed.
func (w walker) word(word *syntax.Word) (string, error) {
	var b strings.Builder
	for _, part := range word.Parts {
		switch p := part.(type) {
		case *syntax.Lit:
			text, bad := unescape(p.Value, false)
			if bad >= 0 {
				return "", errorAt(w.src, w.offset(p)+bad, "trailing backslash")
			}
			b.WriteString(text)
		case *syntax.SglQuoted:
			if p.Dollar {
				return "", w.fail(p, "$'...' quoting is not supported")
			}
			b.WriteString(p.Value)
		case *syntax.DblQuoted:
			if p.Dollar {
				return "", w.fail(p, `$"..." quoting is not supported`)
			}
			for _, inner := range p.Parts {
				lit, ok := inner.(*syntax.Lit)
				if !ok {
					return "", w.fail(inner, "expansion is not supported")
				}
				text, _ := unescape(lit.Value, true)
				b.WriteString(text)
			}
		default:
			return "", w.fail(part, "expansion is not supported")
		}
	}
	return b.String(), nil
}

// unescape removes backslash escapes. Outside quotes a backslash escapes any
// byte; inside double quotes only $ ` " \ and newline. A backslash-newline
// pair is dropped. bad is the index of a backslash with nothing after it,
// or -1.
func unescape(s string, double bool) (text string, bad int) {
	if !strings.Contains(s, `\`) {
		return s, -1
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' {
			b.WriteByte(c)
			continue
		}
		if i+1 == len(s) {
			if double {
				b.WriteByte(c)
				return b.String(), -1
			}
			return "", i
		}
		next := s[i+1]
		if double && !strings.ContainsRune("$`\"\\\n", rune(next)) {
			b.WriteByte(c)
			continue
		}
		i++
		if next != '\n' {
			b.WriteByte(next)
		}
	}
	return b.String(), -1
}
