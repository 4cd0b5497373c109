package schema

// Builtin identifies a command implemented by the shell itself.
type Builtin int

const (
	// BuiltinNone marks an external command.
	BuiltinNone Builtin = iota
	// BuiltinExit terminates the shell.
	BuiltinExit
	// BuiltinCD changes the working directory.
	BuiltinCD
	// BuiltinEcho writes its arguments to stdout.
	BuiltinEcho
	// BuiltinAlias is accepted but has no effect yet.
	BuiltinAlias
)

var builtinNames = map[string]Builtin{
	"exit":  BuiltinExit,
	"cd":    BuiltinCD,
	"echo":  BuiltinEcho,
	"alias": BuiltinAlias,
}

// LookupBuiltin classifies a command name by exact match.
func LookupBuiltin(name string) Builtin {
	return builtinNames[name]
}

func (b Builtin) String() string {
	switch b {
	case BuiltinExit:
		return "exit"
	case BuiltinCD:
		return "cd"
	case BuiltinEcho:
		return "echo"
	case BuiltinAlias:
		return "alias"
	default:
		return "none"
	}
}

// Command is one parsed statement of a script line.
type Command struct {
	Name       string
	Args       []string
	Background bool
	Builtin    Builtin
}

// IsBuiltin reports whether the command is handled by the shell itself.
func (c Command) IsBuiltin() bool {
	return c.Builtin != BuiltinNone
}

// Argv returns the name followed by the arguments.
func (c Command) Argv() []string {
	out := make([]string, 0, len(c.Args)+1)
	out = append(out, c.Name)
	return append(out, c.Args...)
}
