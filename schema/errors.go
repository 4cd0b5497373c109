package schema

import "errors"

var (
	// ErrCommandNotFound indicates an external command could not be spawned.
	ErrCommandNotFound = errors.New("command not found")
	// ErrPermissionDenied indicates execution was attempted without sufficient rights.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrFileNotFound indicates a script file or directory is missing.
	ErrFileNotFound = errors.New("file not found")
	// ErrInvalidArgument indicates a builtin was called with the wrong arguments.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrParsing indicates malformed statement syntax.
	ErrParsing = errors.New("parsing error")
	// ErrNetwork indicates the suggestion service could not be reached.
	ErrNetwork = errors.New("network error")
	// ErrHomeNotSet indicates the home directory could not be resolved.
	ErrHomeNotSet = errors.New("home not set")
	// ErrTooManyArguments indicates a builtin received more arguments than it accepts.
	ErrTooManyArguments = errors.New("too many arguments")
)
