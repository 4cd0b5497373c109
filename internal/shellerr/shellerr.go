// Package shellerr classifies shell failures into a fixed set of kinds and
// renders them for the user.
package shellerr

import (
	"errors"
	"fmt"
	"strings"

	"pkt.systems/crust/schema"
)

// Sentinels re-exported for callers that only import shellerr.
var (
	ErrCommandNotFound  = schema.ErrCommandNotFound
	ErrPermissionDenied = schema.ErrPermissionDenied
	ErrFileNotFound     = schema.ErrFileNotFound
	ErrInvalidArgument  = schema.ErrInvalidArgument
	ErrParsing          = schema.ErrParsing
	ErrNetwork          = schema.ErrNetwork
	ErrHomeNotSet       = schema.ErrHomeNotSet
	ErrTooManyArguments = schema.ErrTooManyArguments
)

// Kind is the class of a user-visible failure.
type Kind int

const (
	KindUnknown Kind = iota
	KindCommandNotFound
	KindPermissionDenied
	KindFileNotFound
	KindInvalidArgument
	KindParsing
	KindNetwork
)

var kindSentinels = map[Kind]error{
	KindCommandNotFound:  schema.ErrCommandNotFound,
	KindPermissionDenied: schema.ErrPermissionDenied,
	KindFileNotFound:     schema.ErrFileNotFound,
	KindInvalidArgument:  schema.ErrInvalidArgument,
	KindParsing:          schema.ErrParsing,
	KindNetwork:          schema.ErrNetwork,
}

// kindOrder is the precedence KindOf uses when a chain matches several
// sentinels.
var kindOrder = []Kind{
	KindCommandNotFound,
	KindPermissionDenied,
	KindFileNotFound,
	KindInvalidArgument,
	KindParsing,
	KindNetwork,
}

func (k Kind) String() string {
	if err, ok := kindSentinels[k]; ok {
		return err.Error()
	}
	return "unknown"
}

// Error is a classified failure. Op names the operation ("cd", "exec",
// "parse"), Subject the thing it acted on. Detail, when set, replaces the
// phrase picked for the kind.
type Error struct {
	Kind    Kind
	Op      string
	Subject string
	Detail  string
	Err     error
}

// New returns a classified error.
func New(kind Kind, op, subject string, err error) *Error {
	return &Error{Kind: kind, Op: op, Subject: subject, Err: err}
}

func (e *Error) Error() string {
	parts := make([]string, 0, 3)
	if e.Op != "" {
		parts = append(parts, e.Op)
	}
	if e.Subject != "" {
		parts = append(parts, e.Subject)
	}
	switch {
	case e.Detail != "":
		parts = append(parts, e.Detail)
	case e.Err != nil:
		parts = append(parts, e.Err.Error())
	default:
		parts = append(parts, e.Kind.String())
	}
	return strings.Join(parts, ": ")
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the sentinel of the error's kind, so callers can write
// errors.Is(err, schema.ErrCommandNotFound).
func (e *Error) Is(target error) bool {
	sentinel, ok := kindSentinels[e.Kind]
	return ok && sentinel == target
}

// KindOf returns the kind of the first classified error in err's chain.
func KindOf(err error) Kind {
	var classified *Error
	if errors.As(err, &classified) {
		return classified.Kind
	}
	for _, kind := range kindOrder {
		if errors.Is(err, kindSentinels[kind]) {
			return kind
		}
	}
	return KindUnknown
}

// Errorf builds a classified error with a fixed detail text.
func Errorf(kind Kind, op, subject string, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Subject: subject, Detail: fmt.Sprintf(format, args...), Err: err}
}
