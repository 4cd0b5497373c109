package logx

import (
	"context"

	"pkt.systems/pslog"
)

type contextKey int

const (
	sessionKey contextKey = iota
)

// Ctx returns the logger bound to the provided context.
func Ctx(ctx context.Context) pslog.Logger {
	return pslog.Ctx(ctx)
}

// WithSession annotates the context logger with the shell session id and
// stores the annotated logger back on the returned context.
func WithSession(ctx context.Context, sessionID string) (context.Context, pslog.Logger) {
	log := pslog.Ctx(ctx)
	if sessionID == "" {
		return ctx, log
	}
	if current, ok := ctx.Value(sessionKey).(string); ok && current == sessionID {
		return ctx, log
	}
	log = log.With("session", sessionID)
	ctx = context.WithValue(ctx, sessionKey, sessionID)
	return pslog.ContextWithLogger(ctx, log), log
}

// WithCommand annotates the logger with a command name and its argument count.
func WithCommand(log pslog.Logger, name string, args int) pslog.Logger {
	if name == "" {
		return log
	}
	return log.With("cmd", name, "args", args)
}

// WithJob annotates the logger with background job identifiers.
func WithJob(log pslog.Logger, id, pid int) pslog.Logger {
	if id > 0 {
		log = log.With("job", id)
	}
	if pid > 0 {
		log = log.With("pid", pid)
	}
	return log
}
