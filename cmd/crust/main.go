package main

import (
	"context"
	"errors"
	"log"
	"os"

	"pkt.systems/psi"
	"pkt.systems/pslog"
)

// errReported marks failures that were already shown to the user.
var errReported = errors.New("reported")

func main() {
	psi.Run(submain)
}

func submain(ctx context.Context) int {
	ctx = withLogger(ctx, false)

	root := newRootCmd()
	root.SetArgs(os.Args[1:])

	if err := root.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errReported) {
			pslog.Ctx(ctx).With("err", err).Error("crust command failed")
		}
		return 1
	}
	return 0
}

func withLogger(ctx context.Context, debug bool) context.Context {
	opts := pslog.Options{Mode: pslog.ModeConsole}
	if debug {
		opts.MinLevel = pslog.DebugLevel
	}
	logger := pslog.LoggerFromEnv(
		pslog.WithEnvWriter(os.Stderr),
		pslog.WithEnvOptions(opts),
	)
	log.SetOutput(pslog.LogLogger(logger).Writer())
	log.SetFlags(0)
	return pslog.ContextWithLogger(ctx, logger)
}
