package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"pkt.systems/crust"
	"pkt.systems/crust/internal/appconfig"
	"pkt.systems/crust/internal/shellerr"
	"pkt.systems/crust/schema"
	"pkt.systems/crust/suggest"
	"pkt.systems/crust/terminal"
	"pkt.systems/pslog"
)

type rootOptions struct {
	cfgPath string
	command string
	debug   int
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "crust [script]",
		Short:         "Small interactive command shell with an ask mode",
		Args:          cobra.MaximumNArgs(1),
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if opts.debug > 0 {
				cmd.SetContext(withLogger(cmd.Context(), true))
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRoot(cmd, args, opts)
		},
	}
	root.PersistentFlags().StringVar(&opts.cfgPath, "config", "", "config file path (default $XDG_CONFIG_HOME/crust/config.yaml)")
	root.PersistentFlags().CountVarP(&opts.debug, "debug", "d", "debug output, repeat to echo script content")
	root.Flags().StringVarP(&opts.command, "command", "c", "", "run the given command string and exit")

	root.AddCommand(newServeCmd(opts))
	root.AddCommand(newConfigCmd(opts))
	root.AddCommand(newVersionCmd())

	return root
}

func runRoot(cmd *cobra.Command, args []string, opts *rootOptions) error {
	out := cmd.OutOrStdout()
	errOut := cmd.ErrOrStderr()
	if opts.debug > 0 {
		_, _ = fmt.Fprintln(out, "Debug mode is on")
	}
	cfg, err := appconfig.Load(opts.cfgPath)
	if err != nil {
		return err
	}

	script := opts.command
	if len(args) == 1 {
		path := args[0]
		if opts.debug > 0 {
			_, _ = fmt.Fprintf(out, "operating on file %s\n", path)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			reporter := &shellerr.Reporter{Out: errOut, Name: "crust", Picker: shellerr.RandomPicker}
			reporter.Report(shellerr.New(shellerr.KindFileNotFound, "", path, err))
			return errReported
		}
		script = string(data)
		if opts.debug > 1 {
			_, _ = fmt.Fprintln(out, script)
		}
	}
	if script != "" {
		return runScript(cmd.Context(), cmd.InOrStdin(), out, errOut, cfg, script)
	}

	console := terminal.NewConsole(os.Stdin, out)
	if !console.IsTerminal() {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
		return runScript(cmd.Context(), nil, out, errOut, cfg, string(data))
	}
	return runInteractive(cmd.Context(), console, out, errOut, cfg)
}

func runScript(ctx context.Context, in io.Reader, out, errOut io.Writer, cfg appconfig.Config, script string) error {
	shell := crust.New(crust.Config{Color: cfg.Color}, crust.Deps{
		Stdin:  in,
		Stdout: out,
		Stderr: errOut,
	})
	defer shell.Close(ctx)

	err := shell.RunScript(ctx, script)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, schema.ErrParsing):
		return errReported
	case ctx.Err() != nil:
		return ctx.Err()
	default:
		pslog.Ctx(ctx).Debug("script finished with failed commands", "err", err)
		return nil
	}
}

func runInteractive(ctx context.Context, console *terminal.Console, out, errOut io.Writer, cfg appconfig.Config) error {
	// Ctrl+C during a foreground child reaches the shell too; only the
	// child should stop.
	session := context.WithoutCancel(ctx)
	shell := crust.New(crust.Config{
		Prompt: crust.PromptFromEnv(cfg.Prompt),
		Color:  cfg.Color,
	}, crust.Deps{
		Stdin:     os.Stdin,
		Stdout:    out,
		Stderr:    errOut,
		Suggester: newSuggester(ctx, cfg.Suggest),
	})
	defer shell.Close(session)
	return shell.RunInteractive(session, console)
}

// newSuggester returns nil when ask mode is off or cannot be set up.
func newSuggester(ctx context.Context, cfg appconfig.SuggestConfig) suggest.Suggester {
	if !cfg.Enabled {
		return nil
	}
	gemini, err := suggest.NewGemini(ctx, suggest.GeminiConfig{
		APIKey:    cfg.APIKey,
		APIKeyEnv: cfg.APIKeyEnv,
		Model:     cfg.Model,
		MaxTokens: cfg.MaxTokens,
		Timeout:   time.Duration(cfg.TimeoutSeconds) * time.Second,
	})
	if err != nil {
		pslog.Ctx(ctx).Warn("ask mode disabled", "err", err)
		return nil
	}
	return gemini
}
