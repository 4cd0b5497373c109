package main

import (
	"github.com/spf13/cobra"

	"pkt.systems/crust"
	"pkt.systems/crust/internal/appconfig"
	"pkt.systems/crust/sshserver"
	"pkt.systems/pslog"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve crust sessions over SSH",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := appconfig.Load(opts.cfgPath)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.SSH.Addr = addr
			}
			pslog.Ctx(ctx).Debug("serve config",
				"addr", cfg.SSH.Addr,
				"host_key", cfg.SSH.HostKeyPath,
				"authorized_keys", cfg.SSH.AuthorizedKeysPath,
				"home", cfg.SSH.HomeDir,
				"ask", cfg.Suggest.Enabled,
			)
			server := newSSHServer(cfg)
			server.Suggester = newSuggester(ctx, cfg.Suggest)
			return server.ListenAndServe(ctx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides ssh.addr)")
	return cmd
}

func newSSHServer(cfg appconfig.Config) *sshserver.Server {
	return &sshserver.Server{
		Addr:        cfg.SSH.Addr,
		HostKeyPath: cfg.SSH.HostKeyPath,
		Keys:        sshserver.AuthorizedKeys{Path: cfg.SSH.AuthorizedKeysPath},
		TOTPSecret:  cfg.SSH.TOTPSecret,
		HomeDir:     cfg.SSH.HomeDir,
		Shell: crust.Config{
			Prompt: crust.PromptFromEnv(cfg.Prompt),
			Color:  cfg.Color,
		},
	}
}
