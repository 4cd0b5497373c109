package main

import (
	"fmt"
	"io"

	"github.com/mdp/qrterminal/v3"
	"github.com/pquerna/otp/totp"
	"github.com/spf13/cobra"

	"pkt.systems/crust/internal/appconfig"
)

const totpIssuer = "crust"

func newConfigCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the crust config file",
	}
	cmd.AddCommand(newConfigInitCmd(opts))
	cmd.AddCommand(newConfigTOTPCmd(opts))
	return cmd
}

func newConfigInitCmd(opts *rootOptions) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default config",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := appconfig.WriteDefault(opts.cfgPath, force)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return err
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing config")
	return cmd
}

func newConfigTOTPCmd(opts *rootOptions) *cobra.Command {
	var account string
	var noQR bool
	cmd := &cobra.Command{
		Use:   "totp",
		Short: "Generate a TOTP secret for SSH logins",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := totp.Generate(totp.GenerateOpts{
				Issuer:      totpIssuer,
				AccountName: account,
			})
			if err != nil {
				return err
			}
			path, err := appconfig.SetTOTPSecret(opts.cfgPath, key.Secret())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			printEnrollment(out, key.Secret(), key.URL(), !noQR)
			_, err = fmt.Fprintf(out, "updated %s\n", path)
			return err
		},
	}
	cmd.Flags().StringVar(&account, "account", "crust", "account name shown in the authenticator app")
	cmd.Flags().BoolVar(&noQR, "no-qr", false, "do not print the QR code")
	return cmd
}

func printEnrollment(w io.Writer, secret, url string, qr bool) {
	_, _ = fmt.Fprintf(w, "totp_secret: %s\n", secret)
	_, _ = fmt.Fprintf(w, "otpauth_url: %s\n", url)
	if qr {
		_, _ = fmt.Fprintln(w, "totp_qr:")
		qrterminal.GenerateHalfBlock(url, qrterminal.L, w)
	}
}
