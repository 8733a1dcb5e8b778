package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/eventplanner/twofactor/internal/storage"
	"github.com/eventplanner/twofactor/pkg/config"
	"github.com/eventplanner/twofactor/pkg/logger"
	"github.com/eventplanner/twofactor/pkg/qrcode"
	"github.com/eventplanner/twofactor/pkg/totp"
	"github.com/eventplanner/twofactor/svc/twofactor"
)

var errInvalidToken = errors.New("token does not match")

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "totpctl",
		Short:        "Operator tools for two-factor authentication",
		SilenceUsage: true,
	}
	root.AddCommand(
		newKeyCmd(),
		newSecretCmd(),
		newCurrentCmd(),
		newVerifyCmd(),
		newAddUserCmd(),
	)
	return root
}

// key prints a fresh value for TOTP_SECRET_KEY.
func newKeyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "key",
		Short: "Generate a process encryption key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			key, err := totp.GenerateProcessKey()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), key)
			return nil
		},
	}
}

func newSecretCmd() *cobra.Command {
	var (
		issuer string
		qrPath string
		size   int
	)
	cmd := &cobra.Command{
		Use:   "secret <account>",
		Short: "Generate a TOTP secret and enrollment URI",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			enrollment, err := totp.NewEngine(totp.WithIssuer(issuer)).GenerateSecret(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "secret: %s\nuri:    %s\n", enrollment.Secret, enrollment.URI)

			if qrPath == "" {
				return nil
			}
			png, err := qrcode.Generate(enrollment.URI, size)
			if err != nil {
				return err
			}
			if err := os.WriteFile(qrPath, png, 0o600); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "qr:     %s\n", qrPath)
			return nil
		},
	}
	cmd.Flags().StringVar(&issuer, "issuer", totp.DefaultIssuer, "issuer shown by authenticator apps")
	cmd.Flags().StringVar(&qrPath, "qr", "", "write the enrollment QR code PNG to this file")
	cmd.Flags().IntVar(&size, "size", qrcode.DefaultSize, "QR code size in pixels")
	return cmd
}

// current prints the code an authenticator app would show for secret.
func newCurrentCmd() *cobra.Command {
	var at string
	cmd := &cobra.Command{
		Use:   "current <base32-secret>",
		Short: "Print the current TOTP code for a secret",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t := time.Now()
			if at != "" {
				parsed, err := time.Parse(time.RFC3339, at)
				if err != nil {
					return fmt.Errorf("invalid --at: %w", err)
				}
				t = parsed
			}
			code, err := totp.NewEngine().Generate(args[0], t)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), code)
			return nil
		},
	}
	cmd.Flags().StringVar(&at, "at", "", "RFC 3339 timestamp instead of now")
	return cmd
}

func newVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify <base32-secret> <token>",
		Short: "Check a token against a secret with the default skew window",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !totp.NewEngine().Verify(args[0], args[1]) {
				return errInvalidToken
			}
			fmt.Fprintln(cmd.OutOrStdout(), "ok")
			return nil
		},
	}
}

// adduser creates an account in the backend selected by STORAGE_DRIVER.
func newAddUserCmd() *cobra.Command {
	var (
		addr     string
		password string
	)
	cmd := &cobra.Command{
		Use:   "adduser",
		Short: "Create a user in the configured storage backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			storeCfg, err := config.Load[storage.Config]()
			if err != nil {
				return err
			}
			log := logger.New(logger.WithTextFormatter(), logger.WithOutput(cmd.ErrOrStderr()))
			backend, err := storage.Open(ctx, storeCfg.Driver, log)
			if err != nil {
				return err
			}
			defer func() { _ = backend.Close(ctx) }()

			hash, err := twofactor.HashPassword(password, 0)
			if err != nil {
				return err
			}
			rec := &twofactor.Record{ID: uuid.New(), Email: addr}
			if err := backend.Store.Create(ctx, rec, hash); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s (%s) in %s storage\n", rec.Email, rec.ID, backend.Driver)
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "primary password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}
