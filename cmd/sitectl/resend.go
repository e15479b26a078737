package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var resendCmd = &cobra.Command{
	Use:   "resend",
	Short: "Retry notification emails that never went out",
	Long: `Run one retry pass over messages whose notification email was not sent,
then report how many are still pending.

Examples:
  sitectl resend
  sitectl resend --env-file /srv/site/.env`,
	Args: cobra.NoArgs,
	RunE: runResend,
}

func runResend(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context(), cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	if !a.Config.MailEnabled() {
		return fmt.Errorf("mail is not configured: set MAIL_HOST, SERVER_EMAIL_ADDRESS and CONTACT_EMAIL_ADDRESS")
	}

	attempted, err := a.RetryWorker().RunOnce(cmd.Context())
	if err != nil {
		return err
	}

	pending, err := a.Store.UnnotifiedCount(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Retried %d notifications, %d still unsent\n", attempted, pending)
	return nil
}
