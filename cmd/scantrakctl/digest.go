package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mamadbah2/scantrak/internal/service/reporting"
	"github.com/mamadbah2/scantrak/pkg/clients/notify"
)

func newDigestCmd(root *rootOptions) *cobra.Command {
	var (
		window time.Duration
		send   bool
	)

	cmd := &cobra.Command{
		Use:   "digest",
		Short: "Print or send the submission digest",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := root.open(cmd.Context())
			if err != nil {
				return err
			}
			defer env.close()

			until := time.Now()
			since := until.Add(-window)

			svc := reporting.NewService(env.repo, env.loc, env.logger.Named("svc.reporting"))
			summary, err := svc.Summarize(cmd.Context(), since, until)
			if err != nil {
				return err
			}
			text := svc.Render(summary)
			fmt.Fprintln(cmd.OutOrStdout(), text)

			if !send {
				return nil
			}
			if env.cfg.Notify.WebhookURL == "" {
				return fmt.Errorf("--send requires NOTIFY_WEBHOOK_URL")
			}
			return notify.NewWebhookClient(env.cfg.Notify.WebhookURL).SendDigest(cmd.Context(), notify.DigestRequest{
				App:   env.cfg.App.Path,
				Text:  text,
				Since: since,
				Until: until,
				Total: summary.Total,
			})
		},
	}

	cmd.Flags().DurationVar(&window, "window", 24*time.Hour, "how far back the digest looks")
	cmd.Flags().BoolVar(&send, "send", false, "post the digest to NOTIFY_WEBHOOK_URL")

	return cmd
}
