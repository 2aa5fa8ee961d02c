package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/nicholidev/eco-mentor/job"
	"github.com/nicholidev/eco-mentor/replay"
)

var failedLimit int

var failedCmd = &cobra.Command{
	Use:   "failed",
	Short: "List jobs that exhausted their retries",
	RunE: func(cmd *cobra.Command, _ []string) error {
		st, err := newStore()
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		svc := replay.NewService(st)
		jobs, err := svc.ListFailed(cmd.Context(), job.ListOpts{
			Queue: queueName,
			Limit: failedLimit,
		})
		if err != nil {
			return err
		}

		for _, j := range jobs {
			scope := j.ChannelID
			if j.LanguageCode != "" {
				scope += "/" + j.LanguageCode
			}
			failedAt := "-"
			if j.CompletedAt != nil {
				failedAt = j.CompletedAt.Format(time.RFC3339)
			}
			fmt.Printf("%s  %-24s %-20s retries=%d/%d failed_at=%s error=%s\n",
				j.ID, j.Name, scope, j.RetryCount, j.MaxRetries, failedAt, j.LastError)
		}
		fmt.Printf("%d failed job(s) on queue %q\n", len(jobs), queueName)
		return nil
	},
}

func init() {
	failedCmd.Flags().IntVar(&failedLimit, "limit", 50, "maximum jobs to list")
}
