package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nicholidev/eco-mentor/job"
)

var pendingLimit int

var pendingCmd = &cobra.Command{
	Use:   "pending",
	Short: "List jobs waiting to run",
	RunE: func(cmd *cobra.Command, _ []string) error {
		st, err := newStore()
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		ctx := cmd.Context()
		total := 0
		for _, state := range []job.State{job.StatePending, job.StateRetrying} {
			jobs, listErr := st.ListJobsByState(ctx, state, job.ListOpts{
				Queue: queueName,
				Limit: pendingLimit,
			})
			if listErr != nil {
				return listErr
			}
			for _, j := range jobs {
				scope := j.ChannelID
				if j.LanguageCode != "" {
					scope += "/" + j.LanguageCode
				}
				fmt.Printf("%s  %-24s %-9s %-20s run_at=%s\n",
					j.ID, j.Name, j.State, scope, j.RunAt.Format("2006-01-02T15:04:05Z07:00"))
			}
			total += len(jobs)
		}

		fmt.Printf("%d job(s) waiting on queue %q\n", total, queueName)
		return nil
	},
}

func init() {
	pendingCmd.Flags().IntVar(&pendingLimit, "limit", 50, "maximum jobs to list per state")
}
