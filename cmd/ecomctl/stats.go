package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nicholidev/eco-mentor/job"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize job counts by state",
	RunE: func(cmd *cobra.Command, _ []string) error {
		st, err := newStore()
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		ctx := cmd.Context()
		states := []job.State{
			job.StatePending,
			job.StateRetrying,
			job.StateRunning,
			job.StateCompleted,
			job.StateFailed,
			job.StateCancelled,
		}

		var total int64
		fmt.Printf("queue %q\n", queueName)
		for _, state := range states {
			count, countErr := st.CountJobs(ctx, job.CountOpts{Queue: queueName, State: state})
			if countErr != nil {
				return countErr
			}
			fmt.Printf("  %-10s %d\n", state, count)
			total += count
		}
		fmt.Printf("  %-10s %d\n", "total", total)
		return nil
	},
}
