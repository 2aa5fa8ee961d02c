package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/nicholidev/eco-mentor/job"
)

var flushCmd = &cobra.Command{
	Use:   "flush",
	Short: "Make delayed jobs runnable now",
	Long: `flush rewrites the run-at time of every pending and retrying job on
the queue to now, so workers pick them up on their next poll instead of
waiting out retry backoff or scheduled delays.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		st, err := newStore()
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		ctx := cmd.Context()
		now := time.Now().UTC()
		kicked := 0
		for _, state := range []job.State{job.StatePending, job.StateRetrying} {
			jobs, listErr := st.ListJobsByState(ctx, state, job.ListOpts{Queue: queueName})
			if listErr != nil {
				return listErr
			}
			for _, j := range jobs {
				if !j.RunAt.After(now) {
					continue
				}
				j.RunAt = now
				if updateErr := st.UpdateJob(ctx, j); updateErr != nil {
					return fmt.Errorf("kick job %s: %w", j.ID, updateErr)
				}
				kicked++
			}
		}

		fmt.Printf("made %d job(s) runnable on queue %q\n", kicked, queueName)
		return nil
	},
}
