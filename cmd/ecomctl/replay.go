package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nicholidev/eco-mentor/id"
	"github.com/nicholidev/eco-mentor/replay"
)

var replayAll bool

var replayCmd = &cobra.Command{
	Use:   "replay [job-id]",
	Short: "Re-enqueue failed jobs with a fresh retry budget",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if replayAll == (len(args) == 1) {
			return fmt.Errorf("pass exactly one of a job id or --all")
		}

		st, err := newStore()
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		svc := replay.NewService(st)
		ctx := cmd.Context()

		if replayAll {
			n, err := svc.ReplayAll(ctx, queueName)
			if err != nil {
				return fmt.Errorf("replayed %d job(s) before failing: %w", n, err)
			}
			fmt.Printf("replayed %d job(s) on queue %q\n", n, queueName)
			return nil
		}

		jobID, err := id.ParseJobID(args[0])
		if err != nil {
			return fmt.Errorf("invalid job id %q: %w", args[0], err)
		}
		fresh, err := svc.Replay(ctx, jobID)
		if err != nil {
			return err
		}
		fmt.Printf("replayed %s as %s\n", jobID, fresh.ID)
		return nil
	},
}

func init() {
	replayCmd.Flags().BoolVar(&replayAll, "all", false, "replay every failed job on the queue")
}
