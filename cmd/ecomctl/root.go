package main

import (
	"fmt"
	"os"

	goredis "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	ecomentor "github.com/nicholidev/eco-mentor"
	"github.com/nicholidev/eco-mentor/store"
	"github.com/nicholidev/eco-mentor/store/memory"
	redisstore "github.com/nicholidev/eco-mentor/store/redis"
)

var queueName string

var rootCmd = &cobra.Command{
	Use:   "ecomctl",
	Short: "Inspect and manage search index update jobs",
	Long: `ecomctl is the operations surface for the search-sync job system.
It reports pending work, kicks delayed jobs, and summarizes job states
in the store shared with the running workers.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&queueName, "queue", ecomentor.QueueSearchIndex, "queue to operate on")

	rootCmd.AddCommand(pendingCmd)
	rootCmd.AddCommand(failedCmd)
	rootCmd.AddCommand(replayCmd)
	rootCmd.AddCommand(flushCmd)
	rootCmd.AddCommand(statsCmd)
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// newStore opens the job store named by ECOMENTOR_STORE.
func newStore() (store.Store, error) {
	switch backend := getenv("ECOMENTOR_STORE", "redis"); backend {
	case "memory":
		return memory.New(), nil
	case "redis":
		client := goredis.NewClient(&goredis.Options{
			Addr: getenv("ECOMENTOR_REDIS_ADDR", "localhost:6379"),
		})
		return redisstore.New(client), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", backend)
	}
}
