// ecomctl is the operations CLI for the search-sync job system. It talks
// directly to the job store selected by environment:
//
//	ECOMENTOR_STORE       memory | redis (default redis)
//	ECOMENTOR_REDIS_ADDR  redis address (default localhost:6379)
//
// A .env file in the working directory is loaded first.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

func main() {
	// Best-effort: absence of a .env file is the normal case.
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
