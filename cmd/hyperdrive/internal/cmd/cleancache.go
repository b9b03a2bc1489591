package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

var cleanCacheCmd = &cobra.Command{
	Use:   "clean-cache",
	Short: "Delete terminal jobs from the local cache",
	RunE:  runCleanCache,
}

func init() {
	rootCmd.AddCommand(cleanCacheCmd)
}

func runCleanCache(cmd *cobra.Command, args []string) error {
	rt, closeFn, err := newRuntime(context.Background())
	if err != nil {
		return err
	}
	defer closeFn()

	return rt.cache.DeleteTerminalJobs()
}
