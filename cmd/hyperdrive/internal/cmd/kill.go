package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/rvalieris/hyperdrive/pkg/cache"
	"github.com/rvalieris/hyperdrive/pkg/hderrors"
)

var killCmd = &cobra.Command{
	Use:   "kill <jobid>",
	Short: "Mark a job FAILED and terminate its instance",
	Args:  cobra.ExactArgs(1),
	RunE:  runKill,
}

func init() {
	rootCmd.AddCommand(killCmd)
}

func runKill(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	rt, closeFn, err := newRuntime(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	jobid := args[0]
	job, err := rt.cache.GetJob(jobid)
	if err != nil {
		return err
	}
	if job == nil {
		return fail(hderrors.CodeJobNotFound, jobid, nil)
	}

	if err := rt.cache.SetJobStatus(jobid, cache.StatusFailed); err != nil {
		return err
	}
	if job.InstanceID == "" {
		return nil
	}
	if err := rt.clients.TerminateInstance(ctx, job.InstanceID); err != nil {
		return fail(hderrors.CodeCloudUnavailable, "terminating instance", err)
	}
	return nil
}
