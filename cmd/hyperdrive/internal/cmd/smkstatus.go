package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/rvalieris/hyperdrive/pkg/hderrors"
)

// smkStatusDelta is the narrow reconciliation window for a
// per-job status poll — tight because the workflow engine calls this
// once per watched job, many times a second (§8 scenario 3).
const smkStatusDelta = 7 * time.Second

var smkStatusCmd = &cobra.Command{
	Use:   "smk-status <jobid>",
	Short: "Print running|success|failed for a job after reconciling its state",
	Args:  cobra.ExactArgs(1),
	RunE:  runSmkStatus,
}

func init() {
	rootCmd.AddCommand(smkStatusCmd)
}

func runSmkStatus(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	rt, closeFn, err := newRuntime(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	if err := rt.tracker.CheckQueue(ctx, smkStatusDelta); err != nil {
		return err
	}
	if err := rt.tracker.CheckInstances(ctx, smkStatusDelta); err != nil {
		return err
	}

	status, err := rt.tracker.GetJobStatus(args[0])
	if err != nil {
		return err
	}
	if status == "none" {
		return fail(hderrors.CodeJobNotFound, args[0], nil)
	}
	fmt.Println(status)
	return nil
}
