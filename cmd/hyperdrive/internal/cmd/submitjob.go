package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/rvalieris/hyperdrive/pkg/hderrors"
)

var submitJobCmd = &cobra.Command{
	Use:   "submit-job <jobscript>",
	Short: "Launch a spot instance to run the given job script",
	Args:  cobra.ExactArgs(1),
	RunE:  runSubmitJob,
}

func init() {
	rootCmd.AddCommand(submitJobCmd)
}

func runSubmitJob(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	rt, closeFn, err := newRuntime(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	script, err := os.ReadFile(args[0])
	if err != nil {
		return fail(hderrors.CodeUnknown, "reading job script", err)
	}

	if err := rt.catalog.EnsurePopulated(ctx); err != nil {
		return fail(hderrors.CodeCloudUnavailable, "populating instance catalog", err)
	}
	if err := rt.prices.Refresh(ctx); err != nil {
		return fail(hderrors.CodeCloudUnavailable, "refreshing spot prices", err)
	}

	jobid := uuid.NewString()
	if err := rt.launcher.Launch(ctx, jobid, string(script)); err != nil {
		return err
	}

	fmt.Println(jobid)
	return nil
}
