package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/rvalieris/hyperdrive/pkg/cloudapi"
	"github.com/rvalieris/hyperdrive/pkg/hderrors"
)

var (
	logLines int32
	logHead  bool
)

var logCmd = &cobra.Command{
	Use:   "log <jobid>",
	Short: "Print a job's log stream alongside its cached status",
	Args:  cobra.ExactArgs(1),
	RunE:  runLog,
}

func init() {
	rootCmd.AddCommand(logCmd)
	logCmd.Flags().Int32VarP(&logLines, "lines", "n", 1000, "maximum number of log lines to print")
	logCmd.Flags().BoolVar(&logHead, "head", false, "print from the start of the stream instead of the end")
}

func runLog(cmd *cobra.Command, args []string) error {
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

	events, err := rt.clients.GetAllLogEvents(ctx, rt.cfg.LogGroupName, jobid, logLines, logHead)
	if err != nil {
		if errors.Is(err, cloudapi.ErrNoLogData) {
			return fail(hderrors.CodeNoLogData, jobid, err)
		}
		return fail(hderrors.CodeCloudUnavailable, "fetching log events", err)
	}

	for _, e := range events {
		ts := time.UnixMilli(e.TimestampMillis).Local().Format(time.RFC3339)
		fmt.Printf("%s %s\n", ts, e.Message)
	}
	fmt.Printf("-- status: %s --\n", job.Status)
	return nil
}
