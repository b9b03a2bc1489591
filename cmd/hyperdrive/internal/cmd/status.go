package cmd

import (
	"context"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/rvalieris/hyperdrive/pkg/cli"
)

// statusDelta is the wider reconciliation window the overview table
// uses, since it is invoked far less often than smk-status (§4.8).
const statusDelta = 30 * time.Second

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print an aligned table of every tracked job",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	rt, closeFn, err := newRuntime(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	if err := rt.tracker.CheckQueue(ctx, statusDelta); err != nil {
		return err
	}
	if err := rt.tracker.CheckInstances(ctx, statusDelta); err != nil {
		return err
	}

	jobs, err := rt.cache.ListJobs()
	if err != nil {
		return err
	}

	rows := make([][]string, 0, len(jobs))
	for _, j := range jobs {
		rows = append(rows, []string{
			j.JobID, j.JobName, string(j.Status),
			formatTime(j.StartTime), formatTime(j.EndTime),
		})
	}
	cli.PrintTable(os.Stdout, []string{"jobid", "jobname", "status", "start_time", "end_time"}, rows)
	return nil
}

func formatTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format(time.RFC3339)
}
