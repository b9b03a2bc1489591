package cmd

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rvalieris/hyperdrive/pkg/cloudapi"
	"github.com/rvalieris/hyperdrive/pkg/hderrors"
)

// excludedFromWorkflowSync keeps the scheduler's own state out of the
// synced workflow tree (§4.8, §12); runSnakemake adds the base names of
// the configured config and cache files.
var excludedFromWorkflowSync = []string{".git", ".snakemake", "hyperdrive.db", "hyperdrive.yaml"}

var snakemakeCmd = &cobra.Command{
	Use:                "snakemake [args...]",
	Short:              "Sync the workflow, pre-populate the catalog, and exec into snakemake",
	DisableFlagParsing: true,
	RunE:               runSnakemake,
}

func init() {
	rootCmd.AddCommand(snakemakeCmd)
}

func runSnakemake(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	rt, closeFn, err := newRuntime(ctx)
	if err != nil {
		return err
	}

	cwd, err := os.Getwd()
	if err != nil {
		closeFn()
		return fail(hderrors.CodeUnknown, "resolving working directory", err)
	}

	bucket, keyPrefix := cloudapi.SplitPrefix(rt.cfg.Prefix)
	workflowKey := cloudapi.JoinKey(keyPrefix, "_workflow") + "/"
	excludes := append(excludedFromWorkflowSync, filepath.Base(configFile), filepath.Base(rt.cfg.Cache))
	if err := rt.clients.UploadDir(ctx, bucket, workflowKey, cwd, excludes); err != nil {
		closeFn()
		return fail(hderrors.CodeCloudUnavailable, "syncing workflow directory", err)
	}

	if err := rt.catalog.EnsurePopulated(ctx); err != nil {
		closeFn()
		return fail(hderrors.CodeCloudUnavailable, "populating instance catalog", err)
	}
	if err := rt.prices.Refresh(ctx); err != nil {
		closeFn()
		return fail(hderrors.CodeCloudUnavailable, "refreshing spot prices", err)
	}
	closeFn()

	self, err := os.Executable()
	if err != nil {
		return fail(hderrors.CodeUnknown, "resolving own executable path", err)
	}
	selfInvocation := fmt.Sprintf("%s --config %s", self, configFile)

	snakemakeBin, err := exec.LookPath("snakemake")
	if err != nil {
		return fail(hderrors.CodeUnknown, "snakemake not found on PATH", err)
	}

	execArgs := append([]string{snakemakeBin, "--jobs", "1000000"},
		append(args, "--cluster", selfInvocation+" submit-job", "--cluster-status", selfInvocation+" smk-status")...)

	return syscall.Exec(snakemakeBin, execArgs, os.Environ())
}
