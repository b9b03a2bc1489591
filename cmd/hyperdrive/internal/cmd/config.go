package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rvalieris/hyperdrive/pkg/cloudapi"
	"github.com/rvalieris/hyperdrive/pkg/config"
	"github.com/rvalieris/hyperdrive/pkg/hderrors"
)

var (
	cfgStackName string
	cfgPrefix    string
	cfgAMIID     string
	cfgCachePath string
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Validate the target stack and bucket, then write the scheduler config file",
	RunE:  runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.Flags().StringVar(&cfgStackName, "stack-name", "", "cloud stack name (required)")
	configCmd.Flags().StringVar(&cfgPrefix, "prefix", "", "bucket[/key-prefix] for workflow and job storage (required)")
	configCmd.Flags().StringVar(&cfgAMIID, "ami", "", "machine image id for worker instances (required)")
	configCmd.Flags().StringVar(&cfgCachePath, "cache", "hyperdrive.db", "path to the local cache file")
	_ = configCmd.MarkFlagRequired("stack-name")
	_ = configCmd.MarkFlagRequired("prefix")
	_ = configCmd.MarkFlagRequired("ami")
}

func runConfig(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	clients, err := cloudapi.NewClients(ctx)
	if err != nil {
		return fail(hderrors.CodeCloudUnavailable, "constructing AWS clients", err)
	}

	bucket, _ := cloudapi.SplitPrefix(cfgPrefix)
	exists, err := clients.BucketExists(ctx, bucket)
	if err != nil {
		return fail(hderrors.CodeCloudUnavailable, "checking bucket", err)
	}
	if !exists {
		return fail(hderrors.CodeConfigMissing, fmt.Sprintf("bucket %s does not exist or is unreachable", bucket), nil)
	}

	outputs, err := clients.StackOutputs(ctx, cfgStackName)
	if err != nil {
		return fail(hderrors.CodeConfigMissing, "reading stack outputs", err)
	}

	cfg := &config.Config{
		Cache:            cfgCachePath,
		AMIID:            cfgAMIID,
		Prefix:           cfgPrefix,
		StackName:        cfgStackName,
		JobQueueURL:      outputs["JobQueueUrl"],
		LogGroupName:     outputs["LogGroupName"],
		WorkerProfileArn: outputs["WorkerProfileArn"],
		SecurityGroupID:  outputs["SecurityGroupId"],
	}

	if err := cfg.Save(configFile); err != nil {
		return fail(hderrors.CodeUnknown, "writing config file", err)
	}
	fmt.Printf("wrote %s\n", configFile)
	return nil
}
