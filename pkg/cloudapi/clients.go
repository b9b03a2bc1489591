// Package cloudapi constructs and wraps the AWS SDK v2 clients shared
// across the Instance Catalog, Price Oracle, Launcher, Lifecycle
// Tracker, Runtime Agent, and CLI Facade — grounded on
// skills-repository/pkg/storage/s3_storage.go's
// config.LoadDefaultConfig + client-construction pattern, extended to
// the sibling EC2/SQS/CloudWatchLogs service packages.
package cloudapi

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

// staticCredentialsOptions returns a one-element load-option slice
// pinning the SDK to static credentials when both env vars are set, for the
// rare worker image that can't reach the instance-role credential
// chain (on-prem runners, local testing against a MinIO-backed
// bucket). Absent either var, the default chain is left untouched.
func staticCredentialsOptions() []func(*awsconfig.LoadOptions) error {
	accessKey := os.Getenv("HYPERDRIVE_AWS_ACCESS_KEY_ID")
	secretKey := os.Getenv("HYPERDRIVE_AWS_SECRET_ACCESS_KEY")
	if accessKey == "" || secretKey == "" {
		return nil
	}
	provider := credentials.NewStaticCredentialsProvider(accessKey, secretKey, os.Getenv("HYPERDRIVE_AWS_SESSION_TOKEN"))
	return []func(*awsconfig.LoadOptions) error{awsconfig.WithCredentialsProvider(provider)}
}

// Clients bundles every AWS service client the scheduler needs.
type Clients struct {
	EC2  *ec2.Client
	S3   *s3.Client
	SQS  *sqs.Client
	Logs *cloudwatchlogs.Client
	CFN  *cloudformation.Client
	aws  aws.Config
}

// NewClients resolves the default AWS credential/region chain and
// constructs every service client against it.
func NewClients(ctx context.Context) (*Clients, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, staticCredentialsOptions()...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}
	return &Clients{
		EC2:  ec2.NewFromConfig(cfg),
		S3:   s3.NewFromConfig(cfg),
		SQS:  sqs.NewFromConfig(cfg),
		Logs: cloudwatchlogs.NewFromConfig(cfg),
		CFN:  cloudformation.NewFromConfig(cfg),
		aws:  cfg,
	}, nil
}

// NewClientsInRegion builds clients pinned to a specific region — the
// Runtime Agent resolves its region from the instance-identity
// document (§4.7 phase 1) before any client can be constructed.
func NewClientsInRegion(ctx context.Context, region string) (*Clients, error) {
	opts := append([]func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}, staticCredentialsOptions()...)
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config for region %s: %w", region, err)
	}
	return &Clients{
		EC2:  ec2.NewFromConfig(cfg),
		S3:   s3.NewFromConfig(cfg),
		SQS:  sqs.NewFromConfig(cfg),
		Logs: cloudwatchlogs.NewFromConfig(cfg),
		CFN:  cloudformation.NewFromConfig(cfg),
		aws:  cfg,
	}, nil
}

// Region returns the resolved region of the underlying aws.Config.
func (c *Clients) Region() string { return c.aws.Region }
