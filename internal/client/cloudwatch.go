package client

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
)

// NewCloudWatchClient loads AWS configuration and returns a CloudWatch Logs
// client. Empty region or profile fall back to the default resolution chain.
func NewCloudWatchClient(ctx context.Context, region, profile string) (*cloudwatchlogs.Client, error) {
	cfg, err := config.LoadDefaultConfig(ctx, LoadOptions(region, profile)...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return cloudwatchlogs.NewFromConfig(cfg), nil
}

// LoadOptions builds the config loader options for region and profile.
func LoadOptions(region, profile string) []func(*config.LoadOptions) error {
	var opts []func(*config.LoadOptions) error
	if region != "" {
		opts = append(opts, config.WithRegion(region))
	}
	if profile != "" {
		opts = append(opts, config.WithSharedConfigProfile(profile))
	}
	return opts
}
