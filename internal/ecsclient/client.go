package ecsclient

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/ecs"
)

// Options selects where the ECS client points.
type Options struct {
	Region      string
	EndpointURL string // simulator or test server; uses static credentials
}

// New builds an ECS client from the default AWS credential chain.
func New(ctx context.Context, o Options) (*ecs.Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{}
	if o.Region != "" {
		opts = append(opts, awsconfig.WithRegion(o.Region))
	}
	if o.EndpointURL != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider("test", "test", ""),
		))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	if o.EndpointURL != "" {
		return ecs.NewFromConfig(cfg, func(eo *ecs.Options) {
			eo.BaseEndpoint = aws.String(o.EndpointURL)
		}), nil
	}
	return ecs.NewFromConfig(cfg), nil
}
