package ddbmapper

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

// ClientOptions configures NewDynamoDBClient.
type ClientOptions struct {
	// Region overrides the region found in the shared configuration.
	Region string
	// Endpoint overrides the service endpoint, e.g. "http://localhost:8000" for DynamoDB Local.
	Endpoint string
	// Anonymous disables request signing. DynamoDB Local accepts unsigned requests.
	Anonymous bool
	// LoadOptions are passed to config.LoadDefaultConfig.
	LoadOptions []func(*config.LoadOptions) error
}

// WithRegion sets the client region.
func WithRegion(region string) func(*ClientOptions) {
	return func(o *ClientOptions) {
		o.Region = region
	}
}

// WithEndpoint points the client at a custom endpoint.
func WithEndpoint(endpoint string) func(*ClientOptions) {
	return func(o *ClientOptions) {
		o.Endpoint = endpoint
	}
}

// WithAnonymousCredentials disables request signing.
func WithAnonymousCredentials() func(*ClientOptions) {
	return func(o *ClientOptions) {
		o.Anonymous = true
	}
}

// NewDynamoDBClient loads the default AWS configuration (environment, shared
// config files, instance roles) and returns a DynamoDB client suitable for
// NewDynamoDBStore.
func NewDynamoDBClient(ctx context.Context, optFns ...func(*ClientOptions)) (*dynamodb.Client, error) {
	var opts ClientOptions
	for _, fn := range optFns {
		fn(&opts)
	}

	loadOpts := append([]func(*config.LoadOptions) error(nil), opts.LoadOptions...)
	if opts.Region != "" {
		loadOpts = append(loadOpts, config.WithRegion(opts.Region))
	}
	if opts.Anonymous {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(aws.AnonymousCredentials{}))
	}

	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	return dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
	}), nil
}
