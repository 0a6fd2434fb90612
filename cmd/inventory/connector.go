package main

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/jacentio/inventory/boltstore"
	"github.com/jacentio/inventory/internal/config"
	"github.com/jacentio/inventory/store"
)

// loadAWSConfig builds the AWS session from the [aws] section.
func loadAWSConfig(ctx context.Context) (aws.Config, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.AWS.Profile != "" {
		opts = append(opts, awsconfig.WithSharedConfigProfile(cfg.AWS.Profile))
	}
	if cfg.AWS.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.AWS.Region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("load aws config: %w", err)
	}
	return awsCfg, nil
}

// openConnector opens the configured storage backend. reg, when non-nil,
// receives the store metrics. The returned func releases the backend.
func openConnector(ctx context.Context, reg prometheus.Registerer) (store.Connector, func() error, error) {
	switch cfg.Store.Backend {
	case config.BackendBolt:
		s, err := boltstore.Open(cfg.Store.Path, logger)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil

	case config.BackendDynamoDB:
		awsCfg, err := loadAWSConfig(ctx)
		if err != nil {
			return nil, nil, err
		}
		client := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
			if cfg.Store.Endpoint != "" {
				o.BaseEndpoint = aws.String(cfg.Store.Endpoint)
			}
		})
		storeCfg := store.Config{
			TableName: cfg.Store.Table,
			NumShards: cfg.Store.Shards,
			Logger:    logger,
		}
		if reg != nil {
			storeCfg.Metrics = store.NewMetrics(reg)
		}
		return store.New(client, storeCfg), func() error { return nil }, nil
	}
	return nil, nil, fmt.Errorf("unknown backend %q", cfg.Store.Backend)
}
