// Command sweeper is the Lambda function attached to the inventory table's
// DynamoDB stream. It deletes the secondary attributes left behind when a
// base resource record is removed.
//
// Environment:
//
//	INVENTORY_TABLE   table name (default "inventory")
//	INVENTORY_SHARDS  shard count (default 10)
//	LOG_LEVEL         slog level (default "info")
package main

import (
	"context"
	"log/slog"
	"os"
	"strconv"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"github.com/jacentio/inventory/store"
	"github.com/jacentio/inventory/stream"
)

func main() {
	var level slog.Level
	if err := level.UnmarshalText([]byte(getenv("LOG_LEVEL", "info"))); err != nil {
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	shards, err := strconv.Atoi(getenv("INVENTORY_SHARDS", "10"))
	if err != nil {
		logger.Error("invalid INVENTORY_SHARDS", "error", err)
		os.Exit(1)
	}

	cfg, err := config.LoadDefaultConfig(context.Background())
	if err != nil {
		logger.Error("failed to load AWS config", "error", err)
		os.Exit(1)
	}

	s := store.New(dynamodb.NewFromConfig(cfg), store.Config{
		TableName: getenv("INVENTORY_TABLE", "inventory"),
		NumShards: shards,
		Logger:    logger,
	})
	lambda.Start(stream.NewHandler(s, logger).HandleOrphanSweep)
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
