package store

import (
	"log/slog"

	"github.com/jacentio/inventory/internal/shard"
)

const (
	defaultTableName = "inventory"
	defaultNumShards = 10
	maxNumShards     = 256
)

// Config holds configuration for the Store.
type Config struct {
	// TableName is the name of the inventory table.
	// Default: "inventory"
	TableName string

	// NumShards is the number of shards the resource-type and account
	// indices are spread across. Reads fan out to every shard.
	// Default: 10
	// Max: 256
	//
	// Changing it on a populated table hides records written to shards
	// beyond the new count.
	NumShards int

	// Logger receives debug and info events. Default: slog.Default().
	Logger *slog.Logger

	// Metrics is optional.
	Metrics *Metrics

	// Shards picks the shard for each base record write.
	// Default: shard.DefaultSource().
	Shards shard.Source
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		TableName: defaultTableName,
		NumShards: defaultNumShards,
	}
}

// validate ensures config values are within acceptable bounds.
func (c *Config) validate() {
	if c.TableName == "" {
		c.TableName = defaultTableName
	}
	if c.NumShards < 1 {
		c.NumShards = defaultNumShards
	}
	if c.NumShards > maxNumShards {
		c.NumShards = maxNumShards
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	if c.Shards == nil {
		c.Shards = shard.DefaultSource()
	}
}
