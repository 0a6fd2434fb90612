// Package store persists discovered cloud resources in a single DynamoDB table
// and answers filtered queries against it.
//
// Inventory is designed for accounts with many resources of few types: the
// low-cardinality indices (by resource type and by account) are write-sharded
// so that no single partition absorbs every write.
//
// # Key Features
//
//   - One record per base resource and one per secondary attribute, grouped
//     under a shared partition key
//   - Denormalized filter fields on every record, so no query needs a join
//   - Randomly sharded secondary indices with scatter-gather reads
//   - Query planning by filter shape, with a residual equality filter
//   - Reconciliation of stored inventory against a freshly observed set
//
// # Storage Connectors
//
// Every backend implements [Connector]:
//
//	type Connector interface {
//	    Init(ctx context.Context) error
//	    WriteResource(ctx context.Context, u urn.URN, payload any) error
//	    WriteSecondaryAttribute(ctx context.Context, u urn.URN, attributeType string, payload any) error
//	    ReadResource(ctx context.Context, u urn.URN) (*resource.Resource, error)
//	    ReadResources(ctx context.Context, f Filter) (iter.Seq2[*resource.Resource, error], error)
//	    ReadAll(ctx context.Context) iter.Seq2[map[string]any, error]
//	    DeleteResource(ctx context.Context, u urn.URN) error
//	    Reconcile(ctx context.Context, service, resourceType, accountID, region string, keep []urn.URN) (int, error)
//	}
//
// [Store] is the DynamoDB implementation.
//
// # Table Layout
//
//	_id    (hash)   "resource#" + URN
//	_attr  (range)  "BaseResource" or the secondary attribute type
//
//	GSI resource_type: _resource_type_index (service#type#shardN) / _resource_type_range (account#region)
//	GSI account_id:    _account_id_index (account#shardN)
//
// Only base records carry the GSI hash keys, so secondary attributes are
// reachable by URN alone.
//
// # Configuration
//
// Use [DefaultConfig] (10 shards). Shard numbers come from a [shard.Source]
// which tests can replace with a deterministic one:
//
//	cfg := store.DefaultConfig()
//	cfg.TableName = "inventory"
//	s := store.New(dynamodb.NewFromConfig(awsCfg), cfg)
//
// # Errors
//
//   - [ErrNotFound] - no base record for the URN
//   - [ErrIndexUnavailable] - the filter cannot be served by any index
//
// Store failures are returned as-is; nothing here retries.
package store
