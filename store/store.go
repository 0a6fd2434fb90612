package store

import (
	"context"
	"fmt"
	"iter"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"golang.org/x/sync/errgroup"

	"github.com/jacentio/inventory/internal/normalize"
	"github.com/jacentio/inventory/internal/shard"
	"github.com/jacentio/inventory/resource"
	"github.com/jacentio/inventory/urn"
)

// Client is the subset of the DynamoDB API the Store uses.
type Client interface {
	dynamodb.QueryAPIClient
	dynamodb.ScanAPIClient
	dynamodb.DescribeTableAPIClient
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	CreateTable(ctx context.Context, params *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
}

var (
	_ Client    = (*dynamodb.Client)(nil)
	_ Connector = (*Store)(nil)
)

// Store is the sharded DynamoDB Connector.
type Store struct {
	client  Client
	config  Config
	logger  *slog.Logger
	metrics *Metrics
}

// New creates a new Store instance.
func New(client Client, config Config) *Store {
	config.validate()
	return &Store{
		client:  client,
		config:  config,
		logger:  config.Logger,
		metrics: config.Metrics,
	}
}

// TableName returns the name of the backing table.
func (s *Store) TableName() string {
	return s.config.TableName
}

// WriteResource upserts the base record of u.
func (s *Store) WriteResource(ctx context.Context, u urn.URN, payload any) error {
	s.logger.Debug("writing resource", "urn", u.String(), "table", s.config.TableName)
	return s.put(ctx, u, BaseResource, payload)
}

// WriteSecondaryAttribute upserts the attributeType record of u.
func (s *Store) WriteSecondaryAttribute(ctx context.Context, u urn.URN, attributeType string, payload any) error {
	if attributeType == "" || attributeType == BaseResource {
		return fmt.Errorf("write attribute of %s: invalid attribute type %q", u, attributeType)
	}
	s.logger.Debug("writing secondary attribute", "urn", u.String(), "attribute", attributeType)
	return s.put(ctx, u, attributeType, payload)
}

func (s *Store) put(ctx context.Context, u urn.URN, attr string, payload any) error {
	item, err := s.buildItem(u, attr, payload)
	if err != nil {
		return err
	}
	if _, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.config.TableName),
		Item:      item,
	}); err != nil {
		return err
	}
	s.metrics.recordWrite(attr)
	return nil
}

// buildItem merges the normalized payload with the record keys.
// Keys are applied last so a payload can never overwrite them.
func (s *Store) buildItem(u urn.URN, attr string, payload any) (map[string]types.AttributeValue, error) {
	normalized, err := normalize.Payload(payload)
	if err != nil {
		return nil, fmt.Errorf("write %s %s: %w", u, attr, err)
	}
	item, err := marshalPayload(normalized)
	if err != nil {
		return nil, fmt.Errorf("write %s %s: %w", u, attr, err)
	}

	keys := NewKeys(u, attr)
	if attr == BaseResource {
		keys.ResourceTypeIndex = shard.Random(ResourceTypeIndexKey(u.Service, u.ResourceType), s.config.NumShards, s.config.Shards)
		keys.AccountIDIndex = shard.Random(u.AccountID, s.config.NumShards, s.config.Shards)
	}
	keyAttrs, err := attributevalue.MarshalMap(keys)
	if err != nil {
		return nil, fmt.Errorf("marshal keys: %w", err)
	}
	for k, v := range keyAttrs {
		item[k] = v
	}
	return item, nil
}

// ReadResource returns u with all of its secondary attributes.
func (s *Store) ReadResource(ctx context.Context, u urn.URN) (*resource.Resource, error) {
	items, err := s.queryAll(ctx, s.primaryKeyQuery(u), IndexPrimary)
	if err != nil {
		return nil, err
	}
	resources := s.group(items)
	if len(resources) == 0 {
		return nil, ErrNotFound
	}
	return resources[0], nil
}

// ReadResources returns the resources matching f.
// Resources found through a secondary index carry no secondary attributes;
// call Load on them to fetch those.
func (s *Store) ReadResources(ctx context.Context, f Filter) (iter.Seq2[*resource.Resource, error], error) {
	p, err := s.plan(f)
	if err != nil {
		return nil, err
	}
	return func(yield func(*resource.Resource, error) bool) {
		items, err := s.scatter(ctx, p)
		if err != nil {
			yield(nil, err)
			return
		}
		for _, r := range s.group(items) {
			if !yield(r, nil) {
				return
			}
		}
	}, nil
}

// ReadAll yields every raw record in the table, internal attributes included.
func (s *Store) ReadAll(ctx context.Context) iter.Seq2[map[string]any, error] {
	return func(yield func(map[string]any, error) bool) {
		paginator := dynamodb.NewScanPaginator(s.client, &dynamodb.ScanInput{
			TableName: aws.String(s.config.TableName),
		})
		for paginator.HasMorePages() {
			page, err := paginator.NextPage(ctx)
			if err != nil {
				yield(nil, err)
				return
			}
			for _, item := range page.Items {
				if !yield(unmarshalPayload(item, true), nil) {
					return
				}
			}
		}
	}
}

// DeleteResource deletes the base record of u and every secondary attribute.
// Each record is deleted on its own; a failure part way leaves the rest in place.
func (s *Store) DeleteResource(ctx context.Context, u urn.URN) error {
	input := s.primaryKeyQuery(u)
	input.ProjectionExpression = aws.String("#pk, #sk")
	input.ExpressionAttributeNames["#sk"] = AttrAttr

	items, err := s.queryAll(ctx, input, IndexPrimary)
	if err != nil {
		return err
	}
	for _, item := range items {
		s.logger.Debug("deleting record", "urn", u.String(), "attribute", stringAttr(item, AttrAttr))
		if _, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
			TableName: aws.String(s.config.TableName),
			Key: map[string]types.AttributeValue{
				AttrID:   item[AttrID],
				AttrAttr: item[AttrAttr],
			},
		}); err != nil {
			return fmt.Errorf("delete %s: %w", u, err)
		}
		s.metrics.recordDelete()
	}
	return nil
}

// Reconcile deletes every resource of the given type in the account and
// region whose URN is not in keep.
func (s *Store) Reconcile(ctx context.Context, service, resourceType, accountID, region string, keep []urn.URN) (int, error) {
	s.logger.Debug("reconciling",
		"service", service,
		"resourceType", resourceType,
		"accountID", accountID,
		"region", region,
		"keep", len(keep),
	)
	deleted, err := Sweep(ctx, s, Filter{
		Service:      service,
		ResourceType: resourceType,
		AccountID:    accountID,
		Region:       region,
	}, keep, s.logger)
	s.metrics.recordReconcile(deleted)
	if deleted > 0 {
		s.logger.Info("reconciled stale resources",
			"service", service,
			"resourceType", resourceType,
			"accountID", accountID,
			"region", region,
			"deleted", deleted,
		)
	}
	return deleted, err
}

func (s *Store) primaryKeyQuery(u urn.URN) *dynamodb.QueryInput {
	return &dynamodb.QueryInput{
		TableName:              aws.String(s.config.TableName),
		KeyConditionExpression: aws.String("#pk = :pk"),
		ExpressionAttributeNames: map[string]string{
			"#pk": AttrID,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: PrimaryKey(u)},
		},
	}
}

// queryAll pages through every result of a single query.
func (s *Store) queryAll(ctx context.Context, input *dynamodb.QueryInput, index Index) ([]map[string]types.AttributeValue, error) {
	var items []map[string]types.AttributeValue
	paginator := dynamodb.NewQueryPaginator(s.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		items = append(items, page.Items...)
	}
	s.metrics.recordQuery(index)
	return items, nil
}

// scatter runs every query of the plan concurrently and merges the results
// in shard order.
func (s *Store) scatter(ctx context.Context, p *queryPlan) ([]map[string]types.AttributeValue, error) {
	if len(p.inputs) == 1 {
		return s.queryAll(ctx, p.inputs[0], p.index)
	}

	results := make([][]map[string]types.AttributeValue, len(p.inputs))
	g, gctx := errgroup.WithContext(ctx)
	for i, input := range p.inputs {
		g.Go(func() error {
			items, err := s.queryAll(gctx, input, p.index)
			if err != nil {
				return fmt.Errorf("shard %d: %w", i, err)
			}
			results[i] = items
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var merged []map[string]types.AttributeValue
	for _, items := range results {
		merged = append(merged, items...)
	}
	return merged, nil
}

// group folds records sharing a partition key into one Resource each, in
// order of first appearance. Groups without a base record are dropped: they
// are left behind by interrupted writes or deletes.
func (s *Store) group(items []map[string]types.AttributeValue) []*resource.Resource {
	type recordGroup struct {
		base       map[string]types.AttributeValue
		baseKeys   Keys
		attributes []resource.Attribute
	}

	var order []string
	groups := make(map[string]*recordGroup)
	for _, item := range items {
		var keys Keys
		if err := attributevalue.UnmarshalMap(item, &keys); err != nil || keys.ID == "" {
			s.logger.Warn("skipping record without keys", "error", err)
			continue
		}
		g, ok := groups[keys.ID]
		if !ok {
			g = &recordGroup{}
			groups[keys.ID] = g
			order = append(order, keys.ID)
		}
		if keys.IsBase() {
			g.base = item
			g.baseKeys = keys
			continue
		}
		g.attributes = append(g.attributes, resource.Attribute{
			Type:    keys.Attr,
			Payload: unmarshalPayload(item, false),
		})
	}

	resources := make([]*resource.Resource, 0, len(order))
	for _, id := range order {
		g := groups[id]
		if g.base == nil {
			s.logger.Debug("skipping partial record group", "id", id)
			continue
		}
		u, err := urn.Parse(g.baseKeys.URN)
		if err != nil {
			if u, err = URNFromPrimaryKey(id); err != nil {
				s.logger.Warn("skipping record with invalid urn", "id", id, "error", err)
				continue
			}
		}
		resources = append(resources, resource.New(u, unmarshalPayload(g.base, false), g.attributes, s.ReadResource))
	}
	return resources
}

// stringAttr extracts a string attribute from an item.
func stringAttr(item map[string]types.AttributeValue, key string) string {
	if v, ok := item[key].(*types.AttributeValueMemberS); ok {
		return v.Value
	}
	return ""
}
