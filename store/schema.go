package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// TableDefinition returns the CreateTable input for the inventory table.
func TableDefinition(tableName string) *dynamodb.CreateTableInput {
	return &dynamodb.CreateTableInput{
		TableName: aws.String(tableName),
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String(AttrID), KeyType: types.KeyTypeHash},
			{AttributeName: aws.String(AttrAttr), KeyType: types.KeyTypeRange},
		},
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String(AttrID), AttributeType: types.ScalarAttributeTypeS},
			{AttributeName: aws.String(AttrAttr), AttributeType: types.ScalarAttributeTypeS},
			{AttributeName: aws.String(AttrResourceTypeIndex), AttributeType: types.ScalarAttributeTypeS},
			{AttributeName: aws.String(AttrResourceTypeRange), AttributeType: types.ScalarAttributeTypeS},
			{AttributeName: aws.String(AttrAccountIDIndex), AttributeType: types.ScalarAttributeTypeS},
		},
		GlobalSecondaryIndexes: []types.GlobalSecondaryIndex{
			{
				IndexName: aws.String(string(IndexResourceType)),
				KeySchema: []types.KeySchemaElement{
					{AttributeName: aws.String(AttrResourceTypeIndex), KeyType: types.KeyTypeHash},
					{AttributeName: aws.String(AttrResourceTypeRange), KeyType: types.KeyTypeRange},
				},
				Projection: &types.Projection{ProjectionType: types.ProjectionTypeAll},
			},
			{
				IndexName: aws.String(string(IndexAccountID)),
				KeySchema: []types.KeySchemaElement{
					{AttributeName: aws.String(AttrAccountIDIndex), KeyType: types.KeyTypeHash},
				},
				Projection: &types.Projection{ProjectionType: types.ProjectionTypeAll},
			},
		},
		BillingMode: types.BillingModePayPerRequest,
		StreamSpecification: &types.StreamSpecification{
			StreamEnabled:  aws.Bool(true),
			StreamViewType: types.StreamViewTypeNewAndOldImages,
		},
	}
}

// Init creates the inventory table. An existing table is left alone.
func (s *Store) Init(ctx context.Context) error {
	_, err := s.client.CreateTable(ctx, TableDefinition(s.config.TableName))

	var inUse *types.ResourceInUseException
	if errors.As(err, &inUse) {
		s.logger.Info("table already exists, skipping creation", "table", s.config.TableName)
		return nil
	}
	if err != nil {
		return fmt.Errorf("create table %s: %w", s.config.TableName, err)
	}

	s.logger.Info("created table", "table", s.config.TableName)
	return nil
}

// WaitUntilActive blocks until the table exists and is ACTIVE, or maxWait elapses.
func (s *Store) WaitUntilActive(ctx context.Context, maxWait time.Duration) error {
	waiter := dynamodb.NewTableExistsWaiter(s.client)
	if err := waiter.Wait(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(s.config.TableName),
	}, maxWait); err != nil {
		return fmt.Errorf("wait for table %s: %w", s.config.TableName, err)
	}
	return nil
}
