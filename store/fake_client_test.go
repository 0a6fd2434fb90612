package store_test

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/jacentio/inventory/store"
)

var _ store.Client = (*fakeClient)(nil)

// fakeClient is an in-memory DynamoDB table that understands the key and
// filter expressions the store generates.
type fakeClient struct {
	mu      sync.Mutex
	tables  map[string]bool
	items   map[string]map[string]types.AttributeValue
	queries []*dynamodb.QueryInput
	calls   int

	// queryErr, when set, fails every Query.
	queryErr error
	// deleteErr, when set, fails every DeleteItem.
	deleteErr error
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		tables: make(map[string]bool),
		items:  make(map[string]map[string]types.AttributeValue),
	}
}

func itemKey(item map[string]types.AttributeValue) string {
	return attrString(item, store.AttrID) + "\x00" + attrString(item, store.AttrAttr)
}

func attrString(item map[string]types.AttributeValue, name string) string {
	if v, ok := item[name].(*types.AttributeValueMemberS); ok {
		return v.Value
	}
	return ""
}

func (f *fakeClient) CreateTable(_ context.Context, params *dynamodb.CreateTableInput, _ ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++

	name := aws.ToString(params.TableName)
	if f.tables[name] {
		return nil, &types.ResourceInUseException{Message: aws.String("Table already exists: " + name)}
	}
	f.tables[name] = true
	return &dynamodb.CreateTableOutput{}, nil
}

func (f *fakeClient) DescribeTable(_ context.Context, params *dynamodb.DescribeTableInput, _ ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++

	name := aws.ToString(params.TableName)
	if !f.tables[name] {
		return nil, &types.ResourceNotFoundException{Message: aws.String("Requested resource not found")}
	}
	return &dynamodb.DescribeTableOutput{
		Table: &types.TableDescription{
			TableName:   params.TableName,
			TableStatus: types.TableStatusActive,
		},
	}, nil
}

func (f *fakeClient) PutItem(_ context.Context, params *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++

	f.items[itemKey(params.Item)] = params.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeClient) DeleteItem(_ context.Context, params *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++

	if f.deleteErr != nil {
		return nil, f.deleteErr
	}
	delete(f.items, itemKey(params.Key))
	return &dynamodb.DeleteItemOutput{}, nil
}

func (f *fakeClient) Scan(_ context.Context, _ *dynamodb.ScanInput, _ ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++

	out := &dynamodb.ScanOutput{}
	for _, key := range f.sortedKeys() {
		out.Items = append(out.Items, f.items[key])
	}
	out.Count = int32(len(out.Items))
	return out, nil
}

var (
	keyCondPattern = regexp.MustCompile(`^(#\w+) = (:\w+)(?: AND begins_with\((#\w+), (:\w+)\))?$`)
	clausePattern  = regexp.MustCompile(`^(#\w+) = (:\w+)$`)
)

func (f *fakeClient) Query(_ context.Context, params *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.queries = append(f.queries, params)

	if f.queryErr != nil {
		return nil, f.queryErr
	}

	m := keyCondPattern.FindStringSubmatch(aws.ToString(params.KeyConditionExpression))
	if m == nil {
		return nil, fmt.Errorf("fake: unsupported key condition %q", aws.ToString(params.KeyConditionExpression))
	}
	names, values := params.ExpressionAttributeNames, params.ExpressionAttributeValues
	hashName := names[m[1]]
	hashValue := attrValueString(values[m[2]])
	var rangeName, rangePrefix string
	if m[3] != "" {
		rangeName = names[m[3]]
		rangePrefix = attrValueString(values[m[4]])
	}

	type cond struct{ name, value string }
	var conds []cond
	if expr := aws.ToString(params.FilterExpression); expr != "" {
		for _, clause := range strings.Split(expr, " AND ") {
			cm := clausePattern.FindStringSubmatch(clause)
			if cm == nil {
				return nil, fmt.Errorf("fake: unsupported filter clause %q", clause)
			}
			conds = append(conds, cond{names[cm[1]], attrValueString(values[cm[2]])})
		}
	}

	out := &dynamodb.QueryOutput{}
	for _, key := range f.sortedKeys() {
		item := f.items[key]
		hv, ok := item[hashName].(*types.AttributeValueMemberS)
		if !ok || hv.Value != hashValue {
			continue
		}
		if rangeName != "" && !strings.HasPrefix(attrString(item, rangeName), rangePrefix) {
			continue
		}
		matched := true
		for _, c := range conds {
			if attrString(item, c.name) != c.value {
				matched = false
				break
			}
		}
		if matched {
			out.Items = append(out.Items, item)
		}
	}
	out.Count = int32(len(out.Items))
	return out, nil
}

func (f *fakeClient) sortedKeys() []string {
	keys := make([]string, 0, len(f.items))
	for k := range f.items {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (f *fakeClient) itemCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.items)
}

func (f *fakeClient) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeClient) queryCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queries)
}

func (f *fakeClient) item(id, attr string) map[string]types.AttributeValue {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.items[id+"\x00"+attr]
}

func attrValueString(av types.AttributeValue) string {
	if v, ok := av.(*types.AttributeValueMemberS); ok {
		return v.Value
	}
	return ""
}
