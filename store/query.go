package store

import (
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/jacentio/inventory/internal/shard"
	"github.com/jacentio/inventory/urn"
)

// Index identifies the access path chosen for a filter.
type Index string

const (
	// IndexPrimary is a direct lookup on the table's partition key.
	IndexPrimary Index = "primary"

	// IndexResourceType is the sharded GSI keyed by service#resource_type.
	IndexResourceType Index = "resource_type"

	// IndexAccountID is the sharded GSI keyed by account id.
	IndexAccountID Index = "account_id"
)

// Filter restricts a read. Empty fields are unconstrained.
type Filter struct {
	URN          *urn.URN
	AccountID    string
	Region       string
	Service      string
	ResourceType string
}

// FieldValue is one equality constraint of a Filter.
type FieldValue struct {
	Name  string
	Value string
}

// Fields returns every supplied constraint as attribute/value pairs.
func (f Filter) Fields() []FieldValue {
	var fields []FieldValue
	add := func(name, value string) {
		if value != "" {
			fields = append(fields, FieldValue{Name: name, Value: value})
		}
	}
	add(AttrAccountID, f.AccountID)
	add(AttrRegion, f.Region)
	add(AttrService, f.Service)
	add(AttrResourceType, f.ResourceType)
	if f.URN != nil {
		add(AttrURN, f.URN.String())
	}
	return fields
}

// Matches reports whether keys satisfy every constraint of f.
func (f Filter) Matches(k Keys) bool {
	for _, fv := range f.Fields() {
		if k.Field(fv.Name) != fv.Value {
			return false
		}
	}
	return true
}

// SelectIndex picks the access path for f. The first match wins:
// service and resource type, then account id, then URN.
func SelectIndex(f Filter) (Index, error) {
	switch {
	case f.Service != "" && f.ResourceType != "":
		return IndexResourceType, nil
	case f.AccountID != "":
		return IndexAccountID, nil
	case f.URN != nil:
		return IndexPrimary, nil
	}
	return "", ErrIndexUnavailable
}

// queryPlan is the set of independent queries that together answer a filter.
type queryPlan struct {
	index  Index
	inputs []*dynamodb.QueryInput
}

// plan builds one query per shard variant of the selected index, each
// carrying the residual equality filter.
func (s *Store) plan(f Filter) (*queryPlan, error) {
	index, err := SelectIndex(f)
	if err != nil {
		return nil, err
	}

	filterExpr, filterNames, filterValues := residualFilter(f)

	var keyConds []keyCondition
	switch index {
	case IndexPrimary:
		keyConds = append(keyConds, keyCondition{hashName: AttrID, hashValue: PrimaryKey(*f.URN)})
	case IndexResourceType:
		rangePrefix := ""
		if f.AccountID != "" {
			rangePrefix = ResourceTypeRange(f.AccountID, f.Region)
		}
		for _, key := range shard.All(ResourceTypeIndexKey(f.Service, f.ResourceType), s.config.NumShards) {
			keyConds = append(keyConds, keyCondition{
				hashName:    AttrResourceTypeIndex,
				hashValue:   key,
				rangeName:   AttrResourceTypeRange,
				rangePrefix: rangePrefix,
			})
		}
	case IndexAccountID:
		for _, key := range shard.All(f.AccountID, s.config.NumShards) {
			keyConds = append(keyConds, keyCondition{hashName: AttrAccountIDIndex, hashValue: key})
		}
	}

	p := &queryPlan{index: index}
	for _, kc := range keyConds {
		expr, names, values := kc.expression()
		input := &dynamodb.QueryInput{
			TableName:                 aws.String(s.config.TableName),
			KeyConditionExpression:    aws.String(expr),
			ExpressionAttributeNames:  mergeExprNames(names, filterNames),
			ExpressionAttributeValues: mergeExprValues(values, filterValues),
		}
		if filterExpr != "" {
			input.FilterExpression = aws.String(filterExpr)
		}
		if index != IndexPrimary {
			input.IndexName = aws.String(string(index))
		}
		p.inputs = append(p.inputs, input)
	}
	return p, nil
}

// keyCondition is an equality on a hash key with an optional range prefix.
type keyCondition struct {
	hashName    string
	hashValue   string
	rangeName   string
	rangePrefix string
}

func (kc keyCondition) expression() (string, map[string]string, map[string]types.AttributeValue) {
	expr := "#pk = :pk"
	names := map[string]string{"#pk": kc.hashName}
	values := map[string]types.AttributeValue{
		":pk": &types.AttributeValueMemberS{Value: kc.hashValue},
	}
	if kc.rangePrefix != "" {
		expr += " AND begins_with(#sk, :sk)"
		names["#sk"] = kc.rangeName
		values[":sk"] = &types.AttributeValueMemberS{Value: kc.rangePrefix}
	}
	return expr, names, values
}

// residualFilter guards against prefix matches on the range key by
// re-checking every supplied field against the denormalized attributes.
func residualFilter(f Filter) (string, map[string]string, map[string]types.AttributeValue) {
	fields := f.Fields()
	if len(fields) == 0 {
		return "", nil, nil
	}
	var clauses []string
	names := make(map[string]string, len(fields))
	values := make(map[string]types.AttributeValue, len(fields))
	for i, fv := range fields {
		nameKey := fmt.Sprintf("#f%d", i)
		valueKey := fmt.Sprintf(":f%d", i)
		names[nameKey] = fv.Name
		values[valueKey] = &types.AttributeValueMemberS{Value: fv.Value}
		clauses = append(clauses, fmt.Sprintf("%s = %s", nameKey, valueKey))
	}
	return strings.Join(clauses, " AND "), names, values
}

// mergeExprNames merges multiple expression attribute name maps.
func mergeExprNames(maps ...map[string]string) map[string]string {
	result := make(map[string]string)
	for _, m := range maps {
		for k, v := range m {
			result[k] = v
		}
	}
	return result
}

// mergeExprValues merges multiple expression attribute value maps.
func mergeExprValues(maps ...map[string]types.AttributeValue) map[string]types.AttributeValue {
	result := make(map[string]types.AttributeValue)
	for _, m := range maps {
		for k, v := range m {
			result[k] = v
		}
	}
	return result
}
