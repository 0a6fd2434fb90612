package store

import (
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// marshalPayload converts a normalized payload into DynamoDB attributes.
// json.Number becomes N so decimals keep their exact text.
func marshalPayload(payload map[string]any) (map[string]types.AttributeValue, error) {
	item := make(map[string]types.AttributeValue, len(payload))
	for k, v := range payload {
		av, err := marshalValue(v)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", k, err)
		}
		item[k] = av
	}
	return item, nil
}

func marshalValue(v any) (types.AttributeValue, error) {
	switch t := v.(type) {
	case nil:
		return &types.AttributeValueMemberNULL{Value: true}, nil
	case string:
		return &types.AttributeValueMemberS{Value: t}, nil
	case json.Number:
		return &types.AttributeValueMemberN{Value: t.String()}, nil
	case bool:
		return &types.AttributeValueMemberBOOL{Value: t}, nil
	case map[string]any:
		m, err := marshalPayload(t)
		if err != nil {
			return nil, err
		}
		return &types.AttributeValueMemberM{Value: m}, nil
	case []any:
		l := make([]types.AttributeValue, 0, len(t))
		for i, item := range t {
			av, err := marshalValue(item)
			if err != nil {
				return nil, fmt.Errorf("index %d: %w", i, err)
			}
			l = append(l, av)
		}
		return &types.AttributeValueMemberL{Value: l}, nil
	}
	return nil, fmt.Errorf("unsupported normalized type %T", v)
}

// unmarshalPayload converts DynamoDB attributes back into plain values,
// skipping internal attributes when withInternal is false.
func unmarshalPayload(item map[string]types.AttributeValue, withInternal bool) map[string]any {
	out := make(map[string]any, len(item))
	for k, av := range item {
		if !withInternal && IsInternal(k) {
			continue
		}
		out[k] = unmarshalValue(av)
	}
	return out
}

func unmarshalValue(av types.AttributeValue) any {
	switch t := av.(type) {
	case *types.AttributeValueMemberS:
		return t.Value
	case *types.AttributeValueMemberN:
		return json.Number(t.Value)
	case *types.AttributeValueMemberBOOL:
		return t.Value
	case *types.AttributeValueMemberNULL:
		return nil
	case *types.AttributeValueMemberM:
		return unmarshalPayload(t.Value, true)
	case *types.AttributeValueMemberL:
		l := make([]any, 0, len(t.Value))
		for _, item := range t.Value {
			l = append(l, unmarshalValue(item))
		}
		return l
	case *types.AttributeValueMemberSS:
		return t.Value
	case *types.AttributeValueMemberNS:
		ns := make([]json.Number, 0, len(t.Value))
		for _, n := range t.Value {
			ns = append(ns, json.Number(n))
		}
		return ns
	case *types.AttributeValueMemberB:
		return t.Value
	case *types.AttributeValueMemberBS:
		return t.Value
	}
	return nil
}
