package resource

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/jacentio/inventory/urn"
)

var testURN = urn.New("111111111111", "eu-west-2", "ec2", "vpc", "vpc-11111111")

// --- FieldName Tests ---

func TestFieldName(t *testing.T) {
	tests := []struct {
		key      string
		expected string
	}{
		{"VpcId", "vpc_id"},
		{"CidrBlock", "cidr_block"},
		{"DHCPOptionsId", "dhcp_options_id"},
		{"IsDefault", "is_default"},
		{"CidrBlockAssociationSet", "cidr_block_association_set"},
		{"Ipv6CidrBlock", "ipv6_cidr_block"},
		{"State", "state"},
		{"already_snake", "already_snake"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			if got := FieldName(tt.key); got != tt.expected {
				t.Errorf("FieldName(%q) = %q, want %q", tt.key, got, tt.expected)
			}
		})
	}
}

// --- Field Tests ---

func TestField_TranslatesName(t *testing.T) {
	r := New(testURN, map[string]any{"VpcId": "vpc-11111111", "IsDefault": true}, nil, nil)

	v, err := r.Field("vpc_id")
	if err != nil {
		t.Fatalf("Field failed: %v", err)
	}
	if v != "vpc-11111111" {
		t.Errorf("expected 'vpc-11111111', got %v", v)
	}

	v, err = r.Field("is_default")
	if err != nil {
		t.Fatalf("Field failed: %v", err)
	}
	if v != true {
		t.Errorf("expected true, got %v", v)
	}
}

func TestField_ExactKeyWins(t *testing.T) {
	r := New(testURN, map[string]any{"VpcId": "translated", "vpc_id": "exact"}, nil, nil)

	for i := 0; i < 20; i++ {
		v, err := r.Field("vpc_id")
		if err != nil {
			t.Fatalf("Field failed: %v", err)
		}
		if v != "exact" {
			t.Fatalf("expected exact key to win, got %v", v)
		}
	}
}

func TestField_TranslatedMatchIsStable(t *testing.T) {
	r := New(testURN, map[string]any{"VpcID": "b", "VpcId": "a"}, nil, nil)

	for i := 0; i < 20; i++ {
		v, err := r.Field("vpc_id")
		if err != nil {
			t.Fatalf("Field failed: %v", err)
		}
		if v != "b" {
			t.Fatalf("expected the lexically smallest key, got %v", v)
		}
	}
}

func TestField_NotFound(t *testing.T) {
	r := New(testURN, map[string]any{"VpcId": "vpc-1"}, nil, nil)
	_, err := r.Field("cidr_block")
	if !errors.Is(err, ErrFieldNotFound) {
		t.Errorf("expected ErrFieldNotFound, got %v", err)
	}
}

func TestField_SkipsInternalKeys(t *testing.T) {
	r := New(testURN, map[string]any{"_urn": "x"}, nil, nil)
	if _, err := r.Field("_urn"); !errors.Is(err, ErrFieldNotFound) {
		t.Errorf("expected internal keys to be hidden, got %v", err)
	}
}

// --- Secondary Attribute Tests ---

func TestSecondaryAttribute_JMESPath(t *testing.T) {
	r := New(testURN, nil, []Attribute{
		{Type: "vpc_enable_dns_support", Payload: map[string]any{
			"EnableDnsSupport": map[string]any{"Value": true},
		}},
	}, nil)

	got, err := r.SecondaryAttribute("[].EnableDnsSupport.Value")
	if err != nil {
		t.Fatalf("SecondaryAttribute failed: %v", err)
	}
	if !reflect.DeepEqual(got, []any{true}) {
		t.Errorf("expected [true], got %#v", got)
	}
}

func TestSecondaryAttribute_InvalidExpression(t *testing.T) {
	r := New(testURN, nil, nil, nil)
	if _, err := r.SecondaryAttribute("[?"); err == nil {
		t.Error("expected error for invalid expression")
	}
}

func TestAttribute_Lookup(t *testing.T) {
	r := New(testURN, nil, []Attribute{{Type: "a"}, {Type: "b", Payload: map[string]any{"k": "v"}}}, nil)
	a, ok := r.Attribute("b")
	if !ok {
		t.Fatal("expected attribute b")
	}
	if a.Payload["k"] != "v" {
		t.Errorf("unexpected payload %v", a.Payload)
	}
	if _, ok := r.Attribute("missing"); ok {
		t.Error("expected missing attribute not to be found")
	}
}

// --- Load Tests ---

func TestLoad_NoLoader(t *testing.T) {
	r := New(testURN, nil, nil, nil)
	if err := r.Load(context.Background()); !errors.Is(err, ErrNoLoader) {
		t.Errorf("expected ErrNoLoader, got %v", err)
	}
}

func TestLoad_ReplacesPayloads(t *testing.T) {
	loader := func(ctx context.Context, u urn.URN) (*Resource, error) {
		return New(u, map[string]any{"VpcId": "vpc-11111111"}, []Attribute{{Type: "a"}}, nil), nil
	}
	r := New(testURN, map[string]any{"_id": "resource#x"}, nil, loader)
	if r.IsInflated() {
		t.Error("expected resource with only internal keys not to be inflated")
	}

	if err := r.Load(context.Background()); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !r.IsInflated() {
		t.Error("expected resource to be inflated after Load")
	}
	if len(r.SecondaryAttributes) != 1 {
		t.Errorf("expected 1 secondary attribute, got %d", len(r.SecondaryAttributes))
	}
}

func TestLoad_PropagatesLoaderError(t *testing.T) {
	sentinel := errors.New("gone")
	loader := func(ctx context.Context, u urn.URN) (*Resource, error) { return nil, sentinel }
	r := New(testURN, nil, nil, loader)
	if err := r.Load(context.Background()); !errors.Is(err, sentinel) {
		t.Errorf("expected loader error, got %v", err)
	}
}

func TestNew_Defaults(t *testing.T) {
	r := New(testURN, nil, nil, nil)
	if r.Payload == nil || r.SecondaryAttributes == nil {
		t.Error("expected non-nil payload and attributes")
	}
	if len(r.SecondaryAttributes) != 0 {
		t.Errorf("expected empty attributes, got %d", len(r.SecondaryAttributes))
	}
}
