// Package resource provides the in-memory representation of a discovered
// cloud resource: its base payload, its secondary-attribute payloads and an
// optional loader that re-reads it from storage.
package resource

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/jmespath/go-jmespath"

	"github.com/jacentio/inventory/urn"
)

var (
	// ErrFieldNotFound is returned by Field when the payload has no matching key.
	ErrFieldNotFound = errors.New("inventory: field not found")

	// ErrNoLoader is returned by Load when the resource was built without a loader.
	ErrNoLoader = errors.New("inventory: resource has no loader")
)

// Attribute is a named secondary-attribute payload of a resource
// (e.g. "vpc_enable_dns_support").
type Attribute struct {
	Type    string
	Payload map[string]any
}

// Loader re-reads a resource by URN.
type Loader func(ctx context.Context, u urn.URN) (*Resource, error)

// Resource is one discovered resource.
type Resource struct {
	URN                 urn.URN
	Payload             map[string]any
	SecondaryAttributes []Attribute

	loader Loader
}

// New creates a Resource. loader may be nil.
func New(u urn.URN, payload map[string]any, attributes []Attribute, loader Loader) *Resource {
	if payload == nil {
		payload = map[string]any{}
	}
	if attributes == nil {
		attributes = []Attribute{}
	}
	return &Resource{
		URN:                 u,
		Payload:             payload,
		SecondaryAttributes: attributes,
		loader:              loader,
	}
}

// Field returns the payload value whose external key maps to name.
// name uses the internal snake_case convention ("vpc_id" for "VpcId").
// An exact key match wins over a translated one. Among translated matches
// the lexically smallest key is used.
func (r *Resource) Field(name string) (any, error) {
	if strings.HasPrefix(name, "_") {
		return nil, fmt.Errorf("%w: %s on %s", ErrFieldNotFound, name, r.URN)
	}
	if value, ok := r.Payload[name]; ok {
		return value, nil
	}
	keys := make([]string, 0, len(r.Payload))
	for key := range r.Payload {
		if !strings.HasPrefix(key, "_") && FieldName(key) == name {
			keys = append(keys, key)
		}
	}
	if len(keys) > 0 {
		sort.Strings(keys)
		return r.Payload[keys[0]], nil
	}
	return nil, fmt.Errorf("%w: %s on %s", ErrFieldNotFound, name, r.URN)
}

// Attribute returns the secondary attribute of the given type.
func (r *Resource) Attribute(attributeType string) (Attribute, bool) {
	for _, a := range r.SecondaryAttributes {
		if a.Type == attributeType {
			return a, true
		}
	}
	return Attribute{}, false
}

// SecondaryAttribute evaluates a JMESPath expression against the list of
// secondary-attribute payloads, e.g. "[].EnableDnsSupport.Value".
func (r *Resource) SecondaryAttribute(expression string) (any, error) {
	data := make([]any, 0, len(r.SecondaryAttributes))
	for _, a := range r.SecondaryAttributes {
		data = append(data, a.Payload)
	}
	result, err := jmespath.Search(expression, data)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", expression, err)
	}
	return result, nil
}

// IsInflated reports whether the resource carries any payload fields.
func (r *Resource) IsInflated() bool {
	for key := range r.Payload {
		if !strings.HasPrefix(key, "_") {
			return true
		}
	}
	return false
}

// Load replaces this resource's payloads with the ones currently in storage.
func (r *Resource) Load(ctx context.Context) error {
	if r.loader == nil {
		return fmt.Errorf("%w: %s", ErrNoLoader, r.URN)
	}
	fresh, err := r.loader(ctx, r.URN)
	if err != nil {
		return fmt.Errorf("load %s: %w", r.URN, err)
	}
	r.Payload = fresh.Payload
	r.SecondaryAttributes = fresh.SecondaryAttributes
	return nil
}

func (r *Resource) String() string {
	return fmt.Sprintf("Resource(urn=%s, fields=%d, secondaryAttributes=%d)",
		r.URN, len(r.Payload), len(r.SecondaryAttributes))
}
