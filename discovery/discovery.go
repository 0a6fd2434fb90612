// Package discovery drives a discovery cycle: it inflates template action
// sets for the current account and enabled regions, fetches and writes every
// get-URN, then reconciles every delete-URN scope against what was observed.
package discovery

import (
	"context"
	"errors"

	"github.com/jacentio/inventory/urn"
)

// ErrNoFetcher is returned when a get-URN names a type no Fetcher serves.
var ErrNoFetcher = errors.New("inventory: no fetcher for resource type")

// Source yields the template action sets of one discovery cycle.
type Source interface {
	ActionSets(ctx context.Context) ([]urn.TemplateActionSet, error)
}

// StaticSource is a Source with a fixed list of templates.
type StaticSource []urn.TemplateActionSet

// ActionSets returns the templates.
func (s StaticSource) ActionSets(context.Context) ([]urn.TemplateActionSet, error) {
	return s, nil
}

// Environment supplies the account and region context templates are
// inflated against.
type Environment interface {
	AccountID(ctx context.Context) (string, error)
	EnabledRegions(ctx context.Context) ([]string, error)
}

// Attribute is a secondary-attribute payload returned by a Fetcher.
type Attribute struct {
	Type    string
	Payload any
}

// Discovered is one resource returned by a Fetcher.
type Discovered struct {
	URN        urn.URN
	Payload    any
	Attributes []Attribute
}

// Fetcher retrieves resources of a single service and resource type.
type Fetcher interface {
	Service() string
	ResourceType() string

	// Fetch returns the resources u covers. A resource id of urn.Wildcard
	// asks for every resource in u's account and region.
	Fetch(ctx context.Context, u urn.URN) ([]Discovered, error)
}

// Templates returns the template action set that fetches and reconciles
// every resource of f's type in every enabled region.
func Templates(f Fetcher) urn.TemplateActionSet {
	p := urn.PartialURN{
		AccountID:    urn.Any(),
		Region:       urn.Any(),
		Service:      f.Service(),
		ResourceType: f.ResourceType(),
		ResourceID:   urn.Wildcard,
	}
	return urn.TemplateActionSet{
		GetURNs:    []urn.PartialURN{p},
		DeleteURNs: []urn.PartialURN{p},
	}
}
