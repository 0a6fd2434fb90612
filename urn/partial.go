package urn

import "fmt"

// Wildcard is the rendered form of Any() in string URNs. Templates also use
// it as the resource id meaning "every resource of the type".
const Wildcard = "ALL"

// Selector is either a concrete value or a wildcard matching every value.
// The zero value is an empty concrete value; use Any() for the wildcard.
type Selector struct {
	value string
	any   bool
}

// Any returns the wildcard selector.
func Any() Selector {
	return Selector{any: true}
}

// Exactly returns a selector for the concrete value v.
func Exactly(v string) Selector {
	return Selector{value: v}
}

// IsAny reports whether s is the wildcard.
func (s Selector) IsAny() bool {
	return s.any
}

// Value returns the concrete value. It is empty for the wildcard.
func (s Selector) Value() string {
	return s.value
}

// String renders the selector as it appears in a URN string.
func (s Selector) String() string {
	if s.any {
		return Wildcard
	}
	return s.value
}

func parseSelector(v string) Selector {
	if v == Wildcard {
		return Any()
	}
	return Exactly(v)
}

// PartialURN is a URN template whose account and region may be wildcards.
// PartialURNs are never persisted.
type PartialURN struct {
	AccountID    Selector
	Region       Selector
	Service      string
	ResourceType string
	ResourceID   string
}

// String renders the template with wildcards as "ALL".
func (p PartialURN) String() string {
	return fmt.Sprintf("%s%s:%s:%s:%s:%s", prefix, p.AccountID, p.Region, p.Service, p.ResourceType, p.ResourceID)
}

// ParsePartial parses a URN string in which account and region may be "ALL".
func ParsePartial(s string) (PartialURN, error) {
	parts, err := split(s)
	if err != nil {
		return PartialURN{}, err
	}
	return PartialURN{
		AccountID:    parseSelector(parts[2]),
		Region:       parseSelector(parts[3]),
		Service:      parts[4],
		ResourceType: parts[5],
		ResourceID:   parts[6],
	}, nil
}

// Partial returns u as a PartialURN with concrete selectors.
func (u URN) Partial() PartialURN {
	return PartialURN{
		AccountID:    Exactly(u.AccountID),
		Region:       Exactly(u.Region),
		Service:      u.Service,
		ResourceType: u.ResourceType,
		ResourceID:   u.ResourceID,
	}
}

// inflate substitutes accountID and expands a wildcard region across regions.
// A wildcard region with no regions yields nothing.
func (p PartialURN) inflate(accountID string, regions []string) []URN {
	if !p.Region.IsAny() {
		return []URN{New(accountID, p.Region.Value(), p.Service, p.ResourceType, p.ResourceID)}
	}
	urns := make([]URN, 0, len(regions))
	for _, region := range regions {
		urns = append(urns, New(accountID, region, p.Service, p.ResourceType, p.ResourceID))
	}
	return urns
}
