// Package urn provides the addressing records used to identify cloud resources
// and the action sets that describe what to fetch and what to reconcile.
//
// A URN has the string form
//
//	urn:aws:<account_id>:<region>:<service>:<resource_type>:<resource_id>
//
// e.g. urn:aws:111111111111:eu-west-2:ec2:vpc:vpc-11111111
package urn

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidURN is returned when a string cannot be parsed as a URN.
var ErrInvalidURN = errors.New("inventory: invalid urn")

const (
	prefix    = "urn:aws:"
	numParts  = 7
	separator = ":"
)

// URN identifies exactly one base resource.
type URN struct {
	AccountID    string
	Region       string
	Service      string
	ResourceType string
	ResourceID   string
}

// New creates a URN.
func New(accountID, region, service, resourceType, resourceID string) URN {
	return URN{
		AccountID:    accountID,
		Region:       region,
		Service:      service,
		ResourceType: resourceType,
		ResourceID:   resourceID,
	}
}

// String returns the canonical string form of the URN.
func (u URN) String() string {
	return fmt.Sprintf("%s%s:%s:%s:%s:%s", prefix, u.AccountID, u.Region, u.Service, u.ResourceType, u.ResourceID)
}

// Parse parses the canonical string form of a URN.
// The resource id is everything after the sixth separator, so ids containing
// colons round-trip.
func Parse(s string) (URN, error) {
	parts, err := split(s)
	if err != nil {
		return URN{}, err
	}
	return New(parts[2], parts[3], parts[4], parts[5], parts[6]), nil
}

// MustParse is like Parse but panics on error. Intended for tests and constants.
func MustParse(s string) URN {
	u, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return u
}

func split(s string) ([]string, error) {
	if !strings.HasPrefix(s, prefix) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidURN, s)
	}
	parts := strings.SplitN(s, separator, numParts)
	if len(parts) != numParts {
		return nil, fmt.Errorf("%w: %q has %d parts, want %d", ErrInvalidURN, s, len(parts), numParts)
	}
	for i, p := range parts[2:] {
		if p == "" {
			return nil, fmt.Errorf("%w: %q has empty part %d", ErrInvalidURN, s, i+2)
		}
	}
	return parts, nil
}
