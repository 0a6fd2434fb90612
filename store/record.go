package store

import (
	"fmt"
	"strings"

	"github.com/jacentio/inventory/urn"
)

// BaseResource is the _attr value of a base record.
const BaseResource = "BaseResource"

// Stored attribute names. Every internal attribute starts with an underscore.
const (
	AttrID                = "_id"
	AttrAttr              = "_attr"
	AttrURN               = "_urn"
	AttrResourceType      = "_resource_type"
	AttrAccountID         = "_account_id"
	AttrRegion            = "_region"
	AttrService           = "_service"
	AttrResourceTypeRange = "_resource_type_range"
	AttrResourceTypeIndex = "_resource_type_index"
	AttrAccountIDIndex    = "_account_id_index"
)

const primaryKeyPrefix = "resource#"

// Keys holds the key and denormalized filter fields stored on every record.
// The index fields are only set on base records.
type Keys struct {
	ID                string `dynamodbav:"_id" json:"_id"`
	Attr              string `dynamodbav:"_attr" json:"_attr"`
	URN               string `dynamodbav:"_urn" json:"_urn"`
	ResourceType      string `dynamodbav:"_resource_type" json:"_resource_type"`
	AccountID         string `dynamodbav:"_account_id" json:"_account_id"`
	Region            string `dynamodbav:"_region" json:"_region"`
	Service           string `dynamodbav:"_service" json:"_service"`
	ResourceTypeRange string `dynamodbav:"_resource_type_range" json:"_resource_type_range"`
	ResourceTypeIndex string `dynamodbav:"_resource_type_index,omitempty" json:"_resource_type_index,omitempty"`
	AccountIDIndex    string `dynamodbav:"_account_id_index,omitempty" json:"_account_id_index,omitempty"`
}

// NewKeys builds the keys of the attr record of u, without index fields.
func NewKeys(u urn.URN, attr string) Keys {
	return Keys{
		ID:                PrimaryKey(u),
		Attr:              attr,
		URN:               u.String(),
		ResourceType:      u.ResourceType,
		AccountID:         u.AccountID,
		Region:            u.Region,
		Service:           u.Service,
		ResourceTypeRange: ResourceTypeRange(u.AccountID, u.Region),
	}
}

// IsBase reports whether the keys belong to a base record.
func (k Keys) IsBase() bool {
	return k.Attr == BaseResource
}

// Field returns the value of a denormalized filter field by attribute name.
func (k Keys) Field(name string) string {
	switch name {
	case AttrURN:
		return k.URN
	case AttrResourceType:
		return k.ResourceType
	case AttrAccountID:
		return k.AccountID
	case AttrRegion:
		return k.Region
	case AttrService:
		return k.Service
	}
	return ""
}

// PrimaryKey returns the partition key shared by all records of u.
func PrimaryKey(u urn.URN) string {
	return primaryKeyPrefix + u.String()
}

// URNFromPrimaryKey parses the URN back out of a partition key.
func URNFromPrimaryKey(id string) (urn.URN, error) {
	if !strings.HasPrefix(id, primaryKeyPrefix) {
		return urn.URN{}, fmt.Errorf("%w: primary key %q", urn.ErrInvalidURN, id)
	}
	return urn.Parse(strings.TrimPrefix(id, primaryKeyPrefix))
}

// ResourceTypeIndexKey returns the unsharded resource-type index value.
func ResourceTypeIndexKey(service, resourceType string) string {
	return service + "#" + resourceType
}

// ResourceTypeRange returns the resource-type index range value.
// With an empty region it is the prefix matching every region of the account.
func ResourceTypeRange(accountID, region string) string {
	return accountID + "#" + region
}

// IsInternal reports whether an attribute name is reserved for keys.
func IsInternal(name string) bool {
	return strings.HasPrefix(name, "_")
}
