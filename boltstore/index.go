package boltstore

import (
	"strings"

	"github.com/jacentio/inventory/store"
)

// indexEntry points from a secondary index value to a partition key.
type indexEntry struct {
	key string
	id  string
}

func (e indexEntry) less(than indexEntry) bool {
	if e.key != than.key {
		return e.key < than.key
	}
	return e.id < than.id
}

// Index value layouts. The resource-type key ends with the account#region
// range so a range prefix becomes a key prefix.
func resourceTypeKey(service, resourceType, rangeValue string) string {
	return string(store.IndexResourceType) + keySep + store.ResourceTypeIndexKey(service, resourceType) + keySep + rangeValue
}

func accountKey(accountID string) string {
	return string(store.IndexAccountID) + keySep + accountID
}

// entriesFor returns the index entries of a base record.
func entriesFor(k store.Keys) []indexEntry {
	return []indexEntry{
		{key: resourceTypeKey(k.Service, k.ResourceType, k.ResourceTypeRange), id: k.ID},
		{key: accountKey(k.AccountID), id: k.ID},
	}
}

// indexIDs lists the partition keys the index holds for f, in key order.
// The caller holds s.mu.
func (s *Store) indexIDs(index store.Index, f store.Filter) []string {
	var (
		prefix string
		exact  bool
	)
	switch index {
	case store.IndexResourceType:
		rangePrefix := ""
		if f.AccountID != "" {
			rangePrefix = store.ResourceTypeRange(f.AccountID, f.Region)
		}
		prefix = resourceTypeKey(f.Service, f.ResourceType, rangePrefix)
	case store.IndexAccountID:
		prefix = accountKey(f.AccountID)
		exact = true
	default:
		return nil
	}

	var ids []string
	s.index.AscendGreaterOrEqual(indexEntry{key: prefix}, func(e indexEntry) bool {
		if exact && e.key != prefix {
			return false
		}
		if !strings.HasPrefix(e.key, prefix) {
			return false
		}
		ids = append(ids, e.id)
		return true
	})
	return ids
}
