// Package boltstore is a single-file storage connector backed by bbolt.
//
// Records use the same keys and denormalized fields as the DynamoDB table,
// so both backends answer the same filters the same way. An in-memory
// B-tree stands in for the table's secondary indices and is rebuilt from
// disk when the store is opened.
package boltstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/btree"
	"go.etcd.io/bbolt"

	"github.com/jacentio/inventory/internal/normalize"
	"github.com/jacentio/inventory/resource"
	"github.com/jacentio/inventory/store"
	"github.com/jacentio/inventory/urn"
)

var bucketRecords = []byte("records")

const keySep = "\x00"

var _ store.Connector = (*Store)(nil)

// Store implements store.Connector on a bbolt database file.
type Store struct {
	mu sync.RWMutex

	// In-memory secondary index over base records
	index *btree.BTreeG[indexEntry]

	db     *bbolt.DB
	logger *slog.Logger
}

// Open opens (or creates) the database file at path.
// The records bucket is created by Init.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{
		index:  btree.NewG[indexEntry](32, indexEntry.less),
		db:     db,
		logger: logger,
	}
	if err := s.rebuildIndex(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database file.
func (s *Store) Close() error {
	return s.db.Close()
}

// Init creates the records bucket. It is safe to repeat.
func (s *Store) Init(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketRecords)
		return err
	})
}

// WriteResource upserts the base record of u.
func (s *Store) WriteResource(ctx context.Context, u urn.URN, payload any) error {
	s.logger.Debug("writing resource", "urn", u.String(), "path", s.db.Path())
	return s.put(ctx, u, store.BaseResource, payload)
}

// WriteSecondaryAttribute upserts the attributeType record of u.
func (s *Store) WriteSecondaryAttribute(ctx context.Context, u urn.URN, attributeType string, payload any) error {
	if attributeType == "" || attributeType == store.BaseResource {
		return fmt.Errorf("write attribute of %s: invalid attribute type %q", u, attributeType)
	}
	s.logger.Debug("writing secondary attribute", "urn", u.String(), "attribute", attributeType)
	return s.put(ctx, u, attributeType, payload)
}

func (s *Store) put(ctx context.Context, u urn.URN, attr string, payload any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	value, err := encodeRecord(store.NewKeys(u, attr), payload)
	if err != nil {
		return fmt.Errorf("write %s %s: %w", u, attr, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err = s.db.Update(func(tx *bbolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists(bucketRecords)
		if err != nil {
			return err
		}
		return bucket.Put(recordKey(store.PrimaryKey(u), attr), value)
	})
	if err != nil {
		return err
	}

	if attr == store.BaseResource {
		for _, e := range entriesFor(store.NewKeys(u, attr)) {
			s.index.ReplaceOrInsert(e)
		}
	}
	return nil
}

// ReadResource returns u with all of its secondary attributes.
func (s *Store) ReadResource(ctx context.Context, u urn.URN) (*resource.Resource, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	records, err := s.scanPrefix(groupPrefix(u))
	if err != nil {
		return nil, err
	}
	resources := s.group(records)
	if len(resources) == 0 {
		return nil, store.ErrNotFound
	}
	return resources[0], nil
}

// ReadResources returns the resources matching f, choosing an access path
// with store.SelectIndex. Index results carry only the base record.
func (s *Store) ReadResources(ctx context.Context, f store.Filter) (iter.Seq2[*resource.Resource, error], error) {
	index, err := store.SelectIndex(f)
	if err != nil {
		return nil, err
	}
	return func(yield func(*resource.Resource, error) bool) {
		if err := ctx.Err(); err != nil {
			yield(nil, err)
			return
		}

		var records []record
		if index == store.IndexPrimary {
			records, err = s.scanPrefix(groupPrefix(*f.URN))
		} else {
			records, err = s.lookupIndex(index, f)
		}
		if err != nil {
			yield(nil, err)
			return
		}

		var matched []record
		for _, r := range records {
			if f.Matches(r.keys) {
				matched = append(matched, r)
			}
		}
		for _, r := range s.group(matched) {
			if !yield(r, nil) {
				return
			}
		}
	}, nil
}

// ReadAll yields every raw record, internal attributes included.
func (s *Store) ReadAll(ctx context.Context) iter.Seq2[map[string]any, error] {
	return func(yield func(map[string]any, error) bool) {
		if err := ctx.Err(); err != nil {
			yield(nil, err)
			return
		}
		records, err := s.scanPrefix("")
		if err != nil {
			yield(nil, err)
			return
		}
		for _, r := range records {
			if !yield(r.fields, nil) {
				return
			}
		}
	}
}

// DeleteResource deletes the base record of u and every secondary attribute.
func (s *Store) DeleteResource(ctx context.Context, u urn.URN) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketRecords)
		if bucket == nil {
			return nil
		}
		var keys [][]byte
		prefix := []byte(groupPrefix(u))
		c := bucket.Cursor()
		for k, _ := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, _ = c.Next() {
			keys = append(keys, append([]byte(nil), k...))
		}
		for _, k := range keys {
			s.logger.Debug("deleting record", "urn", u.String(), "attribute", strings.TrimPrefix(string(k), string(prefix)))
			if err := bucket.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete %s: %w", u, err)
	}

	for _, e := range entriesFor(store.NewKeys(u, store.BaseResource)) {
		s.index.Delete(e)
	}
	return nil
}

// Reconcile deletes every resource of the given type in the account and
// region whose URN is not in keep.
func (s *Store) Reconcile(ctx context.Context, service, resourceType, accountID, region string, keep []urn.URN) (int, error) {
	deleted, err := store.Sweep(ctx, s, store.Filter{
		Service:      service,
		ResourceType: resourceType,
		AccountID:    accountID,
		Region:       region,
	}, keep, s.logger)
	if deleted > 0 {
		s.logger.Info("reconciled stale resources",
			"service", service,
			"resourceType", resourceType,
			"accountID", accountID,
			"region", region,
			"deleted", deleted,
		)
	}
	return deleted, err
}

// scanPrefix returns every record whose partition key starts with prefix,
// in key order.
func (s *Store) scanPrefix(prefix string) ([]record, error) {
	var records []record
	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketRecords)
		if bucket == nil {
			return nil
		}
		p := []byte(prefix)
		c := bucket.Cursor()
		for k, v := c.Seek(p); k != nil && bytes.HasPrefix(k, p); k, v = c.Next() {
			r, err := decodeRecord(v)
			if err != nil {
				s.logger.Warn("skipping undecodable record", "key", string(k), "error", err)
				continue
			}
			records = append(records, r)
		}
		return nil
	})
	return records, err
}

// lookupIndex reads the base records the in-memory index lists for f.
func (s *Store) lookupIndex(index store.Index, f store.Filter) ([]record, error) {
	s.mu.RLock()
	ids := s.indexIDs(index, f)
	s.mu.RUnlock()

	var records []record
	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketRecords)
		if bucket == nil {
			return nil
		}
		for _, id := range ids {
			v := bucket.Get(recordKey(id, store.BaseResource))
			if v == nil {
				continue
			}
			r, err := decodeRecord(v)
			if err != nil {
				s.logger.Warn("skipping undecodable record", "id", id, "error", err)
				continue
			}
			records = append(records, r)
		}
		return nil
	})
	return records, err
}

// rebuildIndex loads index entries for every stored base record.
func (s *Store) rebuildIndex() error {
	records, err := s.scanPrefix("")
	if err != nil {
		return fmt.Errorf("rebuild index: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.index.Clear(false)
	for _, r := range records {
		if !r.keys.IsBase() {
			continue
		}
		for _, e := range entriesFor(r.keys) {
			s.index.ReplaceOrInsert(e)
		}
	}
	return nil
}

// group folds records into resources in order of first appearance,
// dropping groups that have no base record.
func (s *Store) group(records []record) []*resource.Resource {
	type recordGroup struct {
		base       *record
		attributes []resource.Attribute
	}

	var order []string
	groups := make(map[string]*recordGroup)
	for i := range records {
		r := &records[i]
		g, ok := groups[r.keys.ID]
		if !ok {
			g = &recordGroup{}
			groups[r.keys.ID] = g
			order = append(order, r.keys.ID)
		}
		if r.keys.IsBase() {
			g.base = r
			continue
		}
		g.attributes = append(g.attributes, resource.Attribute{
			Type:    r.keys.Attr,
			Payload: r.payload(),
		})
	}

	resources := make([]*resource.Resource, 0, len(order))
	for _, id := range order {
		g := groups[id]
		if g.base == nil {
			s.logger.Debug("skipping partial record group", "id", id)
			continue
		}
		u, err := urn.Parse(g.base.keys.URN)
		if err != nil {
			s.logger.Warn("skipping record with invalid urn", "id", id, "error", err)
			continue
		}
		resources = append(resources, resource.New(u, g.base.payload(), g.attributes, s.ReadResource))
	}
	return resources
}

func recordKey(id, attr string) []byte {
	return []byte(id + keySep + attr)
}

// groupPrefix is the key prefix shared by every record of u and no other
// resource. The separator stops "vpc-1" from matching "vpc-11".
func groupPrefix(u urn.URN) string {
	return store.PrimaryKey(u) + keySep
}

// record is one decoded stored record.
type record struct {
	keys   store.Keys
	fields map[string]any
}

// payload returns the record's fields without internal attributes.
func (r record) payload() map[string]any {
	out := make(map[string]any, len(r.fields))
	for k, v := range r.fields {
		if !store.IsInternal(k) {
			out[k] = v
		}
	}
	return out
}

// encodeRecord stores the normalized payload with the keys laid over it.
func encodeRecord(keys store.Keys, payload any) ([]byte, error) {
	fields, err := normalize.Payload(payload)
	if err != nil {
		return nil, err
	}
	keyFields, err := normalize.Payload(keys)
	if err != nil {
		return nil, err
	}
	for k, v := range keyFields {
		fields[k] = v
	}
	return json.Marshal(fields)
}

func decodeRecord(value []byte) (record, error) {
	var r record
	dec := json.NewDecoder(bytes.NewReader(value))
	dec.UseNumber()
	if err := dec.Decode(&r.fields); err != nil {
		return record{}, err
	}
	if err := json.Unmarshal(value, &r.keys); err != nil {
		return record{}, err
	}
	if r.keys.ID == "" {
		return record{}, errors.New("record has no _id")
	}
	return r, nil
}
