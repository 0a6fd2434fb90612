// Package stream provides DynamoDB Streams handlers for the inventory table.
package stream

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aws/aws-lambda-go/events"

	"github.com/jacentio/inventory/resource"
	"github.com/jacentio/inventory/store"
	"github.com/jacentio/inventory/urn"
)

// Store reads and removes resources.
// *store.Store and *boltstore.Store both satisfy it.
type Store interface {
	ReadResource(ctx context.Context, u urn.URN) (*resource.Resource, error)
	DeleteResource(ctx context.Context, u urn.URN) error
}

// Handler processes DynamoDB stream events to sweep orphaned
// secondary-attribute records.
type Handler struct {
	store  Store
	logger *slog.Logger
}

// NewHandler creates a new stream handler.
func NewHandler(s Store, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		store:  s,
		logger: logger,
	}
}

// HandleOrphanSweep deletes the remaining records of every resource whose
// base record was removed. It is designed to be used as an AWS Lambda handler.
func (h *Handler) HandleOrphanSweep(ctx context.Context, event events.DynamoDBEvent) error {
	for _, record := range event.Records {
		if err := h.processRecord(ctx, record); err != nil {
			h.logger.Error("failed to process record",
				"eventID", record.EventID,
				"error", err,
			)
			return err // Will retry, eventually DLQ
		}
	}
	return nil
}

// processRecord processes a single DynamoDB stream record.
func (h *Handler) processRecord(ctx context.Context, record events.DynamoDBEventRecord) error {
	if record.EventName != string(events.DynamoDBOperationTypeRemove) {
		return nil
	}

	// KEYS_ONLY streams carry no old image.
	attr := getStringAttr(record.Change.OldImage, store.AttrAttr)
	if attr == "" {
		attr = getStringAttr(record.Change.Keys, store.AttrAttr)
	}
	if attr != store.BaseResource {
		return nil
	}

	u, err := recordURN(record.Change)
	if err != nil {
		h.logger.Warn("skipping record with invalid urn",
			"eventID", record.EventID,
			"error", err,
		)
		return nil
	}

	// A base record written after the remove owns the group again.
	_, err = h.store.ReadResource(ctx, u)
	switch {
	case err == nil:
		h.logger.Info("resource rewritten, skipping sweep", "urn", u.String())
		return nil
	case !errors.Is(err, store.ErrNotFound):
		return fmt.Errorf("check %s: %w", u, err)
	}

	h.logger.Info("sweeping orphaned attributes", "urn", u.String())

	if err := h.store.DeleteResource(ctx, u); err != nil {
		return fmt.Errorf("sweep %s: %w", u, err)
	}
	return nil
}

// recordURN reads the URN from the old image, falling back to the
// partition key.
func recordURN(change events.DynamoDBStreamRecord) (urn.URN, error) {
	if s := getStringAttr(change.OldImage, store.AttrURN); s != "" {
		return urn.Parse(s)
	}
	return store.URNFromPrimaryKey(getStringAttr(change.Keys, store.AttrID))
}

// getStringAttr extracts a string attribute from a DynamoDB stream image.
func getStringAttr(image map[string]events.DynamoDBAttributeValue, key string) string {
	if v, ok := image[key]; ok && v.DataType() == events.DataTypeString {
		return v.String()
	}
	return ""
}
