package store

import (
	"context"
	"iter"
	"log/slog"

	"github.com/jacentio/inventory/resource"
	"github.com/jacentio/inventory/urn"
)

// Connector is the operation set every storage backend implements.
type Connector interface {
	// Init creates the backing schema if it is absent. It is safe to repeat.
	Init(ctx context.Context) error

	// WriteResource upserts the base record of u.
	WriteResource(ctx context.Context, u urn.URN, payload any) error

	// WriteSecondaryAttribute upserts the attributeType record of u.
	WriteSecondaryAttribute(ctx context.Context, u urn.URN, attributeType string, payload any) error

	// ReadResource returns u with all of its secondary attributes, or ErrNotFound.
	ReadResource(ctx context.Context, u urn.URN) (*resource.Resource, error)

	// ReadResources plans a query for f and returns the matching resources.
	// Planning errors (ErrIndexUnavailable) are returned before any store call;
	// store errors are yielded by the sequence.
	ReadResources(ctx context.Context, f Filter) (iter.Seq2[*resource.Resource, error], error)

	// ReadAll yields every raw stored record, bypassing the planner.
	ReadAll(ctx context.Context) iter.Seq2[map[string]any, error]

	// DeleteResource deletes the base record of u and all of its secondary attributes.
	DeleteResource(ctx context.Context, u urn.URN) error

	// Reconcile deletes every stored resource in the given scope whose URN is
	// not in keep, and returns how many were deleted.
	Reconcile(ctx context.Context, service, resourceType, accountID, region string, keep []urn.URN) (int, error)
}

// Sweep deletes every resource matching f whose URN is not in keep.
// Matches are collected before the first delete, so deletes never disturb
// the read. A failed delete stops the sweep; running it again converges.
func Sweep(ctx context.Context, c Connector, f Filter, keep []urn.URN, logger *slog.Logger) (int, error) {
	if logger == nil {
		logger = slog.Default()
	}
	keepSet := make(map[urn.URN]struct{}, len(keep))
	for _, u := range keep {
		keepSet[u] = struct{}{}
	}

	resources, err := c.ReadResources(ctx, f)
	if err != nil {
		return 0, err
	}

	var stale []urn.URN
	for r, err := range resources {
		if err != nil {
			return 0, err
		}
		if _, ok := keepSet[r.URN]; ok {
			logger.Debug("keeping resource", "urn", r.URN.String())
			continue
		}
		stale = append(stale, r.URN)
	}

	deleted := 0
	for _, u := range stale {
		if err := c.DeleteResource(ctx, u); err != nil {
			return deleted, err
		}
		logger.Debug("deleted stale resource", "urn", u.String())
		deleted++
	}
	return deleted, nil
}
