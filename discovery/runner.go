package discovery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jacentio/inventory/store"
	"github.com/jacentio/inventory/urn"
)

// Summary counts the work done by one Run.
type Summary struct {
	ActionSets int
	Resources  int
	Attributes int
	Deleted    int
	Failed     int
}

// Runner performs discovery cycles against a storage connector.
type Runner struct {
	source    Source
	env       Environment
	connector store.Connector
	fetchers  map[string]Fetcher
	logger    *slog.Logger
}

// NewRunner creates a runner. logger may be nil.
func NewRunner(source Source, env Environment, connector store.Connector, logger *slog.Logger, fetchers ...Fetcher) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Runner{
		source:    source,
		env:       env,
		connector: connector,
		fetchers:  make(map[string]Fetcher, len(fetchers)),
		logger:    logger,
	}
	for _, f := range fetchers {
		r.fetchers[fetcherKey(f.Service(), f.ResourceType())] = f
	}
	return r
}

func fetcherKey(service, resourceType string) string {
	return store.ResourceTypeIndexKey(service, resourceType)
}

// Run executes one discovery cycle. Each action set is written and then
// reconciled on its own; a failed action set is not reconciled, so a
// partial fetch never deletes live resources. Errors of every failed
// action set are joined.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	var sum Summary

	accountID, err := r.env.AccountID(ctx)
	if err != nil {
		return sum, err
	}
	regions, err := r.env.EnabledRegions(ctx)
	if err != nil {
		return sum, err
	}
	templates, err := r.source.ActionSets(ctx)
	if err != nil {
		return sum, fmt.Errorf("load action sets: %w", err)
	}

	r.logger.Info("starting discovery",
		"accountID", accountID,
		"regions", len(regions),
		"actionSets", len(templates),
	)

	var errs []error
	for i, t := range templates {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		sum.ActionSets++
		if err := r.runActionSet(ctx, t.Inflate(regions, accountID), &sum); err != nil {
			sum.Failed++
			r.logger.Error("action set failed", "index", i, "error", err)
			errs = append(errs, fmt.Errorf("action set %d: %w", i, err))
		}
	}

	r.logger.Info("discovery complete",
		"resources", sum.Resources,
		"attributes", sum.Attributes,
		"deleted", sum.Deleted,
		"failed", sum.Failed,
	)
	return sum, errors.Join(errs...)
}

func (r *Runner) runActionSet(ctx context.Context, as urn.ActionSet, sum *Summary) error {
	observed := []urn.URN{}
	for _, u := range as.GetURNs {
		f, ok := r.fetchers[fetcherKey(u.Service, u.ResourceType)]
		if !ok {
			return fmt.Errorf("%w: %s", ErrNoFetcher, fetcherKey(u.Service, u.ResourceType))
		}
		found, err := f.Fetch(ctx, u)
		if err != nil {
			return fmt.Errorf("fetch %s: %w", u, err)
		}
		r.logger.Debug("fetched", "urn", u.String(), "count", len(found))

		for _, d := range found {
			if err := r.connector.WriteResource(ctx, d.URN, d.Payload); err != nil {
				return fmt.Errorf("write %s: %w", d.URN, err)
			}
			sum.Resources++
			for _, a := range d.Attributes {
				if err := r.connector.WriteSecondaryAttribute(ctx, d.URN, a.Type, a.Payload); err != nil {
					return fmt.Errorf("write %s %s: %w", d.URN, a.Type, err)
				}
				sum.Attributes++
			}
			observed = append(observed, d.URN)
		}
	}

	for _, u := range as.DeleteURNs {
		deleted, err := r.connector.Reconcile(ctx, u.Service, u.ResourceType, u.AccountID, u.Region, observed)
		sum.Deleted += deleted
		if err != nil {
			return fmt.Errorf("reconcile %s: %w", u, err)
		}
	}
	return nil
}
