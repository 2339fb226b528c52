// Package discovery walks the (region × family) axis, fetching raw records
// through the cloud API client, normalizing them into canonical entries,
// and folding everything into a single DiscoveryResult. One pair failing
// never aborts the scan; it degrades to a recorded partial failure.
package discovery

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/idiya2016/cloud-resource-archaeologist/pkg/engine/inventory"
	"github.com/idiya2016/cloud-resource-archaeologist/pkg/engine/swarm"
)

// Options bounds the scan's concurrency and retry behavior.
type Options struct {
	// MaxConcurrency caps the worker pool. Zero means DefaultConcurrency.
	MaxConcurrency int
	// MaxAttempts is the per-unit attempt budget for retry-eligible
	// failures. Zero means DefaultAttempts.
	MaxAttempts int
	// InitialBackoff seeds the exponential backoff between attempts.
	InitialBackoff time.Duration
}

const (
	DefaultConcurrency   = 8
	DefaultAttempts      = 3
	defaultFirstInterval = 500 * time.Millisecond
)

// Orchestrator coordinates one scan.
type Orchestrator struct {
	api        inventory.API
	normalizer *inventory.Normalizer
	logger     *slog.Logger
	opts       Options
}

// New builds an Orchestrator.
func New(api inventory.API, n *inventory.Normalizer, logger *slog.Logger, opts Options) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.MaxConcurrency <= 0 {
		opts.MaxConcurrency = DefaultConcurrency
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultAttempts
	}
	if opts.InitialBackoff <= 0 {
		opts.InitialBackoff = defaultFirstInterval
	}
	return &Orchestrator{api: api, normalizer: n, logger: logger, opts: opts}
}

// unit is one (region, family) work item. index preserves the deterministic
// submission order for the final merge.
type unit struct {
	index  int
	region string
	family inventory.Family
}

// unitResult is a worker's locally accumulated output, merged after the
// join so concurrent writers never share a collection.
type unitResult struct {
	unit    unit
	entries []inventory.Entry
	failure *inventory.ScopeError
}

// Discover scans every requested (region, family) pair. An empty regions
// slice means the full universe reported by the API; an empty families
// slice means all families. The returned error is non-nil only when region
// enumeration itself fails, before any discovery.
func (o *Orchestrator) Discover(ctx context.Context, regions []string, families []inventory.Family) (*inventory.DiscoveryResult, error) {
	started := time.Now()

	if len(regions) == 0 {
		var err error
		regions, err = o.api.ListRegions(ctx)
		if err != nil {
			return nil, &inventory.AuthError{Err: err}
		}
	}
	if len(families) == 0 {
		families = inventory.AllFamilies()
	}

	var units []unit
	for _, f := range families {
		for _, r := range regions {
			units = append(units, unit{index: len(units), region: r, family: f})
		}
	}

	o.logger.Info("Starting discovery",
		"regions", len(regions), "families", len(families), "units", len(units))

	pool := swarm.NewPool(o.opts.MaxConcurrency)
	pool.IsThrottled = func(err error) bool {
		var fe *inventory.FetchError
		return errors.As(err, &fe) && fe.Kind == inventory.KindThrottled
	}
	pool.Start(ctx)
	defer pool.Stop()

	results := make(chan unitResult, len(units))
	for _, u := range units {
		u := u
		pool.Submit(func(ctx context.Context) error {
			res := o.runUnit(ctx, u)
			results <- res
			if res.failure != nil {
				return &inventory.FetchError{
					Kind:   res.failure.Kind,
					Region: u.region,
					Family: u.family,
					Err:    errors.New(res.failure.Message),
				}
			}
			return nil
		})
	}

	// Join barrier: aggregation needs every unit finished, but cancellation
	// proceeds with whatever already completed.
	done := make(chan struct{})
	go func() {
		pool.Drain()
		close(done)
	}()

	cancelled := false
	select {
	case <-done:
	case <-ctx.Done():
		cancelled = true
		o.logger.Warn("Discovery cancelled, aggregating partial results", "cause", ctx.Err())
	}

	// Stop waits for in-flight workers, so no sends race the drain below.
	// Units still queued at cancellation are abandoned.
	pool.Stop()

	collected := make([]unitResult, 0, len(units))
drain:
	for {
		select {
		case res := <-results:
			collected = append(collected, res)
		default:
			break drain
		}
	}

	// Deterministic merge, ordered by submission index.
	sort.Slice(collected, func(i, j int) bool {
		return collected[i].unit.index < collected[j].unit.index
	})

	result := &inventory.DiscoveryResult{
		Entries:   make(map[inventory.Family][]inventory.Entry),
		StartedAt: started,
	}
	for _, res := range collected {
		if res.failure != nil {
			result.Failures = append(result.Failures, *res.failure)
			continue
		}
		result.Entries[res.unit.family] = append(result.Entries[res.unit.family], res.entries...)
	}

	result.Summary = inventory.Aggregate(result.AllEntries())
	result.Partial = cancelled || len(result.Failures) > 0
	result.FinishedAt = time.Now()

	o.logger.Info("Discovery finished",
		"resources", result.TotalCount(),
		"failures", len(result.Failures),
		"partial", result.Partial,
		"monthly_total", result.Summary.Total)
	return result, nil
}

// runUnit fetches and normalizes one (region, family) pair, retrying
// throttled and transient-network failures with exponential backoff before
// degrading to a ScopeError.
func (o *Orchestrator) runUnit(ctx context.Context, u unit) unitResult {
	tr := otel.Tracer("archaeologist/discovery")
	ctx, span := tr.Start(ctx, "discover."+string(u.family))
	span.SetAttributes(
		attribute.String("region", u.region),
		attribute.String("family", string(u.family)),
	)
	defer span.End()

	var entries []inventory.Entry

	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = o.opts.InitialBackoff
	bo := backoff.WithContext(backoff.WithMaxRetries(expo, uint64(o.opts.MaxAttempts-1)), ctx)

	err := backoff.Retry(func() error {
		var fetchErr error
		entries, fetchErr = o.fetchUnit(ctx, u)
		if fetchErr == nil {
			return nil
		}

		var fe *inventory.FetchError
		if errors.As(fetchErr, &fe) && fe.Kind.Retryable() {
			o.logger.Debug("Retrying unit", "region", u.region, "family", u.family, "kind", fe.Kind)
			return fetchErr
		}
		return backoff.Permanent(fetchErr)
	}, bo)

	if err != nil {
		kind := inventory.KindUnknown
		var fe *inventory.FetchError
		if errors.As(err, &fe) {
			kind = fe.Kind
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		o.logger.Error("Unit failed", "region", u.region, "family", u.family, "kind", kind, "error", err)
		return unitResult{unit: u, failure: &inventory.ScopeError{
			Region:  u.region,
			Family:  u.family,
			Kind:    kind,
			Message: err.Error(),
		}}
	}

	span.SetAttributes(attribute.Int("entries", len(entries)))
	return unitResult{unit: u, entries: entries}
}

// fetchUnit lists the raw records for one pair and normalizes them. The
// family switch is exhaustive over the closed set.
func (o *Orchestrator) fetchUnit(ctx context.Context, u unit) ([]inventory.Entry, error) {
	var entries []inventory.Entry

	appendEntry := func(e inventory.Entry, err error) {
		if err != nil {
			// Only a missing identifier drops a record, and only that one.
			o.logger.Warn("Skipping unidentifiable record", "region", u.region, "family", u.family, "error", err)
			return
		}
		entries = append(entries, e)
	}

	switch u.family {
	case inventory.FamilyCompute:
		raws, err := o.api.ListInstances(ctx, u.region)
		if err != nil {
			return nil, err
		}
		for _, raw := range raws {
			appendEntry(o.normalizer.Instance(raw, u.region))
		}
	case inventory.FamilyBlockVolume:
		raws, err := o.api.ListVolumes(ctx, u.region)
		if err != nil {
			return nil, err
		}
		for _, raw := range raws {
			appendEntry(o.normalizer.Volume(raw, u.region))
		}
	case inventory.FamilyObjectStore:
		raws, err := o.api.ListBuckets(ctx, u.region)
		if err != nil {
			return nil, err
		}
		for _, raw := range raws {
			appendEntry(o.normalizer.Bucket(raw, u.region))
		}
	case inventory.FamilyReservedAddress:
		raws, err := o.api.ListAddresses(ctx, u.region)
		if err != nil {
			return nil, err
		}
		for _, raw := range raws {
			appendEntry(o.normalizer.Address(raw, u.region))
		}
	case inventory.FamilySnapshot:
		raws, err := o.api.ListSnapshots(ctx, u.region)
		if err != nil {
			return nil, err
		}
		for _, raw := range raws {
			appendEntry(o.normalizer.Snapshot(raw, u.region))
		}
	default:
		return nil, &inventory.ConfigError{Field: "family", Value: string(u.family), Reason: "unknown family"}
	}

	return entries, nil
}
