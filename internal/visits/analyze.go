package visits

import (
	"cmp"
	"context"
	"fmt"
	"hash/fnv"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/stuartshay/poi-visits/internal/ping"
	"github.com/stuartshay/poi-visits/internal/poi"
)

var tracer = otel.Tracer("github.com/stuartshay/poi-visits/internal/visits")

// Options controls a pipeline run
type Options struct {
	// Workers is the number of device shards processed concurrently.
	// Values below 2 run a single pass.
	Workers int

	// Location is the time zone used for hour-of-day values (nil = UTC)
	Location *time.Location
}

// Result is the read-only output of one pipeline run
type Result struct {
	Dataset      *ping.Dataset
	Associations []Association
	Visits       []VisitRecord
}

// SkippedPings returns the number of pings excluded for data quality
func (r *Result) SkippedPings() int {
	return r.Dataset.SkippedCount()
}

type shardResult struct {
	assocs []Association
	visits []VisitRecord
}

// Analyze associates the dataset's pings with the registry's POIs and builds
// one VisitRecord per (device, POI). Devices never interact, so pings are
// sharded by device id and shards run concurrently.
func Analyze(ctx context.Context, ds *ping.Dataset, registry *poi.Registry, opts Options) (*Result, error) {
	if ds == nil || registry == nil {
		return nil, fmt.Errorf("dataset and registry are required")
	}

	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}

	ctx, span := tracer.Start(ctx, "visits.Analyze")
	defer span.End()
	span.SetAttributes(
		attribute.Int("pings", len(ds.Pings)),
		attribute.Int("pings.skipped", ds.SkippedCount()),
		attribute.Int("pois", registry.Len()),
		attribute.Int("shards", workers),
	)

	shards := shardByDevice(ds.Pings, workers)
	results := make([]shardResult, len(shards))

	var wg sync.WaitGroup
	for i, shard := range shards {
		wg.Add(1)
		go func(i int, shard []ping.Ping) {
			defer wg.Done()
			if ctx.Err() != nil {
				return
			}
			assocs := Associate(shard, registry)
			results[i] = shardResult{
				assocs: assocs,
				visits: BuildVisits(GroupAssociations(assocs), opts.Location),
			}
		}(i, shard)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "analysis cancelled")
		return nil, err
	}

	res := &Result{Dataset: ds}
	for _, r := range results {
		res.Associations = append(res.Associations, r.assocs...)
		res.Visits = append(res.Visits, r.visits...)
	}
	if len(shards) > 1 {
		sortAssociations(res.Associations, registry)
		slices.SortFunc(res.Visits, func(a, b VisitRecord) int {
			if c := cmp.Compare(a.DeviceID, b.DeviceID); c != 0 {
				return c
			}
			return cmp.Compare(a.POI, b.POI)
		})
	}

	noPath := 0
	for _, v := range res.Visits {
		if v.NoPath {
			noPath++
		}
	}

	span.SetAttributes(
		attribute.Int("associations", len(res.Associations)),
		attribute.Int("visits", len(res.Visits)),
	)

	log.Info().
		Int("pings", len(ds.Pings)).
		Int("skipped", ds.SkippedCount()).
		Int("associations", len(res.Associations)).
		Int("visits", len(res.Visits)).
		Int("no_path", noPath).
		Msg("Visit analysis complete")

	return res, nil
}

// shardByDevice partitions pings by FNV-1a hash of the device id, preserving
// ingestion order inside each shard
func shardByDevice(pings []ping.Ping, n int) [][]ping.Ping {
	if n <= 1 {
		return [][]ping.Ping{pings}
	}

	shards := make([][]ping.Ping, n)
	for _, p := range pings {
		h := fnv.New32a()
		_, _ = h.Write([]byte(p.DeviceID))
		idx := int(h.Sum32() % uint32(n))
		shards[idx] = append(shards[idx], p)
	}
	return shards
}
