// Package visits associates projected pings with POI buffers and derives
// per-device, per-POI visit records: first/last seen, duration, hour of day
// and the length of the path travelled inside the buffer.
package visits

import (
	"cmp"
	"slices"

	"github.com/stuartshay/poi-visits/internal/ping"
	"github.com/stuartshay/poi-visits/internal/poi"
)

// Association records that a ping lies within a POI's buffer
type Association struct {
	Ping ping.Ping
	POI  string
}

// Associate returns one association per (ping, matching POI). Pings outside
// every buffer produce no rows. Rows follow ping order, then registry order.
func Associate(pings []ping.Ping, registry *poi.Registry) []Association {
	var out []Association
	for _, p := range pings {
		for _, name := range registry.MatchingPOIs(p.Position()) {
			out = append(out, Association{Ping: p, POI: name})
		}
	}
	return out
}

// sortAssociations restores the canonical order after shards are merged
func sortAssociations(assocs []Association, registry *poi.Registry) {
	slices.SortFunc(assocs, func(a, b Association) int {
		if c := cmp.Compare(a.Ping.Seq, b.Ping.Seq); c != 0 {
			return c
		}
		return cmp.Compare(registry.Index(a.POI), registry.Index(b.POI))
	})
}

// GroupKey identifies one device at one POI
type GroupKey struct {
	DeviceID string
	POI      string
}

// Group holds the associated pings of one key, in association order
type Group struct {
	Key   GroupKey
	Pings []ping.Ping
}

// GroupAssociations builds the (device_id, poi) grouping consumed by both the
// aggregator and the trajectory builder. Groups are sorted by key.
func GroupAssociations(assocs []Association) []Group {
	index := make(map[GroupKey]int)
	var groups []Group

	for _, a := range assocs {
		key := GroupKey{DeviceID: a.Ping.DeviceID, POI: a.POI}
		idx, ok := index[key]
		if !ok {
			idx = len(groups)
			index[key] = idx
			groups = append(groups, Group{Key: key})
		}
		groups[idx].Pings = append(groups[idx].Pings, a.Ping)
	}

	slices.SortFunc(groups, func(a, b Group) int {
		return compareKeys(a.Key, b.Key)
	})

	return groups
}

func compareKeys(a, b GroupKey) int {
	if c := cmp.Compare(a.DeviceID, b.DeviceID); c != 0 {
		return c
	}
	return cmp.Compare(a.POI, b.POI)
}
