package visits

import (
	"cmp"
	"slices"
	"time"

	"github.com/stuartshay/poi-visits/internal/ping"
)

// AllPOIs labels buckets computed over the ungrouped dataset
const AllPOIs = "all"

// HourBucket counts pings (and distinct devices) in one hour of day
type HourBucket struct {
	POI     string
	Hour    int
	Pings   int
	Devices int
}

type bucketKey struct {
	poi  string
	hour int
}

type bucketCounter struct {
	pings   map[bucketKey]int
	devices map[bucketKey]map[string]struct{}
}

func newBucketCounter() *bucketCounter {
	return &bucketCounter{
		pings:   make(map[bucketKey]int),
		devices: make(map[bucketKey]map[string]struct{}),
	}
}

func (c *bucketCounter) add(poiName string, p ping.Ping, loc *time.Location) {
	key := bucketKey{poi: poiName, hour: p.Timestamp.In(loc).Hour()}
	c.pings[key]++
	if c.devices[key] == nil {
		c.devices[key] = make(map[string]struct{})
	}
	c.devices[key][p.DeviceID] = struct{}{}
}

func (c *bucketCounter) buckets() []HourBucket {
	out := make([]HourBucket, 0, len(c.pings))
	for key, n := range c.pings {
		out = append(out, HourBucket{
			POI:     key.poi,
			Hour:    key.hour,
			Pings:   n,
			Devices: len(c.devices[key]),
		})
	}
	slices.SortFunc(out, func(a, b HourBucket) int {
		if c := cmp.Compare(a.POI, b.POI); c != 0 {
			return c
		}
		return cmp.Compare(a.Hour, b.Hour)
	})
	return out
}

// HourlyCounts bins the ungrouped dataset by hour of day in loc (nil = UTC)
func HourlyCounts(pings []ping.Ping, loc *time.Location) []HourBucket {
	if loc == nil {
		loc = time.UTC
	}
	c := newBucketCounter()
	for _, p := range pings {
		c.add(AllPOIs, p, loc)
	}
	return c.buckets()
}

// HourlyCountsByPOI bins associations by (poi, hour of day in loc)
func HourlyCountsByPOI(assocs []Association, loc *time.Location) []HourBucket {
	if loc == nil {
		loc = time.UTC
	}
	c := newBucketCounter()
	for _, a := range assocs {
		c.add(a.POI, a.Ping, loc)
	}
	return c.buckets()
}
