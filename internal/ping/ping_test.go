package ping

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stuartshay/poi-visits/internal/projection"
)

func TestProject(t *testing.T) {
	raws := []Raw{
		{DeviceID: "D1", Timestamp: 1609459200, Longitude: 101.6847, Latitude: 3.1430},
		{DeviceID: "D2", Timestamp: 1609459260.75, Longitude: 101.7120, Latitude: 3.1579},
	}

	ds := Project(raws, projection.Identity)

	require.Len(t, ds.Pings, 2)
	assert.Equal(t, 0, ds.SkippedCount())

	p := ds.Pings[1]
	assert.Equal(t, 1, p.Seq)
	assert.Equal(t, "D2", p.DeviceID)
	assert.Equal(t, time.Date(2021, 1, 1, 0, 1, 0, 0, time.UTC), p.Timestamp, "truncated to the second, UTC")
	assert.Equal(t, 101.7120, p.X)
	assert.Equal(t, 3.1579, p.Y)
	assert.True(t, p.Valid())
}

func TestProject_UsesProjector(t *testing.T) {
	shift := projection.Func(func(lon, lat float64) (float64, float64) {
		return lon * 10, lat * 100
	})

	ds := Project([]Raw{{DeviceID: "D", Timestamp: 0, Longitude: 1, Latitude: 2}}, shift)

	require.Len(t, ds.Pings, 1)
	assert.Equal(t, 10.0, ds.Pings[0].X)
	assert.Equal(t, 200.0, ds.Pings[0].Y)
	assert.Equal(t, 1.0, ds.Pings[0].Lon, "source coordinates are kept")
}

func TestProject_DataQuality(t *testing.T) {
	nanProjector := projection.Func(func(lon, lat float64) (float64, float64) {
		if lon == 50 {
			return math.NaN(), 0
		}
		return lon, lat
	})

	raws := []Raw{
		{DeviceID: "ok", Timestamp: 10, Longitude: 1, Latitude: 1},
		{DeviceID: "", Timestamp: 10, Longitude: 1, Latitude: 1},
		{DeviceID: "ts", Timestamp: math.NaN(), Longitude: 1, Latitude: 1},
		{DeviceID: "neg", Timestamp: -5, Longitude: 1, Latitude: 1},
		{DeviceID: "huge", Timestamp: 1e19, Longitude: 1, Latitude: 1},
		{DeviceID: "huger", Timestamp: 1e30, Longitude: 1, Latitude: 1},
		{DeviceID: "max", Timestamp: MaxTimestamp, Longitude: 1, Latitude: 1},
		{DeviceID: "lon", Timestamp: 10, Longitude: 181, Latitude: 1},
		{DeviceID: "lat", Timestamp: 10, Longitude: 1, Latitude: math.NaN()},
		{DeviceID: "proj", Timestamp: 10, Longitude: 50, Latitude: 1},
		{DeviceID: "ok2", Timestamp: 11, Longitude: 2, Latitude: 2},
	}

	ds := Project(raws, nanProjector)

	require.Len(t, ds.Pings, 3)
	assert.Equal(t, "ok", ds.Pings[0].DeviceID)
	assert.Equal(t, "max", ds.Pings[1].DeviceID)
	assert.Equal(t, 9999, ds.Pings[1].Timestamp.Year())
	assert.Equal(t, "ok2", ds.Pings[2].DeviceID)
	assert.Equal(t, 10, ds.Pings[2].Seq, "seq keeps the ingestion index")

	require.Equal(t, 8, ds.SkippedCount())
	fields := make([]string, 0, len(ds.Skipped))
	for _, s := range ds.Skipped {
		fields = append(fields, s.Field)
	}
	assert.Equal(t, []string{"device_id", "timestamp", "timestamp", "timestamp", "timestamp", "longitude", "latitude", "position"}, fields)
	assert.Equal(t, 9, ds.Skipped[7].Index)
	assert.Equal(t, "huge", ds.Skipped[3].DeviceID)
	assert.Contains(t, ds.Skipped[6].Error(), "invalid latitude")
}

func TestProject_Empty(t *testing.T) {
	ds := Project(nil, projection.Identity)
	assert.Empty(t, ds.Pings)
	assert.Equal(t, 0, ds.SkippedCount())
}
