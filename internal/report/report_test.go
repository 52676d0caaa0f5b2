package report

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stuartshay/poi-visits/internal/ping"
	"github.com/stuartshay/poi-visits/internal/poi"
	"github.com/stuartshay/poi-visits/internal/projection"
	"github.com/stuartshay/poi-visits/internal/visits"
)

const base = 1609459200 // 2021-01-01T00:00:00Z

func analyzeKL(t *testing.T) (*visits.Result, *poi.Registry) {
	t.Helper()

	proj, err := projection.Parse("EPSG:32647")
	require.NoError(t, err)

	reg, err := poi.NewRegistry([]poi.Entry{
		{Name: "perdona", Lon: 101.6847, Lat: 3.1430},
		{Name: "chinatown", Lon: 101.6969, Lat: 3.1428},
		{Name: "petronas", Lon: 101.7120, Lat: 3.1579},
	}, proj, 500)
	require.NoError(t, err)

	ds := ping.Project([]ping.Raw{
		{DeviceID: "a", Timestamp: base, Longitude: 101.6847, Latitude: 3.1430},
		{DeviceID: "a", Timestamp: base + 600, Longitude: 101.6850, Latitude: 3.1432},
		{DeviceID: "b", Timestamp: base + 3600, Longitude: 101.7120, Latitude: 3.1579},
		{DeviceID: "c", Timestamp: base, Longitude: 101.0, Latitude: 3.0},
		{DeviceID: "d", Timestamp: math.NaN(), Longitude: 101.0, Latitude: 3.0},
	}, proj)

	res, err := visits.Analyze(context.Background(), ds, reg, visits.Options{Workers: 2})
	require.NoError(t, err)
	return res, reg
}

func parseFloat(t *testing.T, value string) float64 {
	t.Helper()
	v, err := strconv.ParseFloat(value, 64)
	require.NoError(t, err)
	return v
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestWriteAll(t *testing.T) {
	res, reg := analyzeKL(t)
	dir := filepath.Join(t.TempDir(), "run", "nested")

	files, err := Writer{Dir: dir}.WriteAll(res, reg, nil)
	require.NoError(t, err)

	for _, path := range []string{files.Visits, files.Associations, files.Hourly, files.Summary, files.Dataset, files.Trajectories} {
		assert.FileExists(t, path)
		assert.Equal(t, dir, filepath.Dir(path))
	}

	t.Run("visits", func(t *testing.T) {
		rows := readCSV(t, files.Visits)
		require.Len(t, rows, 3)
		assert.Equal(t, "device_id", rows[0][0])
		assert.Equal(t, []string{"a", "perdona", "2021-01-01T00:00:00Z", "2021-01-01T00:10:00Z", "10.00", "0", "0", "2"}, rows[1][:8])
		assert.Equal(t, "false", rows[1][9])
		assert.Equal(t, []string{"b", "petronas"}, rows[2][:2])
		assert.Equal(t, "0.00", rows[2][8])
		assert.Equal(t, "true", rows[2][9])
	})

	t.Run("associations", func(t *testing.T) {
		rows := readCSV(t, files.Associations)
		require.Len(t, rows, 4)
		assert.Equal(t, []string{"0", "a"}, rows[1][:2])
		assert.Equal(t, "perdona", rows[1][7])
		assert.Equal(t, "1", rows[3][8], "hour of device b")
	})

	t.Run("hourly counts", func(t *testing.T) {
		rows := readCSV(t, files.Hourly)
		assert.Equal(t, [][]string{
			{"poi", "hour", "pings", "devices"},
			{"all", "0", "3", "2"},
			{"all", "1", "1", "1"},
			{"perdona", "0", "2", "1"},
			{"petronas", "1", "1", "1"},
		}, rows)
	})

	t.Run("poi summary", func(t *testing.T) {
		rows := readCSV(t, files.Summary)
		require.Len(t, rows, 4)
		assert.Equal(t, []string{"perdona", "1", "1"}, rows[1][:3])
		assert.Equal(t, []string{"chinatown", "0", "0"}, rows[2][:3])
		assert.Equal(t, []string{"petronas", "1", "0"}, rows[3][:3])

		assert.Equal(t, []string{"min_x", "min_y", "max_x", "max_y"}, rows[0][9:])
		for i, name := range []string{"perdona", "chinatown", "petronas"} {
			p, err := reg.POIByName(name)
			require.NoError(t, err)

			minX, maxX := parseFloat(t, rows[i+1][9]), parseFloat(t, rows[i+1][11])
			minY, maxY := parseFloat(t, rows[i+1][10]), parseFloat(t, rows[i+1][12])
			assert.InDelta(t, 1000.0, maxX-minX, 0.02, name)
			assert.InDelta(t, 1000.0, maxY-minY, 0.02, name)
			assert.InDelta(t, p.CenterX, (minX+maxX)/2, 0.01, name)
			assert.InDelta(t, p.CenterY, (minY+maxY)/2, 0.01, name)
		}
	})

	t.Run("dataset summary", func(t *testing.T) {
		rows := readCSV(t, files.Dataset)
		assert.Equal(t, [][]string{
			{"pings", "skipped_pings", "devices", "first_seen", "last_seen"},
			{"4", "1", "3", "2021-01-01T00:00:00Z", "2021-01-01T01:00:00Z"},
		}, rows)
	})

	t.Run("trajectories", func(t *testing.T) {
		data, err := os.ReadFile(files.Trajectories)
		require.NoError(t, err)

		var fc featureCollection
		require.NoError(t, json.Unmarshal(data, &fc))
		assert.Equal(t, "FeatureCollection", fc.Type)
		require.Len(t, fc.Features, 1, "only records with a path")

		f := fc.Features[0]
		assert.Equal(t, "LineString", f.Geometry.Type)
		assert.Equal(t, [][2]float64{{101.6847, 3.1430}, {101.6850, 3.1432}}, f.Geometry.Coordinates)
		assert.Equal(t, "a", f.Properties.DeviceID)
		assert.Equal(t, "perdona", f.Properties.POI)
		assert.InDelta(t, 10.0, f.Properties.DurationMinutes, 1e-9)
		assert.InDelta(t, 40.0, f.Properties.LengthMeters, 5.0)
	})
}

func TestWriteAll_Location(t *testing.T) {
	res, reg := analyzeKL(t)

	files, err := Writer{Dir: t.TempDir()}.WriteAll(res, reg, time.FixedZone("MYT", 8*3600))
	require.NoError(t, err)

	rows := readCSV(t, files.Visits)
	assert.Equal(t, "2021-01-01T08:00:00+08:00", rows[1][2])
	assert.Equal(t, "0", rows[1][5], "visit hours are fixed by the analysis")

	assocs := readCSV(t, files.Associations)
	assert.Equal(t, "8", assocs[1][8])
}

func TestWriteAll_EmptyResult(t *testing.T) {
	_, reg := analyzeKL(t)
	res, err := visits.Analyze(context.Background(), &ping.Dataset{}, reg, visits.Options{})
	require.NoError(t, err)

	files, err := Writer{Dir: t.TempDir()}.WriteAll(res, reg, nil)
	require.NoError(t, err)

	assert.Len(t, readCSV(t, files.Visits), 1, "header only")
	assert.Equal(t, []string{"0", "0", "0", "", ""}, readCSV(t, files.Dataset)[1])

	data, err := os.ReadFile(files.Trajectories)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"features": []`)
}

func TestWriteAll_RequiresInputs(t *testing.T) {
	_, err := Writer{Dir: t.TempDir()}.WriteAll(nil, nil, nil)
	assert.Error(t, err)
}
