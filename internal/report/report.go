// Package report writes the results of a visit analysis run to disk as CSV
// tables and a GeoJSON file of reconstructed trajectories.
package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/stuartshay/poi-visits/internal/poi"
	"github.com/stuartshay/poi-visits/internal/visits"
)

// Output file names
const (
	VisitsFile       = "visits.csv"
	AssociationsFile = "associations.csv"
	HourlyFile       = "hourly_counts.csv"
	SummaryFile      = "poi_summary.csv"
	DatasetFile      = "dataset_summary.csv"
	TrajectoriesFile = "trajectories.geojson"
)

// Files lists the paths written by WriteAll
type Files struct {
	Visits       string
	Associations string
	Hourly       string
	Summary      string
	Dataset      string
	Trajectories string
}

// Writer writes report files into Dir
type Writer struct {
	Dir string
}

// WriteAll writes every report for result. Hours are taken in loc (nil = UTC).
func (w Writer) WriteAll(result *visits.Result, registry *poi.Registry, loc *time.Location) (Files, error) {
	if result == nil || registry == nil {
		return Files{}, fmt.Errorf("result and registry are required")
	}
	if loc == nil {
		loc = time.UTC
	}

	if err := os.MkdirAll(w.Dir, 0755); err != nil {
		return Files{}, fmt.Errorf("failed to create output directory: %w", err)
	}

	files := Files{
		Visits:       filepath.Join(w.Dir, VisitsFile),
		Associations: filepath.Join(w.Dir, AssociationsFile),
		Hourly:       filepath.Join(w.Dir, HourlyFile),
		Summary:      filepath.Join(w.Dir, SummaryFile),
		Dataset:      filepath.Join(w.Dir, DatasetFile),
		Trajectories: filepath.Join(w.Dir, TrajectoriesFile),
	}

	if err := writeCSV(files.Visits, visitRows(result.Visits, loc)); err != nil {
		return Files{}, err
	}
	if err := writeCSV(files.Associations, associationRows(result.Associations, loc)); err != nil {
		return Files{}, err
	}

	buckets := visits.HourlyCounts(result.Dataset.Pings, loc)
	buckets = append(buckets, visits.HourlyCountsByPOI(result.Associations, loc)...)
	if err := writeCSV(files.Hourly, hourlyRows(buckets)); err != nil {
		return Files{}, err
	}

	summary, err := summaryRows(visits.SummarizePOIs(result.Visits, registry), registry)
	if err != nil {
		return Files{}, err
	}
	if err := writeCSV(files.Summary, summary); err != nil {
		return Files{}, err
	}

	if err := writeCSV(files.Dataset, datasetRows(visits.SummarizeDataset(result.Dataset), loc)); err != nil {
		return Files{}, err
	}

	if err := writeTrajectories(files.Trajectories, result.Visits, loc); err != nil {
		return Files{}, err
	}

	log.Info().
		Str("dir", w.Dir).
		Int("visits", len(result.Visits)).
		Int("associations", len(result.Associations)).
		Msg("Reports written")

	return files, nil
}

func visitRows(records []visits.VisitRecord, loc *time.Location) [][]string {
	rows := [][]string{{
		"device_id", "poi", "first_seen", "last_seen", "duration_minutes",
		"hour_first", "hour_last", "ping_count", "trajectory_length_m",
		"no_path", "excluded_pings",
	}}
	for _, r := range records {
		rows = append(rows, []string{
			r.DeviceID,
			r.POI,
			r.FirstSeen.In(loc).Format(time.RFC3339),
			r.LastSeen.In(loc).Format(time.RFC3339),
			fmt.Sprintf("%.2f", r.Duration.Minutes()),
			strconv.Itoa(r.HourFirst),
			strconv.Itoa(r.HourLast),
			strconv.Itoa(r.PingCount),
			fmt.Sprintf("%.2f", r.TrajectoryLength),
			strconv.FormatBool(r.NoPath),
			strconv.Itoa(r.ExcludedPings),
		})
	}
	return rows
}

func associationRows(assocs []visits.Association, loc *time.Location) [][]string {
	rows := [][]string{{
		"seq", "device_id", "timestamp", "latitude", "longitude", "x", "y", "poi", "hour",
	}}
	for _, a := range assocs {
		p := a.Ping
		rows = append(rows, []string{
			strconv.Itoa(p.Seq),
			p.DeviceID,
			p.Timestamp.In(loc).Format(time.RFC3339),
			fmt.Sprintf("%.6f", p.Lat),
			fmt.Sprintf("%.6f", p.Lon),
			fmt.Sprintf("%.2f", p.X),
			fmt.Sprintf("%.2f", p.Y),
			a.POI,
			strconv.Itoa(p.Timestamp.In(loc).Hour()),
		})
	}
	return rows
}

func hourlyRows(buckets []visits.HourBucket) [][]string {
	rows := [][]string{{"poi", "hour", "pings", "devices"}}
	for _, b := range buckets {
		rows = append(rows, []string{
			b.POI,
			strconv.Itoa(b.Hour),
			strconv.Itoa(b.Pings),
			strconv.Itoa(b.Devices),
		})
	}
	return rows
}

// summaryRows emits one row per POI, including the projected extent of its
// buffer for map framing
func summaryRows(summaries []visits.POISummary, registry *poi.Registry) ([][]string, error) {
	rows := [][]string{{
		"poi", "visits", "paths",
		"duration_min_minutes", "duration_mean_minutes", "duration_max_minutes",
		"trajectory_total_m", "trajectory_mean_m", "trajectory_max_m",
		"min_x", "min_y", "max_x", "max_y",
	}}
	for _, s := range summaries {
		bounds, err := registry.Bounds(s.POI)
		if err != nil {
			return nil, err
		}
		rows = append(rows, []string{
			s.POI,
			strconv.Itoa(s.Visits),
			strconv.Itoa(s.Paths),
			fmt.Sprintf("%.2f", s.DurationMinutes.Min),
			fmt.Sprintf("%.2f", s.DurationMinutes.Mean),
			fmt.Sprintf("%.2f", s.DurationMinutes.Max),
			fmt.Sprintf("%.2f", s.TrajectoryMeters.Total),
			fmt.Sprintf("%.2f", s.TrajectoryMeters.Mean),
			fmt.Sprintf("%.2f", s.TrajectoryMeters.Max),
			fmt.Sprintf("%.2f", bounds.X.Lo),
			fmt.Sprintf("%.2f", bounds.Y.Lo),
			fmt.Sprintf("%.2f", bounds.X.Hi),
			fmt.Sprintf("%.2f", bounds.Y.Hi),
		})
	}
	return rows, nil
}

// datasetRows describes the ungrouped dataset; time columns are empty when
// no ping survived validation
func datasetRows(s visits.DatasetSummary, loc *time.Location) [][]string {
	first, last := "", ""
	if s.Pings > 0 {
		first = s.FirstSeen.In(loc).Format(time.RFC3339)
		last = s.LastSeen.In(loc).Format(time.RFC3339)
	}
	return [][]string{
		{"pings", "skipped_pings", "devices", "first_seen", "last_seen"},
		{strconv.Itoa(s.Pings), strconv.Itoa(s.Skipped), strconv.Itoa(s.Devices), first, last},
	}
}

// writeCSV creates path and writes rows to it
func writeCSV(path string, rows [][]string) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close CSV file: %w", closeErr)
		}
	}()

	writer := csv.NewWriter(file)
	if err := writer.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}

	log.Debug().Str("path", path).Int("rows", len(rows)-1).Msg("CSV file written")
	return nil
}
