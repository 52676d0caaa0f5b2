// Package grpc implements the VisitService gRPC server: analysis runs are
// queued, processed by a worker pool and written to per-run report folders.
package grpc

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/stuartshay/poi-visits/internal/config"
	"github.com/stuartshay/poi-visits/internal/ping"
	"github.com/stuartshay/poi-visits/internal/poi"
	"github.com/stuartshay/poi-visits/internal/projection"
	"github.com/stuartshay/poi-visits/internal/queue"
	"github.com/stuartshay/poi-visits/internal/report"
	"github.com/stuartshay/poi-visits/internal/visits"
)

var tracer = otel.Tracer("github.com/stuartshay/poi-visits/internal/grpc")

// Source loads raw pings for a run
type Source interface {
	LoadPings(ctx context.Context, startDate, endDate, deviceID string) ([]ping.Raw, error)
	GetDevices(ctx context.Context) ([]string, error)
	HealthCheck(ctx context.Context) error
}

// Server implements the VisitService gRPC server
type Server struct {
	UnimplementedVisitServiceServer
	cfg      *config.Config
	source   Source
	proj     projection.Projector
	registry *poi.Registry
	queue    *queue.Queue
}

// NewServer creates a new gRPC server instance
func NewServer(cfg *config.Config, source Source) (*Server, error) {
	proj, registry, err := cfg.BuildRegistry()
	if err != nil {
		return nil, fmt.Errorf("failed to build POI registry: %w", err)
	}

	s := &Server{
		cfg:      cfg,
		source:   source,
		proj:     proj,
		registry: registry,
	}

	// Initialize job queue with processor
	s.queue = queue.NewQueue(cfg.QueueWorkers, s.processRun)

	return s, nil
}

// Runs exposes the run queue for read access
func (s *Server) Runs() *queue.Queue {
	return s.queue
}

// Ready reports whether the ping source is reachable
func (s *Server) Ready(ctx context.Context) error {
	return s.source.HealthCheck(ctx)
}

// Devices lists the device ids known to the ping source
func (s *Server) Devices(ctx context.Context) ([]string, error) {
	return s.source.GetDevices(ctx)
}

// SubmitRun validates the request and queues an analysis run
func (s *Server) SubmitRun(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	runReq, err := parseRunRequest(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	log.Info().
		Str("start_date", runReq.StartDate).
		Str("end_date", runReq.EndDate).
		Str("device_id", runReq.DeviceID).
		Msg("Received analysis run request")

	runID, err := s.queue.Enqueue(runReq)
	if err != nil {
		log.Error().Err(err).Msg("Failed to enqueue run")
		if errors.Is(err, queue.ErrQueueFull) {
			return nil, status.Error(codes.ResourceExhausted, err.Error())
		}
		return nil, status.Errorf(codes.Unavailable, "failed to enqueue run: %v", err)
	}

	job, err := s.queue.GetJob(runID)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}

	return structpb.NewStruct(map[string]interface{}{
		"run_id":    job.ID,
		"status":    string(queue.StatusQueued),
		"queued_at": job.QueuedAt.Format(time.RFC3339Nano),
	})
}

// GetRun returns the current state of a run
func (s *Server) GetRun(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	runID := stringField(req, "run_id")
	if runID == "" {
		return nil, status.Error(codes.InvalidArgument, "run_id is required")
	}

	job, err := s.queue.GetJob(runID)
	if err != nil {
		if errors.Is(err, queue.ErrJobNotFound) {
			return nil, status.Errorf(codes.NotFound, "run not found: %s", runID)
		}
		return nil, status.Error(codes.Internal, err.Error())
	}

	return structpb.NewStruct(job.Fields())
}

// ListRuns returns runs newest first with optional status filtering
func (s *Server) ListRuns(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	filter := queue.JobStatus(stringField(req, "status"))
	if !filter.Valid() {
		return nil, status.Errorf(codes.InvalidArgument, "unknown status %q", filter)
	}

	limit, offset := queue.Page(int(numberField(req, "limit")), int(numberField(req, "offset")))
	jobs, total := s.queue.ListJobs(filter, limit, offset)

	runs := make([]interface{}, 0, len(jobs))
	for _, job := range jobs {
		runs = append(runs, job.Fields())
	}

	return structpb.NewStruct(map[string]interface{}{
		"runs":        runs,
		"total_count": total,
		"limit":       limit,
		"offset":      offset,
	})
}

// parseRunRequest extracts and validates the date range of a run
func parseRunRequest(req *structpb.Struct) (queue.Request, error) {
	return queue.Request{
		StartDate: stringField(req, "start_date"),
		EndDate:   stringField(req, "end_date"),
		DeviceID:  stringField(req, "device_id"),
	}.Normalize()
}

func stringField(s *structpb.Struct, key string) string {
	return s.GetFields()[key].GetStringValue()
}

func numberField(s *structpb.Struct, key string) float64 {
	return s.GetFields()[key].GetNumberValue()
}

// processRun is the worker function that loads, analyzes and reports one run
func (s *Server) processRun(ctx context.Context, job *queue.Job) (*queue.JobResult, error) {
	ctx, span := tracer.Start(ctx, "processRun")
	defer span.End()
	span.SetAttributes(
		attribute.String("run.id", job.ID),
		attribute.String("run.start_date", job.StartDate),
		attribute.String("run.end_date", job.EndDate),
		attribute.String("run.device_id", job.DeviceID),
	)

	log.Info().
		Str("run_id", job.ID).
		Str("start_date", job.StartDate).
		Str("end_date", job.EndDate).
		Str("device_id", job.DeviceID).
		Msg("Processing analysis run")

	result, err := s.analyzeRun(ctx, job)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, err
	}
	return result, nil
}

func (s *Server) analyzeRun(ctx context.Context, job *queue.Job) (*queue.JobResult, error) {
	raws, err := s.source.LoadPings(ctx, job.StartDate, job.EndDate, job.DeviceID)
	if err != nil {
		log.Error().Err(err).Msg("Failed to load pings")
		return nil, fmt.Errorf("loading pings failed: %w", err)
	}

	if len(raws) == 0 {
		log.Warn().Str("start_date", job.StartDate).Str("end_date", job.EndDate).Msg("No pings found for range")
		return nil, fmt.Errorf("no pings found between %s and %s", job.StartDate, job.EndDate)
	}

	ds := ping.Project(raws, s.proj)

	res, err := visits.Analyze(ctx, ds, s.registry, visits.Options{
		Workers:  s.cfg.AnalysisWorkers,
		Location: s.cfg.Location,
	})
	if err != nil {
		return nil, fmt.Errorf("analysis failed: %w", err)
	}

	outDir := filepath.Join(s.cfg.OutputPath, job.ID)
	if _, err := (report.Writer{Dir: outDir}).WriteAll(res, s.registry, s.cfg.Location); err != nil {
		log.Error().Err(err).Msg("Failed to write reports")
		return nil, fmt.Errorf("report generation failed: %w", err)
	}

	summary := visits.SummarizeDataset(ds)

	return &queue.JobResult{
		OutputDir:    outDir,
		Pings:        summary.Pings,
		SkippedPings: res.SkippedPings(),
		Devices:      summary.Devices,
		Associations: len(res.Associations),
		Visits:       len(res.Visits),
	}, nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(timeout time.Duration) error {
	return s.queue.Shutdown(timeout)
}
