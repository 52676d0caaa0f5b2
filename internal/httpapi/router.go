// Package httpapi exposes health probes and read/submit access to analysis
// runs over HTTP.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/stuartshay/poi-visits/internal/queue"
)

const readyTimeout = 2 * time.Second

// Runs is the run store served by the API
type Runs interface {
	Enqueue(req queue.Request) (string, error)
	GetJob(jobID string) (*queue.Job, error)
	ListJobs(status queue.JobStatus, limit, offset int) ([]*queue.Job, int)
	GetStats() map[string]int
}

// ReadyFunc reports whether downstream dependencies are reachable
type ReadyFunc func(ctx context.Context) error

// DevicesFunc lists the devices known to the ping source
type DevicesFunc func(ctx context.Context) ([]string, error)

// Handler serves the HTTP API
type Handler struct {
	service string
	runs    Runs
	ready   ReadyFunc
	devices DevicesFunc
}

// NewHandler creates a handler. A nil ready func always reports ready and a
// nil devices func disables the device listing.
func NewHandler(service string, runs Runs, ready ReadyFunc, devices DevicesFunc) *Handler {
	return &Handler{service: service, runs: runs, ready: ready, devices: devices}
}

// Router builds the gin engine with every route registered
func (h *Handler) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())

	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)

	api := r.Group("/api/v1")
	{
		runs := api.Group("/runs")
		{
			runs.GET("", h.ListRuns)
			runs.POST("", h.SubmitRun)
			runs.GET("/stats", h.RunStats)
			runs.GET("/:id", h.GetRun)
		}
		api.GET("/devices", h.ListDevices)
	}

	return r
}

// Healthz is the liveness probe
// GET /healthz
func (h *Handler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": h.service})
}

// Readyz checks the ping source
// GET /readyz
func (h *Handler) Readyz(c *gin.Context) {
	if h.ready != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), readyTimeout)
		defer cancel()

		if err := h.ready(ctx); err != nil {
			log.Warn().Err(err).Msg("Readiness check failed")
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "service": h.service, "error": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready", "service": h.service})
}

type submitRequest struct {
	StartDate string `json:"start_date" binding:"required"`
	EndDate   string `json:"end_date"`
	DeviceID  string `json:"device_id"`
}

// SubmitRun queues an analysis run
// POST /api/v1/runs
func (h *Handler) SubmitRun(c *gin.Context) {
	var body submitRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "start_date is required"})
		return
	}

	req, err := queue.Request{StartDate: body.StartDate, EndDate: body.EndDate, DeviceID: body.DeviceID}.Normalize()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	runID, err := h.runs.Enqueue(req)
	if err != nil {
		code := http.StatusServiceUnavailable
		if errors.Is(err, queue.ErrQueueFull) {
			code = http.StatusTooManyRequests
		}
		c.JSON(code, gin.H{"error": err.Error()})
		return
	}

	job, err := h.runs.GetJob(runID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusAccepted, job.Fields())
}

// GetRun returns one run
// GET /api/v1/runs/:id
func (h *Handler) GetRun(c *gin.Context) {
	job, err := h.runs.GetJob(c.Param("id"))
	if err != nil {
		if errors.Is(err, queue.ErrJobNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, job.Fields())
}

// ListRuns returns runs newest first
// GET /api/v1/runs?status=&limit=&offset=
func (h *Handler) ListRuns(c *gin.Context) {
	status := queue.JobStatus(c.Query("status"))
	if !status.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown status " + string(status)})
		return
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "0"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
		return
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid offset"})
		return
	}

	limit, offset = queue.Page(limit, offset)
	jobs, total := h.runs.ListJobs(status, limit, offset)

	runs := make([]map[string]interface{}, 0, len(jobs))
	for _, job := range jobs {
		runs = append(runs, job.Fields())
	}

	c.JSON(http.StatusOK, gin.H{
		"runs":        runs,
		"total_count": total,
		"limit":       limit,
		"offset":      offset,
	})
}

// RunStats returns run counts per status
// GET /api/v1/runs/stats
func (h *Handler) RunStats(c *gin.Context) {
	c.JSON(http.StatusOK, h.runs.GetStats())
}

// ListDevices returns the device ids available for analysis
// GET /api/v1/devices
func (h *Handler) ListDevices(c *gin.Context) {
	if h.devices == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "device listing not available"})
		return
	}

	devices, err := h.devices(c.Request.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to list devices")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}
	if devices == nil {
		devices = []string{}
	}

	c.JSON(http.StatusOK, gin.H{"devices": devices, "count": len(devices)})
}

// requestLogger logs every request through zerolog
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		if raw := c.Request.URL.RawQuery; raw != "" {
			path = path + "?" + raw
		}

		c.Next()

		event := log.Debug()
		if c.Writer.Status() >= http.StatusInternalServerError {
			event = log.Error()
		}
		event.
			Str("method", c.Request.Method).
			Str("path", path).
			Int("status", c.Writer.Status()).
			Str("client_ip", c.ClientIP()).
			Dur("latency", time.Since(start)).
			Msg("HTTP request")
	}
}
