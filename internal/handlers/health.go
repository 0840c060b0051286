package handlers

import (
	"net/http"
	"runtime"
	"time"

	"camera-raw-previews/internal/logging"
	"camera-raw-previews/internal/startup"
	"camera-raw-previews/internal/warmup"
)

const (
	statusHealthy  = "healthy"
	statusDegraded = "degraded"
)

// HealthResponse contains the health check response
type HealthResponse struct {
	Status  string `json:"status"`
	Ready   bool   `json:"ready"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`

	// Capabilities
	Exiftool      bool   `json:"exiftool"`
	ExiftoolError string `json:"exiftoolError,omitempty"`
	Vips          bool   `json:"vips"`
	TIFFDecode    bool   `json:"tiffDecode"`

	// Preview pipeline
	PreviewWorkers  int `json:"previewWorkers"`
	PreviewsRunning int `json:"previewsRunning"`

	// Cache summary
	CachedFiles    int   `json:"cachedFiles,omitempty"`
	CachedPreviews int   `json:"cachedPreviews,omitempty"`
	CacheBytes     int64 `json:"cacheBytes,omitempty"`

	// Background warm-up, when enabled
	Warmup *warmup.Status `json:"warmup,omitempty"`

	// System info
	GoVersion    string `json:"goVersion"`
	NumCPU       int    `json:"numCpu"`
	NumGoroutine int    `json:"numGoroutine"`
}

// ready reports whether previews can be produced at all, i.e. the
// metadata tool was found.
func (h *Handlers) ready() (bool, error) {
	if h.caps == nil {
		return false, nil
	}
	_, err := h.caps.Tool()
	return err == nil, err
}

// HealthCheck returns the health status of the service. A missing metadata
// tool is reported as degraded with 200, since the process itself is fine.
func (h *Handlers) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	ready, toolErr := h.ready()

	response := HealthResponse{
		Status:          statusHealthy,
		Ready:           ready,
		Version:         startup.Version,
		Uptime:          time.Since(h.startTime).Round(time.Second).String(),
		Exiftool:        ready,
		Vips:            h.vipsEnabled(),
		PreviewWorkers:  h.limiter.Size(),
		PreviewsRunning: h.limiter.Active(),
		GoVersion:       runtime.Version(),
		NumCPU:          runtime.NumCPU(),
		NumGoroutine:    runtime.NumGoroutine(),
	}
	if h.caps != nil {
		response.TIFFDecode = h.caps.TIFFDecode()
	}
	if !ready {
		response.Status = statusDegraded
		if toolErr != nil {
			response.ExiftoolError = toolErr.Error()
		}
	}

	if h.warmup != nil {
		status := h.warmup.Status()
		response.Warmup = &status
	}

	if h.stats != nil {
		stats, err := h.stats.CacheStats()
		if err != nil {
			logging.Warn("Health: failed to read cache stats: %v", err)
		} else {
			response.CachedFiles = stats.SourceFiles
			response.CachedPreviews = stats.Previews
			response.CacheBytes = stats.TotalBytes
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	writeJSON(w, response)
}

// LivenessCheck is a simple liveness probe (always returns 200 if server is running)
func (h *Handlers) LivenessCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	// For HEAD requests, only send headers (no body)
	if r.Method != http.MethodHead {
		writeJSON(w, map[string]string{"status": "alive"})
	}
}

// ReadinessCheck returns 200 only when previews can be produced
func (h *Handlers) ReadinessCheck(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if ready, _ := h.ready(); ready {
		w.WriteHeader(http.StatusOK)
		writeJSON(w, map[string]string{"status": "ready"})
		return
	}
	w.WriteHeader(http.StatusServiceUnavailable)
	writeJSON(w, map[string]string{"status": "not_ready"})
}
