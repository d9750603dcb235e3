package api

import (
	"context"
	"net/http"
	"time"
)

// StoreChecker reports whether the object store is reachable.
type StoreChecker interface {
	HealthCheck(ctx context.Context) error
}

// ExtractorChecker reports whether the media extractor binary is usable.
type ExtractorChecker interface {
	Available() bool
}

type HealthResponse struct {
	Status        string            `json:"status"`
	Version       string            `json:"version"`
	UptimeSeconds int64             `json:"uptime_seconds"`
	Checks        map[string]string `json:"checks"`
}

type HealthHandler struct {
	store     StoreChecker
	extractor ExtractorChecker
	version   string
	startTime time.Time
}

func NewHealthHandler(store StoreChecker, extractor ExtractorChecker, version string, startTime time.Time) *HealthHandler {
	return &HealthHandler{
		store:     store,
		extractor: extractor,
		version:   version,
		startTime: startTime,
	}
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	checks := make(map[string]string)
	status := "healthy"
	httpStatus := http.StatusOK

	if h.store != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		if err := h.store.HealthCheck(ctx); err != nil {
			checks["store"] = "error"
			status = "unhealthy"
			httpStatus = http.StatusServiceUnavailable
		} else {
			checks["store"] = "ok"
		}
		cancel()
	} else {
		checks["store"] = "not_configured"
	}

	// A missing extractor only degrades URL acquisition; the other
	// strategies still work.
	if h.extractor != nil {
		if h.extractor.Available() {
			checks["extractor"] = "ok"
		} else {
			checks["extractor"] = "missing"
			if status == "healthy" {
				status = "degraded"
			}
		}
	} else {
		checks["extractor"] = "not_configured"
	}

	WriteJSON(w, httpStatus, HealthResponse{
		Status:        status,
		Version:       h.version,
		UptimeSeconds: int64(time.Since(h.startTime).Seconds()),
		Checks:        checks,
	})
}
