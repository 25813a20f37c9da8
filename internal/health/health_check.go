// Package health exposes liveness and readiness probes for the
// coordinator process, grounded on the teacher's HealthChecker.
package health

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// LockHolder reports whether this process currently holds the leader
// lock, used by the readiness probe (spec.md 5: exactly one coordinator
// process is active).
type LockHolder interface {
	IsLeader() bool
}

// HealthChecker provides health check endpoints for the coordinator.
type HealthChecker struct {
	lock LockHolder
	log  *zap.Logger
}

// HealthStatus represents the health check response body.
type HealthStatus struct {
	Status    string            `json:"status"`
	Timestamp int64             `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// NewHealthChecker constructs a HealthChecker over lock, which may be nil
// during startup before leader election has run.
func NewHealthChecker(lock LockHolder, log *zap.Logger) *HealthChecker {
	return &HealthChecker{lock: lock, log: log}
}

// LivenessHandler always reports alive once the process is serving HTTP;
// it does not depend on leadership.
func (h *HealthChecker) LivenessHandler(w http.ResponseWriter, r *http.Request) {
	status := HealthStatus{Status: "alive", Timestamp: time.Now().Unix()}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(status)
}

// ReadinessHandler reports ready only while this process holds the leader
// lock (spec.md 5, 7: a coordinator without the lock must not dispatch).
func (h *HealthChecker) ReadinessHandler(w http.ResponseWriter, r *http.Request) {
	checks := make(map[string]string)
	leader := h.lock != nil && h.lock.IsLeader()
	if leader {
		checks["leader_lock"] = "held"
	} else {
		checks["leader_lock"] = "not_held"
	}

	status := HealthStatus{Timestamp: time.Now().Unix(), Checks: checks}
	w.Header().Set("Content-Type", "application/json")

	if leader {
		status.Status = "ready"
		w.WriteHeader(http.StatusOK)
	} else {
		status.Status = "not_ready"
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	json.NewEncoder(w).Encode(status)
}

// StartHealthServer starts the health check HTTP server.
func StartHealthServer(hc *HealthChecker, port int, log *zap.Logger) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/health/live", hc.LivenessHandler)
	mux.HandleFunc("/health/ready", hc.ReadinessHandler)

	addr := fmt.Sprintf(":%d", port)
	log.Info("starting health check server", zap.String("address", addr))

	server := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	return server.ListenAndServe()
}
