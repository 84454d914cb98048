// SPDX-License-Identifier: MIT

// Package health provides liveness and readiness probes for container
// deployments, with per-component status for the workspace and the
// captioning model service.
package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/imgcapt/imgcapt/internal/log"
	"github.com/imgcapt/imgcapt/internal/ollama"
)

// Status represents the overall health/readiness status.
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

// CheckResult is the outcome of one component check.
type CheckResult struct {
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// HealthResponse is the liveness probe body.
type HealthResponse struct {
	Status    Status                 `json:"status"`
	Version   string                 `json:"version,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]CheckResult `json:"checks,omitempty"`
}

// ReadinessResponse is the readiness probe body.
type ReadinessResponse struct {
	Ready     bool                   `json:"ready"`
	Status    Status                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]CheckResult `json:"checks,omitempty"`
}

// Checker is one component health check.
type Checker interface {
	Name() string
	Check(ctx context.Context) CheckResult
}

// Manager aggregates component checks into probe responses.
type Manager struct {
	version  string
	checkers []Checker
}

// NewManager creates an empty health check manager.
func NewManager(version string) *Manager {
	return &Manager{version: version}
}

// RegisterChecker adds a component check.
func (m *Manager) RegisterChecker(checker Checker) {
	m.checkers = append(m.checkers, checker)
}

// Health is the liveness probe: the process is alive, so the status is
// healthy unless verbose component checks say otherwise.
func (m *Manager) Health(ctx context.Context, verbose bool) HealthResponse {
	resp := HealthResponse{
		Status:    StatusHealthy,
		Version:   m.version,
		Timestamp: time.Now(),
	}
	if verbose && len(m.checkers) > 0 {
		resp.Checks, resp.Status = m.runChecks(ctx)
	}
	return resp
}

// Ready is the readiness probe. Degraded components keep the service ready;
// only an unhealthy component flips Ready to false.
func (m *Manager) Ready(ctx context.Context) ReadinessResponse {
	resp := ReadinessResponse{
		Ready:     true,
		Status:    StatusHealthy,
		Timestamp: time.Now(),
	}
	if len(m.checkers) == 0 {
		return resp
	}
	resp.Checks, resp.Status = m.runChecks(ctx)
	if resp.Status == StatusUnhealthy {
		resp.Ready = false
	}
	return resp
}

func (m *Manager) runChecks(ctx context.Context) (map[string]CheckResult, Status) {
	checks := make(map[string]CheckResult, len(m.checkers))
	status := StatusHealthy
	for _, checker := range m.checkers {
		result := checker.Check(ctx)
		checks[checker.Name()] = result
		switch result.Status {
		case StatusUnhealthy:
			status = StatusUnhealthy
		case StatusDegraded:
			if status == StatusHealthy {
				status = StatusDegraded
			}
		}
	}
	return checks, status
}

// ServeReady handles HTTP readiness requests. 503 when not ready.
func (m *Manager) ServeReady(w http.ResponseWriter, r *http.Request) {
	logger := log.WithComponentFromContext(r.Context(), "readiness")

	resp := m.Ready(r.Context())

	w.Header().Set("Content-Type", "application/json")
	if resp.Ready {
		w.WriteHeader(http.StatusOK)
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logger.Error().Err(err).Str("event", "readiness.encode_error").Msg("failed to encode readiness response")
	}

	logger.Debug().
		Str("event", "readiness.checked").
		Str("status", string(resp.Status)).
		Bool("ready", resp.Ready).
		Msg("readiness check performed")
}

// DirChecker verifies a directory exists and is writable.
type DirChecker struct {
	name string
	path string
}

// NewDirChecker creates a checker for a writable directory.
func NewDirChecker(name, path string) *DirChecker {
	return &DirChecker{name: name, path: path}
}

func (c *DirChecker) Name() string { return c.name }

func (c *DirChecker) Check(context.Context) CheckResult {
	info, err := os.Stat(c.path)
	if err != nil {
		return CheckResult{Status: StatusUnhealthy, Error: err.Error(), Message: c.path}
	}
	if !info.IsDir() {
		return CheckResult{Status: StatusUnhealthy, Error: "not a directory", Message: c.path}
	}
	probe := filepath.Join(c.path, ".write_test")
	if err := os.WriteFile(probe, []byte("ok"), 0o600); err != nil {
		return CheckResult{Status: StatusUnhealthy, Error: "not writable", Message: c.path}
	}
	_ = os.Remove(probe)
	return CheckResult{Status: StatusHealthy, Message: "writable"}
}

// Pinger probes the captioning model service.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ModelChecker reports the captioning service state. An unreachable model
// only degrades the service: the workspace API keeps working without it.
type ModelChecker struct {
	name   string
	pinger Pinger
}

// NewModelChecker creates a checker for the model service.
func NewModelChecker(name string, pinger Pinger) *ModelChecker {
	return &ModelChecker{name: name, pinger: pinger}
}

func (c *ModelChecker) Name() string { return c.name }

func (c *ModelChecker) Check(ctx context.Context) CheckResult {
	if err := c.pinger.Ping(ctx); err != nil {
		if errors.Is(err, ollama.ErrUnavailable) {
			return CheckResult{Status: StatusDegraded, Message: "captioning model unreachable"}
		}
		return CheckResult{Status: StatusDegraded, Error: err.Error()}
	}
	return CheckResult{Status: StatusHealthy, Message: "model service reachable"}
}
