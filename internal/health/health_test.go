// SPDX-License-Identifier: MIT

package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imgcapt/imgcapt/internal/ollama"
)

type stubChecker struct {
	name   string
	result CheckResult
}

func (c stubChecker) Name() string                      { return c.name }
func (c stubChecker) Check(context.Context) CheckResult { return c.result }

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

func TestHealthAlwaysAlive(t *testing.T) {
	m := NewManager("1.0.0")
	m.RegisterChecker(stubChecker{name: "model", result: CheckResult{Status: StatusUnhealthy}})

	resp := m.Health(context.Background(), false)
	assert.Equal(t, StatusHealthy, resp.Status)
	assert.Equal(t, "1.0.0", resp.Version)

	verbose := m.Health(context.Background(), true)
	assert.Equal(t, StatusUnhealthy, verbose.Status)
	assert.Contains(t, verbose.Checks, "model")
}

func TestReadyAggregation(t *testing.T) {
	m := NewManager("dev")
	m.RegisterChecker(stubChecker{name: "workspace", result: CheckResult{Status: StatusHealthy}})
	m.RegisterChecker(stubChecker{name: "model", result: CheckResult{Status: StatusDegraded}})

	resp := m.Ready(context.Background())
	assert.True(t, resp.Ready)
	assert.Equal(t, StatusDegraded, resp.Status)

	m.RegisterChecker(stubChecker{name: "disk", result: CheckResult{Status: StatusUnhealthy}})
	resp = m.Ready(context.Background())
	assert.False(t, resp.Ready)
	assert.Equal(t, StatusUnhealthy, resp.Status)
}

func TestServeReadyStatusCodes(t *testing.T) {
	m := NewManager("dev")
	m.RegisterChecker(stubChecker{name: "workspace", result: CheckResult{Status: StatusHealthy}})

	rec := httptest.NewRecorder()
	m.ServeReady(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	m.RegisterChecker(stubChecker{name: "disk", result: CheckResult{Status: StatusUnhealthy}})
	rec = httptest.NewRecorder()
	m.ServeReady(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body ReadinessResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body.Ready)
}

func TestDirChecker(t *testing.T) {
	dir := t.TempDir()
	assert.Equal(t, StatusHealthy, NewDirChecker("workspace", dir).Check(context.Background()).Status)

	missing := filepath.Join(dir, "absent")
	assert.Equal(t, StatusUnhealthy, NewDirChecker("workspace", missing).Check(context.Background()).Status)

	file := filepath.Join(dir, "plain")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o640))
	assert.Equal(t, StatusUnhealthy, NewDirChecker("workspace", file).Check(context.Background()).Status)
}

func TestModelChecker(t *testing.T) {
	ok := NewModelChecker("model", stubPinger{}).Check(context.Background())
	assert.Equal(t, StatusHealthy, ok.Status)

	down := NewModelChecker("model", stubPinger{err: ollama.ErrUnavailable}).Check(context.Background())
	assert.Equal(t, StatusDegraded, down.Status)

	odd := NewModelChecker("model", stubPinger{err: errors.New("bad handshake")}).Check(context.Background())
	assert.Equal(t, StatusDegraded, odd.Status)
	assert.Equal(t, "bad handshake", odd.Error)
}
