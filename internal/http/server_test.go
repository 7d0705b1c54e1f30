package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/coachd/internal/planner"
)

type fakePlanner struct {
	result planner.Result
	gotReq planner.Request
}

func (f *fakePlanner) Run(_ context.Context, req planner.Request) planner.Result {
	f.gotReq = req
	return f.result
}

type fakeCatalog struct{ count int }

func (f *fakeCatalog) Count() int { return f.count }

func planResult() planner.Result {
	return planner.Result{
		RequestID: "req-1",
		FinalPlan: &planner.FinalPlan{
			Goal:        "hypertrophy",
			DaysPerWeek: 3,
			Days: []planner.FinalDay{
				{Day: "Monday", TrainingDay: "mon"},
			},
		},
	}
}

func setupTestServer(t *testing.T, p Planner, catalog Catalog) *Server {
	t.Helper()
	server, err := NewServer(p, catalog, zap.NewNop(), nil)
	require.NoError(t, err)
	return server
}

func TestNewServer(t *testing.T) {
	t.Run("creates server with valid config", func(t *testing.T) {
		cfg := &Config{Host: "localhost", Port: 9090}
		server, err := NewServer(&fakePlanner{}, nil, zap.NewNop(), cfg)
		require.NoError(t, err)
		assert.NotNil(t, server)
		assert.NotNil(t, server.echo)
		assert.Equal(t, cfg, server.config)
	})

	t.Run("uses defaults when config is nil", func(t *testing.T) {
		server, err := NewServer(&fakePlanner{}, nil, zap.NewNop(), nil)
		require.NoError(t, err)
		assert.Equal(t, "localhost", server.config.Host)
		assert.Equal(t, 8080, server.config.Port)
	})

	t.Run("returns error when logger is nil", func(t *testing.T) {
		_, err := NewServer(&fakePlanner{}, nil, nil, nil)
		assert.ErrorContains(t, err, "logger is required")
	})

	t.Run("returns error when planner is nil", func(t *testing.T) {
		_, err := NewServer(nil, nil, zap.NewNop(), nil)
		assert.ErrorContains(t, err, "planner cannot be nil")
	})
}

func TestHandleHealth(t *testing.T) {
	server := setupTestServer(t, &fakePlanner{}, &fakeCatalog{count: 42})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	server.echo.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 42, resp.Exercises)
}

func TestHandleHealthWithoutCatalog(t *testing.T) {
	server := setupTestServer(t, &fakePlanner{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	server.echo.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, -1, resp.Exercises)
}

func TestHandleCreatePlan(t *testing.T) {
	t.Run("returns plan on success", func(t *testing.T) {
		fake := &fakePlanner{result: planResult()}
		server := setupTestServer(t, fake, nil)

		body, err := json.Marshal(planner.Request{
			GoalText:       "build muscle",
			DaysPerWeek:    3,
			SessionMinutes: 60,
		})
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodPost, "/v1/plans", bytes.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		server.echo.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "build muscle", fake.gotReq.GoalText)
		assert.Equal(t, 3, fake.gotReq.DaysPerWeek)

		var resp planner.Result
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.NotNil(t, resp.FinalPlan)
		assert.Equal(t, "hypertrophy", resp.FinalPlan.Goal)
	})

	t.Run("returns 422 when no plan was produced", func(t *testing.T) {
		fake := &fakePlanner{result: planner.Result{
			RequestID: "req-2",
			Error:     "profile normalization failed: days_per_week is required",
		}}
		server := setupTestServer(t, fake, nil)

		req := httptest.NewRequest(http.MethodPost, "/v1/plans", strings.NewReader(`{"goal_text":"x"}`))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		server.echo.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

		var resp planner.Result
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Contains(t, resp.Error, "days_per_week")
	})

	t.Run("returns 400 on malformed body", func(t *testing.T) {
		server := setupTestServer(t, &fakePlanner{}, nil)

		req := httptest.NewRequest(http.MethodPost, "/v1/plans", strings.NewReader("{not json"))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		server.echo.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestMetricsEndpoint(t *testing.T) {
	server := setupTestServer(t, &fakePlanner{}, nil)

	// Counter children only exist after a request has been recorded.
	warm := httptest.NewRequest(http.MethodGet, "/health", nil)
	server.echo.ServeHTTP(httptest.NewRecorder(), warm)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	server.echo.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "coachd_http_requests_total")
}
