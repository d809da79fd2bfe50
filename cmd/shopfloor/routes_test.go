package main

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopfloor/internal/app"
	"shopfloor/internal/config"
	"shopfloor/internal/middleware/auth"
	"shopfloor/internal/storage"
	"shopfloor/internal/storage/memory"
)

type testServer struct {
	handler   http.Handler
	store     *memory.Storage
	taskID    int64
	machineID int64
	orderID   int64
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	st := memory.New()

	start := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	end := start.Add(72 * time.Hour)
	hours := 2.0

	s := &testServer{store: st}
	s.orderID = st.AddOrder(storage.Order{TenantID: 1, Number: "З-10", Status: storage.OrderInProduction, PlannedStartDate: &start, PlannedEndDate: &end})
	moID := st.AddMO(storage.ManufacturingOrder{TenantID: 1, OrderID: s.orderID, Number: "MO-1"})
	jsID := st.AddJobsheet(storage.Jobsheet{TenantID: 1, MOID: moID, Number: "JS-1", PlannedStartDate: &start, PlannedEndDate: &end})
	s.machineID = st.AddMachine(storage.Machine{TenantID: 1, Name: "Станок", Status: storage.MachineIdle, IsActive: true})
	s.taskID = st.AddTask(storage.Task{TenantID: 1, JobsheetID: jsID, Name: "резка", Status: storage.TaskAssigned, PlannedHours: &hours, MachineID: &s.machineID})

	cfg := config.Config{
		AdminLogin: "admin",
		AdminPass:  "secret",
		HTTPServer: config.HTTPServer{RequestTimeout: 5 * time.Second, AllowedOrigins: []string{"http://localhost:5173"}},
	}

	s.handler = routes(cfg, log, app.Wire(log, st, nil))
	return s
}

func (s *testServer) do(method, path, body string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(auth.HeaderTenant, "1")
	req.Header.Set(auth.HeaderUser, "4")

	rr := httptest.NewRecorder()
	s.handler.ServeHTTP(rr, req)
	return rr
}

func TestRoutes_ShiftScenario(t *testing.T) {
	s := newTestServer(t)
	task := "/api/tasks/" + strconv.FormatInt(s.taskID, 10)

	rr := s.do(http.MethodPost, task+"/clock_in", "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = s.do(http.MethodPut, task+"/progress", `{"progress_percent": 50}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var res struct {
		Order storage.Order `json:"order"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &res))
	assert.Equal(t, 50, res.Order.ProgressPercent)

	rr = s.do(http.MethodPost, "/api/breakdowns",
		`{"machine_id": `+strconv.FormatInt(s.machineID, 10)+`, "type": "MECHANICAL", "description": "jam", "affected_task_id": `+strconv.FormatInt(s.taskID, 10)+`}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var b storage.Breakdown
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &b))

	machine := "/api/machines/" + strconv.FormatInt(s.machineID, 10) + "/breakdowns"
	rr = s.do(http.MethodGet, machine, "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"description":"jam"`)

	resolve := "/api/breakdowns/" + strconv.FormatInt(b.ID, 10) + "/resolve"
	rr = s.do(http.MethodPost, resolve, "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = s.do(http.MethodPost, resolve, "")
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = s.do(http.MethodPost, task+"/complete", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = s.do(http.MethodGet, "/api/timeline", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"id":"task-`+strconv.FormatInt(s.taskID, 10)+`"`)

	rr = s.do(http.MethodGet, "/api/timeline/excel?order_id="+strconv.FormatInt(s.orderID, 10), "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.NotZero(t, rr.Body.Len())

	rr = s.do(http.MethodGet, "/api/machines", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"status":"IDLE"`)

	rr = s.do(http.MethodGet, "/api/orders/"+strconv.FormatInt(s.orderID, 10), "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"progress_percent":50`)

	rr = s.do(http.MethodGet, "/api/orders/999", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestRoutes_AdminRecomputeNeedsBasicAuth(t *testing.T) {
	s := newTestServer(t)
	path := "/api/admin/recompute/order/" + strconv.FormatInt(s.orderID, 10)

	rr := s.do(http.MethodPost, path, "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	req := httptest.NewRequest(http.MethodPost, path, nil)
	req.Header.Set(auth.HeaderTenant, "1")
	req.SetBasicAuth("admin", "secret")
	rr = httptest.NewRecorder()
	s.handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
}

func TestRoutes_RequireTenant(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/timeline", nil)
	rr := httptest.NewRecorder()
	s.handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rr = httptest.NewRecorder()
	s.handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
}
