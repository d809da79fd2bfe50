package get

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"shopfloor/internal/middleware/auth"
	"shopfloor/internal/service"
	"shopfloor/internal/service/timeline"
)

type MockTimeline struct {
	mock.Mock
}

func (m *MockTimeline) Timeline(ctx context.Context, scope service.Scope, orderIDs []int64) ([]timeline.Entry, error) {
	args := m.Called(ctx, scope, orderIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]timeline.Entry), args.Error(1)
}

func serve(src TimelineGetter, target string) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.Use(auth.Scope)
	r.Get("/api/timeline", GetTimeline(slog.Default(), src))

	req := httptest.NewRequest(http.MethodGet, target, nil)
	req.Header.Set(auth.HeaderTenant, "1")

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func TestGetTimeline(t *testing.T) {
	start := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	src := new(MockTimeline)
	src.On("Timeline", mock.Anything, service.Scope{TenantID: 1}, []int64{3, 4, 5}).Return([]timeline.Entry{
		{ID: "order-3", Level: timeline.LevelOrder, Start: start, End: start.Add(time.Hour), Ancestors: []string{}},
	}, nil)

	rr := serve(src, "/api/timeline?order_id=3,4&order_id=5")

	require.Equal(t, http.StatusOK, rr.Code)

	var entries []timeline.Entry
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "order-3", entries[0].ID)

	src.AssertExpectations(t)
}

func TestGetTimeline_AllActive(t *testing.T) {
	src := new(MockTimeline)
	src.On("Timeline", mock.Anything, mock.Anything, []int64(nil)).Return([]timeline.Entry{}, nil)

	rr := serve(src, "/api/timeline")

	assert.Equal(t, http.StatusOK, rr.Code)
	src.AssertExpectations(t)
}

func TestGetTimeline_BadOrderID(t *testing.T) {
	src := new(MockTimeline)

	rr := serve(src, "/api/timeline?order_id=3,abc")

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	src.AssertNotCalled(t, "Timeline")
}

func TestGetTimeline_StoreError(t *testing.T) {
	src := new(MockTimeline)
	src.On("Timeline", mock.Anything, mock.Anything, mock.Anything).Return(nil, service.ErrStore)

	rr := serve(src, "/api/timeline")

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Contains(t, rr.Body.String(), "Internal error")
}
