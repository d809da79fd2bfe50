package list

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"shopfloor/internal/middleware/auth"
	"shopfloor/internal/service"
	"shopfloor/internal/storage"
)

type MockOpenBreakdowns struct {
	mock.Mock
}

func (m *MockOpenBreakdowns) OpenForMachine(ctx context.Context, scope service.Scope, machineID int64) ([]*storage.Breakdown, error) {
	args := m.Called(ctx, scope, machineID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*storage.Breakdown), args.Error(1)
}

func get(src OpenBreakdowns, path string) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.Use(auth.Scope)
	r.Get("/api/machines/{id}/breakdowns", GetOpenBreakdowns(slog.Default(), src))

	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set(auth.HeaderTenant, "2")

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func TestGetOpenBreakdowns_EmptyIsArray(t *testing.T) {
	src := new(MockOpenBreakdowns)
	src.On("OpenForMachine", mock.Anything, service.Scope{TenantID: 2}, int64(4)).Return(nil, nil)

	rr := get(src, "/api/machines/4/breakdowns")

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "[]", strings.TrimSpace(rr.Body.String()))
}

func TestGetOpenBreakdowns_UnknownMachine(t *testing.T) {
	src := new(MockOpenBreakdowns)
	src.On("OpenForMachine", mock.Anything, mock.Anything, int64(4)).Return(nil, service.ErrMachineNotFound)

	rr := get(src, "/api/machines/4/breakdowns")

	assert.Equal(t, http.StatusNotFound, rr.Code)
}
