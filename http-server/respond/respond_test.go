package respond

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"shopfloor/internal/service"
	"shopfloor/internal/storage"
)

func TestStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", fmt.Errorf("x: %w", service.ErrMachineNotFound), http.StatusNotFound},
		{"storage not found", service.Step("op", "load task", "task", 1, storage.ErrNotFound), http.StatusNotFound},
		{"validation", service.Validation("bad"), http.StatusBadRequest},
		{"invalid action", service.ErrInvalidAction, http.StatusBadRequest},
		{"already resolved", service.ErrAlreadyResolved, http.StatusConflict},
		{"orphaned", &service.StepError{Kind: service.ErrOrphanedChild, Err: storage.ErrNotFound}, http.StatusOK},
		{"store", service.Step("op", "update", "mo", 1, errors.New("boom")), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Status(tt.err))
		})
	}
}

func TestError_HidesInternalDetails(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	rr := httptest.NewRecorder()
	Error(log, rr, "op", service.Step("op", "update", "mo", 1, errors.New("dial tcp 10.0.0.5:3306")))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.NotContains(t, rr.Body.String(), "10.0.0.5")

	rr = httptest.NewRecorder()
	Error(log, rr, "op", service.Validation("progress 120 is outside [0, 100]"))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "outside [0, 100]")
}
