package respond

import (
	"errors"
	"log/slog"
	"net/http"

	"shopfloor/internal/service"
	"shopfloor/internal/storage"
)

// Status сопоставляет ошибку движка HTTP-коду.
// Для OrphanedChild хендлер отдаёт 200 с предупреждением.
func Status(err error) int {
	switch {
	case errors.Is(err, service.ErrAlreadyResolved):
		return http.StatusConflict
	case errors.Is(err, service.ErrInvalidAction), errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrOrphanedChild):
		// причина сироты тоже NotFound, поэтому проверяем раньше
		return http.StatusOK
	case errors.Is(err, service.ErrNotFound), errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Error пишет ответ об ошибке. Для 5xx детали уходят только в лог.
func Error(log *slog.Logger, w http.ResponseWriter, op string, err error) {
	code := Status(err)

	if code >= http.StatusInternalServerError {
		log.Error("request failed", slog.String("op", op), slog.String("error", err.Error()))
		http.Error(w, "Internal error", code)
		return
	}

	log.Warn("request rejected", slog.String("op", op), slog.Int("status", code), slog.String("error", err.Error()))
	http.Error(w, err.Error(), code)
}

// Warning: тело ответа для частично выполненной операции.
type Warning struct {
	Result  any    `json:"result"`
	Warning string `json:"warning"`
}
