package service

import (
	"errors"
	"fmt"

	"shopfloor/internal/storage"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrValidation      = errors.New("validation error")
	ErrInvalidAction   = errors.New("invalid action")
	ErrAlreadyResolved = errors.New("breakdown already resolved")
	ErrOrphanedChild   = errors.New("orphaned child")
	ErrStore           = errors.New("store error")

	ErrMachineNotFound = fmt.Errorf("machine %w", ErrNotFound)
)

// StepError описывает упавший шаг многошаговой операции.
// Предыдущие шаги уже закоммичены и не откатываются.
type StepError struct {
	Op     string
	Step   string
	Entity string
	ID     int64
	Kind   error
	Err    error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s: step %q failed (%s id=%d): %v", e.Op, e.Step, e.Entity, e.ID, e.Err)
}

func (e *StepError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

// Step оборачивает ошибку хранилища в StepError, классифицируя её как NotFound или StoreError.
func Step(op, step, entity string, id int64, err error) error {
	return &StepError{
		Op:     op,
		Step:   step,
		Entity: entity,
		ID:     id,
		Kind:   Classify(err),
		Err:    err,
	}
}

// Classify сводит ошибку хранилища к таксономии движка.
func Classify(err error) error {
	switch {
	case errors.Is(err, storage.ErrNotFound), errors.Is(err, ErrNotFound):
		return ErrNotFound
	case errors.Is(err, ErrValidation):
		return ErrValidation
	default:
		return ErrStore
	}
}

func Validation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
